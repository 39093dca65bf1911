package attendance

import (
	"context"
)

// Gateway is the remote attendance API as seen by the portal. Every method
// returns a *FetchError or a *BusinessRejection on failure. An empty data set
// is reported as status NONE, not as an error.
type Gateway interface {
	FetchPunch(ctx context.Context, session Session) (PunchRecord, error)
	FetchBreak(ctx context.Context, session Session) (BreakRecord, error)
	PostAttendance(ctx context.Context, session Session, req CreateAttendanceRequest) (ActionResponse, error)
	PostBreak(ctx context.Context, session Session, req CreateBreakRequest) (ActionResponse, error)
}

// LocationProvider yields the device position, consumed once per mount.
type LocationProvider interface {
	Locate(ctx context.Context) (Coordinates, error)
}

// LocationNamer turns coordinates into a display name. Implementations never
// fail; they return a sentinel name instead.
type LocationNamer interface {
	ResolveLocationName(ctx context.Context, lat, lon float64) string
}
