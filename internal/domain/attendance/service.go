package attendance

import (
	"context"
)

// AttendanceService defines the gateway-side business logic behind the four
// attendance endpoints. Employee and company are taken from the token claims
// in ctx.
type AttendanceService interface {
	// GetStatus returns today's punch record. A missing row is status NONE.
	GetStatus(ctx context.Context) (PunchRecord, error)

	// GetBreakStatus returns the latest break window of today's open session.
	GetBreakStatus(ctx context.Context) (BreakRecord, error)

	// CreateAttendance processes a check-in (IN) or check-out (OUT).
	CreateAttendance(ctx context.Context, req CreateAttendanceRequest) (ActionResponse, error)

	// CreateBreak opens (START) or closes (END) a break window.
	CreateBreak(ctx context.Context, req CreateBreakRequest) (ActionResponse, error)
}
