package attendance

import (
	"context"
	"time"
)

// PunchRepository defines data access for the gateway's punch rows.
// All methods include companyID to prevent cross-company data access.
type PunchRepository interface {
	// GetByEmployeeAndDate returns nil, nil when the employee has not punched on date.
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time, companyID string) (*Punch, error)

	Create(ctx context.Context, punch Punch) (Punch, error)

	// CloseSession sets the check-out fields of an open punch.
	CloseSession(ctx context.Context, punch Punch) error
}

// BreakRepository defines data access for the gateway's break windows.
type BreakRepository interface {
	// GetLatestByPunch returns nil, nil when no break was taken in the session.
	GetLatestByPunch(ctx context.Context, punchID string) (*Break, error)

	Create(ctx context.Context, brk Break) (Break, error)

	// End closes the open break window of the session.
	End(ctx context.Context, brk Break) error
}
