package attendance

import (
	"time"
)

type PunchStatus string

const (
	PunchStatusNone PunchStatus = "NONE"
	PunchStatusIn   PunchStatus = "IN"
	PunchStatusOut  PunchStatus = "OUT"
)

type BreakStatus string

const (
	BreakStatusNone    BreakStatus = "NONE"
	BreakStatusStarted BreakStatus = "BREAK_STARTED"
	BreakStatusEnded   BreakStatus = "BREAK_ENDED"
)

// PunchRecord is the server's view of today's check-in/check-out.
// TimeOut is only set when Status is OUT.
type PunchRecord struct {
	Status  PunchStatus
	TimeIn  string // HH:MM:SS, no date component
	TimeOut string
}

// BreakRecord is the server's view of the latest break window of today.
// BreakEnd is only set when Status is BREAK_ENDED.
type BreakRecord struct {
	Status     BreakStatus
	BreakStart string
	BreakEnd   string
}

type Phase string

const (
	PhaseNotStarted Phase = "NOT_STARTED"
	PhaseWorking    Phase = "WORKING"
	PhaseOnBreak    Phase = "ON_BREAK"
	PhaseDone       Phase = "DONE"
)

// DayState is derived from the fetched records and never persisted.
// At most one of WorkedSeconds and BreakSeconds is live at any instant.
type DayState struct {
	Phase         Phase
	WorkedSeconds int64
	BreakSeconds  int64
}

type Action string

const (
	ActionCheckIn    Action = "check-in"
	ActionCheckOut   Action = "check-out"
	ActionBreakStart Action = "break-start"
	ActionBreakEnd   Action = "break-end"
)

// legalActions is the action table per phase. DONE is terminal for the day.
var legalActions = map[Phase][]Action{
	PhaseNotStarted: {ActionCheckIn},
	PhaseWorking:    {ActionBreakStart, ActionCheckOut},
	PhaseOnBreak:    {ActionBreakEnd},
	PhaseDone:       {},
}

// LegalActions returns the actions allowed in phase p.
func LegalActions(p Phase) []Action {
	actions := legalActions[p]
	out := make([]Action, len(actions))
	copy(out, actions)
	return out
}

// IsLegal reports whether a may be submitted while in phase p.
func (a Action) IsLegal(p Phase) bool {
	for _, allowed := range legalActions[p] {
		if allowed == a {
			return true
		}
	}
	return false
}

// NeedsLocation reports whether the action must carry a resolved location.
func (a Action) NeedsLocation() bool {
	return a == ActionCheckIn || a == ActionCheckOut
}

// IsBreak reports whether the action targets the break endpoint.
func (a Action) IsBreak() bool {
	return a == ActionBreakStart || a == ActionBreakEnd
}

// PunchType returns the server-facing tag posted with the action.
func (a Action) PunchType() string {
	switch a {
	case ActionCheckIn:
		return "IN"
	case ActionCheckOut:
		return "OUT"
	case ActionBreakStart:
		return "START"
	case ActionBreakEnd:
		return "END"
	}
	return ""
}

// ParseAction maps user input (check-in, in, break, ...) to an Action.
func ParseAction(s string) (Action, bool) {
	switch s {
	case "check-in", "checkin", "in":
		return ActionCheckIn, true
	case "check-out", "checkout", "out":
		return ActionCheckOut, true
	case "break-start", "break":
		return ActionBreakStart, true
	case "break-end", "resume":
		return ActionBreakEnd, true
	}
	return "", false
}

// Coordinates is a device position.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Location is a resolved device position with its human-readable name.
type Location struct {
	Coordinates
	Name string
}

// Resolved reports whether the location can be attached to a punch.
func (l Location) Resolved() bool {
	return l.Name != ""
}

// Session is the immutable authenticated context threaded into the tracker
// and gateway calls.
type Session struct {
	Token      string
	UserID     string
	EmployeeID string
	CompanyID  string
	Email      string
	ExpiresAt  time.Time
}

// PunchEvent is what the action controller posts to the gateway.
type PunchEvent struct {
	Action   Action
	Location Location
	At       time.Time // client-observed wall-clock time
}

// Punch is the server-side stored attendance row for one employee and day.
type Punch struct {
	ID          string
	EmployeeID  string
	CompanyID   string
	Date        time.Time
	TimeIn      string
	TimeOut     *string
	InLat       float64
	InLon       float64
	InLocation  string
	OutLat      *float64
	OutLon      *float64
	OutLocation *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Break is the server-side stored break window.
type Break struct {
	ID            string
	PunchID       string
	EmployeeID    string
	Date          time.Time
	BreakStart    string
	BreakEnd      *string
	StartLat      float64
	StartLon      float64
	StartLocation string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Record converts the stored row into the wire-level punch record.
func (p Punch) Record() PunchRecord {
	if p.TimeOut != nil {
		return PunchRecord{Status: PunchStatusOut, TimeIn: p.TimeIn, TimeOut: *p.TimeOut}
	}
	return PunchRecord{Status: PunchStatusIn, TimeIn: p.TimeIn}
}

// Record converts the stored row into the wire-level break record.
func (b Break) Record() BreakRecord {
	if b.BreakEnd != nil {
		return BreakRecord{Status: BreakStatusEnded, BreakStart: b.BreakStart, BreakEnd: *b.BreakEnd}
	}
	return BreakRecord{Status: BreakStatusStarted, BreakStart: b.BreakStart}
}
