package attendance

import (
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/validator"
)

// ========================================
// GATEWAY ENVELOPE
// ========================================

// Envelope is the body of every gateway response. Flag 1 is success; any
// other value is a business failure described by Message.
type Envelope[T any] struct {
	Status  int    `json:"status"`
	Flag    int    `json:"flag"`
	Message string `json:"message,omitempty"`
	Data    []T    `json:"data"`
}

const (
	FlagFailure = 0
	FlagSuccess = 1
)

// Outcome reports whether the gateway accepted the request and its message.
func (e Envelope[T]) Outcome() (bool, string) {
	return e.Flag == FlagSuccess, e.Message
}

// ========================================
// STATUS DTOs
// ========================================

type PunchRecordDTO struct {
	Status  string `json:"status"`
	TimeIn  string `json:"time_in,omitempty"`
	TimeOut string `json:"time_out,omitempty"`
}

// ToRecord validates the DTO against the punch invariants.
func (d PunchRecordDTO) ToRecord() (PunchRecord, error) {
	var errs validator.ValidationErrors

	rec := PunchRecord{Status: PunchStatus(d.Status), TimeIn: d.TimeIn, TimeOut: d.TimeOut}
	switch rec.Status {
	case "", PunchStatusNone:
		return PunchRecord{Status: PunchStatusNone}, nil
	case PunchStatusIn:
		if d.TimeOut != "" {
			errs = append(errs, validator.ValidationError{
				Field:   "time_out",
				Message: "time_out must be empty while status is IN",
			})
		}
	case PunchStatusOut:
		if !validator.IsValidTimeOfDay(d.TimeOut) {
			errs = append(errs, validator.ValidationError{
				Field:   "time_out",
				Message: "time_out must be in HH:MM:SS format",
			})
		}
	default:
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of: NONE, IN, OUT",
		})
	}

	if rec.Status != PunchStatusNone && !validator.IsValidTimeOfDay(d.TimeIn) {
		errs = append(errs, validator.ValidationError{
			Field:   "time_in",
			Message: "time_in must be in HH:MM:SS format",
		})
	}

	if len(errs) > 0 {
		return PunchRecord{}, errs
	}
	return rec, nil
}

type BreakRecordDTO struct {
	Status     string `json:"status"`
	BreakStart string `json:"break_start,omitempty"`
	BreakEnd   string `json:"break_end,omitempty"`
}

// ToRecord validates the DTO against the break invariants.
func (d BreakRecordDTO) ToRecord() (BreakRecord, error) {
	var errs validator.ValidationErrors

	rec := BreakRecord{Status: BreakStatus(d.Status), BreakStart: d.BreakStart, BreakEnd: d.BreakEnd}
	switch rec.Status {
	case "", BreakStatusNone:
		return BreakRecord{Status: BreakStatusNone}, nil
	case BreakStatusStarted:
		if d.BreakEnd != "" {
			errs = append(errs, validator.ValidationError{
				Field:   "break_end",
				Message: "break_end must be empty while the break is running",
			})
		}
	case BreakStatusEnded:
		if !validator.IsValidTimeOfDay(d.BreakEnd) {
			errs = append(errs, validator.ValidationError{
				Field:   "break_end",
				Message: "break_end must be in HH:MM:SS format",
			})
		}
	default:
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of: NONE, BREAK_STARTED, BREAK_ENDED",
		})
	}

	if rec.Status != BreakStatusNone && !validator.IsValidTimeOfDay(d.BreakStart) {
		errs = append(errs, validator.ValidationError{
			Field:   "break_start",
			Message: "break_start must be in HH:MM:SS format",
		})
	}

	if len(errs) > 0 {
		return BreakRecord{}, errs
	}
	return rec, nil
}

func NewPunchRecordDTO(r PunchRecord) PunchRecordDTO {
	return PunchRecordDTO{Status: string(r.Status), TimeIn: r.TimeIn, TimeOut: r.TimeOut}
}

func NewBreakRecordDTO(r BreakRecord) BreakRecordDTO {
	return BreakRecordDTO{Status: string(r.Status), BreakStart: r.BreakStart, BreakEnd: r.BreakEnd}
}

// ========================================
// CREATE DTOs
// ========================================

type CreateAttendanceRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Time      string  `json:"time"` // HH:MM:SS
	Date      string  `json:"date"` // YYYY-MM-DD
	PunchType string  `json:"punch_type"`
	Location  string  `json:"location"`

	// Filled from the token, never from the body
	EmployeeID string `json:"-"`
	CompanyID  string `json:"-"`
}

func (r *CreateAttendanceRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Latitude < -90 || r.Latitude > 90 {
		errs = append(errs, validator.ValidationError{
			Field:   "latitude",
			Message: "latitude must be between -90 and 90",
		})
	}

	if r.Longitude < -180 || r.Longitude > 180 {
		errs = append(errs, validator.ValidationError{
			Field:   "longitude",
			Message: "longitude must be between -180 and 180",
		})
	}

	if !validator.IsValidTimeOfDay(r.Time) {
		errs = append(errs, validator.ValidationError{
			Field:   "time",
			Message: "time must be in HH:MM:SS format",
		})
	}

	if _, valid := validator.IsValidDate(r.Date); !valid {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}

	if !validator.IsInSlice(r.PunchType, []string{"IN", "OUT"}) {
		errs = append(errs, validator.ValidationError{
			Field:   "punch_type",
			Message: "punch_type must be one of: IN, OUT",
		})
	}

	if validator.IsEmpty(r.Location) {
		errs = append(errs, validator.ValidationError{
			Field:   "location",
			Message: "location is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type CreateBreakRequest struct {
	BreakDate      string  `json:"break_date"`
	BreakTime      string  `json:"break_time"`
	BreakLatitude  float64 `json:"break_latitude"`
	BreakLongitude float64 `json:"break_longitude"`
	PunchType      string  `json:"punch_type"`
	BreakLocation  string  `json:"break_location"`

	EmployeeID string `json:"-"`
	CompanyID  string `json:"-"`
}

func (r *CreateBreakRequest) Validate() error {
	var errs validator.ValidationErrors

	if _, valid := validator.IsValidDate(r.BreakDate); !valid {
		errs = append(errs, validator.ValidationError{
			Field:   "break_date",
			Message: "break_date must be in YYYY-MM-DD format",
		})
	}

	if !validator.IsValidTimeOfDay(r.BreakTime) {
		errs = append(errs, validator.ValidationError{
			Field:   "break_time",
			Message: "break_time must be in HH:MM:SS format",
		})
	}

	if r.BreakLatitude < -90 || r.BreakLatitude > 90 {
		errs = append(errs, validator.ValidationError{
			Field:   "break_latitude",
			Message: "break_latitude must be between -90 and 90",
		})
	}

	if r.BreakLongitude < -180 || r.BreakLongitude > 180 {
		errs = append(errs, validator.ValidationError{
			Field:   "break_longitude",
			Message: "break_longitude must be between -180 and 180",
		})
	}

	if !validator.IsInSlice(r.PunchType, []string{"START", "END"}) {
		errs = append(errs, validator.ValidationError{
			Field:   "punch_type",
			Message: "punch_type must be one of: START, END",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ActionResponse is the envelope body of a successful create call.
type ActionResponse struct {
	Message string `json:"message"`
}
