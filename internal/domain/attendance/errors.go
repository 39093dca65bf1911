package attendance

import (
	"errors"
	"fmt"
)

// Client-side taxonomy
var (
	ErrValidationFailed     = errors.New("action is not allowed in the current phase")
	ErrLocationUnavailable  = errors.New("device location is not available yet")
	ErrSubmissionInFlight   = errors.New("another attendance action is still being submitted")
	ErrNetwork              = errors.New("attendance gateway is unreachable")
	ErrServerRejected       = errors.New("attendance gateway rejected the request")
	ErrCrossMidnightSession = errors.New("attendance session spans midnight")
	ErrNotMounted           = errors.New("tracker has not completed its first reconciliation")
	ErrMalformedRecord      = errors.New("attendance record is incomplete")
)

// Gateway-side business rules
var (
	ErrAlreadyCheckedIn  = errors.New("you have already checked in today")
	ErrNotCheckedIn      = errors.New("you have not checked in yet")
	ErrAlreadyCheckedOut = errors.New("you have already checked out")
	ErrOnBreak           = errors.New("end your break before checking out")
	ErrBreakAlreadyOpen  = errors.New("a break is already in progress")
	ErrNoOpenBreak       = errors.New("no break is in progress")
	ErrBreakAlreadyTaken = errors.New("the break for today has already been taken")
	ErrTimeBeforeStart   = errors.New("time is earlier than the start of the session")
	ErrUnknownPunchType  = errors.New("unknown punch type")
	ErrUnauthorized      = errors.New("unauthorized to access this attendance record")
)

// FetchError means the gateway could not be reached, timed out or answered
// with a non-2xx status.
type FetchError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		if e.Err != nil {
			return fmt.Sprintf("%s: unexpected status %d: %v", e.Op, e.StatusCode, e.Err)
		}
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrNetwork}
	}
	return []error{ErrNetwork, e.Err}
}

// BusinessRejection is a 2xx answer whose flag is not 1.
type BusinessRejection struct {
	Op      string
	Message string
}

func (e *BusinessRejection) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: rejected by server", e.Op)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *BusinessRejection) Unwrap() error {
	return ErrServerRejected
}

// GeolocationError means the device denied or failed to provide a position.
type GeolocationError struct {
	Err error
}

func (e *GeolocationError) Error() string {
	return fmt.Sprintf("geolocation failed: %v", e.Err)
}

func (e *GeolocationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrLocationUnavailable}
	}
	return []error{ErrLocationUnavailable, e.Err}
}
