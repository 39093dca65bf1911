package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth errors
	case errors.Is(err, attendance.ErrUnauthorized),
		errors.Is(err, jwt.ErrInvalidToken),
		errors.Is(err, jwt.ErrNotAccessToken):
		Unauthorized(w, err.Error())

	// Attendance business rules answer 200 with flag 0
	case errors.Is(err, attendance.ErrAlreadyCheckedIn),
		errors.Is(err, attendance.ErrNotCheckedIn),
		errors.Is(err, attendance.ErrAlreadyCheckedOut),
		errors.Is(err, attendance.ErrOnBreak),
		errors.Is(err, attendance.ErrBreakAlreadyOpen),
		errors.Is(err, attendance.ErrNoOpenBreak),
		errors.Is(err, attendance.ErrBreakAlreadyTaken),
		errors.Is(err, attendance.ErrTimeBeforeStart),
		errors.Is(err, attendance.ErrUnknownPunchType):
		Rejected(w, err.Error())

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
