package response

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/attendance"
)

// Response is the envelope every endpoint answers with. Data is always an
// array; Flag 1 means the request was accepted.
type Response struct {
	Status  int               `json:"status"`
	Flag    int               `json:"flag"`
	Message string            `json:"message,omitempty"`
	Data    interface{}       `json:"data"`
	Errors  map[string]string `json:"errors,omitempty"`
}

var emptyData = []struct{}{}

func writeJSON(w http.ResponseWriter, statusCode int, payload Response) {
	if payload.Data == nil {
		payload.Data = emptyData
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		fallback := Response{
			Status:  http.StatusInternalServerError,
			Flag:    attendance.FlagFailure,
			Message: "Failed to encode response",
			Data:    emptyData,
		}
		_ = json.NewEncoder(w).Encode(fallback)
	}
}

// Success responses
func Success(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, Response{
		Status: http.StatusOK,
		Flag:   attendance.FlagSuccess,
		Data:   data,
	})
}

func SuccessWithMessage(w http.ResponseWriter, message string, data interface{}) {
	writeJSON(w, http.StatusOK, Response{
		Status:  http.StatusOK,
		Flag:    attendance.FlagSuccess,
		Message: message,
		Data:    data,
	})
}

// Rejected answers a well-formed request that a business rule refused.
func Rejected(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, Response{
		Status:  http.StatusOK,
		Flag:    attendance.FlagFailure,
		Message: message,
	})
}

// Error responses
func BadRequest(w http.ResponseWriter, message string, details map[string]string) {
	writeJSON(w, http.StatusBadRequest, Response{
		Status:  http.StatusBadRequest,
		Flag:    attendance.FlagFailure,
		Message: message,
		Errors:  details,
	})
}

func ValidationError(w http.ResponseWriter, details map[string]string) {
	writeJSON(w, http.StatusUnprocessableEntity, Response{
		Status:  http.StatusUnprocessableEntity,
		Flag:    attendance.FlagFailure,
		Message: "Validation failed",
		Errors:  details,
	})
}

func Unauthorized(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnauthorized, Response{
		Status:  http.StatusUnauthorized,
		Flag:    attendance.FlagFailure,
		Message: message,
	})
}

func NotFound(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusNotFound, Response{
		Status:  http.StatusNotFound,
		Flag:    attendance.FlagFailure,
		Message: message,
	})
}

func InternalServerError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusInternalServerError, Response{
		Status:  http.StatusInternalServerError,
		Flag:    attendance.FlagFailure,
		Message: message,
	})
}
