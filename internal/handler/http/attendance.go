package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-portal-go/internal/handler/http/response"
)

const maxBodyBytes = 1 << 20

type AttendanceHandler interface {
	GetStatus(w http.ResponseWriter, r *http.Request)
	GetBreakStatus(w http.ResponseWriter, r *http.Request)
	CreateAttendance(w http.ResponseWriter, r *http.Request)
	CreateBreak(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

// GetStatus implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetStatus(w http.ResponseWriter, r *http.Request) {
	rec, err := h.attendanceService.GetStatus(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	// No punch today is an empty data array.
	if rec.Status == attendance.PunchStatusNone {
		response.Success(w, []attendance.PunchRecordDTO{})
		return
	}
	response.Success(w, []attendance.PunchRecordDTO{attendance.NewPunchRecordDTO(rec)})
}

// GetBreakStatus implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetBreakStatus(w http.ResponseWriter, r *http.Request) {
	rec, err := h.attendanceService.GetBreakStatus(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if rec.Status == attendance.BreakStatusNone {
		response.Success(w, []attendance.BreakRecordDTO{})
		return
	}
	response.Success(w, []attendance.BreakRecordDTO{attendance.NewBreakRecordDTO(rec)})
}

// CreateAttendance implements AttendanceHandler.
func (h *attendanceHandlerImpl) CreateAttendance(w http.ResponseWriter, r *http.Request) {
	var req attendance.CreateAttendanceRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		slog.Error("Failed to decode attendance request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.attendanceService.CreateAttendance(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, result.Message, nil)
}

// CreateBreak implements AttendanceHandler.
func (h *attendanceHandlerImpl) CreateBreak(w http.ResponseWriter, r *http.Request) {
	var req attendance.CreateBreakRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		slog.Error("Failed to decode break request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.attendanceService.CreateBreak(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, result.Message, nil)
}
