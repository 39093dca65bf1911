package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/validator"
	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
)

// Transactor runs fn inside a unit of work. The context handed to fn carries
// the transaction for the repositories.
type Transactor func(ctx context.Context, fn func(ctx context.Context) error) error

type AttendanceServiceImpl struct {
	transact Transactor
	attendance.PunchRepository
	attendance.BreakRepository
	now    func() time.Time
	logger *slog.Logger
}

type Option func(*AttendanceServiceImpl)

// WithNow overrides the clock that decides which day "today" is.
func WithNow(now func() time.Time) Option {
	return func(a *AttendanceServiceImpl) { a.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *AttendanceServiceImpl) { a.logger = logger }
}

func NewAttendanceService(transact Transactor, punchRepo attendance.PunchRepository, breakRepo attendance.BreakRepository, opts ...Option) attendance.AttendanceService {
	a := &AttendanceServiceImpl{
		transact:        transact,
		PunchRepository: punchRepo,
		BreakRepository: breakRepo,
		now:             time.Now,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// GetStatus implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetStatus(ctx context.Context) (attendance.PunchRecord, error) {
	employeeID, companyID, err := claimsFromContext(ctx)
	if err != nil {
		return attendance.PunchRecord{}, err
	}

	punch, err := a.PunchRepository.GetByEmployeeAndDate(ctx, employeeID, a.today(), companyID)
	if err != nil {
		return attendance.PunchRecord{}, fmt.Errorf("failed to get attendance status: %w", err)
	}
	if punch == nil {
		return attendance.PunchRecord{Status: attendance.PunchStatusNone}, nil
	}
	return punch.Record(), nil
}

// GetBreakStatus implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetBreakStatus(ctx context.Context) (attendance.BreakRecord, error) {
	employeeID, companyID, err := claimsFromContext(ctx)
	if err != nil {
		return attendance.BreakRecord{}, err
	}

	punch, err := a.PunchRepository.GetByEmployeeAndDate(ctx, employeeID, a.today(), companyID)
	if err != nil {
		return attendance.BreakRecord{}, fmt.Errorf("failed to get attendance status: %w", err)
	}
	if punch == nil {
		return attendance.BreakRecord{Status: attendance.BreakStatusNone}, nil
	}

	brk, err := a.BreakRepository.GetLatestByPunch(ctx, punch.ID)
	if err != nil {
		return attendance.BreakRecord{}, fmt.Errorf("failed to get break status: %w", err)
	}
	if brk == nil {
		return attendance.BreakRecord{Status: attendance.BreakStatusNone}, nil
	}
	return brk.Record(), nil
}

// CreateAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) CreateAttendance(ctx context.Context, req attendance.CreateAttendanceRequest) (attendance.ActionResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.ActionResponse{}, err
	}

	employeeID, companyID, err := claimsFromContext(ctx)
	if err != nil {
		return attendance.ActionResponse{}, err
	}
	req.EmployeeID, req.CompanyID = employeeID, companyID

	date, _ := validator.IsValidDate(req.Date)

	var message string
	err = a.transact(ctx, func(txCtx context.Context) error {
		existing, err := a.PunchRepository.GetByEmployeeAndDate(txCtx, employeeID, date, companyID)
		if err != nil {
			return fmt.Errorf("failed to get attendance by employee and date: %w", err)
		}

		switch req.PunchType {
		case "IN":
			message, err = a.checkIn(txCtx, existing, date, req)
		case "OUT":
			message, err = a.checkOut(txCtx, existing, req)
		default:
			err = attendance.ErrUnknownPunchType
		}
		return err
	})
	if err != nil {
		return attendance.ActionResponse{}, err
	}

	a.logger.Info("Attendance recorded", "employee_id", employeeID, "punch_type", req.PunchType, "time", req.Time)
	return attendance.ActionResponse{Message: message}, nil
}

func (a *AttendanceServiceImpl) checkIn(ctx context.Context, existing *attendance.Punch, date time.Time, req attendance.CreateAttendanceRequest) (string, error) {
	if existing != nil {
		if existing.TimeOut != nil {
			return "", attendance.ErrAlreadyCheckedOut
		}
		return "", attendance.ErrAlreadyCheckedIn
	}

	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate punch id: %w", err)
	}

	_, err = a.PunchRepository.Create(ctx, attendance.Punch{
		ID:         id.String(),
		EmployeeID: req.EmployeeID,
		CompanyID:  req.CompanyID,
		Date:       date,
		TimeIn:     req.Time,
		InLat:      req.Latitude,
		InLon:      req.Longitude,
		InLocation: req.Location,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create attendance: %w", err)
	}
	return "Check-in recorded at " + req.Time, nil
}

func (a *AttendanceServiceImpl) checkOut(ctx context.Context, existing *attendance.Punch, req attendance.CreateAttendanceRequest) (string, error) {
	if existing == nil {
		return "", attendance.ErrNotCheckedIn
	}
	if existing.TimeOut != nil {
		return "", attendance.ErrAlreadyCheckedOut
	}
	if req.Time < existing.TimeIn {
		return "", attendance.ErrTimeBeforeStart
	}

	latest, err := a.BreakRepository.GetLatestByPunch(ctx, existing.ID)
	if err != nil {
		return "", fmt.Errorf("failed to get latest break: %w", err)
	}
	if latest != nil && latest.BreakEnd == nil {
		return "", attendance.ErrOnBreak
	}

	existing.TimeOut = &req.Time
	existing.OutLat = &req.Latitude
	existing.OutLon = &req.Longitude
	existing.OutLocation = &req.Location
	if err := a.PunchRepository.CloseSession(ctx, *existing); err != nil {
		return "", fmt.Errorf("failed to close attendance session: %w", err)
	}
	return "Check-out recorded at " + req.Time, nil
}

// CreateBreak implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) CreateBreak(ctx context.Context, req attendance.CreateBreakRequest) (attendance.ActionResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.ActionResponse{}, err
	}

	employeeID, companyID, err := claimsFromContext(ctx)
	if err != nil {
		return attendance.ActionResponse{}, err
	}
	req.EmployeeID, req.CompanyID = employeeID, companyID

	date, _ := validator.IsValidDate(req.BreakDate)

	var message string
	err = a.transact(ctx, func(txCtx context.Context) error {
		punch, err := a.PunchRepository.GetByEmployeeAndDate(txCtx, employeeID, date, companyID)
		if err != nil {
			return fmt.Errorf("failed to get attendance by employee and date: %w", err)
		}
		if punch == nil {
			return attendance.ErrNotCheckedIn
		}
		if punch.TimeOut != nil {
			return attendance.ErrAlreadyCheckedOut
		}

		latest, err := a.BreakRepository.GetLatestByPunch(txCtx, punch.ID)
		if err != nil {
			return fmt.Errorf("failed to get latest break: %w", err)
		}

		switch req.PunchType {
		case "START":
			message, err = a.startBreak(txCtx, punch, latest, date, req)
		case "END":
			message, err = a.endBreak(txCtx, latest, req)
		default:
			err = attendance.ErrUnknownPunchType
		}
		return err
	})
	if err != nil {
		return attendance.ActionResponse{}, err
	}

	a.logger.Info("Break recorded", "employee_id", employeeID, "punch_type", req.PunchType, "time", req.BreakTime)
	return attendance.ActionResponse{Message: message}, nil
}

// startBreak allows a single break window per session: the status endpoints
// expose only the latest window, so a second one would be lost from the
// reconciled totals.
func (a *AttendanceServiceImpl) startBreak(ctx context.Context, punch *attendance.Punch, latest *attendance.Break, date time.Time, req attendance.CreateBreakRequest) (string, error) {
	if latest != nil {
		if latest.BreakEnd == nil {
			return "", attendance.ErrBreakAlreadyOpen
		}
		return "", attendance.ErrBreakAlreadyTaken
	}
	if req.BreakTime < punch.TimeIn {
		return "", attendance.ErrTimeBeforeStart
	}

	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate break id: %w", err)
	}

	_, err = a.BreakRepository.Create(ctx, attendance.Break{
		ID:            id.String(),
		PunchID:       punch.ID,
		EmployeeID:    req.EmployeeID,
		Date:          date,
		BreakStart:    req.BreakTime,
		StartLat:      req.BreakLatitude,
		StartLon:      req.BreakLongitude,
		StartLocation: req.BreakLocation,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create break: %w", err)
	}
	return "Break started at " + req.BreakTime, nil
}

func (a *AttendanceServiceImpl) endBreak(ctx context.Context, latest *attendance.Break, req attendance.CreateBreakRequest) (string, error) {
	if latest == nil || latest.BreakEnd != nil {
		return "", attendance.ErrNoOpenBreak
	}
	if req.BreakTime < latest.BreakStart {
		return "", attendance.ErrTimeBeforeStart
	}

	latest.BreakEnd = &req.BreakTime
	if err := a.BreakRepository.End(ctx, *latest); err != nil {
		return "", fmt.Errorf("failed to end break: %w", err)
	}
	return "Break ended at " + req.BreakTime, nil
}

func (a *AttendanceServiceImpl) today() time.Time {
	now := a.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func claimsFromContext(ctx context.Context) (employeeID, companyID string, err error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", "", fmt.Errorf("failed to extract claims from context: %w", err)
	}

	employeeID, ok := claims["employee_id"].(string)
	if !ok || employeeID == "" {
		return "", "", fmt.Errorf("employee_id claim is missing or invalid: %w", attendance.ErrUnauthorized)
	}
	companyID, ok = claims["company_id"].(string)
	if !ok || companyID == "" {
		return "", "", fmt.Errorf("company_id claim is missing or invalid: %w", attendance.ErrUnauthorized)
	}
	return employeeID, companyID, nil
}
