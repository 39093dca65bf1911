package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/utils"
)

// Result describes a submitted action. RefreshErr is set when the action was
// accepted but the follow-up reconciliation failed; the action must not be
// retried in that case.
type Result struct {
	Action     attendance.Action
	Message    string
	State      attendance.DayState
	RefreshErr error
}

// Controller validates which action is legal for the tracker's phase,
// submits it and triggers re-reconciliation.
type Controller struct {
	tracker  *Tracker
	gateway  attendance.Gateway
	logger   *slog.Logger
	now      func() time.Time
	inFlight atomic.Bool
}

func NewController(tracker *Tracker, gateway attendance.Gateway, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		tracker: tracker,
		gateway: gateway,
		logger:  logger,
		now:     tracker.now,
	}
}

// LegalActions returns what the user may do right now. Nothing is legal
// before the first reconciliation completes.
func (c *Controller) LegalActions() []attendance.Action {
	phase, loaded := c.tracker.Phase()
	if !loaded {
		return nil
	}
	return attendance.LegalActions(phase)
}

// Submit posts action to the gateway. Preconditions are checked before any
// network call; a second Submit while one is pending is rejected.
func (c *Controller) Submit(ctx context.Context, action attendance.Action) (Result, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		return Result{}, attendance.ErrSubmissionInFlight
	}
	defer c.inFlight.Store(false)

	phase, loaded := c.tracker.Phase()
	if !loaded {
		return Result{}, fmt.Errorf("%w: %w", attendance.ErrValidationFailed, attendance.ErrNotMounted)
	}
	if !action.IsLegal(phase) {
		return Result{}, fmt.Errorf("%w: %s is not allowed while %s", attendance.ErrValidationFailed, action, phase)
	}

	loc, ready := c.tracker.Location()
	if action.NeedsLocation() && !ready {
		return Result{}, attendance.ErrLocationUnavailable
	}

	event := attendance.PunchEvent{Action: action, Location: loc, At: c.now()}
	resp, err := c.post(ctx, event)
	if err != nil {
		c.logger.Error("Attendance action failed", "action", action, "error", err)
		return Result{}, err
	}

	c.logger.Info("Attendance action accepted", "action", action, "message", resp.Message)
	c.tracker.applyOptimistic(action)

	result := Result{Action: action, Message: resp.Message}
	result.State, result.RefreshErr = c.tracker.Refresh(ctx)
	return result, nil
}

func (c *Controller) post(ctx context.Context, event attendance.PunchEvent) (attendance.ActionResponse, error) {
	session := c.tracker.Session()
	date := utils.FormatDate(event.At)
	clock := utils.FormatClock(event.At)

	if event.Action.IsBreak() {
		req := attendance.CreateBreakRequest{
			BreakDate:      date,
			BreakTime:      clock,
			BreakLatitude:  event.Location.Latitude,
			BreakLongitude: event.Location.Longitude,
			PunchType:      event.Action.PunchType(),
			BreakLocation:  event.Location.Name,
		}
		return c.gateway.PostBreak(ctx, session, req)
	}

	req := attendance.CreateAttendanceRequest{
		Latitude:  event.Location.Latitude,
		Longitude: event.Location.Longitude,
		Time:      clock,
		Date:      date,
		PunchType: event.Action.PunchType(),
		Location:  event.Location.Name,
	}
	return c.gateway.PostAttendance(ctx, session, req)
}
