package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/attendance"
)

// Refresher is the part of the tracker the resync job drives.
type Refresher interface {
	Refresh(ctx context.Context) (attendance.DayState, error)
}

// ResyncJobs keeps a long-running portal surface aligned with the server:
// punches made from another device and the day rollover only show up after a
// refresh.
type ResyncJobs struct {
	tracker   Refresher
	interval  time.Duration
	logger    *slog.Logger
	lastPhase attendance.Phase
}

func NewResyncJobs(tracker Refresher, interval time.Duration, logger *slog.Logger) *ResyncJobs {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResyncJobs{
		tracker:  tracker,
		interval: interval,
		logger:   logger,
	}
}

func (j *ResyncJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob(Job{
		Name:     "resync_attendance_state",
		Interval: j.interval,
		Fn:       j.Resync,
		Delayed:  true,
	})
}

// Resync refreshes the tracker once. A failed refresh leaves the tracker's
// state untouched and is retried on the next tick.
func (j *ResyncJobs) Resync(ctx context.Context) error {
	state, err := j.tracker.Refresh(ctx)
	if err != nil {
		return err
	}

	if j.lastPhase != "" && j.lastPhase != state.Phase {
		j.logger.Info("Attendance phase changed on resync", "from", j.lastPhase, "to", state.Phase)
	}
	j.lastPhase = state.Phase
	return nil
}
