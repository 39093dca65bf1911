package tracker

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/utils"
)

// Reconciliation is the outcome of one reconcile pass: the derived day state
// and how the two timers must be seeded.
type Reconciliation struct {
	DayState          attendance.DayState
	WorkTimerSeed     int64
	BreakTimerSeed    int64
	WorkTimerRunning  bool
	BreakTimerRunning bool
}

// Reconcile derives the canonical day state from the fetched punch and break
// records. It is pure: the same inputs and now always give the same result.
//
// Times of day are anchored onto now's calendar date. A session whose records
// would produce a negative segment under that anchoring spans midnight and is
// rejected with ErrCrossMidnightSession.
func Reconcile(punch attendance.PunchRecord, brk attendance.BreakRecord, now time.Time) (Reconciliation, error) {
	switch punch.Status {
	case "", attendance.PunchStatusNone:
		return Reconciliation{DayState: attendance.DayState{Phase: attendance.PhaseNotStarted}}, nil

	case attendance.PunchStatusOut:
		timeIn, err := anchor("time_in", punch.TimeIn, now)
		if err != nil {
			return Reconciliation{}, err
		}
		timeOut, err := anchor("time_out", punch.TimeOut, now)
		if err != nil {
			return Reconciliation{}, err
		}
		worked, err := segment(timeIn, timeOut)
		if err != nil {
			return Reconciliation{}, err
		}

		var breakSecs int64
		if brk.Status == attendance.BreakStatusEnded && brk.BreakStart != "" && brk.BreakEnd != "" {
			start, err := anchor("break_start", brk.BreakStart, now)
			if err != nil {
				return Reconciliation{}, err
			}
			end, err := anchor("break_end", brk.BreakEnd, now)
			if err != nil {
				return Reconciliation{}, err
			}
			if breakSecs, err = segment(start, end); err != nil {
				return Reconciliation{}, err
			}
		}

		return Reconciliation{
			DayState: attendance.DayState{
				Phase:         attendance.PhaseDone,
				WorkedSeconds: worked,
				BreakSeconds:  breakSecs,
			},
			WorkTimerSeed:  worked,
			BreakTimerSeed: breakSecs,
		}, nil

	case attendance.PunchStatusIn:
		return reconcileOpenSession(punch, brk, now)
	}

	return Reconciliation{}, fmt.Errorf("%w: unknown punch status %q", attendance.ErrMalformedRecord, punch.Status)
}

func reconcileOpenSession(punch attendance.PunchRecord, brk attendance.BreakRecord, now time.Time) (Reconciliation, error) {
	timeIn, err := anchor("time_in", punch.TimeIn, now)
	if err != nil {
		return Reconciliation{}, err
	}

	switch {
	case brk.Status == attendance.BreakStatusStarted && brk.BreakEnd == "":
		start, err := anchor("break_start", brk.BreakStart, now)
		if err != nil {
			return Reconciliation{}, err
		}
		worked, err := segment(timeIn, start)
		if err != nil {
			return Reconciliation{}, err
		}
		onBreak, err := segment(start, now)
		if err != nil {
			return Reconciliation{}, err
		}
		return Reconciliation{
			DayState: attendance.DayState{
				Phase:         attendance.PhaseOnBreak,
				WorkedSeconds: worked,
				BreakSeconds:  onBreak,
			},
			WorkTimerSeed:     worked,
			BreakTimerSeed:    onBreak,
			BreakTimerRunning: true,
		}, nil

	case brk.Status == attendance.BreakStatusEnded && brk.BreakStart != "" && brk.BreakEnd != "":
		start, err := anchor("break_start", brk.BreakStart, now)
		if err != nil {
			return Reconciliation{}, err
		}
		end, err := anchor("break_end", brk.BreakEnd, now)
		if err != nil {
			return Reconciliation{}, err
		}
		breakSecs, err := segment(start, end)
		if err != nil {
			return Reconciliation{}, err
		}
		before, err := segment(timeIn, start)
		if err != nil {
			return Reconciliation{}, err
		}
		after, err := segment(end, now)
		if err != nil {
			return Reconciliation{}, err
		}
		worked := before + after
		return Reconciliation{
			DayState: attendance.DayState{
				Phase:         attendance.PhaseWorking,
				WorkedSeconds: worked,
				BreakSeconds:  breakSecs,
			},
			WorkTimerSeed:    worked,
			BreakTimerSeed:   breakSecs,
			WorkTimerRunning: true,
		}, nil

	case brk.Status == "" || brk.Status == attendance.BreakStatusNone:
		worked, err := segment(timeIn, now)
		if err != nil {
			return Reconciliation{}, err
		}
		return Reconciliation{
			DayState: attendance.DayState{
				Phase:         attendance.PhaseWorking,
				WorkedSeconds: worked,
			},
			WorkTimerSeed:    worked,
			WorkTimerRunning: true,
		}, nil
	}

	return Reconciliation{}, fmt.Errorf("%w: break status %q with start %q and end %q",
		attendance.ErrMalformedRecord, brk.Status, brk.BreakStart, brk.BreakEnd)
}

func anchor(field, value string, now time.Time) (time.Time, error) {
	t, ok := utils.ParseTimeOfDay(value, now)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %s %q", attendance.ErrMalformedRecord, field, value)
	}
	return t, nil
}

func segment(from, to time.Time) (int64, error) {
	secs := utils.ElapsedSeconds(from, to)
	if secs < 0 {
		return 0, fmt.Errorf("%w: %s is after %s", attendance.ErrCrossMidnightSession,
			utils.FormatClock(from), utils.FormatClock(to))
	}
	return secs, nil
}
