package tracker

import (
	"testing"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var noBreak = attendance.BreakRecord{Status: attendance.BreakStatusNone}

func TestReconcile_NotStarted(t *testing.T) {
	rec, err := Reconcile(attendance.PunchRecord{Status: attendance.PunchStatusNone}, noBreak, at("10:00:00"))
	require.NoError(t, err)

	assert.Equal(t, attendance.PhaseNotStarted, rec.DayState.Phase)
	assert.Zero(t, rec.DayState.WorkedSeconds)
	assert.Zero(t, rec.DayState.BreakSeconds)
	assert.False(t, rec.WorkTimerRunning)
	assert.False(t, rec.BreakTimerRunning)

	// An empty status behaves like NONE.
	rec, err = Reconcile(attendance.PunchRecord{}, attendance.BreakRecord{}, at("10:00:00"))
	require.NoError(t, err)
	assert.Equal(t, attendance.PhaseNotStarted, rec.DayState.Phase)
}

func TestReconcile_ScenarioA_Working(t *testing.T) {
	punch := attendance.PunchRecord{Status: attendance.PunchStatusIn, TimeIn: "09:00:00"}

	rec, err := Reconcile(punch, noBreak, at("09:30:00"))
	require.NoError(t, err)

	assert.Equal(t, attendance.PhaseWorking, rec.DayState.Phase)
	assert.Equal(t, int64(1800), rec.DayState.WorkedSeconds)
	assert.Equal(t, "00:30:00", utils.FormatHMS(rec.DayState.WorkedSeconds))
	assert.True(t, rec.WorkTimerRunning)
	assert.False(t, rec.BreakTimerRunning)
	assert.Equal(t, int64(1800), rec.WorkTimerSeed)
}

func TestReconcile_WorkingEqualsElapsedSinceTimeIn(t *testing.T) {
	cases := []struct{ timeIn, now string }{
		{"00:00:00", "00:00:00"},
		{"07:15:30", "07:15:31"},
		{"08:00:00", "16:45:12"},
		{"12:34:56", "23:59:59"},
	}
	for _, c := range cases {
		punch := attendance.PunchRecord{Status: attendance.PunchStatusIn, TimeIn: c.timeIn}
		rec, err := Reconcile(punch, noBreak, at(c.now))
		require.NoError(t, err)

		assert.Equal(t, attendance.PhaseWorking, rec.DayState.Phase)
		assert.Equal(t, utils.ElapsedSeconds(at(c.timeIn), at(c.now)), rec.DayState.WorkedSeconds,
			"timeIn %s now %s", c.timeIn, c.now)
	}
}

func TestReconcile_ScenarioB_OnBreak(t *testing.T) {
	punch := attendance.PunchRecord{Status: attendance.PunchStatusIn, TimeIn: "09:00:00"}
	brk := attendance.BreakRecord{Status: attendance.BreakStatusStarted, BreakStart: "12:00:00"}

	rec, err := Reconcile(punch, brk, at("12:15:00"))
	require.NoError(t, err)

	assert.Equal(t, attendance.PhaseOnBreak, rec.DayState.Phase)
	assert.Equal(t, int64(10800), rec.DayState.WorkedSeconds)
	assert.Equal(t, "03:00:00", utils.FormatHMS(rec.DayState.WorkedSeconds))
	assert.Equal(t, int64(900), rec.DayState.BreakSeconds)
	assert.Equal(t, "00:15:00", utils.FormatHMS(rec.DayState.BreakSeconds))
	assert.False(t, rec.WorkTimerRunning)
	assert.True(t, rec.BreakTimerRunning)
	assert.Equal(t, int64(900), rec.BreakTimerSeed)
}

func TestReconcile_ScenarioC_AfterBreak(t *testing.T) {
	punch := attendance.PunchRecord{Status: attendance.PunchStatusIn, TimeIn: "09:00:00"}
	brk := attendance.BreakRecord{Status: attendance.BreakStatusEnded, BreakStart: "12:00:00", BreakEnd: "12:30:00"}

	rec, err := Reconcile(punch, brk, at("13:00:00"))
	require.NoError(t, err)

	assert.Equal(t, attendance.PhaseWorking, rec.DayState.Phase)
	assert.Equal(t, int64(12600), rec.DayState.WorkedSeconds)
	assert.Equal(t, "03:30:00", utils.FormatHMS(rec.DayState.WorkedSeconds))
	assert.Equal(t, int64(1800), rec.DayState.BreakSeconds)
	assert.True(t, rec.WorkTimerRunning)
	assert.False(t, rec.BreakTimerRunning)
	assert.Equal(t, int64(12600), rec.WorkTimerSeed)
}

func TestReconcile_ScenarioD_Done(t *testing.T) {
	punch := attendance.PunchRecord{Status: attendance.PunchStatusOut, TimeIn: "09:00:00", TimeOut: "17:00:00"}

	rec, err := Reconcile(punch, noBreak, at("18:00:00"))
	require.NoError(t, err)

	assert.Equal(t, attendance.PhaseDone, rec.DayState.Phase)
	assert.Equal(t, int64(28800), rec.DayState.WorkedSeconds)
	assert.Equal(t, "08:00:00", utils.FormatHMS(rec.DayState.WorkedSeconds))
	assert.Zero(t, rec.DayState.BreakSeconds)
	assert.False(t, rec.WorkTimerRunning)
	assert.False(t, rec.BreakTimerRunning)
}

func TestReconcile_DoneUsesEndedBreak(t *testing.T) {
	punch := attendance.PunchRecord{Status: attendance.PunchStatusOut, TimeIn: "09:00:00", TimeOut: "17:00:00"}
	brk := attendance.BreakRecord{Status: attendance.BreakStatusEnded, BreakStart: "12:00:00", BreakEnd: "12:45:00"}

	rec, err := Reconcile(punch, brk, at("18:00:00"))
	require.NoError(t, err)
	assert.Equal(t, int64(2700), rec.DayState.BreakSeconds)
}

func TestReconcile_Idempotent(t *testing.T) {
	punch := attendance.PunchRecord{Status: attendance.PunchStatusIn, TimeIn: "08:12:00"}
	brk := attendance.BreakRecord{Status: attendance.BreakStatusEnded, BreakStart: "11:00:00", BreakEnd: "11:20:00"}
	now := at("15:42:17")

	first, err := Reconcile(punch, brk, now)
	require.NoError(t, err)
	second, err := Reconcile(punch, brk, now)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestReconcile_CrossMidnightRejected(t *testing.T) {
	cases := []struct {
		name  string
		punch attendance.PunchRecord
		brk   attendance.BreakRecord
		now   string
	}{
		{
			name:  "checked in yesterday evening",
			punch: attendance.PunchRecord{Status: attendance.PunchStatusIn, TimeIn: "22:00:00"},
			brk:   noBreak,
			now:   "01:00:00",
		},
		{
			name:  "checked out after midnight",
			punch: attendance.PunchRecord{Status: attendance.PunchStatusOut, TimeIn: "22:00:00", TimeOut: "02:00:00"},
			brk:   noBreak,
			now:   "03:00:00",
		},
		{
			name:  "break started before midnight",
			punch: attendance.PunchRecord{Status: attendance.PunchStatusIn, TimeIn: "20:00:00"},
			brk:   attendance.BreakRecord{Status: attendance.BreakStatusStarted, BreakStart: "23:50:00"},
			now:   "00:10:00",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Reconcile(c.punch, c.brk, at(c.now))
			assert.ErrorIs(t, err, attendance.ErrCrossMidnightSession)
		})
	}
}

func TestReconcile_MalformedRecords(t *testing.T) {
	cases := []struct {
		name  string
		punch attendance.PunchRecord
		brk   attendance.BreakRecord
	}{
		{"missing time_in", attendance.PunchRecord{Status: attendance.PunchStatusIn}, noBreak},
		{"unknown punch status", attendance.PunchRecord{Status: "LATE", TimeIn: "09:00:00"}, noBreak},
		{"ended break without end", attendance.PunchRecord{Status: attendance.PunchStatusIn, TimeIn: "09:00:00"},
			attendance.BreakRecord{Status: attendance.BreakStatusEnded, BreakStart: "12:00:00"}},
		{"out without time_out", attendance.PunchRecord{Status: attendance.PunchStatusOut, TimeIn: "09:00:00"}, noBreak},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Reconcile(c.punch, c.brk, at("13:00:00"))
			assert.ErrorIs(t, err, attendance.ErrMalformedRecord)
		})
	}
}
