package shell

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-portal-go/internal/service/tracker"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// ActionLabel is the button text of an action.
func ActionLabel(a attendance.Action) string {
	switch a {
	case attendance.ActionCheckIn:
		return "Check In"
	case attendance.ActionCheckOut:
		return "Check Out"
	case attendance.ActionBreakStart:
		return "Start Break"
	case attendance.ActionBreakEnd:
		return "End Break"
	}
	return string(a)
}

func PhaseLabel(p attendance.Phase) string {
	switch p {
	case attendance.PhaseNotStarted:
		return "Not checked in"
	case attendance.PhaseWorking:
		return "Working"
	case attendance.PhaseOnBreak:
		return "On break"
	case attendance.PhaseDone:
		return "Done for today"
	}
	return string(p)
}

// StatusTable renders the snapshot as a two-column table.
func StatusTable(snap tracker.Snapshot) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleDefault)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft},
	})

	status := PhaseLabel(snap.Phase)
	if !snap.Loaded {
		status = "Loading..."
	}
	t.AppendRow(table.Row{"Status", status})
	t.AppendRow(table.Row{"Work time", snap.WorkDisplay})
	t.AppendRow(table.Row{"Break time", snap.BreakDisplay})
	t.AppendRow(table.Row{"Location", locationText(snap)})
	t.AppendRow(table.Row{"Actions", actionsText(snap)})
	if snap.LastError != nil {
		t.AppendRow(table.Row{"Last error", ErrorText(snap.LastError)})
	}
	return t.Render()
}

// StatusLine is the single-line form used while watching.
func StatusLine(snap tracker.Snapshot) string {
	if !snap.Loaded {
		return "Loading..."
	}
	return fmt.Sprintf("%s | work %s | break %s", PhaseLabel(snap.Phase), snap.WorkDisplay, snap.BreakDisplay)
}

// ResultText describes an accepted action.
func ResultText(res tracker.Result) string {
	msg := res.Message
	if msg == "" {
		msg = ActionLabel(res.Action) + " recorded"
	}
	if res.RefreshErr != nil {
		return fmt.Sprintf("%s. The latest status could not be loaded: %s", msg, ErrorText(res.RefreshErr))
	}
	return msg
}

// ErrorText turns the attendance error taxonomy into text for the user.
func ErrorText(err error) string {
	var rejection *attendance.BusinessRejection
	switch {
	case err == nil:
		return ""
	case errors.As(err, &rejection):
		if rejection.Message != "" {
			return rejection.Message
		}
		return "The attendance server rejected the request."
	case errors.Is(err, attendance.ErrSubmissionInFlight):
		return "Please wait, the previous action is still being submitted."
	case errors.Is(err, attendance.ErrNotMounted):
		return "Attendance is still loading."
	case errors.Is(err, attendance.ErrValidationFailed):
		return "That action is not available right now."
	case errors.Is(err, attendance.ErrLocationUnavailable):
		return "Location is not available yet. Try again in a moment."
	case errors.Is(err, attendance.ErrCrossMidnightSession):
		return "Today's attendance spans midnight and cannot be tracked here."
	case errors.Is(err, attendance.ErrNetwork):
		return "Could not reach the attendance server. Check your connection and try again."
	}
	return err.Error()
}

func locationText(snap tracker.Snapshot) string {
	if !snap.LocationReady {
		return "Resolving..."
	}
	return snap.Location.Name
}

func actionsText(snap tracker.Snapshot) string {
	if !snap.Loaded || len(snap.LegalActions) == 0 {
		return "-"
	}
	labels := make([]string, 0, len(snap.LegalActions))
	for _, a := range snap.LegalActions {
		labels = append(labels, ActionLabel(a))
	}
	return strings.Join(labels, ", ")
}
