package shell

import (
	"context"
	"fmt"
	"io"

	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/hub"
	"github.com/cmlabs-hris/hris-portal-go/internal/service/tracker"
)

// Source is what Watch reads from; *tracker.Tracker satisfies it.
type Source interface {
	Subscribe() (<-chan hub.Event, func())
	Snapshot() tracker.Snapshot
}

// Watch prints a status line for every state change and tick until ctx is
// done or the subscription is closed. Consecutive identical lines are
// printed once.
func Watch(ctx context.Context, w io.Writer, src Source) error {
	events, unsubscribe := src.Subscribe()
	defer unsubscribe()

	last := StatusLine(src.Snapshot())
	if _, err := fmt.Fprintln(w, last); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}

			var line string
			switch ev.Kind {
			case tracker.EventState, tracker.EventTick:
				line = StatusLine(src.Snapshot())
			case tracker.EventError:
				err, _ := ev.Data.(error)
				line = "error: " + ErrorText(err)
			default:
				continue
			}
			if line == last {
				continue
			}
			last = line
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
}
