package timer

import (
	"context"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/utils"
)

type State string

const (
	StateStopped State = "STOPPED"
	StateRunning State = "RUNNING"
)

// Ticker is the tick source of a Timer. *time.Ticker satisfies it through
// realTicker; tests inject a manual one.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc creates a Ticker firing every d.
type TickerFunc func(d time.Duration) Ticker

type realTicker struct {
	*time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.Ticker.C }

func newRealTicker(d time.Duration) Ticker {
	return realTicker{time.NewTicker(d)}
}

// TickFunc is called after every increment with the new counter value and its
// HH:MM:SS rendering. It runs outside the timer's lock on the ticking
// goroutine and must not call Start, Stop or Set on the same timer.
type TickFunc func(seconds int64, display string)

type Option func(*Timer)

// WithInterval overrides the one-second tick. Used by tests.
func WithInterval(d time.Duration) Option {
	return func(t *Timer) { t.interval = d }
}

// WithTicker overrides the tick source.
func WithTicker(fn TickerFunc) Option {
	return func(t *Timer) { t.newTicker = fn }
}

// WithOnTick registers the republish callback.
func WithOnTick(fn TickFunc) Option {
	return func(t *Timer) { t.onTick = fn }
}

// Timer is an owned, cancellable repeating tick that increments a counter once
// per interval. There is at most one ticking goroutine per Timer: Start on a
// running timer stops the previous run before starting the new one.
type Timer struct {
	name      string
	interval  time.Duration
	newTicker TickerFunc
	onTick    TickFunc

	mu      sync.Mutex
	seconds int64
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates a stopped timer at zero.
func New(name string, opts ...Option) *Timer {
	t := &Timer{
		name:      name,
		interval:  time.Second,
		newTicker: newRealTicker,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name returns the timer's label.
func (t *Timer) Name() string {
	return t.name
}

// Start (re)starts the timer with seed as the new baseline.
func (t *Timer) Start(seed int64) {
	t.mu.Lock()
	prev := t.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	t.seconds = seed
	t.cancel = cancel
	t.done = done
	ticker := t.newTicker(t.interval)
	t.mu.Unlock()

	waitDone(prev)
	go t.run(ctx, ticker, done)
}

// Stop freezes the counter and returns its value. It blocks until the
// ticking goroutine has exited, so no tick is delivered after Stop returns.
func (t *Timer) Stop() int64 {
	t.mu.Lock()
	prev := t.stopLocked()
	secs := t.seconds
	t.mu.Unlock()

	waitDone(prev)
	return secs
}

// Set stops the timer and pins the counter at seconds.
func (t *Timer) Set(seconds int64) {
	t.mu.Lock()
	prev := t.stopLocked()
	t.seconds = seconds
	t.mu.Unlock()

	waitDone(prev)
}

// Reset stops the timer and zeroes the counter.
func (t *Timer) Reset() {
	t.Set(0)
}

// Close releases the ticking goroutine. The counter keeps its last value.
func (t *Timer) Close() error {
	t.Stop()
	return nil
}

func (t *Timer) Seconds() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seconds
}

func (t *Timer) Display() string {
	return utils.FormatHMS(t.Seconds())
}

func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		return StateRunning
	}
	return StateStopped
}

func (t *Timer) Running() bool {
	return t.State() == StateRunning
}

// stopLocked cancels the current run and returns its done channel so the
// caller can wait for it after releasing the lock.
func (t *Timer) stopLocked() chan struct{} {
	if t.cancel == nil {
		return nil
	}
	t.cancel()
	done := t.done
	t.cancel = nil
	t.done = nil
	return done
}

func (t *Timer) run(ctx context.Context, ticker Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			t.mu.Lock()
			// A cancelled run must not touch the counter of its successor.
			if ctx.Err() != nil {
				t.mu.Unlock()
				return
			}
			t.seconds++
			secs := t.seconds
			t.mu.Unlock()

			if t.onTick != nil {
				t.onTick(secs, utils.FormatHMS(secs))
			}
		}
	}
}

func waitDone(done chan struct{}) {
	if done != nil {
		<-done
	}
}
