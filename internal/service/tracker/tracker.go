package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/hub"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/timer"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/utils"
	"golang.org/x/sync/errgroup"
)

// Event kinds published on the hub.
const (
	EventState = "state"
	EventTick  = "tick"
	EventClock = "clock"
	EventError = "error"
)

// Tick is the payload of an EventTick.
type Tick struct {
	Timer   string
	Seconds int64
	Display string
}

// Snapshot is a consistent read of the tracker for presentation surfaces.
type Snapshot struct {
	attendance.DayState
	Loaded        bool
	WorkDisplay   string
	BreakDisplay  string
	WorkRunning   bool
	BreakRunning  bool
	LegalActions  []attendance.Action
	Location      attendance.Location
	LocationReady bool
	LastError     error
	ReconciledAt  time.Time
}

type Option func(*Tracker)

func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) { t.logger = logger }
}

func WithHub(h *hub.Hub) Option {
	return func(t *Tracker) { t.hub = h }
}

// WithNow overrides the wall clock used for reconciliation.
func WithNow(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithLocation wires the device position and reverse geocoder consumed on
// Mount.
func WithLocation(provider attendance.LocationProvider, namer attendance.LocationNamer) Option {
	return func(t *Tracker) {
		t.locator = provider
		t.namer = namer
	}
}

// WithTimerOptions applies extra options to the work, break and clock timers.
func WithTimerOptions(opts ...timer.Option) Option {
	return func(t *Tracker) { t.timerOpts = append(t.timerOpts, opts...) }
}

// WithClockTick enables the presentation-only wall clock tick.
func WithClockTick() Option {
	return func(t *Tracker) { t.clockTick = true }
}

// Tracker owns the day state of one user session and the two tick timers
// that stay consistent with it. Every Refresh discards local counters and
// recomputes them from the fetched records.
type Tracker struct {
	gateway attendance.Gateway
	session attendance.Session
	locator attendance.LocationProvider
	namer   attendance.LocationNamer
	hub     *hub.Hub
	logger  *slog.Logger
	now     func() time.Time

	timerOpts []timer.Option
	clockTick bool

	work  *timer.Timer
	brk   *timer.Timer
	clock *timer.Timer

	mu           sync.Mutex
	state        attendance.DayState
	loaded       bool
	lastErr      error
	reconciledAt time.Time
	location     attendance.Location
	locReady     bool
	started      uint64 // generation of the latest Refresh or optimistic update
	applied      uint64 // generation whose result is currently shown
	closed       bool
}

func NewTracker(gateway attendance.Gateway, session attendance.Session, opts ...Option) *Tracker {
	t := &Tracker{
		gateway: gateway,
		session: session,
		logger:  slog.Default(),
		now:     time.Now,
		state:   attendance.DayState{Phase: attendance.PhaseNotStarted},
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.hub == nil {
		t.hub = hub.NewHub(0)
	}

	t.work = timer.New("work", t.timerOptions(t.publishTick("work"))...)
	t.brk = timer.New("break", t.timerOptions(t.publishTick("break"))...)
	if t.clockTick {
		t.clock = timer.New("clock", t.timerOptions(func(int64, string) {
			t.publish(EventClock, utils.FormatClock(t.now()))
		})...)
	}
	return t
}

func (t *Tracker) timerOptions(onTick timer.TickFunc) []timer.Option {
	opts := make([]timer.Option, 0, len(t.timerOpts)+1)
	opts = append(opts, t.timerOpts...)
	return append(opts, timer.WithOnTick(onTick))
}

// Session returns the session the tracker was created for.
func (t *Tracker) Session() attendance.Session {
	return t.session
}

// Mount runs the first reconciliation and the location lookup concurrently.
// A location failure is recorded but never fails the mount.
func (t *Tracker) Mount(ctx context.Context) error {
	if t.clock != nil {
		t.clock.Start(0)
	}

	// The lookup must survive a failed fetch, so the group shares no context.
	var g errgroup.Group
	g.Go(func() error {
		t.ResolveLocation(ctx)
		return nil
	})
	g.Go(func() error {
		_, err := t.Refresh(ctx)
		return err
	})
	return g.Wait()
}

// ResolveLocation asks the provider for coordinates and names them. Without a
// provider the location stays unresolved.
func (t *Tracker) ResolveLocation(ctx context.Context) (attendance.Location, error) {
	if t.locator == nil {
		return attendance.Location{}, &attendance.GeolocationError{Err: errors.New("no location provider configured")}
	}

	coords, err := t.locator.Locate(ctx)
	if err != nil {
		t.logger.Warn("Failed to locate device", "error", err)
		var geoErr *attendance.GeolocationError
		if !errors.As(err, &geoErr) {
			err = &attendance.GeolocationError{Err: err}
		}
		return attendance.Location{}, err
	}

	loc := attendance.Location{Coordinates: coords}
	if t.namer != nil {
		loc.Name = t.namer.ResolveLocationName(ctx, coords.Latitude, coords.Longitude)
	}

	t.mu.Lock()
	t.location = loc
	t.locReady = loc.Resolved()
	t.mu.Unlock()

	return loc, nil
}

// Location returns the resolved device location.
func (t *Tracker) Location() (attendance.Location, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.location, t.locReady
}

// Refresh fetches the punch record, then the break record when a session is
// open, and reconciles. On any failure the previous state is kept untouched
// and the error is returned. When a newer refresh has already applied its
// result, this one is discarded.
func (t *Tracker) Refresh(ctx context.Context) (attendance.DayState, error) {
	gen := t.begin()

	punch, err := t.gateway.FetchPunch(ctx, t.session)
	if err != nil {
		return t.fail(fmt.Errorf("failed to fetch attendance status: %w", err))
	}

	brk := attendance.BreakRecord{Status: attendance.BreakStatusNone}
	if punch.Status == attendance.PunchStatusIn {
		brk, err = t.gateway.FetchBreak(ctx, t.session)
		if err != nil {
			return t.fail(fmt.Errorf("failed to fetch break status: %w", err))
		}
	}

	rec, err := Reconcile(punch, brk, t.now())
	if err != nil {
		return t.fail(fmt.Errorf("failed to reconcile attendance: %w", err))
	}

	return t.apply(gen, rec), nil
}

// Phase returns the current phase and whether a reconciliation has completed.
func (t *Tracker) Phase() (attendance.Phase, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Phase, t.loaded
}

// State returns the day state with live counters read from the timers.
func (t *Tracker) State() attendance.DayState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.liveStateLocked()
}

// Snapshot returns everything a surface needs to render.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// Subscribe registers a surface for state, tick, clock and error events.
func (t *Tracker) Subscribe() (<-chan hub.Event, func()) {
	return t.hub.Subscribe(t.topic())
}

// Close stops every timer owned by the tracker. It is safe to call more than
// once and is meant to be deferred right after NewTracker.
func (t *Tracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true

	t.work.Stop()
	t.brk.Stop()
	if t.clock != nil {
		t.clock.Stop()
	}
	return nil
}

// applyOptimistic moves the timers to the state the action will most likely
// produce. The next Refresh overwrites it.
func (t *Tracker) applyOptimistic(action attendance.Action) attendance.DayState {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return t.state
	}

	t.started++
	t.applied = t.started

	switch action {
	case attendance.ActionCheckIn:
		t.brk.Reset()
		t.work.Start(0)
		t.state = attendance.DayState{Phase: attendance.PhaseWorking}
	case attendance.ActionBreakStart:
		worked := t.work.Stop()
		t.brk.Start(0)
		t.state = attendance.DayState{Phase: attendance.PhaseOnBreak, WorkedSeconds: worked}
	case attendance.ActionBreakEnd:
		onBreak := t.brk.Stop()
		worked := t.work.Seconds()
		t.work.Start(worked)
		t.state = attendance.DayState{Phase: attendance.PhaseWorking, WorkedSeconds: worked, BreakSeconds: onBreak}
	case attendance.ActionCheckOut:
		worked := t.work.Stop()
		onBreak := t.brk.Stop()
		t.state = attendance.DayState{Phase: attendance.PhaseDone, WorkedSeconds: worked, BreakSeconds: onBreak}
	}

	t.logger.Debug("Applied optimistic transition", "action", action, "phase", t.state.Phase)
	t.publish(EventState, t.snapshotLocked())
	return t.state
}

func (t *Tracker) begin() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.started++
	return t.started
}

func (t *Tracker) fail(err error) (attendance.DayState, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.lastErr = err
	t.logger.Error("Attendance reconciliation failed", "employee_id", t.session.EmployeeID, "error", err)
	t.publish(EventError, err)
	return t.liveStateLocked(), err
}

func (t *Tracker) apply(gen uint64, rec Reconciliation) attendance.DayState {
	t.mu.Lock()
	defer t.mu.Unlock()

	if gen < t.applied {
		t.logger.Debug("Discarded stale reconciliation", "generation", gen, "applied", t.applied)
		return t.liveStateLocked()
	}
	if t.closed {
		return t.state
	}
	t.applied = gen

	state := rec.DayState
	// A closed day reports the break total we last knew when the server
	// record does not carry one.
	if state.Phase == attendance.PhaseDone && state.BreakSeconds == 0 {
		state.BreakSeconds = t.liveStateLocked().BreakSeconds
	}

	t.state = state
	t.loaded = true
	t.lastErr = nil
	t.reconciledAt = t.now()

	if rec.WorkTimerRunning {
		t.work.Start(rec.WorkTimerSeed)
	} else {
		t.work.Set(state.WorkedSeconds)
	}
	if rec.BreakTimerRunning {
		t.brk.Start(rec.BreakTimerSeed)
	} else {
		t.brk.Set(state.BreakSeconds)
	}

	t.logger.Info("Attendance reconciled",
		"employee_id", t.session.EmployeeID,
		"phase", state.Phase,
		"worked", utils.FormatHMS(state.WorkedSeconds),
		"break", utils.FormatHMS(state.BreakSeconds),
	)
	t.publish(EventState, t.snapshotLocked())
	return state
}

func (t *Tracker) liveStateLocked() attendance.DayState {
	s := t.state
	s.WorkedSeconds = t.work.Seconds()
	s.BreakSeconds = t.brk.Seconds()
	return s
}

func (t *Tracker) snapshotLocked() Snapshot {
	state := t.liveStateLocked()
	return Snapshot{
		DayState:      state,
		Loaded:        t.loaded,
		WorkDisplay:   utils.FormatHMS(state.WorkedSeconds),
		BreakDisplay:  utils.FormatHMS(state.BreakSeconds),
		WorkRunning:   t.work.Running(),
		BreakRunning:  t.brk.Running(),
		LegalActions:  attendance.LegalActions(state.Phase),
		Location:      t.location,
		LocationReady: t.locReady,
		LastError:     t.lastErr,
		ReconciledAt:  t.reconciledAt,
	}
}

func (t *Tracker) topic() string {
	if t.session.EmployeeID != "" {
		return t.session.EmployeeID
	}
	return t.session.UserID
}

// publish never blocks, so callers may hold t.mu.
func (t *Tracker) publish(kind string, data interface{}) {
	t.hub.Publish(hub.Event{Topic: t.topic(), Kind: kind, Data: data})
}

// publishTick runs on timer goroutines and must not take t.mu.
func (t *Tracker) publishTick(name string) timer.TickFunc {
	return func(seconds int64, display string) {
		t.publish(EventTick, Tick{Timer: name, Seconds: seconds, Display: display})
	}
}
