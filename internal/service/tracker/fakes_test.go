package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/timer"
)

var testDay = time.Date(2025, 3, 14, 0, 0, 0, 0, time.Local)

// at returns the instant of clock on the test day.
func at(clock string) time.Time {
	t, err := time.ParseInLocation("15:04:05", clock, time.Local)
	if err != nil {
		panic(err)
	}
	return testDay.Add(time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second)
}

func fixedNow(clock string) func() time.Time {
	t := at(clock)
	return func() time.Time { return t }
}

// stillTicker never fires, so counters only change through reconciliation.
type stillTicker struct{ ch chan time.Time }

func (s stillTicker) C() <-chan time.Time { return s.ch }
func (s stillTicker) Stop()               {}

func newStillTicker(time.Duration) timer.Ticker {
	return stillTicker{ch: make(chan time.Time)}
}

type fakeGateway struct {
	mu sync.Mutex

	punch    attendance.PunchRecord
	punchErr error
	brk      attendance.BreakRecord
	breakErr error
	postErr  error
	postResp attendance.ActionResponse

	// punchGates blocks the n-th FetchPunch call until the channel is closed.
	punchGates map[int]chan struct{}
	postGate   chan struct{}
	postStart  chan struct{}

	// onPost mimics the server applying the event.
	onPost func(f *fakeGateway, punchType string)

	punchCalls     int
	breakCalls     int
	attendanceReqs []attendance.CreateAttendanceRequest
	breakReqs      []attendance.CreateBreakRequest
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		punch:      attendance.PunchRecord{Status: attendance.PunchStatusNone},
		brk:        attendance.BreakRecord{Status: attendance.BreakStatusNone},
		punchGates: make(map[int]chan struct{}),
		postResp:   attendance.ActionResponse{Message: "ok"},
	}
}

func (f *fakeGateway) FetchPunch(ctx context.Context, _ attendance.Session) (attendance.PunchRecord, error) {
	f.mu.Lock()
	n := f.punchCalls
	f.punchCalls++
	rec, err := f.punch, f.punchErr
	gate := f.punchGates[n]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return attendance.PunchRecord{}, ctx.Err()
		}
	}
	return rec, err
}

func (f *fakeGateway) FetchBreak(_ context.Context, _ attendance.Session) (attendance.BreakRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.breakCalls++
	return f.brk, f.breakErr
}

func (f *fakeGateway) PostAttendance(_ context.Context, _ attendance.Session, req attendance.CreateAttendanceRequest) (attendance.ActionResponse, error) {
	f.waitPost()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attendanceReqs = append(f.attendanceReqs, req)
	if f.postErr != nil {
		return attendance.ActionResponse{}, f.postErr
	}
	if f.onPost != nil {
		f.onPost(f, req.PunchType)
	}
	return f.postResp, nil
}

func (f *fakeGateway) PostBreak(_ context.Context, _ attendance.Session, req attendance.CreateBreakRequest) (attendance.ActionResponse, error) {
	f.waitPost()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.breakReqs = append(f.breakReqs, req)
	if f.postErr != nil {
		return attendance.ActionResponse{}, f.postErr
	}
	if f.onPost != nil {
		f.onPost(f, req.PunchType)
	}
	return f.postResp, nil
}

func (f *fakeGateway) waitPost() {
	f.mu.Lock()
	gate, started := f.postGate, f.postStart
	f.mu.Unlock()
	if started != nil {
		close(started)
	}
	if gate != nil {
		<-gate
	}
}

func (f *fakeGateway) set(fn func(f *fakeGateway)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeGateway) counts() (punch, brk, posts int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.punchCalls, f.breakCalls, len(f.attendanceReqs) + len(f.breakReqs)
}

type fakeLocator struct {
	coords attendance.Coordinates
	err    error
}

func (l fakeLocator) Locate(context.Context) (attendance.Coordinates, error) {
	return l.coords, l.err
}

type fakeNamer struct{ name string }

func (n fakeNamer) ResolveLocationName(context.Context, float64, float64) string {
	return n.name
}

var testSession = attendance.Session{
	Token:      "token",
	UserID:     "user-1",
	EmployeeID: "emp-1",
	CompanyID:  "company-1",
}

func newTestTracker(gw attendance.Gateway, now func() time.Time, opts ...Option) *Tracker {
	base := []Option{
		WithNow(now),
		WithTimerOptions(timer.WithTicker(newStillTicker)),
	}
	return NewTracker(gw, testSession, append(base, opts...)...)
}
