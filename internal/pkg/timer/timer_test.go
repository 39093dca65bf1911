package timer

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manualTicker struct {
	ch      chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (m *manualTicker) C() <-chan time.Time { return m.ch }

func (m *manualTicker) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
}

func (m *manualTicker) isStopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

// fire delivers a tick without blocking when nobody is listening.
func (m *manualTicker) fire() {
	select {
	case m.ch <- time.Now():
	default:
	}
}

type tickerFactory struct {
	mu      sync.Mutex
	tickers []*manualTicker
}

func (f *tickerFactory) New(time.Duration) Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := &manualTicker{ch: make(chan time.Time, 1)}
	f.tickers = append(f.tickers, m)
	return m
}

func (f *tickerFactory) get(i int) *manualTicker {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tickers[i]
}

func newManualTimer(t *testing.T) (*Timer, *tickerFactory, chan int64) {
	t.Helper()
	factory := &tickerFactory{}
	ticks := make(chan int64, 16)
	tm := New("work",
		WithTicker(factory.New),
		WithOnTick(func(seconds int64, _ string) { ticks <- seconds }),
	)
	t.Cleanup(func() { tm.Close() })
	return tm, factory, ticks
}

func waitTick(t *testing.T, ticks chan int64) int64 {
	t.Helper()
	select {
	case v := <-ticks:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for tick")
		return 0
	}
}

func TestTimer_StartsStopped(t *testing.T) {
	tm := New("break")
	assert.Equal(t, StateStopped, tm.State())
	assert.Equal(t, int64(0), tm.Seconds())
	assert.Equal(t, "00:00:00", tm.Display())
	assert.Equal(t, "break", tm.Name())
}

func TestTimer_TickIncrements(t *testing.T) {
	tm, factory, ticks := newManualTimer(t)

	tm.Start(1799)
	assert.True(t, tm.Running())

	factory.get(0).fire()
	assert.Equal(t, int64(1800), waitTick(t, ticks))
	assert.Equal(t, "00:30:00", tm.Display())
}

func TestTimer_RestartLeavesSingleTickSource(t *testing.T) {
	tm, factory, ticks := newManualTimer(t)

	tm.Start(0)
	tm.Start(10)

	first := factory.get(0)
	second := factory.get(1)
	assert.True(t, first.isStopped(), "previous tick source must be released")
	assert.False(t, second.isStopped())

	// The released source is ignored; only the new one increments.
	first.fire()
	second.fire()
	assert.Equal(t, int64(11), waitTick(t, ticks))

	select {
	case v := <-ticks:
		t.Fatalf("unexpected extra tick: %d", v)
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, int64(11), tm.Seconds())
}

func TestTimer_StopFreezes(t *testing.T) {
	tm, factory, ticks := newManualTimer(t)

	tm.Start(100)
	factory.get(0).fire()
	waitTick(t, ticks)

	frozen := tm.Stop()
	assert.Equal(t, int64(101), frozen)
	assert.Equal(t, StateStopped, tm.State())
	assert.True(t, factory.get(0).isStopped())

	factory.get(0).fire()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int64(101), tm.Seconds())
}

func TestTimer_ResetAndSet(t *testing.T) {
	tm, _, _ := newManualTimer(t)

	tm.Start(42)
	tm.Reset()
	assert.Equal(t, int64(0), tm.Seconds())
	assert.False(t, tm.Running())

	tm.Set(900)
	assert.Equal(t, "00:15:00", tm.Display())
	assert.False(t, tm.Running())
}

func TestTimer_CloseIsIdempotent(t *testing.T) {
	tm, _, _ := newManualTimer(t)
	tm.Start(5)
	require.NoError(t, tm.Close())
	require.NoError(t, tm.Close())
	assert.Equal(t, int64(5), tm.Seconds())
}

func TestTimer_RealTicker(t *testing.T) {
	tm := New("clock", WithInterval(5*time.Millisecond))
	defer tm.Close()

	tm.Start(0)
	assert.Eventually(t, func() bool { return tm.Seconds() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestTimer_ConcurrentStarts(t *testing.T) {
	tm, factory, _ := newManualTimer(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			tm.Start(seed)
		}(int64(i))
	}
	wg.Wait()

	factory.mu.Lock()
	defer factory.mu.Unlock()
	running := 0
	for _, tk := range factory.tickers {
		if !tk.isStopped() {
			running++
		}
	}
	assert.Equal(t, 1, running)
}
