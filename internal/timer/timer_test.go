package timer

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualFiresAtInterval(t *testing.T) {
	m := NewManual()
	n := 0
	m.Start(time.Second, func() { n++ })

	m.Advance(999 * time.Millisecond)
	assert.Equal(t, 0, n)
	m.Advance(time.Millisecond)
	assert.Equal(t, 1, n)
	m.Advance(3 * time.Second)
	assert.Equal(t, 4, n)
}

func TestManualCancelIsIdempotent(t *testing.T) {
	m := NewManual()
	n := 0
	h := m.Start(time.Second, func() { n++ })
	m.Cancel(h)
	m.Cancel(h)
	m.Cancel(Handle(42))

	m.Advance(5 * time.Second)
	assert.Equal(t, 0, n)
	assert.Equal(t, 0, m.Active())
}

func TestManualCallbackCancelsLaterTimer(t *testing.T) {
	m := NewManual()
	var fired []string
	var second Handle
	m.Start(time.Second, func() {
		fired = append(fired, "first")
		m.Cancel(second)
	})
	second = m.Start(time.Second, func() { fired = append(fired, "second") })

	m.Advance(time.Second)
	assert.Equal(t, []string{"first"}, fired)
}

func TestCountdownRestartCancelsPrevious(t *testing.T) {
	m := NewManual()
	c := NewCountdown(m)
	a, b := 0, 0

	c.Restart(time.Second, func() { a++ })
	m.Advance(500 * time.Millisecond)
	c.Restart(time.Second, func() { b++ })
	m.Advance(time.Second)

	assert.Equal(t, 0, a, "first countdown must not tick after restart")
	assert.Equal(t, 1, b)
	assert.Equal(t, 1, m.Active())

	c.Stop()
	c.Stop()
	assert.False(t, c.Running())
	assert.Equal(t, 0, m.Active())
}

// queued collects dispatched callbacks so the test decides when they run.
type queued chan func()

func (q queued) dispatch(fn func()) { q <- fn }

func (q queued) next(t *testing.T) func() {
	t.Helper()
	select {
	case fn := <-q:
		return fn
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for dispatched tick")
		return nil
	}
}

func (q queued) none(t *testing.T, within time.Duration) {
	t.Helper()
	select {
	case <-q:
		t.Fatalf("unexpected tick dispatched")
	case <-time.After(within):
	}
}

func TestTickerDispatchesTicks(t *testing.T) {
	clock := clockwork.NewFakeClock()
	q := make(queued, 4)
	tk := NewTicker(clock, q.dispatch)

	n := 0
	tk.Start(time.Second, func() { n++ })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	clock.Advance(time.Second)
	q.next(t)()
	assert.Equal(t, 1, n)
}

func TestTickerDropsStaleTick(t *testing.T) {
	clock := clockwork.NewFakeClock()
	q := make(queued, 4)
	tk := NewTicker(clock, q.dispatch)

	n := 0
	h := tk.Start(time.Second, func() { n++ })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	clock.Advance(time.Second)
	stale := q.next(t)
	tk.Cancel(h)
	stale()

	assert.Equal(t, 0, n, "tick queued before cancel must not run")
	assert.Equal(t, 0, tk.Active())

	clock.Advance(time.Second)
	q.none(t, 50*time.Millisecond)
}

func TestTickerStopCancelsAll(t *testing.T) {
	clock := clockwork.NewFakeClock()
	q := make(queued, 4)
	tk := NewTicker(clock, q.dispatch)

	tk.Start(time.Second, func() {})
	tk.Start(2*time.Second, func() {})
	require.Equal(t, 2, tk.Active())

	tk.Stop()
	assert.Equal(t, 0, tk.Active())

	clock.Advance(4 * time.Second)
	q.none(t, 50*time.Millisecond)
}
