package tui

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/typelanes/internal/config"
	"github.com/robalobadob/typelanes/internal/game"
)

func newApp(t *testing.T, cfg game.Config) (*App, tcell.SimulationScreen, *clockwork.FakeClock) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	screen.SetSize(80, 24)
	t.Cleanup(screen.Fini)

	clock := clockwork.NewFakeClock()
	a := New(screen, cfg, config.Colors{Active: "green"},
		WithClock(clock), WithRand(rand.New(rand.NewPCG(4, 2))))
	return a, screen, clock
}

// contents returns the visible screen as lines.
func contents(screen tcell.SimulationScreen) string {
	cells, w, h := screen.GetContents()
	var b strings.Builder
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := cells[y*w+x]
			if len(c.Runes) == 0 {
				b.WriteRune(' ')
			} else {
				b.WriteRune(c.Runes[0])
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func key(k tcell.Key) *tcell.EventKey { return tcell.NewEventKey(k, 0, tcell.ModNone) }

func runeKey(r rune) *tcell.EventKey { return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone) }

func TestKeysDriveRound(t *testing.T) {
	a, screen, _ := newApp(t, game.DefaultConfig([]string{"ocean"}))
	a.draw()
	assert.Contains(t, contents(screen), "Press Enter to start")

	assert.True(t, a.handleKey(runeKey('o')), "keys before start are ignored")
	assert.True(t, a.handleKey(key(tcell.KeyEnter)))
	require.Equal(t, game.PhaseRunning, a.round.Phase())

	for _, r := range "ocea" {
		a.handleKey(runeKey(r))
	}
	a.handleKey(key(tcell.KeyBackspace2))
	assert.Equal(t, "oce", a.round.Lane(0).Typed())
	a.handleKey(runeKey('a'))
	a.handleKey(runeKey('n'))
	assert.Equal(t, 1, a.round.Score())

	a.handleKey(key(tcell.KeyTab))
	a.draw()
	out := contents(screen)
	assert.Contains(t, out, "Score: 1")
	assert.Contains(t, out, "ocean")

	assert.False(t, a.handleKey(key(tcell.KeyEscape)))
	assert.False(t, a.handleKey(key(tcell.KeyCtrlC)))
}

func TestDigitsSwitchLane(t *testing.T) {
	a, _, _ := newApp(t, game.DefaultConfig([]string{"ocean"}))
	a.handleKey(key(tcell.KeyEnter))

	n := a.round.Lane(2).Number()
	for _, r := range []rune{rune('0' + n/10), rune('0' + n%10)} {
		a.handleKey(runeKey(r))
	}
	assert.Equal(t, 2, a.round.ActiveLane())
}

func TestStartErrorShown(t *testing.T) {
	a, screen, _ := newApp(t, game.DefaultConfig(nil))
	a.handleKey(key(tcell.KeyEnter))
	a.draw()
	assert.Equal(t, game.PhaseIdle, a.round.Phase())
	assert.Contains(t, contents(screen), "word list is empty")
}

func TestRunTicksUntilGameOver(t *testing.T) {
	cfg := game.DefaultConfig([]string{"ocean"})
	cfg.RoundSeconds = 2
	a, screen, clock := newApp(t, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	screen.InjectKey(tcell.KeyEnter, 0, tcell.ModNone)
	require.NoError(t, clock.BlockUntilContext(ctx, 4))
	clock.Advance(time.Second)
	require.Eventually(t, func() bool { return strings.Contains(contents(screen), "Time: 1 ") }, 2*time.Second, 10*time.Millisecond)
	clock.Advance(time.Second)
	require.Eventually(t, func() bool { return strings.Contains(contents(screen), "Game Over") }, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, contents(screen), "Press Enter to retry")

	screen.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("Run did not return after Esc")
	}
}

func TestRunStopsOnContext(t *testing.T) {
	a, _, _ := newApp(t, game.DefaultConfig([]string{"ocean"}))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestLanePositions(t *testing.T) {
	assert.Equal(t, []int{21, 40, 59}, lanePositions(3, 80))
}

// busyScreen rejects the first busy posts as if the event queue were full.
type busyScreen struct {
	tcell.SimulationScreen

	mu   sync.Mutex
	busy int
}

func (s *busyScreen) PostEvent(ev tcell.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy > 0 {
		s.busy--
		return errors.New("event queue full")
	}
	return s.SimulationScreen.PostEvent(ev)
}

func newBusyApp(t *testing.T, busy int) (*App, tcell.SimulationScreen, *clockwork.FakeClock) {
	t.Helper()
	sim := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, sim.Init())
	t.Cleanup(sim.Fini)
	clock := clockwork.NewFakeClock()
	a := New(&busyScreen{SimulationScreen: sim, busy: busy}, game.DefaultConfig([]string{"ocean"}), config.Colors{},
		WithClock(clock))
	return a, sim, clock
}

func TestTickRetriedWhileQueueFull(t *testing.T) {
	a, sim, clock := newBusyApp(t, 2)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	ran := make(chan struct{})
	posted := make(chan struct{})
	go func() {
		a.post(func() { close(ran) })
		close(posted)
	}()

	for i := 0; i < 2; i++ {
		require.NoError(t, clock.BlockUntilContext(ctx, 1))
		clock.Advance(postRetry)
	}
	select {
	case <-posted:
	case <-ctx.Done():
		t.Fatal("tick was not delivered once the queue drained")
	}

	for {
		if ev, ok := sim.PollEvent().(*tcell.EventInterrupt); ok {
			ev.Data().(func())()
			break
		}
	}
	select {
	case <-ran:
	default:
		t.Fatal("delivered tick did not carry the callback")
	}
}

func TestTickRetryStopsWhenRunReturns(t *testing.T) {
	a, _, clock := newBusyApp(t, 1<<30)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	posted := make(chan struct{})
	go func() {
		a.post(func() {})
		close(posted)
	}()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	// Run closes done on its way out.
	close(a.done)
	select {
	case <-posted:
	case <-ctx.Done():
		t.Fatal("post kept retrying after the event loop stopped")
	}
}
