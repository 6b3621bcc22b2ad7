package session

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/typelanes/internal/daily"
	"github.com/robalobadob/typelanes/internal/game"
	"github.com/robalobadob/typelanes/internal/protocol"
)

func testConfig() game.Config {
	return game.DefaultConfig([]string{"apple"})
}

func newSession(t *testing.T, cfg game.Config, opts ...Option) (*Session, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	opts = append([]Option{WithClock(clock), WithRand(rand.New(rand.NewPCG(1, 2)))}, opts...)
	s := New(context.Background(), "s1", cfg, opts...)
	t.Cleanup(s.Close)
	return s, clock
}

// waitFor reads envelopes until one of type typ arrives.
func waitFor(t *testing.T, ch <-chan []byte, typ string) protocol.Envelope {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case b, ok := <-ch:
			require.True(t, ok, "outbox closed while waiting for %q", typ)
			env, err := protocol.DecodeEnvelope(b)
			require.NoError(t, err)
			if env.T == typ {
				return env
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q", typ)
		}
	}
}

func snapshot(t *testing.T, s *Session) game.Snapshot {
	t.Helper()
	snap, err := s.Snapshot(context.Background())
	require.NoError(t, err)
	return snap
}

func TestSubscribeSendsSnapshotFirst(t *testing.T) {
	s, _ := newSession(t, testConfig())
	ch, err := s.Subscribe(context.Background(), "c1")
	require.NoError(t, err)

	env := waitFor(t, ch, protocol.MsgSnapshot)
	snap, err := protocol.DecodePayload[protocol.Snapshot](env)
	require.NoError(t, err)
	assert.Equal(t, "idle", snap.Phase)
	assert.Empty(t, snap.Lanes)
}

func TestStartAndType(t *testing.T) {
	s, _ := newSession(t, testConfig())
	ctx := context.Background()
	ch, err := s.Subscribe(ctx, "c1")
	require.NoError(t, err)

	require.NoError(t, s.Start(ctx))
	waitFor(t, ch, protocol.MsgStarted)
	env := waitFor(t, ch, protocol.MsgTimer)
	tm, err := protocol.DecodePayload[protocol.Timer](env)
	require.NoError(t, err)
	assert.Equal(t, 60, tm.Remaining)

	var keys []game.KeyEvent
	for _, c := range "apple" {
		keys = append(keys, game.ClassifyRune(c))
	}
	require.NoError(t, s.HandleKeys(ctx, keys))

	env = waitFor(t, ch, protocol.MsgScore)
	sc, err := protocol.DecodePayload[protocol.Score](env)
	require.NoError(t, err)
	if sc.Score == 0 {
		env = waitFor(t, ch, protocol.MsgScore)
		sc, err = protocol.DecodePayload[protocol.Score](env)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, sc.Score)
	assert.Equal(t, 1, snapshot(t, s).Score)

	assert.ErrorIs(t, s.Start(ctx), game.ErrRoundRunning)
}

func TestTicksEndRound(t *testing.T) {
	cfg := testConfig()
	cfg.RoundSeconds = 2
	s, clock := newSession(t, cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ch, err := s.Subscribe(ctx, "c1")
	require.NoError(t, err)

	require.NoError(t, s.Start(ctx))
	require.NoError(t, clock.BlockUntilContext(ctx, 4))

	clock.Advance(time.Second)
	require.Eventually(t, func() bool { return snapshot(t, s).Remaining == 1 }, time.Second, 5*time.Millisecond)

	clock.Advance(time.Second)
	env := waitFor(t, ch, protocol.MsgEnded)
	ended, err := protocol.DecodePayload[protocol.Ended](env)
	require.NoError(t, err)
	assert.Equal(t, 0, ended.FinalScore)

	snap := snapshot(t, s)
	assert.Equal(t, game.PhaseEnded, snap.Phase)
	for _, l := range snap.Lanes {
		assert.Empty(t, l.Word)
		assert.False(t, l.Active)
	}
	assert.Eventually(t, func() bool { return s.ticker.Active() == 0 }, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Start(ctx), "a finished round can be restarted")
	assert.Equal(t, game.PhaseRunning, snapshot(t, s).Phase)
}

func TestStartRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Words = nil
	s, _ := newSession(t, cfg)
	assert.ErrorIs(t, s.Start(context.Background()), game.ErrInvalidConfig)
	assert.Equal(t, game.PhaseIdle, snapshot(t, s).Phase)
}

func TestSlowSubscriberDropped(t *testing.T) {
	s, _ := newSession(t, testConfig())
	ctx := context.Background()
	ch, err := s.Subscribe(ctx, "slow")
	require.NoError(t, err)
	require.NoError(t, s.Start(ctx))

	keys := make([]game.KeyEvent, 0, 200)
	for i := 0; i < 40; i++ {
		for _, c := range "apple" {
			keys = append(keys, game.ClassifyRune(c))
		}
	}
	require.NoError(t, s.HandleKeys(ctx, keys))

	n, err := s.Clients(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	count := 0
	for range ch {
		count++
	}
	assert.Equal(t, outboxSize, count)
}

func TestUnsubscribe(t *testing.T) {
	s, _ := newSession(t, testConfig())
	ctx := context.Background()
	ch, err := s.Subscribe(ctx, "c1")
	require.NoError(t, err)
	require.NoError(t, s.Unsubscribe(ctx, "c1"))
	require.NoError(t, s.Unsubscribe(ctx, "c1"))

	<-ch
	_, ok := <-ch
	assert.False(t, ok)
}

func TestCloseStopsEverything(t *testing.T) {
	s, _ := newSession(t, testConfig())
	ctx := context.Background()
	ch, err := s.Subscribe(ctx, "c1")
	require.NoError(t, err)
	require.NoError(t, s.Start(ctx))

	s.Close()
	for range ch {
	}
	assert.Zero(t, s.ticker.Active())
	assert.ErrorIs(t, s.Start(ctx), ErrClosed)
	_, err = s.Snapshot(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}

type counting struct {
	game.NopObserver
	started, ended int
}

func (c *counting) RoundStarted()  { c.started++ }
func (c *counting) RoundEnded(int) { c.ended++ }

func TestExtraObservers(t *testing.T) {
	obs := &counting{}
	cfg := testConfig()
	cfg.RoundSeconds = 1
	s, clock := newSession(t, cfg, WithObservers(obs))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, s.Start(ctx))
	require.NoError(t, clock.BlockUntilContext(ctx, 4))
	clock.Advance(time.Second)
	require.Eventually(t, func() bool { return snapshot(t, s).Phase == game.PhaseEnded }, time.Second, 5*time.Millisecond)

	// Reads happen after a round trip through the session goroutine.
	assert.Equal(t, 1, obs.started)
	assert.Equal(t, 1, obs.ended)
}

func TestDailySessionsDrawTheSameRound(t *testing.T) {
	words := []string{"apple", "banana", "cherry", "dragon", "elephant", "forest", "guitar"}
	day := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	var snaps []game.Snapshot
	for i := 0; i < 2; i++ {
		s := New(ctx, "daily", game.DefaultConfig(words),
			WithClock(clockwork.NewFakeClock()), WithMode(ModeDaily), WithRand(daily.Rand(day, "salt")))
		require.NoError(t, s.Start(ctx))
		snaps = append(snaps, snapshot(t, s))
		assert.Equal(t, ModeDaily, s.Mode)
		s.Close()
	}
	assert.Equal(t, snaps[0], snaps[1])
}
