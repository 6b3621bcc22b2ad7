package store

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/typelanes/internal/game"
	"github.com/robalobadob/typelanes/internal/session"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	st := NewMemoryStore()

	var made []*session.Session
	for _, id := range []string{"b", "a"} {
		s := session.New(ctx, id, game.DefaultConfig([]string{"ocean"}), session.WithClock(clock))
		t.Cleanup(s.Close)
		require.NoError(t, st.Save(ctx, s, clock.Now().Add(time.Hour)))
		made = append(made, s)
		clock.Advance(time.Second)
	}

	got, err := st.Get(ctx, "a")
	require.NoError(t, err)
	assert.Same(t, made[1], got)

	list, err := st.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID, "ordered by creation")

	deleted, err := st.Delete(ctx, "b")
	require.NoError(t, err)
	assert.Same(t, made[0], deleted)

	_, err = st.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = st.Delete(ctx, "b")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExpiredRemovesLapsedSessions(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	st := NewMemoryStore()

	ttl := map[string]time.Duration{"short": time.Minute, "edge": 2 * time.Minute, "long": time.Hour}
	for _, id := range []string{"short", "edge", "long"} {
		s := session.New(ctx, id, game.DefaultConfig([]string{"ocean"}), session.WithClock(clock))
		t.Cleanup(s.Close)
		require.NoError(t, st.Save(ctx, s, clock.Now().Add(ttl[id])))
	}

	gone, err := st.Expired(ctx, clock.Now().Add(30*time.Second))
	require.NoError(t, err)
	assert.Empty(t, gone)

	gone, err = st.Expired(ctx, clock.Now().Add(2*time.Minute))
	require.NoError(t, err)
	require.Len(t, gone, 2, "expiry at exactly now counts as lapsed")
	ids := []string{gone[0].ID, gone[1].ID}
	assert.ElementsMatch(t, []string{"short", "edge"}, ids)

	list, err := st.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "long", list[0].ID)

	_, err = st.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrNotFound)
}
