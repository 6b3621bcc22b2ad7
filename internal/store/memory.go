// internal/store/memory.go
//
// In-memory registry of live sessions.
//
// Characteristics:
//   - Stores *session.Session values keyed by session ID in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Every entry carries an expiry; Expired hands back the lapsed ones so
//     the caller can close them.
//   - State is lost when the process restarts; rounds are not persisted.

package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/robalobadob/typelanes/internal/session"
)

var ErrNotFound = errors.New("session not found")

// Store defines the registry interface for sessions.
type Store interface {
	// Save stores s until expiresAt. Saving an existing ID replaces it.
	Save(ctx context.Context, s *session.Session, expiresAt time.Time) error

	// Get returns ErrNotFound for unknown IDs.
	Get(ctx context.Context, id string) (*session.Session, error)

	// Delete removes the session and returns it so the caller can close it.
	Delete(ctx context.Context, id string) (*session.Session, error)

	// List returns sessions ordered by creation time.
	List(ctx context.Context) ([]*session.Session, error)

	// Expired removes every session whose expiry is not after now and
	// returns them, oldest first.
	Expired(ctx context.Context, now time.Time) ([]*session.Session, error)
}

type entry struct {
	sess      *session.Session
	expiresAt time.Time
}

type memory struct {
	mu       sync.RWMutex
	sessions map[string]entry
}

func NewMemoryStore() Store {
	return &memory{sessions: make(map[string]entry)}
}

func (m *memory) Save(ctx context.Context, s *session.Session, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = entry{sess: s, expiresAt: expiresAt}
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*session.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.sessions[id]; ok {
		return e.sess, nil
	}
	return nil, ErrNotFound
}

func (m *memory) Delete(ctx context.Context, id string) (*session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(m.sessions, id)
	return e.sess, nil
}

func (m *memory) List(ctx context.Context) ([]*session.Session, error) {
	m.mu.RLock()
	out := make([]*session.Session, 0, len(m.sessions))
	for _, e := range m.sessions {
		out = append(out, e.sess)
	}
	m.mu.RUnlock()
	byCreated(out)
	return out, nil
}

func (m *memory) Expired(ctx context.Context, now time.Time) ([]*session.Session, error) {
	m.mu.Lock()
	var out []*session.Session
	for id, e := range m.sessions {
		if !e.expiresAt.After(now) {
			out = append(out, e.sess)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()
	byCreated(out)
	return out, nil
}

func byCreated(out []*session.Session) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].Created.Equal(out[j].Created) {
			return out[i].ID < out[j].ID
		}
		return out[i].Created.Before(out[j].Created)
	})
}
