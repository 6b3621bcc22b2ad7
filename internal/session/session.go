// internal/session/session.go
//
// A Session owns one game.Round and serializes every mutation of it.
//
// Responsibilities:
//   - Run a single goroutine that executes queued operations one at a time:
//     key events, start requests, snapshot reads and timer ticks.
//   - Drive lane and global countdowns through a timer.Ticker whose ticks
//     are queued on the same inbox.
//   - Fan observer notifications out to subscribers as protocol envelopes.
//
// Subscribers get a buffered outbox. A subscriber whose outbox is full is
// dropped and its channel closed.
package session

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/typelanes/internal/game"
	"github.com/robalobadob/typelanes/internal/protocol"
	"github.com/robalobadob/typelanes/internal/timer"
)

var ErrClosed = errors.New("session closed")

type Mode string

const (
	ModeStandard Mode = "standard"
	ModeDaily    Mode = "daily"
)

const outboxSize = 64

type Session struct {
	ID      string
	Mode    Mode
	Created time.Time

	inbox   chan func()
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	clock   clockwork.Clock
	ticker  *timer.Ticker
	round   *game.Round
	clients map[string]chan []byte

	rnd       *rand.Rand
	observers []game.Observer
}

type Option func(*Session)

func WithClock(c clockwork.Clock) Option {
	return func(s *Session) { s.clock = c }
}

func WithRand(r *rand.Rand) Option {
	return func(s *Session) { s.rnd = r }
}

func WithMode(m Mode) Option {
	return func(s *Session) { s.Mode = m }
}

// WithObservers attaches extra observers, notified after subscribers.
func WithObservers(obs ...game.Observer) Option {
	return func(s *Session) { s.observers = append(s.observers, obs...) }
}

// New starts the session goroutine. The session stops when parent is
// cancelled or Close is called.
func New(parent context.Context, id string, cfg game.Config, opts ...Option) *Session {
	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		ID:      id,
		Mode:    ModeStandard,
		inbox:   make(chan func(), 64),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		clock:   clockwork.NewRealClock(),
		clients: make(map[string]chan []byte),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Created = s.clock.Now()
	s.ticker = timer.NewTicker(s.clock, s.post)

	roundOpts := []game.Option{game.WithObserver(fanout{s})}
	if s.rnd != nil {
		roundOpts = append(roundOpts, game.WithRand(s.rnd))
	}
	for _, o := range s.observers {
		roundOpts = append(roundOpts, game.WithObserver(o))
	}
	s.round = game.New(cfg, s.ticker, roundOpts...)

	go s.loop()
	return s
}

func (s *Session) loop() {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			s.shutdown()
			return
		case fn := <-s.inbox:
			fn()
		}
	}
}

func (s *Session) shutdown() {
	s.ticker.Stop()
	for id, ch := range s.clients {
		close(ch)
		delete(s.clients, id)
	}
	log.Debug().Str("session", s.ID).Msg("session closed")
}

// post queues fn without waiting for it to run. Used as the ticker's
// dispatch function.
func (s *Session) post(fn func()) {
	select {
	case s.inbox <- fn:
	case <-s.ctx.Done():
	}
}

// do runs fn on the session goroutine and waits for it to finish.
func (s *Session) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	select {
	case s.inbox <- func() { fn(); close(finished) }:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ctx.Done():
		return ErrClosed
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrClosed
	}
}

// Start begins or restarts the round.
func (s *Session) Start(ctx context.Context) error {
	var err error
	if derr := s.do(ctx, func() { err = s.round.Start() }); derr != nil {
		return derr
	}
	if err != nil {
		log.Warn().Err(err).Str("session", s.ID).Msg("start rejected")
	}
	return err
}

func (s *Session) HandleKey(ctx context.Context, ev game.KeyEvent) error {
	return s.do(ctx, func() { s.round.HandleKey(ev) })
}

// HandleKeys applies a batch of keys in order within one turn of the loop.
func (s *Session) HandleKeys(ctx context.Context, evs []game.KeyEvent) error {
	return s.do(ctx, func() {
		for _, ev := range evs {
			s.round.HandleKey(ev)
		}
	})
}

func (s *Session) Snapshot(ctx context.Context) (game.Snapshot, error) {
	var snap game.Snapshot
	err := s.do(ctx, func() { snap = s.round.Snapshot() })
	return snap, err
}

// Subscribe registers an outbox for clientID. The first message on it is
// a full snapshot; observer notifications follow.
func (s *Session) Subscribe(ctx context.Context, clientID string) (<-chan []byte, error) {
	ch := make(chan []byte, outboxSize)
	err := s.do(ctx, func() {
		if old, ok := s.clients[clientID]; ok {
			close(old)
		}
		s.clients[clientID] = ch
		if b, err := protocol.Encode(protocol.MsgSnapshot, protocol.FromSnapshot(s.round.Snapshot())); err == nil {
			ch <- b
		}
	})
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func (s *Session) Unsubscribe(ctx context.Context, clientID string) error {
	return s.do(ctx, func() {
		if ch, ok := s.clients[clientID]; ok {
			close(ch)
			delete(s.clients, clientID)
		}
	})
}

// Clients returns the number of subscribers.
func (s *Session) Clients(ctx context.Context) (int, error) {
	var n int
	err := s.do(ctx, func() { n = len(s.clients) })
	return n, err
}

// Close stops the session and waits for its goroutine to exit.
func (s *Session) Close() {
	s.cancel()
	<-s.done
}

// Done is closed once the session goroutine has exited.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) broadcast(t string, payload any) {
	b, err := protocol.Encode(t, payload)
	if err != nil {
		log.Error().Err(err).Str("session", s.ID).Str("type", t).Msg("encode failed")
		return
	}
	for id, ch := range s.clients {
		select {
		case ch <- b:
		default:
			log.Warn().Str("session", s.ID).Str("client", id).Msg("dropping slow subscriber")
			close(ch)
			delete(s.clients, id)
		}
	}
}
