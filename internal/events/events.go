// internal/events/events.go
//
// Publishes round lifecycle events to NATS so other services (leaderboards,
// analytics) can follow play without touching the game server.
//
// Subjects: <prefix>.<sessionID>.<eventType> with eventType one of
// started, score, ended. Publishing is fire-and-forget: failures are
// logged and never affect the round.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/typelanes/internal/game"
)

const (
	EventStarted = "started"
	EventScore   = "score"
	EventEnded   = "ended"
)

type Config struct {
	URL           string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
}

func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		SubjectPrefix: "typelanes.rounds",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// Conn is the part of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
}

// Connect dials NATS with reconnect handling.
func Connect(cfg Config) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("typelanes"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}
	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return nc, nil
}

// Event is the JSON body of every published message.
type Event struct {
	EventID   string          `json:"eventId"`
	EventType string          `json:"eventType"`
	SessionID string          `json:"sessionId"`
	Mode      string          `json:"mode,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// RoundPublisher is a game.Observer that forwards lifecycle events.
type RoundPublisher struct {
	game.NopObserver

	conn      Conn
	prefix    string
	sessionID string
	mode      string
	clock     clockwork.Clock
}

func NewRoundPublisher(conn Conn, prefix, sessionID, mode string, clock clockwork.Clock) *RoundPublisher {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &RoundPublisher{conn: conn, prefix: prefix, sessionID: sessionID, mode: mode, clock: clock}
}

func (p *RoundPublisher) RoundStarted() {
	p.publish(EventStarted, struct{}{})
}

func (p *RoundPublisher) ScoreChanged(score int) {
	if score == 0 {
		return
	}
	p.publish(EventScore, map[string]int{"score": score})
}

func (p *RoundPublisher) RoundEnded(finalScore int) {
	p.publish(EventEnded, map[string]int{"finalScore": finalScore})
}

// Subject returns the subject an event type is published on.
func (p *RoundPublisher) Subject(eventType string) string {
	return fmt.Sprintf("%s.%s.%s", p.prefix, p.sessionID, eventType)
}

func (p *RoundPublisher) publish(eventType string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("marshal event payload")
		return
	}
	data, err := json.Marshal(Event{
		EventID:   uuid.NewString(),
		EventType: eventType,
		SessionID: p.sessionID,
		Mode:      p.mode,
		Timestamp: p.clock.Now().UTC(),
		Payload:   body,
	})
	if err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("marshal event")
		return
	}
	if err := p.conn.Publish(p.Subject(eventType), data); err != nil {
		log.Warn().Err(err).Str("session", p.sessionID).Str("event_type", eventType).Msg("publish round event")
	}
}
