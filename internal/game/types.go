// internal/game/types.go
//
// Core type definitions for the typing-lane engine.
// Defines:
//   - Phase: lifecycle of a round (idle → running → ended → running ...).
//   - KeyType / KeyEvent: keystrokes already classified by the host.
//   - Range: the disjoint number span a lane draws its identifiers from.
//   - Config: everything a round consumes (lanes, durations, word list).
//   - LaneView / Snapshot: read-only copies handed to display layers.

package game

import (
	"errors"
	"fmt"
	"time"
	"unicode"
)

var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrRoundRunning  = errors.New("round already running")
)

// Phase is the coarse state of a round.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseRunning Phase = "running"
	PhaseEnded   Phase = "ended"
)

// KeyType classifies a keystroke before it reaches the engine.
type KeyType string

const (
	KeyDigit     KeyType = "digit"
	KeyLetter    KeyType = "letter"
	KeyBackspace KeyType = "backspace"
	KeyOther     KeyType = "other"
)

// KeyEvent is the only inbound input of the engine. Value is set for
// digit and letter keys.
type KeyEvent struct {
	Type  KeyType
	Value rune
}

// ClassifyRune turns a printable character into a KeyEvent.
// ASCII digits select lanes; any Unicode letter is word input.
func ClassifyRune(r rune) KeyEvent {
	switch {
	case r >= '0' && r <= '9':
		return KeyEvent{Type: KeyDigit, Value: r}
	case unicode.IsLetter(r):
		return KeyEvent{Type: KeyLetter, Value: r}
	default:
		return KeyEvent{Type: KeyOther, Value: r}
	}
}

// Range is an inclusive span of lane numbers.
type Range struct {
	Min int
	Max int
}

// Contains reports whether n lies inside the span.
func (r Range) Contains(n int) bool { return n >= r.Min && n <= r.Max }

// Config holds the inputs of a round. Durations are whole seconds counted
// down once per TickInterval.
type Config struct {
	Lanes        int
	Ranges       []Range // one per lane; derived from NumberMin..NumberMax when empty
	NumberMin    int
	NumberMax    int
	LaneSeconds  int
	RoundSeconds int
	TickInterval time.Duration
	Words        []string
}

// DefaultConfig mirrors the development profile: three lanes over 10–99,
// a 15s word timer and a 60s round.
func DefaultConfig(words []string) Config {
	return Config{
		Lanes:        3,
		NumberMin:    10,
		NumberMax:    99,
		LaneSeconds:  15,
		RoundSeconds: 60,
		TickInterval: time.Second,
		Words:        words,
	}
}

// LaneRanges returns the configured ranges, or derives them from the
// number domain when none are given.
func (c Config) LaneRanges() []Range {
	if len(c.Ranges) > 0 {
		return c.Ranges
	}
	return NumberRanges(c.Lanes, c.NumberMin, c.NumberMax)
}

// Validate rejects configurations a round cannot start with.
func (c Config) Validate() error {
	if c.Lanes <= 0 {
		return fmt.Errorf("%w: lane count must be positive, got %d", ErrInvalidConfig, c.Lanes)
	}
	if c.LaneSeconds <= 0 {
		return fmt.Errorf("%w: lane timer must be positive, got %d", ErrInvalidConfig, c.LaneSeconds)
	}
	if c.RoundSeconds <= 0 {
		return fmt.Errorf("%w: round timer must be positive, got %d", ErrInvalidConfig, c.RoundSeconds)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("%w: tick interval must be positive, got %s", ErrInvalidConfig, c.TickInterval)
	}
	if len(c.Words) == 0 {
		return fmt.Errorf("%w: word list is empty", ErrInvalidConfig)
	}
	for i, w := range c.Words {
		if w == "" {
			return fmt.Errorf("%w: word %d is empty", ErrInvalidConfig, i)
		}
	}
	return validateRanges(c.LaneRanges(), c.Lanes)
}

// LaneView is a display copy of one lane.
type LaneView struct {
	ID        int
	Number    int
	Word      string
	Typed     string
	Remaining int
	Active    bool
}

// Snapshot is a display copy of the whole round.
type Snapshot struct {
	Phase      Phase
	Score      int
	Remaining  int
	ActiveLane int
	Buffer     string
	Lanes      []LaneView
}

// Observer receives display notifications. Calls happen synchronously on
// the goroutine that owns the round.
type Observer interface {
	LaneChanged(id int, lane LaneView)
	ScoreChanged(score int)
	GlobalTimerChanged(remaining int)
	RoundStarted()
	RoundEnded(finalScore int)
}

// NopObserver can be embedded to implement only part of Observer.
type NopObserver struct{}

func (NopObserver) LaneChanged(int, LaneView) {}
func (NopObserver) ScoreChanged(int)          {}
func (NopObserver) GlobalTimerChanged(int)    {}
func (NopObserver) RoundStarted()             {}
func (NopObserver) RoundEnded(int)            {}
