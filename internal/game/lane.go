// internal/game/lane.go
//
// A single lane: its number, target word, typed prefix and countdown.
//
// Notes:
//   - The typed prefix is a rune count into the target word, never a
//     separate string.
//   - changed/expired hooks are installed by the Round that owns the lane.

package game

import (
	"time"

	"github.com/robalobadob/typelanes/internal/timer"
)

// Lane is one typing slot. Typed input is stored as a count of matched
// runes, so the typed prefix can never diverge from the target word.
type Lane struct {
	id        int
	span      Range
	number    int
	word      []rune
	typed     int
	remaining int
	active    bool

	seconds   int
	interval  time.Duration
	countdown *timer.Countdown

	changed func(*Lane)
	expired func(*Lane)
}

func newLane(id int, span Range, seconds int, interval time.Duration, timers timer.Service) *Lane {
	return &Lane{
		id:        id,
		span:      span,
		seconds:   seconds,
		interval:  interval,
		countdown: timer.NewCountdown(timers),
		changed:   func(*Lane) {},
		expired:   func(*Lane) {},
	}
}

// AssignWord sets a new target, clears typed input and restarts the lane
// countdown from the full lane duration.
func (l *Lane) AssignWord(word string) {
	l.word = []rune(word)
	l.typed = 0
	l.remaining = l.seconds
	l.countdown.Restart(l.interval, l.tick)
	l.changed(l)
}

// TryType accepts c only if it is the next rune of the target word.
func (l *Lane) TryType(c rune) bool {
	if l.typed >= len(l.word) || l.word[l.typed] != c {
		return false
	}
	l.typed++
	l.changed(l)
	return true
}

// Backspace removes the last typed rune.
func (l *Lane) Backspace() {
	if l.typed == 0 {
		return
	}
	l.typed--
	l.changed(l)
}

// IsComplete reports whether the whole target word has been typed.
func (l *Lane) IsComplete() bool {
	return len(l.word) > 0 && l.typed == len(l.word)
}

func (l *Lane) Activate() {
	l.active = true
	l.changed(l)
}

// Deactivate also drops typed input: resuming a lane restarts its word.
func (l *Lane) Deactivate() {
	l.active = false
	l.typed = 0
	l.changed(l)
}

func (l *Lane) ReassignNumber(n int) {
	l.number = n
	l.changed(l)
}

// Teardown cancels the countdown and clears everything but the number.
func (l *Lane) Teardown() {
	l.countdown.Stop()
	l.word = nil
	l.typed = 0
	l.remaining = 0
	l.active = false
	l.changed(l)
}

func (l *Lane) tick() {
	l.remaining--
	l.changed(l)
	if l.remaining <= 0 {
		l.expired(l)
	}
}

func (l *Lane) ID() int            { return l.id }
func (l *Lane) Number() int        { return l.number }
func (l *Lane) Span() Range        { return l.span }
func (l *Lane) Word() string       { return string(l.word) }
func (l *Lane) Typed() string      { return string(l.word[:l.typed]) }
func (l *Lane) Remaining() int     { return l.remaining }
func (l *Lane) Active() bool       { return l.active }
func (l *Lane) TimerRunning() bool { return l.countdown.Running() }

func (l *Lane) View() LaneView {
	return LaneView{
		ID:        l.id,
		Number:    l.number,
		Word:      l.Word(),
		Typed:     l.Typed(),
		Remaining: l.remaining,
		Active:    l.active,
	}
}
