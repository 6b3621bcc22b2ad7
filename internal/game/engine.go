// internal/game/engine.go
//
// Round controller for the typing-lane game.
// Responsibilities:
//   - Start a round: reset score and global countdown, give every lane a
//     fresh number and word, activate lane 0.
//   - Route classified keystrokes: digits select lanes, letters and
//     backspace go to the active lane.
//   - Score completed words and hand the lane a new one.
//   - End the round when the global countdown or any lane countdown runs out.
//
// Notes:
//   - A Round is not safe for concurrent use. Hosts serialize every call
//     (key events and timer ticks alike) behind one owner; see
//     internal/session.
//   - Timers come from a timer.Service so tests can drive time by hand.
package game

import (
	"math/rand/v2"
	"strconv"

	"github.com/robalobadob/typelanes/internal/timer"
)

// Round owns all mutable state of one game: lanes, score, global
// countdown, active lane and the lane-selection buffer.
type Round struct {
	cfg       Config
	timers    timer.Service
	rnd       *rand.Rand
	observers []Observer

	phase     Phase
	score     int
	remaining int
	active    int
	lanes     []*Lane
	alloc     *Allocator
	sel       selector
	global    *timer.Countdown
}

type Option func(*Round)

// WithRand fixes the source used for lane numbers and word draws.
func WithRand(r *rand.Rand) Option {
	return func(rd *Round) { rd.rnd = r }
}

// WithObserver adds a display observer. Observers are notified in the
// order they were added.
func WithObserver(o Observer) Option {
	return func(rd *Round) { rd.observers = append(rd.observers, o) }
}

// New creates an idle round. The configuration is validated by Start.
func New(cfg Config, timers timer.Service, opts ...Option) *Round {
	r := &Round{
		cfg:    cfg,
		timers: timers,
		phase:  PhaseIdle,
		active: -1,
		global: timer.NewCountdown(timers),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.rnd == nil {
		r.rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return r
}

// Start begins a round from Idle or Ended. No state is touched when the
// configuration is rejected.
func (r *Round) Start() error {
	if r.phase == PhaseRunning {
		return ErrRoundRunning
	}
	if err := r.cfg.Validate(); err != nil {
		return err
	}
	if r.lanes == nil {
		r.build()
	}

	r.phase = PhaseRunning
	r.score = 0
	r.remaining = r.cfg.RoundSeconds
	r.sel.clear()
	r.each(func(o Observer) { o.RoundStarted() })

	for _, l := range r.lanes {
		l.ReassignNumber(r.alloc.Allocate(l.id))
		l.AssignWord(r.randomWord())
	}
	r.active = 0
	r.lanes[0].Activate()

	r.global.Restart(r.cfg.TickInterval, r.globalTick)
	r.each(func(o Observer) { o.ScoreChanged(r.score) })
	r.each(func(o Observer) { o.GlobalTimerChanged(r.remaining) })
	return nil
}

func (r *Round) build() {
	ranges := r.cfg.LaneRanges()
	r.alloc = NewAllocator(ranges, r.rnd)
	r.sel.width = r.alloc.Width()
	r.lanes = make([]*Lane, len(ranges))
	for i, span := range ranges {
		l := newLane(i, span, r.cfg.LaneSeconds, r.cfg.TickInterval, r.timers)
		l.changed = r.laneChanged
		l.expired = r.laneExpired
		r.lanes[i] = l
	}
}

// HandleKey is the only inbound input while a round runs. Keys outside a
// running round, and keys of unknown type, are ignored.
func (r *Round) HandleKey(ev KeyEvent) {
	if r.phase != PhaseRunning {
		return
	}
	switch ev.Type {
	case KeyDigit:
		if i := r.sel.feed(ev.Value, r.numbers()); i >= 0 {
			r.switchTo(i)
		}
	case KeyLetter:
		r.sel.clear()
		r.lanes[r.active].TryType(ev.Value)
		r.checkComplete()
	case KeyBackspace:
		r.sel.clear()
		r.lanes[r.active].Backspace()
		r.checkComplete()
	}
}

func (r *Round) checkComplete() {
	l := r.lanes[r.active]
	if !l.IsComplete() {
		return
	}
	r.score++
	r.each(func(o Observer) { o.ScoreChanged(r.score) })
	l.AssignWord(r.randomWord())
}

// switchTo makes lane i active. The vacated lane loses its typed input and
// gets a new number so the same digits do not select it again.
func (r *Round) switchTo(i int) {
	if i == r.active {
		return
	}
	out := r.lanes[r.active]
	out.ReassignNumber(r.alloc.Allocate(out.id))
	out.Deactivate()
	r.active = i
	r.lanes[i].Activate()
}

func (r *Round) globalTick() {
	if r.phase != PhaseRunning {
		return
	}
	r.remaining--
	r.each(func(o Observer) { o.GlobalTimerChanged(r.remaining) })
	if r.remaining <= 0 {
		r.end()
	}
}

func (r *Round) laneExpired(*Lane) {
	if r.phase == PhaseRunning {
		r.end()
	}
}

// end cancels every countdown and clears lane input. Lane numbers survive
// until the next Start.
func (r *Round) end() {
	r.phase = PhaseEnded
	r.global.Stop()
	r.active = -1
	for _, l := range r.lanes {
		l.Teardown()
	}
	r.sel.clear()
	r.each(func(o Observer) { o.RoundEnded(r.score) })
}

func (r *Round) laneChanged(l *Lane) {
	v := l.View()
	r.each(func(o Observer) { o.LaneChanged(l.id, v) })
}

func (r *Round) each(fn func(Observer)) {
	for _, o := range r.observers {
		fn(o)
	}
}

func (r *Round) numbers() []string {
	out := make([]string, len(r.lanes))
	for i, l := range r.lanes {
		out[i] = strconv.Itoa(l.number)
	}
	return out
}

// Repeats are allowed, including the word just completed.
func (r *Round) randomWord() string {
	return r.cfg.Words[r.rnd.IntN(len(r.cfg.Words))]
}

func (r *Round) Phase() Phase     { return r.phase }
func (r *Round) Score() int       { return r.score }
func (r *Round) Remaining() int   { return r.remaining }
func (r *Round) ActiveLane() int  { return r.active }
func (r *Round) Buffer() string   { return r.sel.String() }
func (r *Round) Config() Config   { return r.cfg }
func (r *Round) LaneCount() int   { return len(r.lanes) }
func (r *Round) Lane(i int) *Lane { return r.lanes[i] }

// Snapshot copies the round for display. Lanes are empty before the
// first Start.
func (r *Round) Snapshot() Snapshot {
	s := Snapshot{
		Phase:      r.phase,
		Score:      r.score,
		Remaining:  r.remaining,
		ActiveLane: r.active,
		Buffer:     r.sel.String(),
		Lanes:      make([]LaneView, len(r.lanes)),
	}
	for i, l := range r.lanes {
		s.Lanes[i] = l.View()
	}
	return s
}
