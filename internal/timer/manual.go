// internal/timer/manual.go
//
// Hand-driven Service for deterministic tests.

package timer

import "time"

// Manual is a deterministic Service driven by Advance. It suits hosts that
// own a frame loop and unit tests that need exact tick ordering.
//
// Not safe for concurrent use.
type Manual struct {
	now    time.Duration
	next   Handle
	timers map[Handle]*manualTimer
	order  []Handle
}

type manualTimer struct {
	interval time.Duration
	due      time.Duration
	onTick   func()
}

func NewManual() *Manual {
	return &Manual{timers: make(map[Handle]*manualTimer)}
}

func (m *Manual) Start(interval time.Duration, onTick func()) Handle {
	if interval <= 0 {
		panic("timer: non-positive interval")
	}
	m.next++
	h := m.next
	m.timers[h] = &manualTimer{interval: interval, due: m.now + interval, onTick: onTick}
	m.order = append(m.order, h)
	return h
}

func (m *Manual) Cancel(h Handle) {
	delete(m.timers, h)
}

// Active returns the number of live handles.
func (m *Manual) Active() int { return len(m.timers) }

// Elapsed returns the total time advanced so far.
func (m *Manual) Elapsed() time.Duration { return m.now }

// Advance moves time forward by d, firing every tick that falls due in
// deadline order. Ties fire in start order. Callbacks may start or cancel
// handles; a handle cancelled by an earlier callback does not fire.
func (m *Manual) Advance(d time.Duration) {
	target := m.now + d
	for {
		t := m.nextDue(target)
		if t == nil {
			break
		}
		m.now = t.due
		t.due += t.interval
		t.onTick()
	}
	m.now = target
}

func (m *Manual) nextDue(limit time.Duration) *manualTimer {
	var (
		best   *manualTimer
		active = m.order[:0]
	)
	for _, h := range m.order {
		t, ok := m.timers[h]
		if !ok {
			continue
		}
		active = append(active, h)
		if t.due > limit {
			continue
		}
		if best == nil || t.due < best.due {
			best = t
		}
	}
	m.order = active
	return best
}
