// internal/timer/ticker.go
//
// Clock-backed Service for live hosts.

package timer

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Ticker is a Service backed by clockwork tickers, so production code runs
// on the real clock and tests on a FakeClock.
//
// Every tick is handed to dispatch instead of being run on the ticker
// goroutine. The owner of the ticked state passes a dispatch that enqueues
// the callback onto its own goroutine, which keeps all state mutation on a
// single owner. The liveness check runs inside the dispatched callback, so a
// tick queued before Cancel is dropped when it finally runs.
type Ticker struct {
	clock    clockwork.Clock
	dispatch func(func())

	mu     sync.Mutex
	next   Handle
	active map[Handle]chan struct{}
}

// NewTicker returns a Ticker on clock. A nil dispatch runs callbacks on the
// ticker goroutine.
func NewTicker(clock clockwork.Clock, dispatch func(func())) *Ticker {
	if dispatch == nil {
		dispatch = func(fn func()) { fn() }
	}
	return &Ticker{
		clock:    clock,
		dispatch: dispatch,
		active:   make(map[Handle]chan struct{}),
	}
}

func (t *Ticker) Start(interval time.Duration, onTick func()) Handle {
	t.mu.Lock()
	t.next++
	h := t.next
	stop := make(chan struct{})
	t.active[h] = stop
	t.mu.Unlock()

	tk := t.clock.NewTicker(interval)
	go func() {
		defer tk.Stop()
		for {
			select {
			case <-stop:
				return
			case <-tk.Chan():
				select {
				case <-stop:
					return
				default:
				}
				t.dispatch(func() {
					if t.live(h) {
						onTick()
					}
				})
			}
		}
	}()
	return h
}

func (t *Ticker) Cancel(h Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if stop, ok := t.active[h]; ok {
		close(stop)
		delete(t.active, h)
	}
}

// Stop cancels every live handle.
func (t *Ticker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for h, stop := range t.active {
		close(stop)
		delete(t.active, h)
	}
}

// Active returns the number of live handles.
func (t *Ticker) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.active)
}

func (t *Ticker) live(h Handle) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.active[h]
	return ok
}
