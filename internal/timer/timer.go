// internal/timer/timer.go
//
// Countdown primitives shared by the game engine and its hosts.
//
//   - Service starts fixed-interval tick callbacks and cancels them.
//   - Countdown wraps a Service for one logical countdown: Restart always
//     cancels the previous handle before starting a new one, so two tick
//     streams for the same purpose never overlap.
//
// Cancel is idempotent on every implementation. A tick that was already in
// flight when its handle got cancelled is dropped, never delivered.
package timer

import "time"

// Handle identifies one started tick stream. The zero Handle is never issued.
type Handle uint64

// Service issues ticks at a fixed interval until cancelled.
type Service interface {
	Start(interval time.Duration, onTick func()) Handle
	Cancel(h Handle)
}

// Countdown holds at most one live handle on a Service.
type Countdown struct {
	svc    Service
	handle Handle
}

// NewCountdown binds a countdown slot to svc.
func NewCountdown(svc Service) *Countdown {
	return &Countdown{svc: svc}
}

// Restart cancels any live handle and starts a new tick stream.
func (c *Countdown) Restart(interval time.Duration, onTick func()) {
	c.Stop()
	c.handle = c.svc.Start(interval, onTick)
}

// Stop cancels the live handle, if any.
func (c *Countdown) Stop() {
	if c.handle == 0 {
		return
	}
	c.svc.Cancel(c.handle)
	c.handle = 0
}

// Running reports whether the slot currently holds a live handle.
func (c *Countdown) Running() bool { return c.handle != 0 }
