// internal/tui/tui.go
//
// Terminal host for the typing-lane game.
// Responsibilities:
//   - Translate terminal key events into engine key events.
//   - Run lane and global countdowns through a timer.Ticker whose ticks are
//     posted into the tcell event queue, so the round is only touched by
//     the event loop goroutine. A tick that meets a full queue is retried
//     until it lands or Run returns; ticks are never dropped.
//   - Draw lanes in columns with score, global timer and round state.
//
// Keys: Enter starts or retries a round, Esc/Ctrl-C quits, Backspace
// deletes, everything else goes to the engine.
package tui

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/typelanes/internal/config"
	"github.com/robalobadob/typelanes/internal/game"
	"github.com/robalobadob/typelanes/internal/timer"
)

// Lane rows, relative to the top of the screen.
const (
	rowHeader = 0
	rowBuffer = 1
	rowNumber = 3
	rowWord   = 5
	rowTyped  = 7
	rowTimer  = 9
	rowStatus = 12
	rowHint   = 14
	spacing   = 2
)

// postRetry is the pause before re-posting a tick to a full event queue.
const postRetry = 5 * time.Millisecond

type quitSignal struct{}

type styles struct {
	text, active, inactive, success, danger, neutral tcell.Style
}

func newStyles(c config.Colors) styles {
	fg := func(name string, fallback tcell.Color) tcell.Style {
		col := tcell.GetColor(name)
		if col == tcell.ColorDefault {
			col = fallback
		}
		return tcell.StyleDefault.Foreground(col)
	}
	return styles{
		text:     fg(c.Text, tcell.ColorWhite),
		active:   fg(c.Active, tcell.ColorGreen).Bold(true).Reverse(true),
		inactive: fg(c.Inactive, tcell.ColorGray),
		success:  fg(c.Success, tcell.ColorGreen),
		danger:   fg(c.Danger, tcell.ColorRed).Bold(true),
		neutral:  fg(c.Neutral, tcell.ColorDarkGray),
	}
}

type App struct {
	game.NopObserver

	screen tcell.Screen
	round  *game.Round
	ticker *timer.Ticker
	clock  clockwork.Clock
	style  styles
	done   chan struct{}

	best   int
	status string
}

type Option func(*options)

type options struct {
	clock clockwork.Clock
	rnd   *rand.Rand
}

func WithClock(c clockwork.Clock) Option { return func(o *options) { o.clock = c } }

func WithRand(r *rand.Rand) Option { return func(o *options) { o.rnd = r } }

// New builds the app on an initialised screen.
func New(screen tcell.Screen, cfg game.Config, colors config.Colors, opts ...Option) *App {
	o := options{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(&o)
	}
	a := &App{screen: screen, clock: o.clock, style: newStyles(colors), done: make(chan struct{})}
	a.ticker = timer.NewTicker(o.clock, a.post)

	roundOpts := []game.Option{game.WithObserver(a)}
	if o.rnd != nil {
		roundOpts = append(roundOpts, game.WithRand(o.rnd))
	}
	a.round = game.New(cfg, a.ticker, roundOpts...)
	return a
}

// post queues fn on the event loop. It blocks the calling ticker while the
// queue is full.
func (a *App) post(fn func()) { a.interrupt(fn) }

// interrupt delivers data to the event loop as an interrupt event, retrying
// while the queue is full. It gives up once Run has returned.
func (a *App) interrupt(data any) {
	ev := tcell.NewEventInterrupt(data)
	for {
		err := a.screen.PostEvent(ev)
		if err == nil {
			return
		}
		log.Debug().Err(err).Msg("event queue full, retrying")
		select {
		case <-a.done:
			return
		case <-a.clock.After(postRetry):
		}
	}
}

// Run processes events until the player quits or ctx is done.
func (a *App) Run(ctx context.Context) error {
	defer close(a.done)
	defer a.ticker.Stop()

	stop := context.AfterFunc(ctx, func() { a.interrupt(quitSignal{}) })
	defer stop()

	a.draw()
	for {
		ev := a.screen.PollEvent()
		if ev == nil {
			return nil
		}
		switch ev := ev.(type) {
		case *tcell.EventInterrupt:
			switch d := ev.Data().(type) {
			case func():
				d()
			case quitSignal:
				return ctx.Err()
			}
		case *tcell.EventKey:
			if !a.handleKey(ev) {
				return nil
			}
		case *tcell.EventResize:
			a.screen.Sync()
		}
		a.draw()
	}
}

// handleKey returns false when the player asked to quit.
func (a *App) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyEnter:
		if a.round.Phase() != game.PhaseRunning {
			if err := a.round.Start(); err != nil {
				a.status = err.Error()
				log.Error().Err(err).Msg("start round")
			} else {
				a.status = ""
			}
		}
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		a.round.HandleKey(game.KeyEvent{Type: game.KeyBackspace})
	case tcell.KeyRune:
		a.round.HandleKey(game.ClassifyRune(ev.Rune()))
	default:
		a.round.HandleKey(game.KeyEvent{Type: game.KeyOther})
	}
	return true
}

func (a *App) RoundEnded(finalScore int) {
	a.best = max(a.best, finalScore)
	log.Info().Int("score", finalScore).Int("best", a.best).Msg("round ended")
}

func (a *App) draw() {
	a.screen.Clear()
	snap := a.round.Snapshot()
	width, _ := a.screen.Size()

	a.text(1, rowHeader, a.style.text, fmt.Sprintf("Time: %d   Score: %d   Best: %d", snap.Remaining, snap.Score, a.best))

	switch snap.Phase {
	case game.PhaseIdle:
		a.centered(width, rowStatus, a.style.success, "Press Enter to start")
	case game.PhaseEnded:
		a.centered(width, rowStatus, a.style.danger, fmt.Sprintf("Game Over   Score: %d", snap.Score))
		a.centered(width, rowHint, a.style.text, "Press Enter to retry, Esc to quit")
	case game.PhaseRunning:
		if snap.Buffer != "" {
			a.text(1, rowBuffer, a.style.neutral, "> "+snap.Buffer)
		}
	}
	if a.status != "" {
		a.centered(width, rowHint+1, a.style.danger, a.status)
	}

	xs := lanePositions(len(snap.Lanes), width)
	for i, l := range snap.Lanes {
		x := xs[i]
		numStyle := a.style.inactive
		if l.Active {
			numStyle = a.style.active
		}
		a.centeredAt(x, rowNumber, numStyle, " "+strconv.Itoa(l.Number)+" ")
		if snap.Phase != game.PhaseRunning {
			continue
		}
		a.centeredAt(x, rowWord, a.style.text, l.Word)
		a.centeredAt(x, rowTyped, a.style.success, l.Typed)
		timerStyle := a.style.neutral
		if l.Remaining <= 3 {
			timerStyle = a.style.danger
		}
		a.centeredAt(x, rowTimer, timerStyle, strconv.Itoa(l.Remaining))
	}
	a.screen.Show()
}

// lanePositions spreads count column centres evenly across width.
func lanePositions(count, width int) []int {
	total := width - spacing*2
	step := total / (count + 1)
	out := make([]int, count)
	for i := range out {
		out[i] = spacing + step*(i+1)
	}
	return out
}

func (a *App) text(x, y int, style tcell.Style, s string) {
	for _, r := range s {
		a.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

func (a *App) centeredAt(cx, y int, style tcell.Style, s string) {
	a.text(cx-len([]rune(s))/2, y, style, s)
}

func (a *App) centered(width, y int, style tcell.Style, s string) {
	a.centeredAt(width/2, y, style, s)
}
