// internal/session/fanout.go
//
// Bridges round notifications to subscribers as protocol envelopes.

package session

import (
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/typelanes/internal/game"
	"github.com/robalobadob/typelanes/internal/protocol"
)

// fanout turns round notifications into envelopes for every subscriber.
// It runs on the session goroutine.
type fanout struct{ s *Session }

func (f fanout) LaneChanged(_ int, v game.LaneView) {
	f.s.broadcast(protocol.MsgLane, protocol.FromLane(v))
}

func (f fanout) ScoreChanged(score int) {
	f.s.broadcast(protocol.MsgScore, protocol.Score{Score: score})
}

func (f fanout) GlobalTimerChanged(remaining int) {
	f.s.broadcast(protocol.MsgTimer, protocol.Timer{Remaining: remaining})
}

func (f fanout) RoundStarted() {
	log.Info().Str("session", f.s.ID).Str("mode", string(f.s.Mode)).Msg("round started")
	f.s.broadcast(protocol.MsgStarted, protocol.Started{Mode: string(f.s.Mode)})
}

func (f fanout) RoundEnded(finalScore int) {
	log.Info().Str("session", f.s.ID).Int("score", finalScore).Msg("round ended")
	f.s.broadcast(protocol.MsgEnded, protocol.Ended{FinalScore: finalScore})
}
