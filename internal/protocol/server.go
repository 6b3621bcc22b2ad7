// internal/protocol/server.go
//
// Server → client payloads built from engine snapshots and lane views.

package protocol

import "github.com/robalobadob/typelanes/internal/game"

// Payloads sent from the server to clients.

type LaneSnapshot struct {
	ID        int    `json:"id"`
	Number    int    `json:"number"`
	Word      string `json:"word"`
	Typed     string `json:"typed"`
	Remaining int    `json:"remaining"`
	Active    bool   `json:"active"`
}

type Snapshot struct {
	Phase      string         `json:"phase"`
	Score      int            `json:"score"`
	Remaining  int            `json:"remaining"`
	ActiveLane int            `json:"activeLane"`
	Buffer     string         `json:"buffer"`
	Lanes      []LaneSnapshot `json:"lanes"`
}

type Score struct {
	Score int `json:"score"`
}

type Timer struct {
	Remaining int `json:"remaining"`
}

type Started struct {
	Mode string `json:"mode,omitempty"`
}

type Ended struct {
	FinalScore int `json:"finalScore"`
}

type Error struct {
	Error string `json:"error"`
}

func FromLane(v game.LaneView) LaneSnapshot {
	return LaneSnapshot{
		ID:        v.ID,
		Number:    v.Number,
		Word:      v.Word,
		Typed:     v.Typed,
		Remaining: v.Remaining,
		Active:    v.Active,
	}
}

func FromSnapshot(s game.Snapshot) Snapshot {
	out := Snapshot{
		Phase:      string(s.Phase),
		Score:      s.Score,
		Remaining:  s.Remaining,
		ActiveLane: s.ActiveLane,
		Buffer:     s.Buffer,
		Lanes:      make([]LaneSnapshot, 0, len(s.Lanes)),
	}
	for _, l := range s.Lanes {
		out.Lanes = append(out.Lanes, FromLane(l))
	}
	return out
}
