// internal/protocol/protocol.go
//
// Message types and the {"t","p"} envelope shared by server and clients.

package protocol

import (
	"encoding/json"
)

// Server → client.
const (
	MsgSnapshot = "snapshot"
	MsgLane     = "lane"
	MsgScore    = "score"
	MsgTimer    = "timer"
	MsgStarted  = "started"
	MsgEnded    = "ended"
	MsgError    = "error"
)

// Client → server.
const (
	MsgKey   = "key"
	MsgStart = "start"
)

type Envelope struct {
	T string          `json:"t"`
	P json.RawMessage `json:"p"` // raw payload bytes
}
