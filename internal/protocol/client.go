// internal/protocol/client.go
//
// Client → server keystrokes and their conversion to engine key events.

package protocol

import (
	"fmt"
	"unicode/utf8"

	"github.com/robalobadob/typelanes/internal/game"
)

// Key is a keystroke sent by a client. Either Type (with Value for digits
// and letters) or Key, a raw browser KeyboardEvent.key, is set.
type Key struct {
	Type  string `json:"type,omitempty"`
	Value string `json:"value,omitempty"`
	Key   string `json:"key,omitempty"`
}

// Keys batches keystrokes for the HTTP endpoint.
type Keys struct {
	Keys []Key `json:"keys"`
}

// Event converts the keystroke into an engine event.
func (k Key) Event() (game.KeyEvent, error) {
	if k.Type == "" {
		if k.Key == "" {
			return game.KeyEvent{}, fmt.Errorf("key: neither type nor key set")
		}
		return KeyFromString(k.Key), nil
	}
	switch t := game.KeyType(k.Type); t {
	case game.KeyBackspace, game.KeyOther:
		return game.KeyEvent{Type: t}, nil
	case game.KeyDigit, game.KeyLetter:
		r, size := utf8.DecodeRuneInString(k.Value)
		if r == utf8.RuneError || size != len(k.Value) {
			return game.KeyEvent{}, fmt.Errorf("key: %s needs exactly one character, got %q", t, k.Value)
		}
		ev := game.ClassifyRune(r)
		if ev.Type != t {
			return game.KeyEvent{}, fmt.Errorf("key: %q is not a %s", k.Value, t)
		}
		return ev, nil
	default:
		// Unknown types reach the engine, which ignores them.
		return game.KeyEvent{Type: t}, nil
	}
}

// KeyFromString classifies a KeyboardEvent.key style name.
func KeyFromString(s string) game.KeyEvent {
	if s == "Backspace" {
		return game.KeyEvent{Type: game.KeyBackspace}
	}
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || size != len(s) {
		return game.KeyEvent{Type: game.KeyOther}
	}
	return game.ClassifyRune(r)
}

// FromEvent is the inverse of Key.Event for typed keys.
func FromEvent(ev game.KeyEvent) Key {
	k := Key{Type: string(ev.Type)}
	if ev.Type == game.KeyDigit || ev.Type == game.KeyLetter {
		k.Value = string(ev.Value)
	}
	return k
}
