// internal/httpserver/ws.go
//
// Websocket stream for one session.
//
// Flow:
//   - Upgrade, then subscribe to the session outbox (a snapshot arrives first).
//   - writePump: outbox envelopes, per-client error replies, periodic pings.
//   - readPump: "key" and "start" envelopes from the client go to the session.
//
// Closing the outbox (unsubscribe, slow-client drop, session close) ends
// the write pump and with it the connection.

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/typelanes/internal/game"
	"github.com/robalobadob/typelanes/internal/protocol"
	"github.com/robalobadob/typelanes/internal/session"
)

const (
	writeTimeout   = 10 * time.Second
	readTimeout    = 60 * time.Second
	pingInterval   = 30 * time.Second
	maxMessageSize = 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Access is gated by the session token, not the origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsConn pumps one websocket. Session envelopes and replies to the client
// are written by a single goroutine.
type wsConn struct {
	id      string
	conn    *websocket.Conn
	sess    *session.Session
	events  <-chan []byte
	replies chan []byte
}

// handleWS upgrades the request and streams the session: the outbox goes to
// the client, and "key"/"start" envelopes from the client go to the session.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade")
		return
	}

	c := &wsConn{
		id:      uuid.NewString(),
		conn:    conn,
		sess:    sess,
		replies: make(chan []byte, 8),
	}
	c.events, err = sess.Subscribe(s.ctx, c.id)
	if err != nil {
		_ = conn.Close()
		return
	}
	log.Debug().Str("session", sess.ID).Str("connection_id", c.id).Msg("websocket connected")

	go c.writePump()
	c.readPump(s.ctx)
}

func (c *wsConn) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.events:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				// Session closed or we were dropped as a slow subscriber.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Debug().Err(err).Str("connection_id", c.id).Msg("failed to write message to WebSocket")
				return
			}

		case message := <-c.replies:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().Err(err).Str("connection_id", c.id).Msg("failed to send ping")
				return
			}
		}
	}
}

func (c *wsConn) readPump(ctx context.Context) {
	defer func() {
		// Closes the outbox, which makes writePump exit.
		if err := c.sess.Unsubscribe(context.Background(), c.id); err != nil {
			_ = c.conn.Close()
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("connection_id", c.id).Msg("unexpected WebSocket close error")
			}
			return
		}
		if err := c.handleClientMessage(ctx, message); err != nil {
			if errors.Is(err, session.ErrClosed) {
				return
			}
			c.reply(err)
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	}
}

func (c *wsConn) handleClientMessage(ctx context.Context, message []byte) error {
	env, err := protocol.DecodeEnvelope(message)
	if err != nil {
		return err
	}
	switch env.T {
	case protocol.MsgKey:
		k, err := protocol.DecodePayload[protocol.Key](env)
		if err != nil {
			return err
		}
		ev, err := k.Event()
		if err != nil {
			return err
		}
		return c.sess.HandleKey(ctx, ev)
	case protocol.MsgStart:
		return c.sess.Start(ctx)
	default:
		log.Debug().Str("connection_id", c.id).Str("type", env.T).Msg("ignoring client message")
		return nil
	}
}

// reply queues an error envelope for this client only.
func (c *wsConn) reply(err error) {
	msg := err.Error()
	if errors.Is(err, game.ErrRoundRunning) {
		msg = "round_running"
	}
	b, encErr := protocol.Encode(protocol.MsgError, protocol.Error{Error: msg})
	if encErr != nil {
		return
	}
	select {
	case c.replies <- b:
	default:
	}
}
