// internal/httpserver/server.go
//
// HTTP server wiring for the typing-lane backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/debug/words", POST /sessions.
//   - Session endpoints (session token required): snapshot, start, keys,
//     delete, and the websocket stream.
//
// Notes:
//   - Each session token is an HS256 JWT whose "sid" claim must match the
//     {id} in the path. Tokens come from the Authorization header or, for
//     websocket clients that cannot set headers, the ?token= query.
//   - The websocket route sits outside the Timeout middleware.
//   - A session lives as long as its token. A reaper driven by Config.Clock
//     closes and forgets sessions once their token has expired.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/typelanes/internal/daily"
	"github.com/robalobadob/typelanes/internal/game"
	"github.com/robalobadob/typelanes/internal/protocol"
	"github.com/robalobadob/typelanes/internal/session"
	"github.com/robalobadob/typelanes/internal/store"
	"github.com/robalobadob/typelanes/internal/words"
)

// Config carries everything the server needs besides the store.
type Config struct {
	Game         game.Config
	JWTSecret    string
	TokenTTL     time.Duration
	ClientOrigin string
	DailySalt    string

	// Observers returns extra round observers for a new session, e.g. an
	// event publisher. May be nil.
	Observers func(sessionID string, mode session.Mode) []game.Observer

	// Clock drives session timers, token expiry and the reaper; real time
	// when nil.
	Clock clockwork.Clock

	// ReapInterval is how often expired sessions are swept. Default 1m.
	ReapInterval time.Duration
}

// Server bundles router, session store and configuration.
type Server struct {
	r     *chi.Mux
	store store.Store
	cfg   Config
	ctx   context.Context
}

// New constructs a Server, installs middleware, and registers routes.
// Sessions created by the server stop when ctx is cancelled.
func New(ctx context.Context, st store.Store, cfg Config) *Server {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 2 * time.Hour
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev_secret_change_me"
	}
	if cfg.ReapInterval <= 0 {
		cfg.ReapInterval = time.Minute
	}
	s := &Server{r: chi.NewRouter(), store: st, cfg: cfg, ctx: ctx}
	go s.reap()

	// --- middleware ---
	s.r.Use(chimw.RequestID) // add X-Request-ID
	s.r.Use(chimw.RealIP)    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer) // recover from panics
	s.r.Use(jsonContentType) // default JSON responses
	s.r.Use(corsFor(cfg.ClientOrigin))

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second)) // bound handler time

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"service":"typelanes","endpoints":["/health","POST /sessions","/sessions/{id}","/sessions/{id}/ws"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true}`))
		})
		r.Get("/debug/words", func(w http.ResponseWriter, r *http.Request) {
			loaded, skipped := words.Stats()
			_ = json.NewEncoder(w).Encode(map[string]int{
				"loaded":  loaded,
				"skipped": skipped,
				"inUse":   len(s.cfg.Game.Words),
			})
		})

		r.Post("/sessions", s.handleCreate)
		r.With(s.requireSession).Get("/sessions/{id}", s.handleSnapshot)
		r.With(s.requireSession).Delete("/sessions/{id}", s.handleDelete)
		r.With(s.requireSession).Post("/sessions/{id}/start", s.handleStart)
		r.With(s.requireSession).Post("/sessions/{id}/keys", s.handleKeys)
	})
	s.r.With(s.requireSession).Get("/sessions/{id}/ws", s.handleWS)

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Router exposes the internal router (useful for tests and http.Server).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFor allows credentialed requests from a single origin, or any
// origin when none is configured.
func corsFor(origin string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
		},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}
	if origin == "" {
		opts.AllowedOrigins = []string{"*"}
	} else {
		opts.AllowedOrigins = []string{origin}
		opts.AllowCredentials = true
	}
	return cors.New(opts).Handler
}

// ------------------------------ SESSIONS -----------------------------------

type createReq struct {
	Mode string `json:"mode"` // "standard" (default) | "daily"
}

type createRes struct {
	SessionID string    `json:"sessionId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Mode      string    `json:"mode"`
	Date      string    `json:"date,omitempty"`
}

// handleCreate makes a new idle session and returns its token.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createReq
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
			return
		}
	}

	id := uuid.NewString()
	res := createRes{SessionID: id}
	opts := []session.Option{session.WithClock(s.cfg.Clock)}
	switch session.Mode(req.Mode) {
	case "", session.ModeStandard:
		res.Mode = string(session.ModeStandard)
	case session.ModeDaily:
		now := s.cfg.Clock.Now()
		res.Mode = string(session.ModeDaily)
		res.Date = daily.DateKey(now)
		opts = append(opts, session.WithMode(session.ModeDaily), session.WithRand(daily.Rand(now, s.cfg.DailySalt)))
	default:
		http.Error(w, `{"error":"bad_mode"}`, http.StatusBadRequest)
		return
	}

	// Nothing may be running yet if signing fails.
	tok, exp, err := s.signToken(id)
	if err != nil {
		log.Error().Err(err).Msg("sign token")
		http.Error(w, `{"error":"token_failed"}`, http.StatusInternalServerError)
		return
	}
	res.Token, res.ExpiresAt = tok, exp

	if s.cfg.Observers != nil {
		opts = append(opts, session.WithObservers(s.cfg.Observers(id, session.Mode(res.Mode))...))
	}
	sess := session.New(s.ctx, id, s.cfg.Game, opts...)
	if err := s.store.Save(r.Context(), sess, exp); err != nil {
		sess.Close()
		log.Error().Err(err).Msg("save session")
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}

	log.Info().Str("session", id).Str("mode", res.Mode).Msg("session created")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(res)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	s.writeSnapshot(w, r, currentSession(r))
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	if err := sess.Start(r.Context()); err != nil {
		writeSessionError(w, err)
		return
	}
	s.writeSnapshot(w, r, sess)
}

// handleKeys applies a batch of keystrokes in order.
func (s *Server) handleKeys(w http.ResponseWriter, r *http.Request) {
	var req protocol.Keys
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	evs := make([]game.KeyEvent, 0, len(req.Keys))
	for _, k := range req.Keys {
		ev, err := k.Event()
		if err != nil {
			http.Error(w, `{"error":"bad_key"}`, http.StatusBadRequest)
			return
		}
		evs = append(evs, ev)
	}
	sess := currentSession(r)
	if err := sess.HandleKeys(r.Context(), evs); err != nil {
		writeSessionError(w, err)
		return
	}
	s.writeSnapshot(w, r, sess)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	sess.Close()
	log.Info().Str("session", sess.ID).Msg("session deleted")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeSnapshot(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	snap, err := sess.Snapshot(r.Context())
	if err != nil {
		writeSessionError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(protocol.FromSnapshot(snap))
}

// writeSessionError maps session and engine errors to status codes.
func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrRoundRunning):
		http.Error(w, `{"error":"round_running"}`, http.StatusConflict)
	case errors.Is(err, game.ErrInvalidConfig):
		b, _ := json.Marshal(protocol.Error{Error: err.Error()})
		http.Error(w, string(b), http.StatusUnprocessableEntity)
	case errors.Is(err, session.ErrClosed):
		http.Error(w, `{"error":"session_closed"}`, http.StatusGone)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		http.Error(w, `{"error":"timeout"}`, http.StatusServiceUnavailable)
	default:
		log.Error().Err(err).Msg("session request")
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
	}
}

// reap sweeps expired sessions every ReapInterval until the server
// context is done.
func (s *Server) reap() {
	tk := s.cfg.Clock.NewTicker(s.cfg.ReapInterval)
	defer tk.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-tk.Chan():
			s.reapExpired(s.ctx)
		}
	}
}

// reapExpired closes every session whose token has expired.
func (s *Server) reapExpired(ctx context.Context) {
	expired, err := s.store.Expired(ctx, s.cfg.Clock.Now())
	if err != nil {
		log.Error().Err(err).Msg("list expired sessions")
		return
	}
	for _, sess := range expired {
		sess.Close()
		log.Info().Str("session", sess.ID).Msg("session expired")
	}
}

// Close stops every stored session.
func (s *Server) Close(ctx context.Context) error {
	list, err := s.store.List(ctx)
	if err != nil {
		return err
	}
	for _, sess := range list {
		if _, err := s.store.Delete(ctx, sess.ID); err == nil {
			sess.Close()
		}
	}
	return nil
}
