// main.go
//
// typelanes game server: HTTP + websocket API over in-memory sessions,
// optionally publishing round events to NATS.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/robalobadob/typelanes/internal/config"
	"github.com/robalobadob/typelanes/internal/events"
	"github.com/robalobadob/typelanes/internal/game"
	"github.com/robalobadob/typelanes/internal/httpserver"
	"github.com/robalobadob/typelanes/internal/session"
	"github.com/robalobadob/typelanes/internal/store"
	"github.com/robalobadob/typelanes/internal/words"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := words.Init(cfg.Words.File); err != nil {
		log.Fatal().Err(err).Msg("failed to load word list")
	}
	loaded, skipped := words.Stats()
	log.Info().Int("words", loaded).Int("skipped", skipped).Msg("word list loaded")

	gc := cfg.GameConfig(words.List())
	if err := gc.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid game configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srvCfg := httpserver.Config{
		Game:         gc,
		JWTSecret:    cfg.Server.JWTSecret,
		TokenTTL:     cfg.Server.TokenTTL,
		ReapInterval: cfg.Server.ReapInterval,
		ClientOrigin: cfg.Server.ClientOrigin,
		DailySalt:    cfg.Daily.Salt,
	}

	var nc *nats.Conn
	if cfg.Events.NatsURL != "" {
		ecfg := events.DefaultConfig()
		ecfg.URL = cfg.Events.NatsURL
		ecfg.SubjectPrefix = cfg.Events.SubjectPrefix
		nc, err = events.Connect(ecfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to NATS")
		}
		log.Info().Str("url", nc.ConnectedUrl()).Msg("publishing round events")
		srvCfg.Observers = func(sessionID string, mode session.Mode) []game.Observer {
			return []game.Observer{events.NewRoundPublisher(nc, ecfg.SubjectPrefix, sessionID, string(mode), nil)}
		}
	}

	srv := httpserver.New(ctx, store.NewMemoryStore(), srvCfg)
	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.Server.Port).Msg("starting typelanes server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("HTTP server shutdown failed")
		}
		if err := srv.Close(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("closing sessions")
		}
		if nc != nil {
			if err := nc.Drain(); err != nil {
				log.Error().Err(err).Msg("NATS drain failed")
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
