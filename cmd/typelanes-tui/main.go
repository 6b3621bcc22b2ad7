// cmd/typelanes-tui/main.go
//
// Plays typelanes in the terminal. Logs go to TYPELANES_LOG (default
// typelanes.log) so they do not draw over the screen.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/typelanes/internal/config"
	"github.com/robalobadob/typelanes/internal/daily"
	"github.com/robalobadob/typelanes/internal/tui"
	"github.com/robalobadob/typelanes/internal/words"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "typelanes:", err)
		os.Exit(1)
	}
}

func run() error {
	dailyMode := flag.Bool("daily", false, "play today's shared round")
	flag.Parse()

	_ = godotenv.Load()
	logFile, err := os.OpenFile(getEnv("TYPELANES_LOG", "typelanes.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer logFile.Close()
	log.Logger = zerolog.New(logFile).With().Timestamp().Logger()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := words.Init(cfg.Words.File); err != nil {
		return err
	}
	gc := cfg.GameConfig(words.List())
	if err := gc.Validate(); err != nil {
		return err
	}

	var opts []tui.Option
	if *dailyMode {
		now := time.Now()
		opts = append(opts, tui.WithRand(daily.Rand(now, cfg.Daily.Salt)))
		log.Info().Str("date", daily.DateKey(now)).Msg("daily round")
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	app := tui.New(screen, gc, cfg.UI.Colors, opts...)
	if err := app.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
