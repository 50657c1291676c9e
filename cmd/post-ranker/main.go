package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/telegram-post-ranker/internal/app"
	"github.com/lueurxax/telegram-post-ranker/internal/platform/config"
	"github.com/lueurxax/telegram-post-ranker/internal/storage"
)

const (
	modeBot   = "bot"
	modeLogin = "login"
)

func main() {
	mode := flag.String("mode", modeBot, "Service mode (bot, login)")

	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runMode(ctx, cfg, *mode, &logger); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info().Msg("application stopped")
			return
		}

		logger.Fatal().Err(err).Msg("application error")
	}
}

func newLogger(appEnv, level string) zerolog.Logger {
	var logger zerolog.Logger

	if appEnv == "local" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	return logger.Level(lvl)
}

func runMode(ctx context.Context, cfg *config.Config, mode string, logger *zerolog.Logger) error {
	switch mode {
	case modeLogin:
		return app.New(cfg, nil, logger).RunLogin(ctx)
	case modeBot:
		store, err := storage.Open(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer store.Close()

		return app.New(cfg, store, logger).RunBot(ctx)
	default:
		log.Fatalf("Usage: %s --mode=[bot|login]", os.Args[0])

		return nil
	}
}
