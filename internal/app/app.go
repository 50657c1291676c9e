// Package app wires the dependencies together and runs the operating modes:
//
//   - Bot mode: the MTProto reader, the Bot API conversation and the health
//     server, running until the context is canceled
//   - Login mode: an interactive MTProto login that saves the session file
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lueurxax/telegram-post-ranker/internal/core/llm"
	"github.com/lueurxax/telegram-post-ranker/internal/core/ports"
	"github.com/lueurxax/telegram-post-ranker/internal/delivery"
	"github.com/lueurxax/telegram-post-ranker/internal/platform/config"
	"github.com/lueurxax/telegram-post-ranker/internal/platform/observability"
	"github.com/lueurxax/telegram-post-ranker/internal/process/filters"
	"github.com/lueurxax/telegram-post-ranker/internal/process/pipeline"
	"github.com/lueurxax/telegram-post-ranker/internal/process/ranking"
	"github.com/lueurxax/telegram-post-ranker/internal/telegrambot"
	"github.com/lueurxax/telegram-post-ranker/internal/telegramreader"
)

// App holds the application dependencies and provides methods to run different modes.
type App struct {
	cfg    *config.Config
	store  ports.Store
	logger *zerolog.Logger
}

// New creates an App. store may be nil for modes that do not persist anything.
func New(cfg *config.Config, store ports.Store, logger *zerolog.Logger) *App {
	return &App{
		cfg:    cfg,
		store:  store,
		logger: logger,
	}
}

// StartHealthServer serves /healthz, /readyz and /metrics until ctx is done.
func (a *App) StartHealthServer(ctx context.Context) error {
	var pinger observability.Pinger
	if a.store != nil {
		pinger = a.store
	}

	srv := observability.NewServer(pinger, a.cfg.HealthPort, a.logger)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("health server start: %w", err)
	}

	return nil
}

// RunLogin performs the interactive MTProto login.
func (a *App) RunLogin(ctx context.Context) error {
	a.logger.Info().Msg("Starting login mode")

	return telegramreader.New(a.cfg, a.logger).Login(ctx)
}

// RunBot runs the reader, the bot and the health server until one of them
// fails or ctx is canceled.
func (a *App) RunBot(ctx context.Context) error {
	if a.store == nil {
		return errors.New("bot mode requires a store")
	}

	a.logger.Info().Msg("Starting bot mode")

	reader := telegramreader.New(a.cfg, a.logger)

	api, err := telegrambot.NewAPI(a.cfg.BotToken)
	if err != nil {
		return fmt.Errorf("bot initialization failed: %w", err)
	}

	sender := telegrambot.NewSender(api, a.logger)
	bot := telegrambot.New(api, sender, a.store, a.newPipeline(ctx, reader), a.newCoordinator(sender, reader), telegrambot.Options{
		AdminIDs:         a.cfg.AdminIDs,
		TopK:             a.cfg.TopK,
		MaxTopK:          a.cfg.MaxTopK,
		DefaultCriterion: a.cfg.DefaultCriterion,
	}, a.logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := reader.Run(gctx); err != nil {
			return fmt.Errorf("telegram reader: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		return a.StartHealthServer(gctx)
	})

	g.Go(func() error {
		select {
		case <-gctx.Done():
			return gctx.Err()
		case <-reader.Ready():
		}

		return bot.Run(gctx)
	})

	return g.Wait()
}

func (a *App) newPipeline(ctx context.Context, reader *telegramreader.Reader) *pipeline.Pipeline {
	client := llm.New(ctx, a.cfg, a.logger)

	judge := ranking.JudgeFunc(func(ctx context.Context, text, criterion string) (ranking.Response, error) {
		out, err := client.Judge(ctx, text, criterion)
		if err != nil {
			return nil, err
		}

		return ranking.Text(out), nil
	})

	var ads pipeline.AdFilter
	if a.cfg.AdFilterEnabled {
		ads = filters.NewAdDetector(filters.AdConfig{
			Threshold:    a.cfg.AdThreshold,
			AllowSenders: a.cfg.AdAllowSenders,
			DenySenders:  a.cfg.AdDenySenders,
		}, a.logger)
	}

	return pipeline.New(reader, ads, ranking.NewScorer(judge, a.logger), pipeline.Config{
		FetchMin:  a.cfg.FetchBufferMin,
		FetchMax:  a.cfg.FetchBufferMax,
		FetchMult: a.cfg.FetchBufferMult,
		Spacing:   a.cfg.ScoreSpacing,
	}, a.logger)
}

func (a *App) newCoordinator(sender *telegrambot.Sender, reader *telegramreader.Reader) *delivery.Coordinator {
	if a.cfg.RelayChatID == 0 {
		a.logger.Warn().Msg("RELAY_CHAT_ID is not set, media posts will be delivered as text")
	}

	return delivery.New(sender, reader, reader, a.cfg.RelayChatID, a.logger)
}
