// Package pipeline runs one ranking request end to end: fetch fragments,
// drop advertisements, rebuild logical posts, cut the requested page, score
// it against the criterion and order the results.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lueurxax/telegram-post-ranker/internal/core/domain"
	"github.com/lueurxax/telegram-post-ranker/internal/platform/observability"
	"github.com/lueurxax/telegram-post-ranker/internal/process/grouping"
	"github.com/lueurxax/telegram-post-ranker/internal/process/ranking"
)

// Default fetch sizing.
const (
	DefaultFetchMin  = 200
	DefaultFetchMax  = 2000
	DefaultFetchMult = 6
	DefaultSpacing   = 100 * time.Millisecond
)

const (
	statusOK    = "ok"
	statusEmpty = "empty"
	statusError = "error"
)

// HistoryFetcher reads recent fragments of a chat, newest first or in any order.
type HistoryFetcher interface {
	FetchHistory(ctx context.Context, chat domain.ChatRef, count int) ([]domain.Fragment, error)
}

// AdFilter decides whether a fragment is an advertisement.
type AdFilter interface {
	IsAdvertisement(f domain.Fragment) bool
}

// Scorer scores a page of posts; see ranking.Scorer.
type Scorer interface {
	ScoreAll(ctx context.Context, posts []domain.LogicalPost, criterion string, spacing time.Duration) ([]domain.ScoreResult, error)
}

// Config tunes the pipeline.
type Config struct {
	FetchMin  int
	FetchMax  int
	FetchMult int
	Spacing   time.Duration
}

// Request describes one ranking run.
type Request struct {
	Chat      domain.ChatRef
	Limit     int
	Offset    int
	Criterion string
}

// Result is the outcome of a run. Ranked entries point into Posts.
type Result struct {
	RunID   string
	Fetched int
	Dropped int
	Posts   []domain.LogicalPost
	Ranked  []domain.ScoreResult
}

type Pipeline struct {
	fetcher HistoryFetcher
	ads     AdFilter
	scorer  Scorer
	cfg     Config
	logger  *zerolog.Logger
}

// New creates a pipeline. ads may be nil to keep every fragment.
func New(fetcher HistoryFetcher, ads AdFilter, scorer Scorer, cfg Config, logger *zerolog.Logger) *Pipeline {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	if cfg.FetchMin <= 0 {
		cfg.FetchMin = DefaultFetchMin
	}

	if cfg.FetchMax < cfg.FetchMin {
		cfg.FetchMax = max(DefaultFetchMax, cfg.FetchMin)
	}

	if cfg.FetchMult <= 0 {
		cfg.FetchMult = DefaultFetchMult
	}

	if cfg.Spacing < 0 {
		cfg.Spacing = DefaultSpacing
	}

	return &Pipeline{
		fetcher: fetcher,
		ads:     ads,
		scorer:  scorer,
		cfg:     cfg,
		logger:  logger,
	}
}

// FetchCount is the number of raw fragments to request so that enough textful
// posts survive grouping and filtering: clamp((limit+offset)*mult, min, max).
func FetchCount(limit, offset, minCount, maxCount, mult int) int {
	want := (limit + offset) * mult

	return max(minCount, min(maxCount, want))
}

// Run executes the request. An empty page is not an error: the result simply
// has no posts.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	started := time.Now()
	res := &Result{RunID: uuid.NewString()}

	logger := p.logger.With().
		Str("run_id", res.RunID).
		Str("chat", req.Chat.String()).
		Int("limit", req.Limit).
		Int("offset", req.Offset).
		Logger()

	defer func() {
		observability.RankingRunDuration.Observe(time.Since(started).Seconds())
	}()

	if req.Limit <= 0 {
		observability.RankingRuns.WithLabelValues(statusEmpty).Inc()
		return res, nil
	}

	count := FetchCount(req.Limit, max(req.Offset, 0), p.cfg.FetchMin, p.cfg.FetchMax, p.cfg.FetchMult)

	fragments, err := p.fetcher.FetchHistory(ctx, req.Chat, count)
	if err != nil {
		observability.RankingRuns.WithLabelValues(statusError).Inc()
		return nil, fmt.Errorf("fetch history of %s: %w", req.Chat, err)
	}

	res.Fetched = len(fragments)
	observability.FragmentsFetched.Add(float64(len(fragments)))

	raw := p.dropAds(fragments)
	res.Dropped = len(fragments) - len(raw)

	res.Posts = grouping.SelectWindow(grouping.Group(raw), req.Limit, max(req.Offset, 0))

	logger.Info().
		Int("requested", count).
		Int("fetched", res.Fetched).
		Int("ads_dropped", res.Dropped).
		Int("selected", len(res.Posts)).
		Msg("page selected")

	if len(res.Posts) == 0 {
		observability.RankingRuns.WithLabelValues(statusEmpty).Inc()
		return res, nil
	}

	scored, err := p.scorer.ScoreAll(ctx, res.Posts, req.Criterion, p.cfg.Spacing)
	if err != nil {
		observability.RankingRuns.WithLabelValues(statusError).Inc()
		return nil, fmt.Errorf("score page: %w", err)
	}

	ranking.Rank(scored)
	res.Ranked = scored

	observability.RankingRuns.WithLabelValues(statusOK).Inc()
	logger.Info().Dur("elapsed", time.Since(started)).Int("ranked", len(scored)).Msg("ranking finished")

	return res, nil
}

func (p *Pipeline) dropAds(fragments []domain.Fragment) []domain.RawFragment {
	raw := make([]domain.RawFragment, 0, len(fragments))

	for _, f := range fragments {
		if p.ads != nil && p.ads.IsAdvertisement(f) {
			continue
		}

		raw = append(raw, f.RawFragment)
	}

	return raw
}
