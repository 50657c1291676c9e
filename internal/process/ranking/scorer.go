// Package ranking scores logical posts against a criterion with an external
// judge and orders the results.
package ranking

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lueurxax/telegram-post-ranker/internal/core/domain"
	"github.com/lueurxax/telegram-post-ranker/internal/platform/observability"
	"github.com/lueurxax/telegram-post-ranker/internal/platform/worker"
)

// Judge rates how well text matches criterion. An empty criterion means none was given.
type Judge interface {
	Judge(ctx context.Context, text, criterion string) (Response, error)
}

// JudgeFunc adapts a function to Judge.
type JudgeFunc func(ctx context.Context, text, criterion string) (Response, error)

// Judge implements Judge.
func (f JudgeFunc) Judge(ctx context.Context, text, criterion string) (Response, error) {
	return f(ctx, text, criterion)
}

// Scorer turns judge verdicts into normalized scores.
type Scorer struct {
	judge  Judge
	logger *zerolog.Logger
}

func NewScorer(judge Judge, logger *zerolog.Logger) *Scorer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Scorer{judge: judge, logger: logger}
}

// ScoreOne asks the judge once. Only transport failures are returned as errors;
// an unreadable verdict scores zero.
func (s *Scorer) ScoreOne(ctx context.Context, text, criterion string) (domain.ScoreResult, error) {
	resp, err := s.judge.Judge(ctx, text, criterion)
	if err != nil {
		return domain.ScoreResult{}, fmt.Errorf("judge call: %w", err)
	}

	raw, reason := ParseResponse(resp)
	score := Normalize(raw)

	observability.JudgeScores.Observe(score)

	return domain.ScoreResult{Score: score, Reason: reason}, nil
}

// ScoreAll scores every post concurrently. Post i starts no earlier than
// i*spacing after a single reference instant taken on entry; each goroutine
// sleeps only its own residual delay. Results are aligned with posts and
// reference them in place. The first judge failure fails the whole batch.
func (s *Scorer) ScoreAll(ctx context.Context, posts []domain.LogicalPost, criterion string, spacing time.Duration) ([]domain.ScoreResult, error) {
	results := make([]domain.ScoreResult, len(posts))
	if len(posts) == 0 {
		return results, nil
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)

	for i := range posts {
		post := &posts[i]
		target := start.Add(time.Duration(i) * spacing)

		g.Go(func() error {
			if err := worker.WaitUntil(gctx, target); err != nil {
				return err
			}

			res, err := s.ScoreOne(gctx, post.Text, criterion)
			if err != nil {
				return fmt.Errorf("scoring post %d: %w", post.FirstID(), err)
			}

			res.Post = post
			results[i] = res

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.logger.Warn().Err(err).Int("posts", len(posts)).Msg("scoring batch failed")
		return nil, err
	}

	s.logger.Debug().
		Int("posts", len(posts)).
		Dur("elapsed", time.Since(start)).
		Msg("scoring batch finished")

	return results, nil
}

// Rank orders results by descending score; ties keep their input order.
func Rank(results []domain.ScoreResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}
