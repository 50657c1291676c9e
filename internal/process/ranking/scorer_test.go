package ranking

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/telegram-post-ranker/internal/core/domain"
)

var errJudgeDown = errors.New("judge down")

func posts(texts ...string) []domain.LogicalPost {
	out := make([]domain.LogicalPost, len(texts))
	for i, text := range texts {
		id := int64(i + 1)
		out[i] = domain.LogicalPost{MemberIDs: []int64{id}, Text: text, CaptionSourceID: id}
	}

	return out
}

func TestScoreOne(t *testing.T) {
	var gotText, gotCriterion string

	s := NewScorer(JudgeFunc(func(_ context.Context, text, criterion string) (Response, error) {
		gotText, gotCriterion = text, criterion
		return Text(`{"score": 73, "reason": "ok"}`), nil
	}), nil)

	res, err := s.ScoreOne(context.Background(), "post body", "golang news")
	require.NoError(t, err)

	assert.InDelta(t, 0.73, res.Score, 1e-9)
	assert.Equal(t, "ok", res.Reason)
	assert.Equal(t, "post body", gotText)
	assert.Equal(t, "golang news", gotCriterion)
}

func TestScoreOne_JudgeError(t *testing.T) {
	s := NewScorer(JudgeFunc(func(context.Context, string, string) (Response, error) {
		return nil, errJudgeDown
	}), nil)

	_, err := s.ScoreOne(context.Background(), "x", "")
	assert.ErrorIs(t, err, errJudgeDown)
}

func TestScoreAll_Empty(t *testing.T) {
	s := NewScorer(JudgeFunc(func(context.Context, string, string) (Response, error) {
		t.Fatal("judge must not be called")
		return nil, nil
	}), nil)

	res, err := s.ScoreAll(context.Background(), nil, "", time.Millisecond)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestScoreAll_AlignedDespiteOutOfOrderCompletion(t *testing.T) {
	input := posts("10", "20", "30", "40")

	// Earlier items answer later, so completion order is reversed.
	s := NewScorer(JudgeFunc(func(ctx context.Context, text, _ string) (Response, error) {
		delay := map[string]time.Duration{"10": 40, "20": 30, "30": 20, "40": 10}[text] * time.Millisecond
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		return Text(text), nil
	}), nil)

	res, err := s.ScoreAll(context.Background(), input, "", 0)
	require.NoError(t, err)
	require.Len(t, res, len(input))

	want := []float64{0.10, 0.20, 0.30, 0.40}
	for i := range res {
		assert.InDelta(t, want[i], res[i].Score, 1e-9)
		assert.Same(t, &input[i], res[i].Post, "result %d must reference its input post", i)
	}
}

func TestScoreAll_StaggeredStarts(t *testing.T) {
	const spacing = 25 * time.Millisecond

	input := posts("a", "b", "c", "d")
	starts := make([]time.Time, len(input))

	var mu sync.Mutex

	s := NewScorer(JudgeFunc(func(_ context.Context, text, _ string) (Response, error) {
		mu.Lock()
		starts[int(text[0]-'a')] = time.Now()
		mu.Unlock()

		return Number(1), nil
	}), nil)

	ref := time.Now()

	_, err := s.ScoreAll(context.Background(), input, "", spacing)
	require.NoError(t, err)

	for i, at := range starts {
		assert.GreaterOrEqual(t, at.Sub(ref), time.Duration(i)*spacing, "item %d started early", i)
	}
}

func TestScoreAll_RunsConcurrently(t *testing.T) {
	const n = 4

	input := posts("a", "b", "c", "d")
	release := make(chan struct{})

	var inFlight atomic.Int32

	// Every call blocks until all n calls are in flight; a serial scorer would time out.
	s := NewScorer(JudgeFunc(func(ctx context.Context, _, _ string) (Response, error) {
		if inFlight.Add(1) == n {
			close(release)
		}

		select {
		case <-release:
			return Number(0.5), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	res, err := s.ScoreAll(ctx, input, "", time.Millisecond)
	require.NoError(t, err)
	assert.Len(t, res, n)
}

func TestScoreAll_FailureFailsBatch(t *testing.T) {
	input := posts("ok", "boom", "ok")

	s := NewScorer(JudgeFunc(func(_ context.Context, text, _ string) (Response, error) {
		if text == "boom" {
			return nil, errJudgeDown
		}

		return Number(0.9), nil
	}), nil)

	res, err := s.ScoreAll(context.Background(), input, "", time.Millisecond)
	assert.ErrorIs(t, err, errJudgeDown)
	assert.Nil(t, res)
}

func TestRank_StableDescending(t *testing.T) {
	p := posts("a", "b", "c", "d")
	results := []domain.ScoreResult{
		{Score: 0.5, Post: &p[0]},
		{Score: 0.9, Post: &p[1]},
		{Score: 0.5, Post: &p[2]},
		{Score: 0.1, Post: &p[3]},
	}

	Rank(results)

	got := make([]string, len(results))
	for i, r := range results {
		got[i] = r.Post.Text
	}

	assert.Equal(t, []string{"b", "a", "c", "d"}, got)
}
