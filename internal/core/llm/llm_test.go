package llm

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/telegram-post-ranker/internal/platform/config"
)

type recordingCompleter struct {
	prompt string
	answer string
}

func (c *recordingCompleter) Complete(_ context.Context, prompt, _ string) (string, error) {
	c.prompt = prompt
	return c.answer, nil
}

type blockingCompleter struct{}

func (blockingCompleter) Complete(ctx context.Context, _, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestRelevancePrompt(t *testing.T) {
	withCriterion := RelevancePrompt("post body", "two bedroom flat")
	assert.Contains(t, withCriterion, "Criterion: two bedroom flat")
	assert.Contains(t, withCriterion, "Post: post body")

	generic := RelevancePrompt("post body", "   ")
	assert.NotContains(t, generic, "Criterion:")
	assert.True(t, strings.HasSuffix(generic, "Post: post body"))
}

func TestClient_Judge(t *testing.T) {
	completer := &recordingCompleter{answer: "  {\"score\": 64, \"reason\": \"close\"}\n"}
	c := NewClient(completer, "go releases", time.Second, nil)

	got, err := c.Judge(context.Background(), "Go 1.24 is out", "")
	require.NoError(t, err)

	assert.Equal(t, `{"score": 64, "reason": "close"}`, got)
	assert.Contains(t, completer.prompt, "Criterion: go releases")
	assert.Contains(t, completer.prompt, "Go 1.24 is out")
}

func TestClient_JudgeKeepsProse(t *testing.T) {
	completer := &recordingCompleter{answer: `Sure! {"score": 64}`}
	c := NewClient(completer, "", time.Second, nil)

	got, err := c.Judge(context.Background(), "post", "jobs")
	require.NoError(t, err)

	assert.Equal(t, `Sure! {"score": 64}`, got)
}

func TestClient_JudgeTimeout(t *testing.T) {
	c := NewClient(blockingCompleter{}, "", 10*time.Millisecond, nil)

	_, err := c.Judge(context.Background(), "post", "jobs")

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewClient_DefaultTimeout(t *testing.T) {
	c := NewClient(&recordingCompleter{}, "", 0, nil)

	assert.Equal(t, defaultJudgeTimeout, c.timeout)
}

func TestMockProvider(t *testing.T) {
	got, err := NewMockProvider().Complete(context.Background(), "anything", "")
	require.NoError(t, err)

	assert.Equal(t, `{"score": 50, "reason": "mock judge: no LLM provider configured"}`, got)
}

func TestNew_LogsProviderStatuses(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	c := New(context.Background(), &config.Config{LLMTimeout: 5 * time.Second}, &logger)

	assert.Equal(t, 5*time.Second, c.timeout)
	assert.Contains(t, buf.String(), `"message":"LLM provider status"`)
	assert.Contains(t, buf.String(), `"provider":"`+string(ProviderMock)+`"`)
	assert.Contains(t, buf.String(), `"circuit_open":false`)
}
