package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	apperrors "github.com/lueurxax/telegram-post-ranker/internal/core/errors"
	"github.com/lueurxax/telegram-post-ranker/internal/platform/config"
)

const (
	defaultOpenAIModel = "gpt-4o-mini"
	rateLimiterBurst   = 5
	errRateLimiter     = "rate limiter: %w"
)

type openaiProvider struct {
	cfg         *config.Config
	client      *openai.Client
	logger      *zerolog.Logger
	rateLimiter *rate.Limiter
}

// NewOpenAIProvider creates the OpenAI chat completion provider.
func NewOpenAIProvider(cfg *config.Config, logger *zerolog.Logger) *openaiProvider {
	return &openaiProvider{
		cfg:         cfg,
		client:      openai.NewClient(cfg.LLMAPIKey),
		logger:      logger,
		rateLimiter: newLimiter(cfg.RateLimitRPS),
	}
}

func (p *openaiProvider) Name() ProviderName {
	return ProviderOpenAI
}

func (p *openaiProvider) IsAvailable() bool {
	return p.cfg.LLMAPIKey != "" && p.cfg.LLMAPIKey != llmAPIKeyMock
}

func (p *openaiProvider) Priority() int {
	return PriorityPrimary
}

func (p *openaiProvider) resolveModel(model string) string {
	switch {
	case model != "":
		return model
	case p.cfg.LLMModel != "":
		return p.cfg.LLMModel
	default:
		return defaultOpenAIModel
	}
}

func (p *openaiProvider) Complete(ctx context.Context, prompt, model string) (string, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf(errRateLimiter, err)
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.resolveModel(model),
		Temperature: p.cfg.LLMTemperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: %w", apperrors.ErrEmptyResponse)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func newLimiter(rps int) *rate.Limiter {
	if rps <= 0 {
		rps = 1
	}

	return rate.NewLimiter(rate.Limit(float64(rps)), rateLimiterBurst)
}

var _ Provider = (*openaiProvider)(nil)
