package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	apperrors "github.com/lueurxax/telegram-post-ranker/internal/core/errors"
	"github.com/lueurxax/telegram-post-ranker/internal/platform/config"
)

const (
	ModelClaudeHaiku = "claude-haiku-4.5"

	modelPrefixClaude  = "claude"
	anthropicMaxTokens = 1024
	contentTypeText    = "text"
)

type anthropicProvider struct {
	cfg         *config.Config
	client      anthropic.Client
	logger      *zerolog.Logger
	rateLimiter *rate.Limiter
}

// NewAnthropicProvider creates the Claude messages provider.
func NewAnthropicProvider(cfg *config.Config, logger *zerolog.Logger) *anthropicProvider {
	return &anthropicProvider{
		cfg:         cfg,
		client:      anthropic.NewClient(option.WithAPIKey(cfg.AnthropicAPIKey)),
		logger:      logger,
		rateLimiter: newLimiter(cfg.RateLimitRPS),
	}
}

func (p *anthropicProvider) Name() ProviderName {
	return ProviderAnthropic
}

func (p *anthropicProvider) IsAvailable() bool {
	return p.cfg.AnthropicAPIKey != ""
}

func (p *anthropicProvider) Priority() int {
	return PriorityFallback
}

// resolveModel keeps explicit Claude models and maps anything else to Haiku.
func (p *anthropicProvider) resolveModel(model string) string {
	if strings.HasPrefix(model, modelPrefixClaude) {
		return model
	}

	return ModelClaudeHaiku
}

func (p *anthropicProvider) Complete(ctx context.Context, prompt, model string) (string, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf(errRateLimiter, err)
	}

	resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(p.resolveModel(model)),
		MaxTokens:   anthropicMaxTokens,
		Temperature: anthropic.Float(float64(p.cfg.LLMTemperature)),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	text := strings.TrimSpace(extractTextFromResponse(resp))
	if text == "" {
		return "", fmt.Errorf("anthropic: %w", apperrors.ErrEmptyResponse)
	}

	return text, nil
}

func extractTextFromResponse(resp *anthropic.Message) string {
	var result strings.Builder

	for _, block := range resp.Content {
		if block.Type == contentTypeText {
			result.WriteString(block.Text)
		}
	}

	return result.String()
}

var _ Provider = (*anthropicProvider)(nil)
