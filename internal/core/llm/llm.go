// Package llm talks to language model providers on behalf of the relevance judge.
package llm

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/telegram-post-ranker/internal/platform/config"
	"github.com/lueurxax/telegram-post-ranker/internal/platform/worker"
)

const (
	defaultCircuitThreshold = 5
	defaultCircuitTimeout   = time.Minute
	defaultJudgeTimeout     = time.Minute
)

// Completer is satisfied by Registry.
type Completer interface {
	Complete(ctx context.Context, prompt, model string) (string, error)
}

// Client is the relevance judge backed by the provider registry.
type Client struct {
	completer        Completer
	defaultCriterion string
	timeout          time.Duration
	logger           *zerolog.Logger
}

// NewClient builds a judge; a non-positive timeout falls back to one minute.
func NewClient(completer Completer, defaultCriterion string, timeout time.Duration, logger *zerolog.Logger) *Client {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	if timeout <= 0 {
		timeout = defaultJudgeTimeout
	}

	return &Client{
		completer:        completer,
		defaultCriterion: defaultCriterion,
		timeout:          timeout,
		logger:           logger,
	}
}

// Judge asks the model to rate text against criterion and returns the trimmed
// answer. Interpreting the answer is the caller's job.
func (c *Client) Judge(ctx context.Context, text, criterion string) (string, error) {
	if criterion == "" {
		criterion = c.defaultCriterion
	}

	var raw string

	err := worker.RunWithTimeout(ctx, c.timeout, func(ctx context.Context) error {
		var err error

		raw, err = c.completer.Complete(ctx, RelevancePrompt(text, criterion), "")

		return err
	})
	if err != nil {
		return "", err
	}

	c.logger.Debug().Str("answer", raw).Msg("judge answered")

	return strings.TrimSpace(raw), nil
}

func buildCircuitConfig(cfg *config.Config) CircuitConfig {
	circuitCfg := CircuitConfig{
		Threshold:  cfg.LLMCircuitThreshold,
		ResetAfter: cfg.LLMCircuitTimeout,
	}

	if circuitCfg.Threshold == 0 {
		circuitCfg.Threshold = defaultCircuitThreshold
	}

	if circuitCfg.ResetAfter == 0 {
		circuitCfg.ResetAfter = defaultCircuitTimeout
	}

	return circuitCfg
}

func registerProviders(ctx context.Context, registry *Registry, cfg *config.Config, logger *zerolog.Logger, circuitCfg CircuitConfig) {
	if cfg.LLMAPIKey != "" && cfg.LLMAPIKey != llmAPIKeyMock {
		registry.Register(NewOpenAIProvider(cfg, logger), circuitCfg)
	}

	if cfg.AnthropicAPIKey != "" {
		registry.Register(NewAnthropicProvider(cfg, logger), circuitCfg)
	}

	if cfg.GoogleAPIKey != "" {
		googleProvider, err := NewGoogleProvider(ctx, cfg, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to create Google LLM provider")
		} else {
			registry.Register(googleProvider, circuitCfg)
		}
	}

	if registry.ProviderCount() == 0 {
		logger.Warn().Msg("no LLM provider configured, using mock judge")
		registry.Register(NewMockProvider(), circuitCfg)
	}
}

// New builds the judge with every configured provider: OpenAI first, then
// Anthropic, then Google. Without any key a mock judge is used.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *Client {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	registry := NewRegistry(logger)
	registerProviders(ctx, registry, cfg, logger, buildCircuitConfig(cfg))
	logProviderStatuses(registry, logger)

	return NewClient(registry, cfg.DefaultCriterion, cfg.LLMTimeout, logger)
}

func logProviderStatuses(registry *Registry, logger *zerolog.Logger) {
	for _, st := range registry.Statuses() {
		logger.Info().
			Str(logKeyProvider, string(st.Name)).
			Int("priority", st.Priority).
			Bool("available", st.Available).
			Bool("circuit_open", st.CircuitOpen).
			Msg("LLM provider status")
	}
}
