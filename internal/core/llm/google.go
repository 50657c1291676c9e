package llm

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	apperrors "github.com/lueurxax/telegram-post-ranker/internal/core/errors"
	"github.com/lueurxax/telegram-post-ranker/internal/platform/config"
)

const (
	ModelGeminiFlash = "gemini-2.5-flash"

	modelPrefixGemini = "gemini"
	mimeTypeJSON      = "application/json"
)

type googleProvider struct {
	cfg         *config.Config
	client      *genai.Client
	logger      *zerolog.Logger
	rateLimiter *rate.Limiter
}

// NewGoogleProvider creates the Gemini provider.
func NewGoogleProvider(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*googleProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GoogleAPIKey))
	if err != nil {
		return nil, fmt.Errorf("creating google genai client: %w", err)
	}

	return &googleProvider{
		cfg:         cfg,
		client:      client,
		logger:      logger,
		rateLimiter: newLimiter(cfg.RateLimitRPS),
	}, nil
}

// Close closes the Google client.
func (p *googleProvider) Close() error {
	if p.client == nil {
		return nil
	}

	if err := p.client.Close(); err != nil {
		return fmt.Errorf("closing google genai client: %w", err)
	}

	return nil
}

func (p *googleProvider) Name() ProviderName {
	return ProviderGoogle
}

func (p *googleProvider) IsAvailable() bool {
	return p.cfg.GoogleAPIKey != ""
}

func (p *googleProvider) Priority() int {
	return PrioritySecondFallback
}

func (p *googleProvider) resolveModel(model string) string {
	if strings.HasPrefix(model, modelPrefixGemini) {
		return model
	}

	return ModelGeminiFlash
}

func (p *googleProvider) Complete(ctx context.Context, prompt, model string) (string, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf(errRateLimiter, err)
	}

	genModel := p.client.GenerativeModel(p.resolveModel(model))
	genModel.SetTemperature(p.cfg.LLMTemperature)
	genModel.ResponseMIMEType = mimeTypeJSON

	resp, err := genModel.GenerateContent(ctx, genai.Text(sanitizeUTF8(prompt)))
	if err != nil {
		return "", fmt.Errorf("google generate content: %w", err)
	}

	text := strings.TrimSpace(extractGoogleResponseText(resp))
	if text == "" {
		return "", fmt.Errorf("google: %w", apperrors.ErrEmptyResponse)
	}

	return text, nil
}

// sanitizeUTF8 replaces invalid byte sequences; the API rejects invalid UTF-8.
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}

	return strings.ToValidUTF8(s, string(utf8.RuneError))
}

func extractGoogleResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var result strings.Builder

	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}

		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				result.WriteString(string(text))
			}
		}
	}

	return result.String()
}

var _ Provider = (*googleProvider)(nil)
