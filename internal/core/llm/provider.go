package llm

import "context"

// ProviderName identifies an LLM provider.
type ProviderName string

// Provider name constants.
const (
	ProviderOpenAI    ProviderName = "openai"
	ProviderAnthropic ProviderName = "anthropic"
	ProviderGoogle    ProviderName = "google"
	ProviderMock      ProviderName = "mock"
)

// Priority constants for provider ordering.
const (
	PriorityPrimary        = 100 // OpenAI
	PriorityFallback       = 50  // Anthropic
	PrioritySecondFallback = 25  // Google
	PriorityMock           = 0
)

// Provider is a single completion backend.
type Provider interface {
	// Name returns the provider identifier.
	Name() ProviderName

	// IsAvailable returns true if the provider is configured and available.
	IsAvailable() bool

	// Priority returns the provider priority (higher = preferred).
	Priority() int

	// Complete sends prompt and returns the raw text answer. An empty model
	// selects the provider default.
	Complete(ctx context.Context, prompt, model string) (string, error)
}
