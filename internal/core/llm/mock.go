package llm

import (
	"context"
	"fmt"
)

const (
	llmAPIKeyMock  = "mock"
	mockScore      = 50
	mockReasonText = "mock judge: no LLM provider configured"
)

// mockProvider answers every prompt with a neutral score. It is registered
// when no real provider is configured so the bot stays usable.
type mockProvider struct{}

func NewMockProvider() *mockProvider {
	return &mockProvider{}
}

func (p *mockProvider) Name() ProviderName {
	return ProviderMock
}

func (p *mockProvider) IsAvailable() bool {
	return true
}

func (p *mockProvider) Priority() int {
	return PriorityMock
}

func (p *mockProvider) Complete(_ context.Context, _, _ string) (string, error) {
	return fmt.Sprintf(`{"score": %d, "reason": %q}`, mockScore, mockReasonText), nil
}

var _ Provider = (*mockProvider)(nil)
