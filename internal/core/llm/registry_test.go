package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/lueurxax/telegram-post-ranker/internal/core/errors"
)

var errProviderDown = errors.New("provider down")

type fakeProvider struct {
	name      ProviderName
	priority  int
	available bool
	answer    string
	err       error
	calls     int
	gotModel  string
}

func (p *fakeProvider) Name() ProviderName { return p.name }
func (p *fakeProvider) IsAvailable() bool { return p.available }
func (p *fakeProvider) Priority() int { return p.priority }

func (p *fakeProvider) Complete(_ context.Context, _, model string) (string, error) {
	p.calls++
	p.gotModel = model

	return p.answer, p.err
}

var testCircuit = CircuitConfig{Threshold: 2, ResetAfter: time.Hour}

func TestRegistry_PriorityOrder(t *testing.T) {
	r := NewRegistry(nil)
	low := &fakeProvider{name: ProviderGoogle, priority: PrioritySecondFallback, available: true, answer: "google"}
	high := &fakeProvider{name: ProviderOpenAI, priority: PriorityPrimary, available: true, answer: "openai"}

	r.Register(low, testCircuit)
	r.Register(high, testCircuit)

	got, err := r.Complete(context.Background(), "prompt", "gpt-test")
	require.NoError(t, err)

	assert.Equal(t, "openai", got)
	assert.Equal(t, "gpt-test", high.gotModel)
	assert.Zero(t, low.calls)
	assert.Equal(t, 2, r.ProviderCount())
}

func TestRegistry_FallsBack(t *testing.T) {
	r := NewRegistry(nil)
	primary := &fakeProvider{name: ProviderOpenAI, priority: PriorityPrimary, available: true, err: errProviderDown}
	backup := &fakeProvider{name: ProviderAnthropic, priority: PriorityFallback, available: true, answer: `{"score": 10}`}

	r.Register(primary, testCircuit)
	r.Register(backup, testCircuit)

	got, err := r.Complete(context.Background(), "prompt", "")
	require.NoError(t, err)

	assert.Equal(t, `{"score": 10}`, got)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, backup.calls)
}

func TestRegistry_SkipsUnavailable(t *testing.T) {
	r := NewRegistry(nil)
	off := &fakeProvider{name: ProviderOpenAI, priority: PriorityPrimary, available: false}
	on := &fakeProvider{name: ProviderMock, priority: PriorityMock, available: true, answer: "ok"}

	r.Register(off, testCircuit)
	r.Register(on, testCircuit)

	got, err := r.Complete(context.Background(), "prompt", "")
	require.NoError(t, err)

	assert.Equal(t, "ok", got)
	assert.Zero(t, off.calls)
}

func TestRegistry_AllFail(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(&fakeProvider{name: ProviderOpenAI, priority: PriorityPrimary, available: true, err: errProviderDown}, testCircuit)

	_, err := r.Complete(context.Background(), "prompt", "")
	require.Error(t, err)

	assert.ErrorIs(t, err, apperrors.ErrAllProvidersFailed)
	assert.ErrorIs(t, err, errProviderDown)
}

func TestRegistry_Empty(t *testing.T) {
	_, err := NewRegistry(nil).Complete(context.Background(), "prompt", "")
	assert.ErrorIs(t, err, apperrors.ErrNoProvidersAvailable)
}

func TestRegistry_CircuitOpensAfterThreshold(t *testing.T) {
	r := NewRegistry(nil)
	flaky := &fakeProvider{name: ProviderOpenAI, priority: PriorityPrimary, available: true, err: errProviderDown}
	r.Register(flaky, testCircuit)

	for range testCircuit.Threshold {
		_, err := r.Complete(context.Background(), "prompt", "")
		require.Error(t, err)
	}

	_, err := r.Complete(context.Background(), "prompt", "")

	assert.ErrorIs(t, err, apperrors.ErrNoProvidersAvailable)
	assert.Equal(t, testCircuit.Threshold, flaky.calls)

	statuses := r.Statuses()
	require.Len(t, statuses, 1)
	assert.True(t, statuses[0].CircuitOpen)
}
