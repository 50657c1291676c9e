package llm

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/lueurxax/telegram-post-ranker/internal/core/errors"
	"github.com/lueurxax/telegram-post-ranker/internal/platform/observability"
)

const (
	logKeyProvider = "provider"
	logKeyModel    = "model"

	metricAvailable   = 1
	metricUnavailable = 0
	metricCBOpen      = 1
	metricCBClosed    = 0
)

// ProviderStatus is a snapshot of one registered provider.
type ProviderStatus struct {
	Name        ProviderName
	Priority    int
	Available   bool
	CircuitOpen bool
}

// Registry manages LLM providers with fallback support.
type Registry struct {
	mu              sync.RWMutex
	providers       map[ProviderName]Provider
	order           []ProviderName // highest priority first
	circuitBreakers map[ProviderName]*CircuitBreaker
	logger          *zerolog.Logger
}

func NewRegistry(logger *zerolog.Logger) *Registry {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Registry{
		providers:       make(map[ProviderName]Provider),
		circuitBreakers: make(map[ProviderName]*CircuitBreaker),
		logger:          logger,
	}
}

// Register adds a provider to the registry.
func (r *Registry) Register(p Provider, cfg CircuitConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	if _, exists := r.providers[name]; !exists {
		r.order = append(r.order, name)
	}

	r.providers[name] = p
	r.circuitBreakers[name] = NewCircuitBreaker(cfg, r.logger)

	sort.SliceStable(r.order, func(i, j int) bool {
		return r.providers[r.order[i]].Priority() > r.providers[r.order[j]].Priority()
	})

	available := float64(metricUnavailable)
	if p.IsAvailable() {
		available = metricAvailable
	}

	observability.LLMProviderAvailable.WithLabelValues(string(name)).Set(available)
	observability.LLMCircuitBreakerState.WithLabelValues(string(name)).Set(metricCBClosed)

	r.logger.Info().
		Str(logKeyProvider, string(name)).
		Int("priority", p.Priority()).
		Msg("registered LLM provider")
}

// ProviderCount returns the number of registered providers.
func (r *Registry) ProviderCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.providers)
}

// Statuses lists providers in priority order.
func (r *Registry) Statuses() []ProviderStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ProviderStatus, 0, len(r.order))
	for _, name := range r.order {
		p := r.providers[name]
		out = append(out, ProviderStatus{
			Name:        name,
			Priority:    p.Priority(),
			Available:   p.IsAvailable(),
			CircuitOpen: r.circuitBreakers[name].IsOpen(),
		})
	}

	return out
}

// Complete tries providers in priority order until one answers.
func (r *Registry) Complete(ctx context.Context, prompt, model string) (string, error) {
	return executeWithFallback(r, model, func(p Provider, m string) (string, error) {
		return p.Complete(ctx, prompt, m)
	})
}

func (r *Registry) snapshot() []ProviderName {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]ProviderName(nil), r.order...)
}

func (r *Registry) getCircuitBreaker(name ProviderName) *CircuitBreaker {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.circuitBreakers[name]
}

// executeWithFallback runs fn on each usable provider until one succeeds.
func executeWithFallback[T any](r *Registry, model string, fn func(Provider, string) (T, error)) (T, error) {
	var (
		zero      T
		lastErr   error
		firstFail ProviderName
	)

	order := r.snapshot()
	if len(order) == 0 {
		return zero, apperrors.ErrNoProvidersAvailable
	}

	for _, name := range order {
		result, attempted, err := tryProvider(r, name, model, fn)
		if !attempted {
			continue
		}

		if err != nil {
			lastErr = err

			if firstFail == "" {
				firstFail = name
			}

			continue
		}

		if firstFail != "" {
			observability.LLMFallbacks.WithLabelValues(string(firstFail), string(name)).Inc()

			r.logger.Info().
				Str(logKeyProvider, string(name)).
				Str("from_provider", string(firstFail)).
				Msg("used fallback LLM provider")
		}

		return result, nil
	}

	if lastErr != nil {
		return zero, errors.Join(apperrors.ErrAllProvidersFailed, lastErr)
	}

	return zero, apperrors.ErrNoProvidersAvailable
}

// tryProvider reports attempted=false when the provider was skipped.
func tryProvider[T any](r *Registry, name ProviderName, model string, fn func(Provider, string) (T, error)) (T, bool, error) {
	var zero T

	r.mu.RLock()
	p := r.providers[name]
	r.mu.RUnlock()

	if p == nil || !p.IsAvailable() {
		return zero, false, nil
	}

	cb := r.getCircuitBreaker(name)
	if err := cb.CheckCircuit(); err != nil {
		observability.LLMCircuitBreakerState.WithLabelValues(string(name)).Set(metricCBOpen)
		r.logger.Debug().Err(err).Str(logKeyProvider, string(name)).Msg("skipping provider")

		return zero, false, nil
	}

	start := time.Now()
	result, err := fn(p, model)
	observability.JudgeRequestDuration.WithLabelValues(string(name)).Observe(time.Since(start).Seconds())

	if err != nil {
		cb.RecordFailure(name)

		if cb.IsOpen() {
			observability.LLMCircuitBreakerState.WithLabelValues(string(name)).Set(metricCBOpen)
		}

		r.logger.Warn().
			Err(err).
			Str(logKeyProvider, string(name)).
			Str(logKeyModel, model).
			Msg("LLM provider failed")

		return zero, true, err
	}

	cb.RecordSuccess()
	observability.LLMCircuitBreakerState.WithLabelValues(string(name)).Set(metricCBClosed)

	return result, true, nil
}
