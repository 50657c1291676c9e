// Package errors provides centralized error definitions for the application.
// Errors are organized by domain to avoid duplication and provide consistent naming.
//
// Naming conventions:
//   - Exported errors (Err*): Use for errors that callers need to check with errors.Is
//   - All sentinel errors should be defined as variables, not inline errors.New calls
//   - Use fmt.Errorf with %w to wrap sentinel errors with context
package errors

import "errors"

// Circuit breaker errors.
var (
	// ErrCircuitBreakerOpen indicates the circuit breaker has tripped and requests are blocked.
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open")
)

// Chat and entity resolution errors.
var (
	// ErrChatNotFound indicates a chat could not be found by the user client.
	ErrChatNotFound = errors.New("chat not found")

	// ErrInvalidChatRef indicates a chat identifier is neither @username nor a number.
	ErrInvalidChatRef = errors.New("invalid chat identifier")

	// ErrNoPublicUsername indicates the chat has no public username.
	ErrNoPublicUsername = errors.New("chat has no public username")
)

// Client and connection errors.
var (
	// ErrClientNotInitialized indicates a client has not been initialized.
	ErrClientNotInitialized = errors.New("client not initialized")

	// ErrRelayUnavailable indicates no relay chat is configured for media delivery.
	ErrRelayUnavailable = errors.New("relay chat unavailable")

	// ErrRelayMismatch indicates a relay forward returned fewer ids than requested.
	ErrRelayMismatch = errors.New("relay forward returned unexpected ids")
)

// LLM errors.
var (
	// ErrNoProvidersAvailable indicates no LLM provider could take the request.
	ErrNoProvidersAvailable = errors.New("no LLM providers available")

	// ErrAllProvidersFailed indicates every LLM provider returned an error.
	ErrAllProvidersFailed = errors.New("all LLM providers failed")
)

// Response and parsing errors.
var (
	// ErrEmptyResponse indicates an empty response was received.
	ErrEmptyResponse = errors.New("empty response")

	// ErrUnexpectedType indicates an unexpected type was encountered.
	ErrUnexpectedType = errors.New("unexpected type")
)

// Validation errors.
var (
	// ErrInvalidInput indicates invalid input was provided.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptySelection indicates an index selection matched nothing.
	ErrEmptySelection = errors.New("empty selection")
)
