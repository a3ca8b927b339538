package orchestrator

import "errors"

// Provider failure classification. Embedding and generation errors are
// transient: the orchestrator retries with backoff a bounded number of
// times before surfacing them. Cancellation is user-initiated and is not
// logged as a fault.
var (
	// ErrEmbeddingUnavailable indicates the embedding provider failed.
	// The orchestrator never substitutes a zero vector or degrades to
	// keyword search.
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")

	// ErrGenerationUnavailable indicates the generation provider failed.
	ErrGenerationUnavailable = errors.New("generation provider unavailable")

	// ErrProviderTimeout indicates a provider call exceeded the configured
	// timeout.
	ErrProviderTimeout = errors.New("provider call timed out")

	// ErrCancelled indicates the caller cancelled the query.
	ErrCancelled = errors.New("query cancelled")

	// ErrEmptyQuery rejects blank query text before any provider call.
	ErrEmptyQuery = errors.New("query text is empty")
)
