package orchestrator

import "context"

// EmbeddingProvider produces vector representations of text. All vectors
// returned by a provider must share the dimension reported by Dimension.
type EmbeddingProvider interface {
	// EmbedQuery embeds a single query string.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// EmbedDocuments embeds a batch of chunk texts, returning one vector
	// per input in the same order.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension reports the width of vectors this provider produces.
	Dimension() int
}

// GenerationProvider produces an answer from an assembled prompt.
type GenerationProvider interface {
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

// Prompt is the fully assembled input handed to a generation provider.
type Prompt struct {
	System  string
	History []PromptTurn
	User    string
}

// PromptTurn is one prior exchange carried into the prompt.
type PromptTurn struct {
	Query  string
	Answer string
}
