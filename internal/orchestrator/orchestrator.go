// Package orchestrator drives a query through the retrieval pipeline:
// embed the query, retrieve similar chunks, assemble a token-budgeted
// prompt, and dispatch it to a generation provider. Every query moves
// through an explicit state machine so failures are attributable to a
// stage.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragd/internal/session"
	"github.com/fyrsmithlabs/ragd/internal/vectorstore"
)

var tracer = otel.Tracer("ragd.orchestrator")

// Config configures the retrieval orchestrator.
type Config struct {
	// TopK is the number of chunks retrieved per query.
	// Default: 4
	TopK int

	// ContextBudget caps the estimated tokens spent on retrieved chunks.
	// Default: 2048
	ContextBudget int

	// HistoryBudget caps the estimated tokens spent on prior turns.
	// Default: 1024
	HistoryBudget int

	// SystemPrompt is the instruction prepended to every prompt.
	SystemPrompt string

	// ProviderTimeout bounds each individual provider call.
	// Default: 30 seconds
	ProviderTimeout time.Duration

	// Retry controls backoff for transient provider failures.
	Retry RetryConfig
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.TopK == 0 {
		c.TopK = 4
	}
	if c.ContextBudget == 0 {
		c.ContextBudget = 2048
	}
	if c.HistoryBudget == 0 {
		c.HistoryBudget = 1024
	}
	if c.SystemPrompt == "" {
		c.SystemPrompt = DefaultSystemPrompt
	}
	if c.ProviderTimeout == 0 {
		c.ProviderTimeout = 30 * time.Second
	}
	c.Retry.ApplyDefaults()
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	if c.TopK < 1 {
		return fmt.Errorf("top_k must be at least 1, got %d", c.TopK)
	}
	if c.ContextBudget < 1 {
		return fmt.Errorf("context_budget must be at least 1, got %d", c.ContextBudget)
	}
	if c.HistoryBudget < 0 {
		return fmt.Errorf("history_budget must not be negative, got %d", c.HistoryBudget)
	}
	return nil
}

// Orchestrator coordinates embedding, retrieval, prompt assembly, and
// generation for a conversation session.
type Orchestrator struct {
	config    Config
	index     *vectorstore.Index
	embedder  EmbeddingProvider
	generator GenerationProvider
	logger    *zap.Logger
	metrics   *Metrics
}

// New creates an orchestrator over the given index and providers.
func New(config Config, index *vectorstore.Index, embedder EmbeddingProvider, generator GenerationProvider, logger *zap.Logger) (*Orchestrator, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if index == nil {
		return nil, errors.New("index is required")
	}
	if embedder == nil {
		return nil, errors.New("embedding provider is required")
	}
	if generator == nil {
		return nil, errors.New("generation provider is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Orchestrator{
		config:    config,
		index:     index,
		embedder:  embedder,
		generator: generator,
		logger:    logger,
		metrics:   NewMetrics(logger),
	}, nil
}

// SubmitQuery runs one query through the full pipeline and, on success,
// appends the completed turn to the session. A failed query leaves the
// session untouched.
func (o *Orchestrator) SubmitQuery(ctx context.Context, sess *session.Session, query string) (*Answer, error) {
	ctx, span := tracer.Start(ctx, "orchestrator.SubmitQuery")
	defer span.End()

	start := time.Now()
	state := StateReceived
	answer, err := o.run(ctx, sess, query, &state)
	o.metrics.RecordQuery(ctx, state, time.Since(start), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		span.SetAttributes(attribute.String("query.failed_state", string(state)))
		return nil, err
	}

	span.SetAttributes(
		attribute.String("session.id", sess.ID()),
		attribute.Int("answer.sources", len(answer.Sources)),
	)
	return answer, nil
}

func (o *Orchestrator) run(ctx context.Context, sess *session.Session, query string, state *QueryState) (*Answer, error) {
	if strings.TrimSpace(query) == "" {
		o.fail(state)
		return nil, ErrEmptyQuery
	}

	// Received -> Embedded
	var queryVec []float32
	err := retryProviderCall(ctx, o.config.Retry, o.logger, "embedding", func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, o.config.ProviderTimeout)
		defer cancel()
		vec, embErr := o.embedder.EmbedQuery(callCtx, query)
		if embErr != nil {
			return embErr
		}
		queryVec = vec
		return nil
	})
	if err != nil {
		o.fail(state)
		return nil, o.classify(err, ErrEmbeddingUnavailable)
	}
	o.advance(state, StateEmbedded)

	// Embedded -> Retrieved
	results, err := o.index.Query(ctx, queryVec, o.config.TopK)
	if err != nil && !errors.Is(err, vectorstore.ErrEmptyIndex) {
		o.fail(state)
		return nil, fmt.Errorf("retrieval: %w", err)
	}
	o.advance(state, StateRetrieved)

	// Retrieved -> Assembled
	history := sess.HistoryWithinBudget(o.config.HistoryBudget)
	prompt, refs := assemblePrompt(o.config.SystemPrompt, results, history, query, o.config.ContextBudget)
	o.advance(state, StateAssembled)

	o.logger.Debug("prompt assembled",
		zap.String("session_id", sess.ID()),
		zap.Int("chunks", len(refs)),
		zap.Int("history_turns", len(prompt.History)),
	)

	// Assembled -> Dispatched
	var text string
	err = retryProviderCall(ctx, o.config.Retry, o.logger, "generation", func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, o.config.ProviderTimeout)
		defer cancel()
		out, genErr := o.generator.Generate(callCtx, prompt)
		if genErr != nil {
			return genErr
		}
		text = out
		return nil
	})
	if err != nil {
		o.fail(state)
		return nil, o.classify(err, ErrGenerationUnavailable)
	}
	o.advance(state, StateDispatched)

	// Dispatched -> Completed
	answer := &Answer{Text: text, Sources: refs}
	sess.Append(session.NewTurn(query, text, refs))
	o.advance(state, StateCompleted)

	return answer, nil
}

// classify wraps a retry failure with its stage sentinel, preserving
// cancellation and timeout sentinels already applied by the retry loop.
func (o *Orchestrator) classify(err error, sentinel error) error {
	if errors.Is(err, ErrCancelled) || errors.Is(err, ErrProviderTimeout) {
		return err
	}
	return fmt.Errorf("%w: %v", sentinel, err)
}

func (o *Orchestrator) advance(state *QueryState, next QueryState) {
	if !state.CanTransitionTo(next) {
		// Transition table bug; states only move forward from run.
		o.logger.Error("invalid query state transition",
			zap.String("from", string(*state)),
			zap.String("to", string(next)),
		)
		return
	}
	*state = next
}

func (o *Orchestrator) fail(state *QueryState) {
	if state.CanTransitionTo(StateFailed) {
		*state = StateFailed
	}
}
