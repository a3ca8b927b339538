// Package ingest builds the vector index from a document source. A run
// loads documents, chunks them, embeds every chunk, atomically rebuilds
// the index, and persists it together with a content-hash manifest so an
// unchanged corpus is skipped on the next run.
package ingest

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragd/internal/chunker"
	"github.com/fyrsmithlabs/ragd/internal/document"
	"github.com/fyrsmithlabs/ragd/internal/orchestrator"
	"github.com/fyrsmithlabs/ragd/internal/vectorstore"
)

var tracer = otel.Tracer("ragd.ingest")

// Config configures an ingestion pipeline.
type Config struct {
	// ChunkSize is the chunk length in runes.
	// Default: 1000
	ChunkSize int

	// ChunkOverlap is the overlap between adjacent chunks in runes.
	// Default: 200
	ChunkOverlap int

	// EmbedBatchSize is the number of chunk texts per embedding request.
	// Default: 32
	EmbedBatchSize int

	// ManifestPath is where the content-hash manifest lives.
	ManifestPath string

	// Force rebuilds the index even when the manifest is unchanged.
	Force bool
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.ChunkSize == 0 {
		c.ChunkSize = 1000
	}
	if c.ChunkOverlap == 0 {
		c.ChunkOverlap = 200
	}
	if c.EmbedBatchSize == 0 {
		c.EmbedBatchSize = 32
	}
}

// Result summarizes one ingestion run.
type Result struct {
	Documents int
	Chunks    int
	Skipped   bool
	Duration  time.Duration
}

// Pipeline wires a document source, an embedding provider, and the index.
type Pipeline struct {
	config   Config
	source   document.Source
	embedder orchestrator.EmbeddingProvider
	index    *vectorstore.Index
	logger   *zap.Logger
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(config Config, source document.Source, embedder orchestrator.EmbeddingProvider, index *vectorstore.Index, logger *zap.Logger) (*Pipeline, error) {
	config.ApplyDefaults()
	if source == nil {
		return nil, fmt.Errorf("document source is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedding provider is required")
	}
	if index == nil {
		return nil, fmt.Errorf("index is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Pipeline{
		config:   config,
		source:   source,
		embedder: embedder,
		index:    index,
		logger:   logger,
	}, nil
}

// Run executes one ingestion pass. Any stage failure aborts the run and
// leaves the previously persisted index and manifest untouched.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	ctx, span := tracer.Start(ctx, "ingest.Run")
	defer span.End()

	start := time.Now()

	docs, err := p.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading documents: %w", err)
	}

	current := FromDocuments(docs)
	if !p.config.Force && p.config.ManifestPath != "" {
		previous, err := LoadManifest(p.config.ManifestPath)
		if err != nil {
			return nil, err
		}
		if p.index.Len() > 0 && current.Equal(previous) {
			p.logger.Info("corpus unchanged, skipping ingestion",
				zap.Int("documents", len(docs)),
			)
			return &Result{Documents: len(docs), Skipped: true, Duration: time.Since(start)}, nil
		}
	}

	var chunks []chunker.Chunk
	for _, doc := range docs {
		docChunks, err := chunker.Split(doc, p.config.ChunkSize, p.config.ChunkOverlap)
		if err != nil {
			return nil, fmt.Errorf("chunking %s: %w", doc.SourceID, err)
		}
		chunks = append(chunks, docChunks...)
	}

	pairs := make([]vectorstore.Pair, 0, len(chunks))
	for offset := 0; offset < len(chunks); offset += p.config.EmbedBatchSize {
		end := offset + p.config.EmbedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[offset:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		vectors, err := p.embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embedding chunks %d..%d: %w", offset, end-1, err)
		}

		for i, c := range batch {
			pairs = append(pairs, vectorstore.Pair{Chunk: c, Vector: vectors[i]})
		}
	}

	if err := p.index.Rebuild(ctx, pairs); err != nil {
		return nil, fmt.Errorf("rebuilding index: %w", err)
	}

	if err := p.index.Persist(ctx); err != nil {
		return nil, fmt.Errorf("persisting index: %w", err)
	}

	if p.config.ManifestPath != "" {
		if err := current.Save(p.config.ManifestPath); err != nil {
			return nil, err
		}
	}

	p.logger.Info("ingestion complete",
		zap.Int("documents", len(docs)),
		zap.Int("chunks", len(chunks)),
		zap.Duration("duration", time.Since(start)),
	)

	return &Result{
		Documents: len(docs),
		Chunks:    len(chunks),
		Duration:  time.Since(start),
	}, nil
}
