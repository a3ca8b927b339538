package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragd/internal/chunker"
)

// indexTracer for OpenTelemetry instrumentation.
var indexTracer = otel.Tracer("ragd.vectorstore")

// Config holds configuration for the vector index.
type Config struct {
	// Dimension is the fixed embedding dimension. Every vector in the
	// index must have exactly this length.
	Dimension int

	// Path is the file the index persists to.
	Path string
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.Dimension <= 0 {
		return fmt.Errorf("%w: dimension must be positive, got %d", ErrInvalidConfig, c.Dimension)
	}
	if c.Path == "" {
		return fmt.Errorf("%w: path required", ErrInvalidConfig)
	}
	return nil
}

// snapshot is an immutable view of the entry set. Readers load the current
// snapshot once and operate on it without further synchronization; writers
// build a replacement off to the side and publish it atomically.
type snapshot struct {
	entries []Entry
}

// Index is a durable store of entries with exact cosine-similarity retrieval.
//
// Queries run concurrently against an immutable snapshot and never block
// each other. Insert, BulkInsert and Rebuild serialize on an internal
// mutex and publish a new snapshot; a reader observes either the state
// before a mutation or after it, never an interleaving.
type Index struct {
	config  Config
	logger  *zap.Logger
	metrics *Metrics

	mu     sync.Mutex // serializes writers and nextID
	nextID uint64
	snap   atomic.Pointer[snapshot]
}

// New creates an empty index with the given configuration.
func New(config Config, logger *zap.Logger) (*Index, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	idx := &Index{
		config:  config,
		logger:  logger,
		metrics: NewMetrics(logger),
		nextID:  1,
	}
	idx.snap.Store(&snapshot{})

	logger.Info("vector index initialized",
		zap.Int("dimension", config.Dimension),
		zap.String("path", config.Path),
	)
	return idx, nil
}

// Dimension returns the fixed embedding dimension.
func (idx *Index) Dimension() int {
	return idx.config.Dimension
}

// Len returns the number of entries in the current snapshot.
func (idx *Index) Len() int {
	return len(idx.snap.Load().entries)
}

// checkVector validates a single vector against the index dimension.
func (idx *Index) checkVector(vec []float32) error {
	if len(vec) != idx.config.Dimension {
		return fmt.Errorf("%w: got %d, index dimension is %d",
			ErrDimensionMismatch, len(vec), idx.config.Dimension)
	}
	return nil
}

// Insert adds one chunk with its embedding and returns the assigned stable
// id. Insert does not deduplicate by content; idempotent re-ingestion is
// the ingestion pipeline's responsibility (see internal/ingest).
func (idx *Index) Insert(ctx context.Context, chunk chunker.Chunk, vec []float32) (uint64, error) {
	ids, err := idx.BulkInsert(ctx, []Pair{{Chunk: chunk, Vector: vec}})
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

// BulkInsert adds a batch of entries. Either every entry is added or none
// is: all vectors are validated before the new snapshot is published, so a
// dimension mismatch anywhere in the batch leaves the index unchanged.
func (idx *Index) BulkInsert(ctx context.Context, pairs []Pair) ([]uint64, error) {
	_, span := indexTracer.Start(ctx, "Index.BulkInsert")
	defer span.End()
	span.SetAttributes(attribute.Int("batch_size", len(pairs)))

	if len(pairs) == 0 {
		return nil, nil
	}
	for i, p := range pairs {
		if err := idx.checkVector(p.Vector); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	cur := idx.snap.Load().entries
	next := make([]Entry, len(cur), len(cur)+len(pairs))
	copy(next, cur)

	ids := make([]uint64, len(pairs))
	for i, p := range pairs {
		vec := make([]float32, len(p.Vector))
		copy(vec, p.Vector)
		ids[i] = idx.nextID
		idx.nextID++
		next = append(next, Entry{ID: ids[i], Chunk: p.Chunk, Vector: vec})
	}
	idx.snap.Store(&snapshot{entries: next})

	idx.logger.Debug("inserted entries",
		zap.Int("count", len(pairs)),
		zap.Int("total", len(next)),
	)
	return ids, nil
}

// Rebuild atomically replaces the entire entry set. It is used when the
// corpus or the chunking parameters change. The replacement is built off
// to the side and swapped in with a single pointer store, so a concurrent
// reader sees either the old or the new generation, never a mix.
//
// Stable ids restart from 1: a rebuild begins a new index generation and
// ids are never reused within one generation.
func (idx *Index) Rebuild(ctx context.Context, pairs []Pair) error {
	_, span := indexTracer.Start(ctx, "Index.Rebuild")
	defer span.End()
	span.SetAttributes(attribute.Int("entries", len(pairs)))

	for i, p := range pairs {
		if err := idx.checkVector(p.Vector); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}

	next := make([]Entry, 0, len(pairs))
	var id uint64 = 1
	for _, p := range pairs {
		vec := make([]float32, len(p.Vector))
		copy(vec, p.Vector)
		next = append(next, Entry{ID: id, Chunk: p.Chunk, Vector: vec})
		id++
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.nextID = id
	idx.snap.Store(&snapshot{entries: next})

	idx.logger.Info("index rebuilt", zap.Int("entries", len(next)))
	return nil
}

// Query returns up to k entries ranked by descending cosine similarity to
// vec. Equal scores are broken by ascending stable id, so the ordering is
// fully deterministic for a fixed snapshot. Returns ErrEmptyIndex when the
// index holds no entries.
func (idx *Index) Query(ctx context.Context, vec []float32, k int) ([]Result, error) {
	start := time.Now()
	ctx, span := indexTracer.Start(ctx, "Index.Query")
	defer span.End()

	var queryErr error
	defer func() {
		idx.metrics.RecordQuery(ctx, time.Since(start), queryErr)
	}()

	if k <= 0 {
		queryErr = fmt.Errorf("%w: k must be positive, got %d", ErrInvalidConfig, k)
		span.SetStatus(codes.Error, queryErr.Error())
		return nil, queryErr
	}
	if err := idx.checkVector(vec); err != nil {
		queryErr = err
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	entries := idx.snap.Load().entries
	if len(entries) == 0 {
		queryErr = ErrEmptyIndex
		return nil, ErrEmptyIndex
	}

	results := make([]Result, len(entries))
	for i, e := range entries {
		results[i] = Result{Entry: e, Score: cosineSimilarity(vec, e.Vector)}
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Entry.ID < results[j].Entry.ID
	})

	if k > len(results) {
		k = len(results)
	}
	results = results[:k]

	span.SetAttributes(
		attribute.Int("k", k),
		attribute.Int("results", len(results)),
	)
	span.SetStatus(codes.Ok, "success")
	return results, nil
}

// cosineSimilarity computes cos(a, b) = (a · b) / (||a|| * ||b||) with
// float64 accumulation. Returns 0 for a zero-magnitude vector.
func cosineSimilarity(a, b []float32) float64 {
	var dot, magA, magB float64
	for i := range a {
		av, bv := float64(a[i]), float64(b[i])
		dot += av * bv
		magA += av * av
		magB += bv * bv
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
