// Package vectorstore implements a durable exact-similarity vector index.
//
// The index stores (chunk, vector, stable id) triples and answers top-k
// cosine similarity queries. It is designed for corpora on the order of
// thousands of chunks, where an exact linear scan is both fast enough and
// trivially correct. A sub-linear approximate index can replace it behind
// the same contract as long as query ordering stays deterministic for a
// fixed snapshot.
package vectorstore

import (
	"errors"

	"github.com/fyrsmithlabs/ragd/internal/chunker"
)

// Sentinel errors for index operations.
var (
	// ErrInvalidConfig indicates invalid index configuration.
	ErrInvalidConfig = errors.New("invalid index configuration")

	// ErrDimensionMismatch is returned when a vector's length differs from
	// the index's fixed dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrEmptyIndex is returned by Query when the index holds no entries.
	// Callers treat this as "no context available", not a hard failure.
	ErrEmptyIndex = errors.New("index is empty")

	// ErrIncompatibleFormat is returned when persisted state cannot be
	// loaded: unknown layout version, wrong similarity metric, or a
	// dimension that does not match the stored vectors.
	ErrIncompatibleFormat = errors.New("incompatible index format")
)

// MetricCosine identifies the cosine similarity metric in persisted state.
const MetricCosine = "cosine"

// Entry is one indexed chunk with its embedding and stable id.
//
// IDs are assigned at insertion, increase monotonically, and are never
// reused within one index generation, so they double as a deterministic
// tie-breaker for equal similarity scores.
type Entry struct {
	ID     uint64
	Chunk  chunker.Chunk
	Vector []float32
}

// Result is a query hit: an entry plus its similarity to the query vector.
type Result struct {
	Entry Entry

	// Score is the cosine similarity in [-1, 1], computed with float64
	// accumulation so it is reproducible across runs.
	Score float64
}

// Pair couples a chunk with its embedding for bulk operations.
type Pair struct {
	Chunk  chunker.Chunk
	Vector []float32
}
