// Package document defines the source document model and loaders for the
// knowledge base. Documents are immutable once loaded; the ingestion
// pipeline owns them and never mutates them after chunking.
package document

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

// Document is an opaque text body tagged with a category and its origin.
type Document struct {
	// Text is the full document body.
	Text string

	// DocType is the category tag, e.g. "employees" or "products".
	// For filesystem sources this is the first-level directory name.
	DocType string

	// SourceID identifies where the document came from, e.g. a file path
	// relative to the knowledge-base root. Unique within one corpus.
	SourceID string
}

// ContentHash returns the hex-encoded SHA-256 of the document text.
// The ingestion pipeline uses it to detect unchanged content across runs.
func (d Document) ContentHash() string {
	sum := sha256.Sum256([]byte(d.Text))
	return hex.EncodeToString(sum[:])
}

// Source enumerates a collection of documents. Implementations do the
// format-specific loading; the core never parses file formats itself.
type Source interface {
	// Load returns all documents in the collection. The order is stable
	// for a given underlying corpus.
	Load(ctx context.Context) ([]Document, error)
}
