// Package chunker splits documents into overlapping fixed-size segments.
// Splitting is a pure function: identical input and parameters always
// produce an identical chunk sequence.
package chunker

import (
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/ragd/internal/document"
)

// ErrInvalidChunking indicates bad chunk size / overlap parameters.
// Callers must fix the configuration before retrying.
var ErrInvalidChunking = errors.New("invalid chunking parameters")

// Chunk is a contiguous segment of a document, the atomic unit of retrieval.
// Consecutive chunks from the same document overlap by the configured number
// of runes, and together the chunks cover the full document with no gaps.
type Chunk struct {
	// Text is the chunk body.
	Text string

	// DocType and SourceID are copied from the source document so a
	// retrieved chunk can always be traced back to its origin.
	DocType  string
	SourceID string

	// Seq is the 0-based position within the document's chunk sequence.
	Seq int

	// Offset is the rune offset of the chunk start in the document.
	Offset int
}

// Attribution returns a human-readable origin tag, e.g.
// "products/rellm.md#3 (products)".
func (c Chunk) Attribution() string {
	return fmt.Sprintf("%s#%d (%s)", c.SourceID, c.Seq, c.DocType)
}

// Split divides a document into overlapping chunks of size runes with the
// given overlap. Requires size > overlap >= 0. The final chunk may be
// shorter than size; it is never dropped. An empty document yields a single
// empty chunk so every document remains addressable in the index.
func Split(doc document.Document, size, overlap int) ([]Chunk, error) {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: size=%d overlap=%d (need size > overlap >= 0)",
			ErrInvalidChunking, size, overlap)
	}

	runes := []rune(doc.Text)
	step := size - overlap

	var chunks []Chunk
	for start, seq := 0, 0; ; start, seq = start+step, seq+1 {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, Chunk{
			Text:     string(runes[start:end]),
			DocType:  doc.DocType,
			SourceID: doc.SourceID,
			Seq:      seq,
			Offset:   start,
		})
		if end == len(runes) {
			break
		}
	}
	return chunks, nil
}
