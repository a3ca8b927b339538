package orchestrator

import (
	"strings"
	"testing"

	"github.com/fyrsmithlabs/ragd/internal/chunker"
	"github.com/fyrsmithlabs/ragd/internal/vectorstore"
)

func result(id uint64, text string, score float64) vectorstore.Result {
	return vectorstore.Result{
		Entry: vectorstore.Entry{
			ID: id,
			Chunk: chunker.Chunk{
				Text:     text,
				DocType:  "guides",
				SourceID: "guides/a.md",
				Seq:      int(id) - 1,
			},
		},
		Score: score,
	}
}

func TestAssemblePromptIncludesChunksAndAttribution(t *testing.T) {
	results := []vectorstore.Result{
		result(1, "alpha content", 0.9),
		result(2, "beta content", 0.5),
	}

	prompt, refs := assemblePrompt("system text", results, nil, "what is alpha?", 1000)

	if prompt.System != "system text" {
		t.Errorf("System = %q", prompt.System)
	}
	if !strings.Contains(prompt.User, "alpha content") || !strings.Contains(prompt.User, "beta content") {
		t.Errorf("User prompt missing chunk text: %q", prompt.User)
	}
	if !strings.Contains(prompt.User, "[guides/a.md#0 (guides)]") {
		t.Errorf("User prompt missing attribution tag: %q", prompt.User)
	}
	if !strings.Contains(prompt.User, "what is alpha?") {
		t.Errorf("User prompt missing question: %q", prompt.User)
	}

	if len(refs) != 2 {
		t.Fatalf("refs = %d, want 2", len(refs))
	}
	if refs[0].Score != 0.9 || refs[0].Seq != 0 {
		t.Errorf("refs[0] = %+v", refs[0])
	}
}

func TestAssemblePromptNoChunks(t *testing.T) {
	prompt, refs := assemblePrompt("sys", nil, nil, "anything?", 1000)

	if prompt.User != "anything?" {
		t.Errorf("User = %q, want bare question when no context", prompt.User)
	}
	if len(refs) != 0 {
		t.Errorf("refs = %d, want 0", len(refs))
	}
}

func TestFitChunksDropsLowestSimilarityWhole(t *testing.T) {
	// Each chunk costs 10 estimated tokens (40 runes).
	text := strings.Repeat("x", 40)
	results := []vectorstore.Result{
		result(1, text, 0.9),
		result(2, text, 0.7),
		result(3, text, 0.5),
	}

	kept := fitChunks(results, 25)
	if len(kept) != 2 {
		t.Fatalf("kept %d chunks, want 2", len(kept))
	}
	// The lowest-similarity chunk is the one dropped.
	if kept[0].Entry.ID != 1 || kept[1].Entry.ID != 2 {
		t.Errorf("kept wrong chunks: %v, %v", kept[0].Entry.ID, kept[1].Entry.ID)
	}
}

func TestFitChunksNeverSplits(t *testing.T) {
	// One oversized chunk plus budget for half of it: nothing is kept.
	kept := fitChunks([]vectorstore.Result{result(1, strings.Repeat("x", 400), 0.9)}, 50)
	if len(kept) != 0 {
		t.Errorf("kept %d chunks, want 0", len(kept))
	}
}

func TestFitChunksNonPositiveBudget(t *testing.T) {
	kept := fitChunks([]vectorstore.Result{result(1, "x", 0.9)}, 0)
	if len(kept) != 0 {
		t.Errorf("kept %d chunks with zero budget, want 0", len(kept))
	}
}
