package orchestrator

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/ragd/internal/session"
	"github.com/fyrsmithlabs/ragd/internal/vectorstore"
)

// DefaultSystemPrompt instructs the model to answer strictly from the
// supplied context.
const DefaultSystemPrompt = "You are a precise assistant. Answer the question using only the provided context. " +
	"If the context does not contain the answer, say you do not know. Cite sources by their attribution tags."

// assemblePrompt builds the final prompt from the system instruction,
// retrieved chunks, and conversation history.
//
// Chunks are fitted into contextBudget, dropping the lowest-similarity
// chunk whole on overflow. A chunk is never split. History arrives
// already trimmed by Session.HistoryWithinBudget and is carried as-is.
func assemblePrompt(system string, results []vectorstore.Result, history []session.Turn, query string, contextBudget int) (Prompt, []session.SourceRef) {
	kept := fitChunks(results, contextBudget)

	refs := make([]session.SourceRef, 0, len(kept))
	var ctxBlock strings.Builder
	for i, r := range kept {
		if i > 0 {
			ctxBlock.WriteString("\n\n")
		}
		fmt.Fprintf(&ctxBlock, "[%s]\n%s", r.Entry.Chunk.Attribution(), r.Entry.Chunk.Text)
		refs = append(refs, session.SourceRef{
			DocType:  r.Entry.Chunk.DocType,
			SourceID: r.Entry.Chunk.SourceID,
			Seq:      r.Entry.Chunk.Seq,
			Score:    r.Score,
		})
	}

	promptHistory := make([]PromptTurn, 0, len(history))
	for _, t := range history {
		promptHistory = append(promptHistory, PromptTurn{Query: t.Query, Answer: t.Answer})
	}

	user := query
	if ctxBlock.Len() > 0 {
		user = fmt.Sprintf("Context:\n%s\n\nQuestion: %s", ctxBlock.String(), query)
	}

	return Prompt{
		System:  system,
		History: promptHistory,
		User:    user,
	}, refs
}

// fitChunks keeps as many results as fit in budget, preferring higher
// similarity. Results arrive sorted by score descending, so trimming
// removes from the tail.
func fitChunks(results []vectorstore.Result, budget int) []vectorstore.Result {
	if budget <= 0 {
		return nil
	}
	kept := make([]vectorstore.Result, 0, len(results))
	used := 0
	for _, r := range results {
		cost := session.EstimateTokens(r.Entry.Chunk.Text)
		if used+cost > budget {
			break
		}
		kept = append(kept, r)
		used += cost
	}
	return kept
}
