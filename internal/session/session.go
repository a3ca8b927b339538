// Package session holds bounded dialogue state for one conversation.
//
// A Session represents a single logical dialogue: turns are appended and
// never mutated or reordered, and history only influences prompt assembly,
// never the vector index. One session must not serve concurrent queries;
// callers run at most one query per session at a time. Independent
// sessions are fully independent.
package session

import (
	"time"

	"github.com/google/uuid"
)

// SourceRef points at a chunk that was used to answer a turn.
type SourceRef struct {
	DocType  string
	SourceID string
	Seq      int

	// Score is the similarity the chunk had for the turn's query.
	Score float64
}

// Turn is one completed question/answer exchange. Immutable once recorded.
type Turn struct {
	ID        string
	Query     string
	Answer    string
	Sources   []SourceRef
	CreatedAt time.Time
}

// NewTurn builds a turn with a fresh id and timestamp.
func NewTurn(query, answer string, sources []SourceRef) Turn {
	return Turn{
		ID:        uuid.NewString(),
		Query:     query,
		Answer:    answer,
		Sources:   sources,
		CreatedAt: time.Now(),
	}
}

// Session is an ordered sequence of turns for one dialogue.
type Session struct {
	id    string
	turns []Turn
}

// New creates an empty session.
func New() *Session {
	return &Session{id: uuid.NewString()}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Append records a completed turn. Prior turns are never modified.
func (s *Session) Append(t Turn) {
	s.turns = append(s.turns, t)
}

// Len returns the number of recorded turns.
func (s *Session) Len() int {
	return len(s.turns)
}

// Turns returns a copy of all recorded turns in order.
func (s *Session) Turns() []Turn {
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// HistoryWithinBudget selects the most recent turns whose cumulative
// estimated token size fits within budget, returned in chronological
// order. A turn is included whole or not at all; older turns drop first.
func (s *Session) HistoryWithinBudget(budget int) []Turn {
	if budget <= 0 || len(s.turns) == 0 {
		return nil
	}

	remaining := budget
	start := len(s.turns)
	for i := len(s.turns) - 1; i >= 0; i-- {
		cost := EstimateTokens(s.turns[i].Query) + EstimateTokens(s.turns[i].Answer)
		if cost > remaining {
			break
		}
		remaining -= cost
		start = i
	}
	if start == len(s.turns) {
		return nil
	}

	out := make([]Turn, len(s.turns)-start)
	copy(out, s.turns[start:])
	return out
}
