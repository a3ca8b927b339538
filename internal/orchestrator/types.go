// Package orchestrator turns a user query plus conversation state into a
// ranked, token-budgeted prompt for a downstream generator.
//
// Each query moves through a fixed state machine:
//
//	Received -> Embedded -> Retrieved -> Assembled -> Dispatched -> Completed
//	                                                            \-> Failed
//
// The run is deterministic given the index snapshot and session state at
// the moment the query is received. A failed query never modifies the
// session: a turn is recorded in full or not at all.
package orchestrator

import (
	"github.com/fyrsmithlabs/ragd/internal/session"
)

// QueryState is the lifecycle state of one query.
type QueryState string

const (
	StateReceived   QueryState = "received"
	StateEmbedded   QueryState = "embedded"
	StateRetrieved  QueryState = "retrieved"
	StateAssembled  QueryState = "assembled"
	StateDispatched QueryState = "dispatched"
	StateCompleted  QueryState = "completed"
	StateFailed     QueryState = "failed"
)

// ValidTransitions defines allowed state transitions.
var ValidTransitions = map[QueryState][]QueryState{
	StateReceived:   {StateEmbedded, StateFailed},
	StateEmbedded:   {StateRetrieved, StateFailed},
	StateRetrieved:  {StateAssembled, StateFailed},
	StateAssembled:  {StateDispatched, StateFailed},
	StateDispatched: {StateCompleted, StateFailed},
	StateCompleted:  {}, // terminal
	StateFailed:     {}, // terminal
}

// CanTransitionTo checks if a transition from s to target is valid.
func (s QueryState) CanTransitionTo(target QueryState) bool {
	for _, t := range ValidTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true for Completed and Failed.
func (s QueryState) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Answer is a completed query result: the generated text and the chunk
// attributions that were actually included in the prompt.
type Answer struct {
	Text    string
	Sources []session.SourceRef
}
