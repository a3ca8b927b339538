package session

import (
	"strings"
	"unicode/utf8"
)

// EstimateTokens gives a rough token count for budget accounting.
// Uses rune count divided by 4 (the usual chars-per-token ratio for
// English), bounded below by the word count so short texts with many
// small words are not undercounted. Deterministic by construction.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	byRunes := utf8.RuneCountInString(text) / 4
	byWords := len(strings.Fields(text))
	if byWords > byRunes {
		return byWords
	}
	if byRunes == 0 {
		return 1
	}
	return byRunes
}
