// Package selector picks the choice most similar to a target word.
package selector

import (
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/similarity/descriptor"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/similarity/scorer"
)

// Candidate is one scored choice and its position in the choice list.
type Candidate struct {
	Word  string       `json:"word"`
	Index int          `json:"index"`
	Score scorer.Score `json:"score"`
}

// Rank scores every choice against word, preserving choice order. If word
// has no descriptor every score is undefined.
func Rank(word string, choices []string, table descriptor.Table) []Candidate {
	candidates := make([]Candidate, len(choices))
	_, known := table.Lookup(word)
	for i, choice := range choices {
		candidates[i] = Candidate{Word: choice, Index: i, Score: scorer.Undefined()}
		if !known {
			continue
		}
		candidates[i].Score = scorer.Similarity(table, word, choice)
	}
	return candidates
}

// Best returns the winning candidate. A candidate replaces the current best
// when its score is strictly greater, or exactly equal with a lower index.
// ok is false when no candidate has a defined score.
func Best(candidates []Candidate) (best Candidate, ok bool) {
	best = Candidate{Index: -1, Score: scorer.Undefined()}
	for _, c := range candidates {
		switch {
		case c.Score.Greater(best.Score):
			best = c
		case c.Score.Equal(best.Score) && c.Index < best.Index:
			best = c
		}
	}
	return best, best.Score.Valid
}

// MostSimilar returns the choice most similar to word, or "" when word is
// unknown or no choice has a defined similarity.
func MostSimilar(word string, choices []string, table descriptor.Table) string {
	if _, known := table.Lookup(word); !known {
		return ""
	}
	best, ok := Best(Rank(word, choices, table))
	if !ok {
		return ""
	}
	return best.Word
}
