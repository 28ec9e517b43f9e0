// Package service holds the request and response types of the similarity
// query service.
package service

import (
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/similarity/evaluator"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/similarity/selector"
)

// Answer is the response to a most-similar query. Best is empty when the
// word is unknown or no choice has a defined similarity.
type Answer struct {
	Word    string               `json:"word"`
	Choices []selector.Candidate `json:"choices"`
	Best    string               `json:"best"`
}

// PairScore is the response to a pairwise similarity query.
type PairScore struct {
	A       string  `json:"a"`
	B       string  `json:"b"`
	Score   float64 `json:"score"`
	Defined bool    `json:"defined"`
}

// EvaluationReport is the response to an evaluation request.
type EvaluationReport struct {
	evaluator.Result
	Outcomes []evaluator.Outcome `json:"outcomes,omitempty"`
}
