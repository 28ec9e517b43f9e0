// Package evaluator runs the nearest-neighbour selector over a labelled
// test set and reports accuracy.
package evaluator

import (
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/similarity/descriptor"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/similarity/selector"
	apperrors "github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/errors"
)

// Result is the aggregate of one evaluation. Accuracy is a percentage.
type Result struct {
	Total    int     `json:"total"`
	Correct  int     `json:"correct"`
	Accuracy float64 `json:"accuracy"`
}

// Outcome is the result of a single test case.
type Outcome struct {
	Index   int    `json:"index"`
	Target  string `json:"target"`
	Answer  string `json:"answer"`
	Guess   string `json:"guess"`
	Correct bool   `json:"correct"`
}

// Evaluate answers every case against table. An empty test set returns
// an error wrapping ErrNoData.
func Evaluate(cases []TestCase, table descriptor.Table) (Result, error) {
	return EvaluateFunc(cases, table, nil)
}

// EvaluateFunc is Evaluate with a callback invoked after each case.
func EvaluateFunc(cases []TestCase, table descriptor.Table, observe func(Outcome)) (Result, error) {
	if len(cases) == 0 {
		return Result{}, fmt.Errorf("evaluating empty test set: %w", apperrors.ErrNoData)
	}
	res := Result{Total: len(cases)}
	for i, tc := range cases {
		guess := selector.MostSimilar(tc.Target, tc.Choices, table)
		correct := guess == tc.Answer
		if correct {
			res.Correct++
		}
		if observe != nil {
			observe(Outcome{
				Index:   i,
				Target:  tc.Target,
				Answer:  tc.Answer,
				Guess:   guess,
				Correct: correct,
			})
		}
	}
	res.Accuracy = float64(res.Correct) / float64(res.Total) * 100
	return res, nil
}
