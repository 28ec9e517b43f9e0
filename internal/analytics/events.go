// Package analytics carries evaluation results out of the batch run: one
// OutcomeEvent per question to Kafka, one RunRecord per run to PostgreSQL,
// and an Aggregator that folds the event stream back into statistics.
package analytics

import (
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/similarity/evaluator"
)

// OutcomeEvent is the per-question record published to the outcomes topic.
type OutcomeEvent struct {
	RunID     string    `json:"run_id"`
	Index     int       `json:"index"`
	Target    string    `json:"target"`
	Answer    string    `json:"answer"`
	Guess     string    `json:"guess"`
	Correct   bool      `json:"correct"`
	Answered  bool      `json:"answered"`
	Timestamp time.Time `json:"timestamp"`
}

func NewOutcomeEvent(runID string, o evaluator.Outcome, at time.Time) OutcomeEvent {
	return OutcomeEvent{
		RunID:     runID,
		Index:     o.Index,
		Target:    o.Target,
		Answer:    o.Answer,
		Guess:     o.Guess,
		Correct:   o.Correct,
		Answered:  o.Guess != "",
		Timestamp: at.UTC(),
	}
}

// RunRecord summarises one evaluation run.
type RunRecord struct {
	RunID       string    `json:"run_id"`
	CorpusFiles []string  `json:"corpus_files"`
	Vocabulary  int       `json:"vocabulary"`
	Total       int       `json:"total"`
	Correct     int       `json:"correct"`
	Accuracy    float64   `json:"accuracy"`
	DurationMs  int64     `json:"duration_ms"`
	StartedAt   time.Time `json:"started_at"`
}

func NewRunID() string {
	return uuid.NewString()
}
