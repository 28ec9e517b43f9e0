package analytics

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/metrics"
)

const (
	maxRunsReported = 20
	topMissed       = 10
)

type RunStats struct {
	RunID      string    `json:"run_id"`
	Total      int       `json:"total"`
	Correct    int       `json:"correct"`
	Unanswered int       `json:"unanswered"`
	Accuracy   float64   `json:"accuracy"`
	LastSeen   time.Time `json:"last_seen"`
}

type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

type Stats struct {
	Questions  int         `json:"questions"`
	Correct    int         `json:"correct"`
	Unanswered int         `json:"unanswered"`
	Accuracy   float64     `json:"accuracy"`
	Duplicates int         `json:"duplicates"`
	Runs       []RunStats  `json:"runs"`
	MostMissed []WordCount `json:"most_missed"`
}

type runState struct {
	stats RunStats
	seen  map[int]struct{}
}

// Aggregator folds OutcomeEvents into per-run and overall statistics.
// Redelivered events (same run and question index) are counted once.
type Aggregator struct {
	mu         sync.RWMutex
	runs       map[string]*runState
	missed     map[string]int
	duplicates int
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

func NewAggregator(m *metrics.Metrics) *Aggregator {
	return &Aggregator{
		runs:    make(map[string]*runState),
		missed:  make(map[string]int),
		metrics: m,
		logger:  slog.Default().With("component", "outcome-aggregator"),
	}
}

// Record adds one event. It reports false for a duplicate.
func (a *Aggregator) Record(e OutcomeEvent) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	run, ok := a.runs[e.RunID]
	if !ok {
		run = &runState{stats: RunStats{RunID: e.RunID}, seen: make(map[int]struct{})}
		a.runs[e.RunID] = run
	}
	if _, dup := run.seen[e.Index]; dup {
		a.duplicates++
		return false
	}
	run.seen[e.Index] = struct{}{}

	s := &run.stats
	s.Total++
	switch {
	case e.Correct:
		s.Correct++
	case !e.Answered:
		s.Unanswered++
		a.missed[e.Target]++
	default:
		a.missed[e.Target]++
	}
	s.Accuracy = percent(s.Correct, s.Total)
	if e.Timestamp.After(s.LastSeen) {
		s.LastSeen = e.Timestamp
	}
	return true
}

// HandleEvent adapts the aggregator to a Kafka consumer. Undecodable
// messages are logged and skipped so they are committed rather than
// redelivered forever.
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[OutcomeEvent](value)
		if err != nil || event.RunID == "" {
			agg.logger.Error("skipping undecodable outcome event", "key", string(key), "error", err)
			return nil
		}
		if agg.Record(event) && agg.metrics != nil {
			agg.metrics.OutcomeEventsTotal.WithLabelValues("consumed").Inc()
		}
		return nil
	}
}

// Stats returns totals, the most recently active runs first, and the most
// frequently missed target words.
func (a *Aggregator) Stats() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	st := Stats{Duplicates: a.duplicates}
	runs := make([]RunStats, 0, len(a.runs))
	for _, r := range a.runs {
		st.Questions += r.stats.Total
		st.Correct += r.stats.Correct
		st.Unanswered += r.stats.Unanswered
		runs = append(runs, r.stats)
	}
	st.Accuracy = percent(st.Correct, st.Questions)

	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].LastSeen.Equal(runs[j].LastSeen) {
			return runs[i].LastSeen.After(runs[j].LastSeen)
		}
		return runs[i].RunID < runs[j].RunID
	})
	if len(runs) > maxRunsReported {
		runs = runs[:maxRunsReported]
	}
	st.Runs = runs
	st.MostMissed = topN(a.missed, topMissed)
	return st
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func topN(counts map[string]int, n int) []WordCount {
	result := make([]WordCount, 0, len(counts))
	for word, count := range counts {
		result = append(result, WordCount{Word: word, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Word < result[j].Word
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
