package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/service"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/service/cache"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/similarity/evaluator"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/similarity/scorer"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/similarity/selector"
	apperrors "github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/logger"
)

// SimilarityEngine is the read-only query surface of similarity.Engine.
type SimilarityEngine interface {
	Rank(word string, choices []string) ([]selector.Candidate, string)
	Similarity(a, b string) scorer.Score
	Evaluate(cases []evaluator.TestCase, observe func(evaluator.Outcome)) (evaluator.Result, error)
}

type Handler struct {
	engine       SimilarityEngine
	cache        *cache.AnswerCache
	maxChoices   int
	maxBodyBytes int64
	logger       *slog.Logger
}

func New(engine SimilarityEngine, answerCache *cache.AnswerCache, maxChoices int, maxBodyBytes int64) *Handler {
	return &Handler{
		engine:       engine,
		cache:        answerCache,
		maxChoices:   maxChoices,
		maxBodyBytes: maxBodyBytes,
		logger:       slog.Default().With("component", "similarity-handler"),
	}
}

// Similar answers GET /api/v1/similar?word=W&choices=a,b,c. Choices may
// also be given as repeated choice= parameters. Order is significant.
func (h *Handler) Similar(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	word := normalizeWord(r.URL.Query().Get("word"))
	if word == "" {
		h.writeError(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "query parameter 'word' is required"))
		return
	}
	choices := parseChoices(r)
	if len(choices) == 0 {
		h.writeError(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "at least one choice is required"))
		return
	}
	if len(choices) > h.maxChoices {
		h.writeError(w, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "at most %d choices allowed", h.maxChoices))
		return
	}

	compute := func() (*service.Answer, error) {
		candidates, best := h.engine.Rank(word, choices)
		return &service.Answer{Word: word, Choices: candidates, Best: best}, nil
	}
	var answer *service.Answer
	var err error
	cacheHit := false
	if h.cache != nil {
		answer, cacheHit, err = h.cache.GetOrCompute(ctx, word, choices, compute)
	} else {
		answer, err = compute()
	}
	if err != nil {
		log.Error("similarity query failed", "word", word, "error", err)
		h.writeError(w, err)
		return
	}

	log.Info("similarity query completed",
		"word", word,
		"choices", len(choices),
		"best", answer.Best,
		"cache_hit", cacheHit,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, answer)
}

// Pair answers GET /api/v1/similarity?a=X&b=Y.
func (h *Handler) Pair(w http.ResponseWriter, r *http.Request) {
	a := normalizeWord(r.URL.Query().Get("a"))
	b := normalizeWord(r.URL.Query().Get("b"))
	if a == "" || b == "" {
		h.writeError(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "query parameters 'a' and 'b' are required"))
		return
	}
	s := h.engine.Similarity(a, b)
	h.writeJSON(w, http.StatusOK, service.PairScore{A: a, B: b, Score: s.Value, Defined: s.Valid})
}

// Evaluate answers POST /api/v1/evaluate with a test set in the body, one
// question per line. ?outcomes=true includes every per-question outcome.
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusRequestEntityTooLarge, "body exceeds %d bytes", h.maxBodyBytes))
			return
		}
		h.writeError(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "reading request body failed"))
		return
	}
	cases, err := evaluator.ParseTestSet(bytes.NewReader(body))
	if err != nil {
		h.writeError(w, err)
		return
	}

	report := service.EvaluationReport{}
	var observe func(evaluator.Outcome)
	if r.URL.Query().Get("outcomes") == "true" {
		observe = func(o evaluator.Outcome) {
			report.Outcomes = append(report.Outcomes, o)
		}
	}
	res, err := h.engine.Evaluate(cases, observe)
	if err != nil {
		h.writeError(w, err)
		return
	}
	report.Result = res
	log.Info("evaluation request completed", "total", res.Total, "correct", res.Correct, "accuracy", res.Accuracy)
	h.writeJSON(w, http.StatusOK, report)
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "caching is disabled"})
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatusCode(err)
	message := err.Error()
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	if status >= http.StatusInternalServerError {
		message = "internal error"
	}
	h.writeJSON(w, status, map[string]string{"error": message})
}

// normalizeWord matches the tokenizer's lowercasing so query words line up
// with descriptor keys.
func normalizeWord(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func parseChoices(r *http.Request) []string {
	q := r.URL.Query()
	raw := q["choice"]
	if v := q.Get("choices"); v != "" {
		raw = append(strings.Split(v, ","), raw...)
	}
	choices := make([]string, 0, len(raw))
	for _, c := range raw {
		if c = normalizeWord(c); c != "" {
			choices = append(choices, c)
		}
	}
	return choices
}
