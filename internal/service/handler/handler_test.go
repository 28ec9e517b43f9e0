package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/service"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/similarity"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	engine := similarity.Build([]string{"good is nice. good is great. bad x."}, nil)
	return New(engine, nil, 3, 1024)
}

func TestSimilarRespectsChoiceOrder(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		query string
		want  string
	}{
		{"word=good&choices=nice,great", "nice"},
		{"word=good&choices=great,nice", "great"},
		{"word=GOOD&choice=Great&choice=nice", "great"},
		{"word=missing&choices=nice,great", ""},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Similar(rec, httptest.NewRequest(http.MethodGet, "/api/v1/similar?"+tt.query, nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
			var answer service.Answer
			if err := json.NewDecoder(rec.Body).Decode(&answer); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if answer.Best != tt.want {
				t.Errorf("best = %q, want %q", answer.Best, tt.want)
			}
			if len(answer.Choices) != 2 {
				t.Errorf("choices = %d, want 2", len(answer.Choices))
			}
		})
	}
}

func TestSimilarValidation(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name  string
		query string
	}{
		{"missing word", "choices=a,b"},
		{"missing choices", "word=good"},
		{"blank choices", "word=good&choices=,,"},
		{"too many choices", "word=good&choices=a,b,c,d"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Similar(rec, httptest.NewRequest(http.MethodGet, "/api/v1/similar?"+tt.query, nil))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestPair(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.Pair(rec, httptest.NewRequest(http.MethodGet, "/api/v1/similarity?a=good&b=bad", nil))
	var got service.PairScore
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Defined || got.Score != 0 {
		t.Errorf("good/bad = %+v, want defined 0", got)
	}

	rec = httptest.NewRecorder()
	h.Pair(rec, httptest.NewRequest(http.MethodGet, "/api/v1/similarity?a=good&b=unseen", nil))
	got = service.PairScore{}
	json.NewDecoder(rec.Body).Decode(&got)
	if got.Defined {
		t.Errorf("unknown word should be undefined, got %+v", got)
	}

	rec = httptest.NewRecorder()
	h.Pair(rec, httptest.NewRequest(http.MethodGet, "/api/v1/similarity?a=good", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestEvaluate(t *testing.T) {
	h := newTestHandler(t)

	body := "good nice nice great\ngood great great nice\n"
	rec := httptest.NewRecorder()
	h.Evaluate(rec, httptest.NewRequest(http.MethodPost, "/api/v1/evaluate?outcomes=true", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var report service.EvaluationReport
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.Total != 2 || report.Correct != 2 || report.Accuracy != 100 {
		t.Errorf("result = %+v, want 2/2", report.Result)
	}
	if len(report.Outcomes) != 2 {
		t.Errorf("outcomes = %d, want 2", len(report.Outcomes))
	}
}

func TestEvaluateErrors(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed line", "good nice\n", http.StatusBadRequest},
		{"empty set", "", http.StatusUnprocessableEntity},
		{"too large", strings.Repeat("good nice great\n", 100), http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Evaluate(rec, httptest.NewRequest(http.MethodPost, "/api/v1/evaluate", strings.NewReader(tt.body)))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestCacheEndpointsWithoutCache(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.CacheStats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cache/stats", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "disabled") {
		t.Errorf("stats = %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.CacheInvalidate(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cache/invalidate", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("invalidate status = %d, want 503", rec.Code)
	}
}
