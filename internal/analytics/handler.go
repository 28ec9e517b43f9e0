package analytics

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
)

// RunLister is satisfied by *aggregator.Store.
type RunLister interface {
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)
}

const (
	defaultRunLimit = 20
	maxRunLimit     = 500
)

type Handler struct {
	aggregator *Aggregator
	runs       RunLister
	logger     *slog.Logger
}

// NewHandler serves aggregated outcomes and, when runs is non-nil, the run
// history.
func NewHandler(aggregator *Aggregator, runs RunLister) *Handler {
	return &Handler{
		aggregator: aggregator,
		runs:       runs,
		logger:     slog.Default().With("component", "analytics-handler"),
	}
}

func (h *Handler) Outcomes(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.aggregator.Stats())
}

func (h *Handler) Runs(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "run store not configured"})
		return
	}
	limit := defaultRunLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxRunLimit {
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be between 1 and 500"})
			return
		}
		limit = n
	}
	runs, err := h.runs.ListRuns(r.Context(), limit)
	if err != nil {
		h.logger.Error("listing runs failed", "error", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"runs": runs, "count": len(runs)})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write analytics response", "error", err)
	}
}
