package handler

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/humanbench/internal/api/middleware"
	"github.com/mcoot/humanbench/internal/api/request"
	"github.com/mcoot/humanbench/internal/api/response"
	"github.com/mcoot/humanbench/internal/services/scoring"
)

// BenchmarkHandler handles score ingestion and history
type BenchmarkHandler struct {
	scoringService *scoring.Service
	logger         *slog.Logger
}

// NewBenchmarkHandler creates a new benchmark handler
func NewBenchmarkHandler(scoringService *scoring.Service, logger *slog.Logger) *BenchmarkHandler {
	return &BenchmarkHandler{
		scoringService: scoringService,
		logger:         logger,
	}
}

// Submit handles POST /api/benchmarks
func (h *BenchmarkHandler) Submit(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())

	var req request.SubmitScoreRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		WriteError(w, err)
		return
	}

	score, err := h.scoringService.Submit(r.Context(), identity, scoring.SubmitInput{
		Category: req.Category,
		Value:    req.Value,
		RoomID:   req.RoomID,
		RawStats: req.RawStats,
	})
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.ScoreFromModel(score))
}

// List handles GET /api/benchmarks
func (h *BenchmarkHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	q := r.URL.Query()
	scores, err := h.scoringService.List(r.Context(), scoring.ListInput{
		Category: q.Get("category"),
		RoomID:   q.Get("roomId"),
		UserID:   q.Get("userId"),
		Limit:    limit,
	})
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ScoreHistoryFromModel(scores))
}
