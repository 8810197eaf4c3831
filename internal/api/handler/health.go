package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/mcoot/humanbench/internal/api/response"
	"github.com/mcoot/humanbench/internal/dependencies/clock"
)

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports service health
type HealthHandler struct {
	store  Pinger
	clock  clock.Clock
	logger *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store Pinger, clock clock.Clock, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		store:  store,
		clock:  clock,
		logger: logger,
	}
}

// Check handles GET /api/health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", slog.Any("error", err))
		response.JSON(w, http.StatusServiceUnavailable, response.Health{
			Status:    "unavailable",
			Timestamp: h.clock.Now().UTC(),
		})
		return
	}

	response.JSON(w, http.StatusOK, response.Health{
		Status:    "ok",
		Timestamp: h.clock.Now().UTC(),
	})
}
