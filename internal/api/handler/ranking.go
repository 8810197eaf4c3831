package handler

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/humanbench/internal/api/response"
	"github.com/mcoot/humanbench/internal/model"
	"github.com/mcoot/humanbench/internal/services/ranking"
)

// RankingHandler handles leaderboard queries
type RankingHandler struct {
	rankingService *ranking.Service
	logger         *slog.Logger
}

// NewRankingHandler creates a new ranking handler
func NewRankingHandler(rankingService *ranking.Service, logger *slog.Logger) *RankingHandler {
	return &RankingHandler{
		rankingService: rankingService,
		logger:         logger,
	}
}

// Global handles GET /api/rankings/global
func (h *RankingHandler) Global(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	board, err := h.rankingService.Global(r.Context(), r.URL.Query().Get("category"), limit)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, response.LeaderboardFromModel(board))
}

// Room handles GET /api/rankings/room/{code}
func (h *RankingHandler) Room(w http.ResponseWriter, r *http.Request) {
	code := model.RoomCode(mux.Vars(r)["code"])

	limit, err := parseLimit(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	board, err := h.rankingService.Room(r.Context(), code, r.URL.Query().Get("category"), limit)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, response.LeaderboardFromModel(board))
}
