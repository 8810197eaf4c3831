package handler

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/humanbench/internal/api/middleware"
	"github.com/mcoot/humanbench/internal/api/request"
	"github.com/mcoot/humanbench/internal/api/response"
	"github.com/mcoot/humanbench/internal/model"
	"github.com/mcoot/humanbench/internal/services/rooms"
)

// RoomHandler handles room endpoints
type RoomHandler struct {
	roomsService *rooms.Service
	logger       *slog.Logger
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(roomsService *rooms.Service, logger *slog.Logger) *RoomHandler {
	return &RoomHandler{
		roomsService: roomsService,
		logger:       logger,
	}
}

// Create handles POST /api/rooms/create
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())

	var req request.CreateRoomRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		WriteError(w, err)
		return
	}

	room, err := h.roomsService.CreateRoom(r.Context(), identity, req.Name)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.RoomFromModel(room))
}

// Join handles POST /api/rooms/join/{code}
func (h *RoomHandler) Join(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())
	code := model.RoomCode(mux.Vars(r)["code"])

	room, joined, err := h.roomsService.JoinRoom(r.Context(), identity, code)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	message := response.MessageJoined
	if !joined {
		message = response.MessageAlreadyJoined
	}
	response.JSON(w, http.StatusOK, response.JoinRoomResponse{
		Message: message,
		Room:    response.RoomFromModel(room),
	})
}

// Get handles GET /api/rooms/{code}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := model.RoomCode(mux.Vars(r)["code"])

	room, err := h.roomsService.GetRoom(r.Context(), code)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(room))
}
