package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/roomstay/internal/domain"
	"github.com/yourorg/roomstay/internal/service"
)

// ListRoomsHandler handles GET /api/rooms
type ListRoomsHandler struct {
	rooms      *service.RoomService
	store      domain.MediaStore
	logger     *slog.Logger
	production bool
}

// NewListRoomsHandler creates a new list rooms handler
func NewListRoomsHandler(rooms *service.RoomService, store domain.MediaStore, logger *slog.Logger, production bool) *ListRoomsHandler {
	return &ListRoomsHandler{rooms: rooms, store: store, logger: logger, production: production}
}

func (h *ListRoomsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.rooms.List(r.Context())
	if err != nil {
		writeError(w, h.logger, h.production, err)
		return
	}

	out := make([]RoomResponse, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, toRoomResponse(room, h.store))
	}
	writeJSON(w, http.StatusOK, out)
}
