package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/roomstay/internal/domain"
	"github.com/yourorg/roomstay/internal/service"
)

// GetRoomHandler handles GET /api/rooms/{id}
type GetRoomHandler struct {
	rooms      *service.RoomService
	store      domain.MediaStore
	logger     *slog.Logger
	production bool
}

// NewGetRoomHandler creates a new get room handler
func NewGetRoomHandler(rooms *service.RoomService, store domain.MediaStore, logger *slog.Logger, production bool) *GetRoomHandler {
	return &GetRoomHandler{rooms: rooms, store: store, logger: logger, production: production}
}

func (h *GetRoomHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	room, err := h.rooms.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, h.production, err)
		return
	}

	writeJSON(w, http.StatusOK, toRoomResponse(room, h.store))
}
