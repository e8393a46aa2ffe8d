package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/roomstay/internal/service"
)

// DeleteRoomHandler handles DELETE /api/rooms/{id}
type DeleteRoomHandler struct {
	rooms      *service.RoomService
	logger     *slog.Logger
	production bool
}

// NewDeleteRoomHandler creates a new delete room handler
func NewDeleteRoomHandler(rooms *service.RoomService, logger *slog.Logger, production bool) *DeleteRoomHandler {
	return &DeleteRoomHandler{rooms: rooms, logger: logger, production: production}
}

func (h *DeleteRoomHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.rooms.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, h.logger, h.production, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "room deleted"})
}
