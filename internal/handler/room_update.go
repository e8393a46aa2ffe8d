package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/roomstay/internal/domain"
	"github.com/yourorg/roomstay/internal/service"
)

// UpdateRoomHandler handles PUT /api/rooms/{id}
type UpdateRoomHandler struct {
	rooms          *service.RoomService
	store          domain.MediaStore
	logger         *slog.Logger
	production     bool
	maxUploadBytes int64
}

// NewUpdateRoomHandler creates a new update room handler
func NewUpdateRoomHandler(rooms *service.RoomService, store domain.MediaStore, logger *slog.Logger, production bool, maxUploadBytes int64) *UpdateRoomHandler {
	return &UpdateRoomHandler{
		rooms:          rooms,
		store:          store,
		logger:         logger,
		production:     production,
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *UpdateRoomHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	in, err := parseUpdateInput(r, h.maxUploadBytes)
	if err != nil {
		writeError(w, h.logger, h.production, err)
		return
	}

	room, err := h.rooms.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeError(w, h.logger, h.production, err)
		return
	}

	writeJSON(w, http.StatusOK, toRoomResponse(room, h.store))
}
