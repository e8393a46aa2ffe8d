package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/roomstay/internal/domain"
	"github.com/yourorg/roomstay/internal/service"
)

// CreateRoomHandler handles POST /api/rooms
type CreateRoomHandler struct {
	rooms          *service.RoomService
	store          domain.MediaStore
	logger         *slog.Logger
	production     bool
	maxUploadBytes int64
}

// NewCreateRoomHandler creates a new create room handler
func NewCreateRoomHandler(rooms *service.RoomService, store domain.MediaStore, logger *slog.Logger, production bool, maxUploadBytes int64) *CreateRoomHandler {
	return &CreateRoomHandler{
		rooms:          rooms,
		store:          store,
		logger:         logger,
		production:     production,
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *CreateRoomHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	in, err := parseCreateInput(r, h.maxUploadBytes)
	if err != nil {
		writeError(w, h.logger, h.production, err)
		return
	}

	room, err := h.rooms.Create(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, h.production, err)
		return
	}

	writeJSON(w, http.StatusCreated, toRoomResponse(room, h.store))
}
