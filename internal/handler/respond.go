package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/roomstay/internal/domain"
	"github.com/yourorg/roomstay/internal/infrastructure/media"
	"github.com/yourorg/roomstay/internal/service"
)

// ErrorResponse is the JSON error envelope
type ErrorResponse struct {
	Error string `json:"error"`
}

// ImageResponse is one attached image with its derived delivery URL
type ImageResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CategoryResponse is a category as exposed over the API
type CategoryResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"priceCents"`
}

// RoomResponse is a room as exposed over the API
type RoomResponse struct {
	ID         string            `json:"id"`
	CategoryID string            `json:"categoryId"`
	RoomNumber string            `json:"roomNumber"`
	Images     []ImageResponse   `json:"images"`
	Status     string            `json:"status"`
	Version    int64             `json:"version"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
	Category   *CategoryResponse `json:"category,omitempty"`
}

func toRoomResponse(room *domain.Room, store domain.MediaStore) RoomResponse {
	images := make([]ImageResponse, 0, len(room.Images))
	for _, assetID := range room.Images {
		images = append(images, ImageResponse{ID: assetID, URL: store.AssetURL(assetID)})
	}
	resp := RoomResponse{
		ID:         room.ID,
		CategoryID: room.CategoryID,
		RoomNumber: room.RoomNumber,
		Images:     images,
		Status:     room.Status,
		Version:    room.Version,
		CreatedAt:  room.CreatedAt,
		UpdatedAt:  room.UpdatedAt,
	}
	if room.Category != nil {
		resp.Category = &CategoryResponse{
			ID:         room.Category.ID,
			Name:       room.Category.Name,
			PriceCents: room.Category.PriceCents,
		}
	}
	return resp
}

func toCategoryResponse(category *domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:         category.ID,
		Name:       category.Name,
		PriceCents: category.PriceCents,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError maps domain errors to HTTP statuses. Internal error detail is
// echoed back only outside production.
func writeError(w http.ResponseWriter, log *slog.Logger, production bool, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: verr.Error()})
	case errors.Is(err, domain.ErrRoomNotFound),
		errors.Is(err, domain.ErrCategoryNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrRoomNumberTaken),
		errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, domain.ErrUsernameTaken),
		errors.Is(err, domain.ErrVersionConflict):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
	case errors.Is(err, media.ErrUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: media.ErrUnavailable.Error()})
	default:
		log.Error("request failed", slog.String("error", err.Error()))
		detail := "internal server error"
		if !production {
			detail = err.Error()
		}
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: detail})
	}
}
