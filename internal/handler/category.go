package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yourorg/roomstay/internal/service"
)

type createCategoryRequest struct {
	Name       string `json:"name"`
	PriceCents int64  `json:"priceCents"`
}

// ListCategoriesHandler handles GET /api/categories
type ListCategoriesHandler struct {
	categories *service.CategoryService
	logger     *slog.Logger
	production bool
}

// NewListCategoriesHandler creates a new list categories handler
func NewListCategoriesHandler(categories *service.CategoryService, logger *slog.Logger, production bool) *ListCategoriesHandler {
	return &ListCategoriesHandler{categories: categories, logger: logger, production: production}
}

func (h *ListCategoriesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.List(r.Context())
	if err != nil {
		writeError(w, h.logger, h.production, err)
		return
	}

	out := make([]CategoryResponse, 0, len(categories))
	for _, category := range categories {
		out = append(out, toCategoryResponse(category))
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateCategoryHandler handles POST /api/categories
type CreateCategoryHandler struct {
	categories *service.CategoryService
	logger     *slog.Logger
	production bool
}

// NewCreateCategoryHandler creates a new create category handler
func NewCreateCategoryHandler(categories *service.CategoryService, logger *slog.Logger, production bool) *CreateCategoryHandler {
	return &CreateCategoryHandler{categories: categories, logger: logger, production: production}
}

func (h *CreateCategoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "malformed json"})
		return
	}

	category, err := h.categories.Create(r.Context(), req.Name, req.PriceCents)
	if err != nil {
		writeError(w, h.logger, h.production, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCategoryResponse(category))
}
