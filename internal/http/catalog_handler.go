package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/learningneeds/shop/internal/domain"
)

type CatalogService interface {
	ListItems(ctx context.Context) ([]*domain.CatalogItem, error)
	GetItem(ctx context.Context, id int64) (*domain.CatalogItem, error)
}

type CatalogHandler struct {
	catalog CatalogService
}

func NewCatalogHandler(catalog CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

type CatalogItemDTO struct {
	*domain.CatalogItem
	Digital bool `json:"digital"`
}

func toCatalogItemDTO(item *domain.CatalogItem) CatalogItemDTO {
	return CatalogItemDTO{CatalogItem: item, Digital: item.IsDigital()}
}

// GET /api/v1/catalog
func (h *CatalogHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.ListItems(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	dtos := make([]CatalogItemDTO, 0, len(items))
	for _, item := range items {
		dtos = append(dtos, toCatalogItemDTO(item))
	}
	respondJSON(w, r, http.StatusOK, dtos)
}

// GET /api/v1/catalog/{item_id}
func (h *CatalogHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := parseItemID(w, r)
	if !ok {
		return
	}

	item, err := h.catalog.GetItem(r.Context(), itemID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toCatalogItemDTO(item))
}

func parseItemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	itemID, err := strconv.ParseInt(chi.URLParam(r, "item_id"), 10, 64)
	if err != nil || itemID <= 0 {
		respondError(w, r, http.StatusBadRequest, "invalid_item_id", "item_id must be a positive integer")
		return 0, false
	}
	return itemID, true
}
