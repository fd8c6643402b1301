package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/learningneeds/shop/internal/domain"
)

type AddressService interface {
	Save(ctx context.Context, userID string, a domain.Address) (*domain.Address, error)
	List(ctx context.Context, userID string) ([]*domain.Address, error)
	Get(ctx context.Context, userID, id string) (*domain.Address, error)
}

type AddressHandler struct {
	addresses AddressService
}

func NewAddressHandler(addresses AddressService) *AddressHandler {
	return &AddressHandler{addresses: addresses}
}

type AddressRequestDTO struct {
	FullName     string `json:"full_name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
	IsDefault    bool   `json:"is_default"`
}

// GET /api/v1/addresses
func (h *AddressHandler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	addresses, err := h.addresses.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if addresses == nil {
		addresses = []*domain.Address{}
	}
	respondJSON(w, r, http.StatusOK, addresses)
}

// POST /api/v1/addresses
func (h *AddressHandler) CreateAddress(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req AddressRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	saved, err := h.addresses.Save(r.Context(), userID, domain.Address{
		FullName:     req.FullName,
		Email:        req.Email,
		Phone:        req.Phone,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		City:         req.City,
		State:        req.State,
		PostalCode:   req.PostalCode,
		Country:      req.Country,
		IsDefault:    req.IsDefault,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, saved)
}

// GET /api/v1/addresses/{address_id}
func (h *AddressHandler) GetAddress(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	a, err := h.addresses.Get(r.Context(), userID, chi.URLParam(r, "address_id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, a)
}
