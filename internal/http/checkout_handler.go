package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/learningneeds/shop/internal/domain"
	"github.com/learningneeds/shop/internal/service"
)

type CheckoutService interface {
	Checkout(ctx context.Context, userID string, req service.CheckoutRequest) (*domain.Order, error)
}

type CheckoutHandler struct {
	checkout CheckoutService
}

func NewCheckoutHandler(checkout CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

type CheckoutRequestDTO struct {
	AddressID     string `json:"address_id"`
	PaymentMethod string `json:"payment_method"`
	CardNumber    string `json:"card_number,omitempty"`
	UPIID         string `json:"upi_id,omitempty"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req CheckoutRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.AddressID) == "" {
		respondError(w, r, http.StatusBadRequest, "invalid_address_id", "address_id is required")
		return
	}

	order, err := h.checkout.Checkout(r.Context(), userID, service.CheckoutRequest{
		AddressID: req.AddressID,
		Payment: service.PaymentDetails{
			Method:     domain.PaymentMethod(strings.ToLower(strings.TrimSpace(req.PaymentMethod))),
			CardNumber: req.CardNumber,
			UPIID:      req.UPIID,
		},
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, order)
}
