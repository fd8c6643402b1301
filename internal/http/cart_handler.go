package http

import (
	"context"
	"net/http"
	"time"

	"github.com/learningneeds/shop/internal/domain"
	"github.com/shopspring/decimal"
)

type CartService interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, domain.PricingSummary, error)
	AddItem(ctx context.Context, userID string, itemID int64, quantity int) (*domain.Cart, error)
	UpdateQuantity(ctx context.Context, userID string, itemID int64, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, userID string, itemID int64) (*domain.Cart, error)
	ClearCart(ctx context.Context, userID string) error
}

type CartHandler struct {
	carts CartService
}

func NewCartHandler(carts CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

type AddItemRequestDTO struct {
	ItemID   int64 `json:"item_id"`
	Quantity *int  `json:"quantity,omitempty"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CartLineDTO struct {
	ItemID        int64           `json:"item_id"`
	Title         string          `json:"title"`
	ImageRef      string          `json:"image_ref"`
	Category      domain.Category `json:"category"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Quantity      int             `json:"quantity"`
	LineTotal     decimal.Decimal `json:"line_total"`
	AddedAt       time.Time       `json:"added_at"`
}

type CartResponseDTO struct {
	UserID    string                `json:"user_id"`
	Items     []CartLineDTO         `json:"items"`
	Summary   domain.PricingSummary `json:"summary"`
	Currency  string                `json:"currency"`
	UpdatedAt time.Time             `json:"updated_at"`
}

func toCartResponse(c *domain.Cart, summary domain.PricingSummary) CartResponseDTO {
	lines := c.Lines()
	items := make([]CartLineDTO, 0, len(lines))
	for _, l := range lines {
		items = append(items, CartLineDTO{
			ItemID:        l.Item.ID,
			Title:         l.Item.Title,
			ImageRef:      l.Item.ImageRef,
			Category:      l.Item.Category,
			OriginalPrice: l.Item.OriginalPrice,
			UnitPrice:     l.Item.DiscountPrice,
			Quantity:      l.Quantity,
			LineTotal:     l.LineTotal(),
			AddedAt:       l.AddedAt,
		})
	}
	return CartResponseDTO{
		UserID:    c.UserID,
		Items:     items,
		Summary:   summary,
		Currency:  domain.Currency,
		UpdatedAt: c.UpdatedAt,
	}
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	cart, summary, err := h.carts.GetCart(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toCartResponse(cart, summary))
}

// POST /api/v1/cart/items
// 201 when a new line is created, 200 when an existing line is incremented.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req AddItemRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ItemID <= 0 {
		respondError(w, r, http.StatusBadRequest, "invalid_item_id", "item_id must be positive")
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	cart, err := h.carts.AddItem(r.Context(), userID, req.ItemID, quantity)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	status := http.StatusOK
	if lineCreated(cart, req.ItemID, quantity) {
		status = http.StatusCreated
	}
	respondJSON(w, r, status, toCartResponse(cart, domain.ComputeSummary(cart)))
}

// lineCreated reports whether adding quantity of itemID produced a new line.
// An existing line always held at least one unit, so an increment never leaves
// the quantity equal to what was just added.
func lineCreated(c *domain.Cart, itemID int64, quantity int) bool {
	for _, l := range c.Lines() {
		if l.Item.ID == itemID {
			return l.Quantity == quantity
		}
	}
	return false
}

// PUT /api/v1/cart/items/{item_id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	itemID, ok := parseItemID(w, r)
	if !ok {
		return
	}

	var req UpdateQuantityRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	cart, err := h.carts.UpdateQuantity(r.Context(), userID, itemID, req.Quantity)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toCartResponse(cart, domain.ComputeSummary(cart)))
}

// DELETE /api/v1/cart/items/{item_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	itemID, ok := parseItemID(w, r)
	if !ok {
		return
	}

	cart, err := h.carts.RemoveItem(r.Context(), userID, itemID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toCartResponse(cart, domain.ComputeSummary(cart)))
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.carts.ClearCart(r.Context(), userID); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
