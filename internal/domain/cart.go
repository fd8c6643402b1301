package domain

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// MaxLineQuantity bounds a single line. It matches the INT column orders are
// stored in.
const MaxLineQuantity = math.MaxInt32

// CartLine is one item/quantity pairing with the catalog data resolved.
type CartLine struct {
	Item     CatalogItem `json:"item"`
	Quantity int         `json:"quantity"`
	AddedAt  time.Time   `json:"added_at"`
}

// LineTotal is the discounted price times quantity.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.Item.DiscountPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is the ledger of a single session. It is not safe for concurrent use;
// each cart has exactly one owner.
type Cart struct {
	UserID    string
	CreatedAt time.Time
	UpdatedAt time.Time

	lines []CartLine
}

func NewCart(userID string) *Cart {
	now := time.Now()
	return &Cart{
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddItem appends a line for item, or increments the existing line's quantity.
// The resulting quantity may not exceed MaxLineQuantity.
func (c *Cart) AddItem(item CatalogItem, quantity int) error {
	if quantity < 1 {
		return ErrQuantityBelowMinimum
	}
	if quantity > MaxLineQuantity {
		return ErrQuantityAboveMaximum
	}

	if i := c.indexOf(item.ID); i >= 0 {
		if quantity > MaxLineQuantity-c.lines[i].Quantity {
			return ErrQuantityAboveMaximum
		}
		c.lines[i].Quantity += quantity
		c.touch()
		return nil
	}

	c.touch()
	c.lines = append(c.lines, CartLine{Item: item, Quantity: quantity, AddedAt: c.UpdatedAt})
	return nil
}

// UpdateQuantity sets the quantity of an existing line. A quantity below 1 is
// rejected with ErrQuantityBelowMinimum and the line is left as it was; it never
// removes the line. Use RemoveItem for that.
func (c *Cart) UpdateQuantity(itemID int64, quantity int) error {
	if quantity < 1 {
		return ErrQuantityBelowMinimum
	}
	if quantity > MaxLineQuantity {
		return ErrQuantityAboveMaximum
	}

	i := c.indexOf(itemID)
	if i < 0 {
		return NewNotFoundError("cart line", itemID)
	}
	c.lines[i].Quantity = quantity
	c.touch()
	return nil
}

// RemoveItem drops the line for itemID. Removing an absent item is a no-op.
func (c *Cart) RemoveItem(itemID int64) {
	i := c.indexOf(itemID)
	if i < 0 {
		return
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	c.touch()
}

func (c *Cart) Clear() {
	c.lines = nil
	c.touch()
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Len() int {
	return len(c.lines)
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

func (c *Cart) DigitalLines() []CartLine {
	return c.partition(true)
}

func (c *Cart) PhysicalLines() []CartLine {
	return c.partition(false)
}

func (c *Cart) partition(digital bool) []CartLine {
	var out []CartLine
	for _, l := range c.lines {
		if l.Item.IsDigital() == digital {
			out = append(out, l)
		}
	}
	return out
}

func (c *Cart) indexOf(itemID int64) int {
	for i := range c.lines {
		if c.lines[i].Item.ID == itemID {
			return i
		}
	}
	return -1
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now()
}

// CartRecord is the persisted form of a cart: item references and quantities only.
// Prices are resolved from the catalog whenever the cart is loaded.
type CartRecord struct {
	ID        string           `bson:"_id,omitempty" json:"id,omitempty"`
	UserID    string           `bson:"user_id" json:"user_id"`
	Items     []CartRecordItem `bson:"items" json:"items"`
	CreatedAt time.Time        `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time        `bson:"updated_at" json:"updated_at"`
}

type CartRecordItem struct {
	ProductID int64     `bson:"product_id" json:"product_id"`
	Quantity  int       `bson:"quantity" json:"quantity"`
	AddedAt   time.Time `bson:"added_at" json:"added_at"`
}

// Record converts the ledger into its persisted form.
func (c *Cart) Record() *CartRecord {
	rec := &CartRecord{
		UserID:    c.UserID,
		Items:     make([]CartRecordItem, len(c.lines)),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	for i, l := range c.lines {
		rec.Items[i] = CartRecordItem{ProductID: l.Item.ID, Quantity: l.Quantity, AddedAt: l.AddedAt}
	}
	return rec
}

// RestoreCart rebuilds a ledger from resolved lines, keeping their order.
// Lines with a quantity outside [1, MaxLineQuantity] are dropped and duplicate
// items are merged, capped at MaxLineQuantity.
func RestoreCart(rec *CartRecord, lines []CartLine) *Cart {
	c := &Cart{
		UserID:    rec.UserID,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
	for _, l := range lines {
		if l.Quantity < 1 || l.Quantity > MaxLineQuantity {
			continue
		}
		if i := c.indexOf(l.Item.ID); i >= 0 {
			c.lines[i].Quantity = min(c.lines[i].Quantity+l.Quantity, MaxLineQuantity)
			continue
		}
		c.lines = append(c.lines, l)
	}
	return c
}
