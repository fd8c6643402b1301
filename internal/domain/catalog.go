package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category string

// CategoryPDF marks a digital good. Every other category is shipped.
const CategoryPDF Category = "PDF"

type CatalogItem struct {
	ID            int64           `json:"id"`
	Category      Category        `json:"category"`
	Title         string          `json:"title"`
	ImageRef      string          `json:"image_ref"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	DiscountPrice decimal.Decimal `json:"discount_price"`
	Stock         int             `json:"stock"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (i CatalogItem) IsDigital() bool {
	return i.Category == CategoryPDF
}
