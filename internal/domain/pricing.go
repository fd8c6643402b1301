package domain

import "github.com/shopspring/decimal"

var (
	// DeliveryCharge applies to carts with physical goods below FreeDeliveryThreshold.
	DeliveryCharge        = decimal.NewFromInt(50)
	FreeDeliveryThreshold = decimal.NewFromInt(500)
)

const Currency = "INR"

type PricingSummary struct {
	Subtotal         decimal.Decimal `json:"subtotal"`
	PhysicalSubtotal decimal.Decimal `json:"physical_subtotal"`
	DeliveryCharge   decimal.Decimal `json:"delivery_charge"`
	Total            decimal.Decimal `json:"total"`
}

// ComputeSummary prices the cart. It has no side effects and is cheap enough to
// call after every mutation.
func ComputeSummary(c *Cart) PricingSummary {
	if c == nil {
		return summarize(nil)
	}
	return summarize(c.lines)
}

func summarize(lines []CartLine) PricingSummary {
	subtotal := decimal.Zero
	physicalSubtotal := decimal.Zero
	physicalLines := 0

	for _, l := range lines {
		lt := l.LineTotal()
		subtotal = subtotal.Add(lt)
		if !l.Item.IsDigital() {
			physicalSubtotal = physicalSubtotal.Add(lt)
			physicalLines++
		}
	}

	delivery := decimal.Zero
	if physicalLines > 0 && physicalSubtotal.LessThan(FreeDeliveryThreshold) {
		delivery = DeliveryCharge
	}

	return PricingSummary{
		Subtotal:         subtotal,
		PhysicalSubtotal: physicalSubtotal,
		DeliveryCharge:   delivery,
		Total:            subtotal.Add(delivery),
	}
}
