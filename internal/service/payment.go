package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/learningneeds/shop/internal/domain"
	"github.com/shopspring/decimal"
)

// PaymentDetails is what the buyer submitted at checkout. TransactionRef is
// filled in once the capture succeeded.
type PaymentDetails struct {
	Method         domain.PaymentMethod
	CardNumber     string
	UPIID          string
	TransactionRef string
}

var (
	cardNumberPattern = regexp.MustCompile(`^[0-9]{12,19}$`)
	upiPattern        = regexp.MustCompile(`^[a-zA-Z0-9._-]{2,}@[a-zA-Z]{2,}$`)
)

// normalizedCard strips the separators people type into card fields.
func (p PaymentDetails) normalizedCard() string {
	return strings.NewReplacer(" ", "", "-", "").Replace(p.CardNumber)
}

// Validate checks the method and its method-specific identifier.
func (p PaymentDetails) Validate() error {
	if !p.Method.Valid() {
		return domain.NewValidationError("payment_method", "unsupported payment method")
	}
	switch p.Method {
	case domain.PaymentMethodCard:
		if !cardNumberPattern.MatchString(p.normalizedCard()) {
			return domain.NewValidationError("card_number", "must be 12 to 19 digits")
		}
	case domain.PaymentMethodUPI:
		if !upiPattern.MatchString(strings.TrimSpace(p.UPIID)) {
			return domain.NewValidationError("upi_id", "must look like name@bank")
		}
	}
	return nil
}

func (p PaymentDetails) cardLast4() string {
	n := p.normalizedCard()
	if len(n) < 4 {
		return ""
	}
	return n[len(n)-4:]
}

// PaymentCapturer takes the money before an order is written. Cash on delivery
// is never captured.
type PaymentCapturer interface {
	Capture(ctx context.Context, userID string, amount decimal.Decimal, details PaymentDetails) (string, error)
}

// LocalCapturer accepts every capture and hands back a transaction reference.
// It stands in for a gateway that lives outside this service.
type LocalCapturer struct {
	newRef func() string
}

func NewLocalCapturer() *LocalCapturer {
	return &LocalCapturer{newRef: uuid.NewString}
}

func (c *LocalCapturer) Capture(ctx context.Context, _ string, _ decimal.Decimal, details PaymentDetails) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := details.Validate(); err != nil {
		return "", err
	}
	return "TXN-" + c.newRef(), nil
}
