package domain

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

type Address struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	FullName     string    `json:"full_name" validate:"required"`
	Email        string    `json:"email" validate:"required"`
	Phone        string    `json:"phone" validate:"required,digits10"`
	AddressLine1 string    `json:"address_line1" validate:"required"`
	AddressLine2 string    `json:"address_line2,omitempty"`
	City         string    `json:"city" validate:"required"`
	State        string    `json:"state" validate:"required"`
	PostalCode   string    `json:"postal_code" validate:"required,digits6"`
	Country      string    `json:"country" validate:"required"`
	IsDefault    bool      `json:"is_default"`
	CreatedAt    time.Time `json:"created_at"`
}

var (
	phonePattern      = regexp.MustCompile(`^[0-9]{10}$`)
	postalCodePattern = regexp.MustCompile(`^[0-9]{6}$`)

	validateOnce sync.Once
	validate     *validator.Validate
)

func addressValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("digits10", func(fl validator.FieldLevel) bool {
			return phonePattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("digits6", func(fl validator.FieldLevel) bool {
			return postalCodePattern.MatchString(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// Validate checks the address rules: required text fields are non-blank, the phone
// is exactly 10 digits and the postal code exactly 6 digits. The first violation is
// returned as a *ValidationError.
func (a Address) Validate() error {
	trimmed := a
	trimmed.FullName = strings.TrimSpace(a.FullName)
	trimmed.Email = strings.TrimSpace(a.Email)
	trimmed.AddressLine1 = strings.TrimSpace(a.AddressLine1)
	trimmed.City = strings.TrimSpace(a.City)
	trimmed.State = strings.TrimSpace(a.State)
	trimmed.Country = strings.TrimSpace(a.Country)

	err := addressValidator().Struct(trimmed)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		switch fe.Tag() {
		case "required":
			return NewValidationError(fe.Field(), "is required")
		case "digits10":
			return NewValidationError(fe.Field(), "must be exactly 10 digits")
		case "digits6":
			return NewValidationError(fe.Field(), "must be exactly 6 digits")
		}
		return NewValidationError(fe.Field(), fe.Error())
	}
	return NewValidationError("address", err.Error())
}
