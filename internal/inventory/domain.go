package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry as the backend returns it.
type Product struct {
	ID             string          `json:"_id"`
	Name           string          `json:"PRODUCT_NAME"`
	Brand          string          `json:"BRAND"`
	UnitPrice      decimal.Decimal `json:"UNIT_PRICE"`
	Quantity       int             `json:"QUANTITY"`
	ExpirationDate time.Time       `json:"EXPIRATION_DATE"`
	Category       string          `json:"CATEGORY"`
	CreatedAt      time.Time       `json:"CREATED_AT"`
}

// ProductInput is the payload for creating or editing a product.
type ProductInput struct {
	Name           string          `json:"PRODUCT_NAME" validate:"required,max=255"`
	Brand          string          `json:"BRAND" validate:"required,max=255"`
	UnitPrice      decimal.Decimal `json:"UNIT_PRICE"`
	Quantity       int             `json:"QUANTITY" validate:"gte=0"`
	ExpirationDate time.Time       `json:"EXPIRATION_DATE" validate:"date_required"`
	Category       string          `json:"CATEGORY" validate:"required,max=100"`
}

// Categories offered by the catalog form. CategoryOthers lets the admin type
// a custom category instead.
var Categories = []string{
	"Medicine",
	"Health & Personal Care",
	"Beauty & Cosmetic",
	"Miscellaneous",
	CategoryOthers,
}

const CategoryOthers = "Others"

// IsKnownCategory reports whether c is one of the predefined categories.
func IsKnownCategory(c string) bool {
	for _, known := range Categories {
		if known == c {
			return true
		}
	}
	return false
}
