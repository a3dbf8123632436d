package sales

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleLineItem is one product's contribution to a sale event.
type SaleLineItem struct {
	ID             string          `json:"_id"`
	ProductID      string          `json:"PRODUCT_ID"`
	ProductName    string          `json:"PRODUCT_NAME"`
	Brand          string          `json:"BRAND"`
	UnitPrice      decimal.Decimal `json:"UNIT_PRICE"`
	QuantitySold   int             `json:"QUANTITY_SOLD"`
	Price          decimal.Decimal `json:"PRICE"`
	TotalAmount    decimal.Decimal `json:"TOTAL_AMOUNT"`
	ExpirationDate time.Time       `json:"EXPIRATION_DATE"`
	Category       string          `json:"CATEGORY"`
	Timestamp      time.Time       `json:"TIMESTAMP"`
	Cancelled      bool            `json:"CANCELLED"`
	// TransactionID is empty on records created before batches carried one.
	TransactionID string `json:"TRANSACTION_ID,omitempty"`
}

// CancelledLineItem is a snapshot of a sold line item taken when it was cancelled.
type CancelledLineItem struct {
	SaleLineItem
	ProductSoldID string    `json:"PRODUCT_SOLD_ID"`
	CancelledAt   time.Time `json:"CANCELLED_AT"`
}

// Visible keeps the line items that are not cancelled.
func Visible(items []SaleLineItem) []SaleLineItem {
	out := make([]SaleLineItem, 0, len(items))
	for _, item := range items {
		if !item.Cancelled {
			out = append(out, item)
		}
	}
	return out
}

// SoldQuantity sums QuantitySold over the non-cancelled items.
func SoldQuantity(items []SaleLineItem) int {
	total := 0
	for _, item := range items {
		if !item.Cancelled {
			total += item.QuantitySold
		}
	}
	return total
}

// CreateRequest is the payload that records one sold line item.
type CreateRequest struct {
	ProductID     string          `json:"PRODUCT_ID"`
	QuantitySold  int             `json:"QUANTITY_SOLD"`
	Price         decimal.Decimal `json:"PRICE"`
	TotalAmount   decimal.Decimal `json:"TOTAL_AMOUNT"`
	TransactionID string          `json:"TRANSACTION_ID,omitempty"`
}
