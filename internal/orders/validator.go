package orders

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"pharmacy_console/internal/inventory"
)

var (
	ErrExpired           = errors.New("EXPIRED")
	ErrInsufficientStock = errors.New("INSUFFICIENT_STOCK")
)

// Stage names which check produced a verdict.
type Stage string

const (
	// StagePrecheck is the console's check against the product list it
	// fetched. Passing it is never final.
	StagePrecheck Stage = "precheck"
	// StageBackend is the backend's verdict on the creation call. It
	// overrides the precheck.
	StageBackend Stage = "backend"
)

// ValidationError blocks or rejects a commit. Reason is ErrExpired or
// ErrInsufficientStock; errors.Is matches against it.
type ValidationError struct {
	Reason     error
	Stage      Stage
	ProductIDs []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s check failed: %v (%s)", e.Stage, e.Reason, strings.Join(e.ProductIDs, ", "))
}

func (e *ValidationError) Unwrap() error {
	return e.Reason
}

// Code is the reason as shown to clients: EXPIRED or INSUFFICIENT_STOCK.
func (e *ValidationError) Code() string {
	return e.Reason.Error()
}

// Precheck validates staged entries before anything is sent to the backend.
// Expiration is checked over every entry first; if any product is expired the
// result is EXPIRED and stock is not looked at. Otherwise any entry asking for
// more than the product's quantity gives INSUFFICIENT_STOCK.
func Precheck(entries []Entry, now time.Time) error {
	var expired []string
	for _, e := range entries {
		if inventory.IsExpired(e.Product, now) {
			expired = append(expired, e.Product.ID)
		}
	}
	if len(expired) > 0 {
		return &ValidationError{Reason: ErrExpired, Stage: StagePrecheck, ProductIDs: expired}
	}

	var short []string
	for _, e := range entries {
		if e.Quantity > e.Product.Quantity {
			short = append(short, e.Product.ID)
		}
	}
	if len(short) > 0 {
		return &ValidationError{Reason: ErrInsufficientStock, Stage: StagePrecheck, ProductIDs: short}
	}
	return nil
}
