package orders

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pharmacy_console/internal/inventory"
)

var (
	ErrNotStaged       = errors.New("product is not staged")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrEmptySelection  = errors.New("no products staged")
)

// Entry is one staged product with the quantity the admin wants to sell.
// UnitPrice is the price at the moment the product was staged.
type Entry struct {
	Product   inventory.Product `json:"product"`
	Quantity  int               `json:"quantity"`
	UnitPrice decimal.Decimal   `json:"unit_price"`
}

// LineTotal is UnitPrice times Quantity.
func (e Entry) LineTotal() decimal.Decimal {
	return e.UnitPrice.Mul(decimal.NewFromInt(int64(e.Quantity)))
}

// Selection is a pending multi-item sale. It exists from the first staged
// product until it is discarded or fully committed.
type Selection struct {
	SessionID string `json:"session_id"`
	// TransactionID is assigned on the first commit attempt and kept while
	// failed items remain staged, so retried items join the same transaction.
	TransactionID string    `json:"transaction_id,omitempty"`
	Entries       []Entry   `json:"entries"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func NewSelection(sessionID string) *Selection {
	return &Selection{SessionID: sessionID, Entries: make([]Entry, 0)}
}

// Toggle stages p with quantity 1, or unstages it if it is already staged.
// It reports whether p is staged afterwards.
func (s *Selection) Toggle(p inventory.Product) bool {
	if i := s.index(p.ID); i >= 0 {
		s.Entries = append(s.Entries[:i], s.Entries[i+1:]...)
		return false
	}
	s.Entries = append(s.Entries, Entry{Product: p, Quantity: 1, UnitPrice: p.UnitPrice})
	return true
}

// SetQuantity replaces the requested quantity of a staged product. Any value
// is kept while editing; out-of-range quantities are rejected at commit.
func (s *Selection) SetQuantity(productID string, qty int) error {
	i := s.index(productID)
	if i < 0 {
		return ErrNotStaged
	}
	s.Entries[i].Quantity = qty
	return nil
}

// Total is recomputed from the entries on every call.
func (s *Selection) Total() decimal.Decimal {
	total := decimal.Zero
	for _, e := range s.Entries {
		total = total.Add(e.LineTotal())
	}
	return total
}

func (s *Selection) Entry(productID string) (Entry, bool) {
	if i := s.index(productID); i >= 0 {
		return s.Entries[i], true
	}
	return Entry{}, false
}

// CheckQuantities reports the staged products whose requested quantity is
// below 1, wrapped in ErrInvalidQuantity.
func (s *Selection) CheckQuantities() error {
	var bad []string
	for _, e := range s.Entries {
		if e.Quantity < 1 {
			bad = append(bad, e.Product.ID)
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidQuantity, strings.Join(bad, ", "))
	}
	return nil
}

func (s *Selection) Empty() bool {
	return len(s.Entries) == 0
}

// Remove unstages the given products.
func (s *Selection) Remove(productIDs ...string) {
	drop := make(map[string]struct{}, len(productIDs))
	for _, id := range productIDs {
		drop[id] = struct{}{}
	}
	kept := s.Entries[:0]
	for _, e := range s.Entries {
		if _, ok := drop[e.Product.ID]; !ok {
			kept = append(kept, e)
		}
	}
	s.Entries = kept
}

// Rebase replaces each entry's product snapshot with the current one from
// products, keeping the staged price. A product that no longer exists is
// kept with zero stock so it cannot pass the stock check.
func (s *Selection) Rebase(products []inventory.Product) {
	current := make(map[string]inventory.Product, len(products))
	for _, p := range products {
		current[p.ID] = p
	}
	for i := range s.Entries {
		if p, ok := current[s.Entries[i].Product.ID]; ok {
			s.Entries[i].Product = p
		} else {
			s.Entries[i].Product.Quantity = 0
		}
	}
}

func (s *Selection) clone() *Selection {
	c := *s
	c.Entries = append(make([]Entry, 0, len(s.Entries)), s.Entries...)
	return &c
}

func (s *Selection) index(productID string) int {
	for i, e := range s.Entries {
		if e.Product.ID == productID {
			return i
		}
	}
	return -1
}
