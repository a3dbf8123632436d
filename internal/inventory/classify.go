package inventory

import "time"

const (
	// LowStockThreshold marks restock urgency: quantity at or under it is low stock.
	LowStockThreshold = 5
	// CriticalStockThreshold is a stricter marker for presentation only.
	CriticalStockThreshold = 2
)

// Partition is the derived view of a product list at a point in time.
// Active and Expired are disjoint and together hold every input product.
type Partition struct {
	Active   []Product `json:"active"`
	Expired  []Product `json:"expired"`
	LowStock []Product `json:"low_stock"`
}

// Classify splits products into active, expired and low-stock sets as of now.
// Input order is kept inside each set.
func Classify(products []Product, now time.Time) Partition {
	p := Partition{
		Active:   make([]Product, 0),
		Expired:  make([]Product, 0),
		LowStock: make([]Product, 0),
	}
	for _, product := range products {
		if IsExpired(product, now) {
			p.Expired = append(p.Expired, product)
		} else {
			p.Active = append(p.Active, product)
		}
		if IsLowStock(product) {
			p.LowStock = append(p.LowStock, product)
		}
	}
	return p
}

// IsExpired reports whether the product's expiration day is on or before the
// day of now. Both instants are truncated to midnight in now's location.
func IsExpired(p Product, now time.Time) bool {
	return !startOfDay(p.ExpirationDate, now.Location()).After(startOfDay(now, now.Location()))
}

func IsLowStock(p Product) bool {
	return p.Quantity <= LowStockThreshold
}

// IsCritical does not change set membership.
func IsCritical(p Product) bool {
	return p.Quantity <= CriticalStockThreshold
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
