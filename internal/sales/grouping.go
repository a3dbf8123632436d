package sales

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Group is one logical transaction reconstructed from flat line items.
type Group struct {
	Key   string         `json:"key"`
	Label string         `json:"label"`
	Items []SaleLineItem `json:"items"`
}

// KeyFunc derives the grouping key of a line item.
type KeyFunc func(SaleLineItem) string

// TimestampKey keys items by their rendered sale timestamp.
func TimestampKey(f Formatter) KeyFunc {
	return func(item SaleLineItem) string {
		return f.Format(item.Timestamp)
	}
}

// TransactionKey keys items by their batch transaction id, and falls back to
// the rendered timestamp for items that carry none.
func TransactionKey(f Formatter) KeyFunc {
	return func(item SaleLineItem) string {
		if item.TransactionID != "" {
			return "txn:" + item.TransactionID
		}
		return f.Format(item.Timestamp)
	}
}

// GroupBy groups items by key. Groups appear in the order their first item
// appears, and items keep their input order inside a group. Each group is
// labelled with its first item's rendered timestamp.
func GroupBy(items []SaleLineItem, key KeyFunc, f Formatter) []Group {
	groups := make([]Group, 0)
	index := make(map[string]int)
	for _, item := range items {
		k := key(item)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group{Key: k, Label: f.Format(item.Timestamp)})
		}
		groups[i].Items = append(groups[i].Items, item)
	}
	return groups
}

// GroupByTimestamp groups items whose timestamps render identically under f.
func GroupByTimestamp(items []SaleLineItem, f Formatter) []Group {
	return GroupBy(items, TimestampKey(f), f)
}

// Find returns the group with the given key.
func Find(groups []Group, key string) (Group, bool) {
	for _, g := range groups {
		if g.Key == key {
			return g, true
		}
	}
	return Group{}, false
}

// Flatten concatenates the groups' items in group order.
func Flatten(groups []Group) []SaleLineItem {
	var out []SaleLineItem
	for _, g := range groups {
		out = append(out, g.Items...)
	}
	return out
}

// Total sums the line totals of the group.
func (g Group) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range g.Items {
		total = total.Add(item.TotalAmount)
	}
	return total
}

// CancelledGroup is a set of cancelled items sharing a rendered cancellation time.
type CancelledGroup struct {
	Key   string              `json:"key"`
	Items []CancelledLineItem `json:"items"`
}

// GroupCancelled groups cancelled items by their rendered CancelledAt,
// in first-appearance order.
func GroupCancelled(items []CancelledLineItem, f Formatter) []CancelledGroup {
	groups := make([]CancelledGroup, 0)
	index := make(map[string]int)
	for _, item := range items {
		k := f.Format(item.CancelledAt)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, CancelledGroup{Key: k})
		}
		groups[i].Items = append(groups[i].Items, item)
	}
	return groups
}

// FilterItems keeps the line items matching query on any displayed column.
func FilterItems(items []SaleLineItem, query string, f Formatter) []SaleLineItem {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return items
	}
	out := make([]SaleLineItem, 0, len(items))
	for _, item := range items {
		if matches(item, query, f) {
			out = append(out, item)
		}
	}
	return out
}

// FilterCancelled is FilterItems over cancelled snapshots, also matching the
// rendered cancellation time.
func FilterCancelled(items []CancelledLineItem, query string, f Formatter) []CancelledLineItem {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return items
	}
	out := make([]CancelledLineItem, 0, len(items))
	for _, item := range items {
		if matches(item.SaleLineItem, query, f) || strings.Contains(strings.ToLower(f.Format(item.CancelledAt)), query) {
			out = append(out, item)
		}
	}
	return out
}

func matches(item SaleLineItem, query string, f Formatter) bool {
	fields := []string{
		item.ProductName,
		item.Brand,
		item.Category,
		item.UnitPrice.String(),
		item.Price.String(),
		item.TotalAmount.String(),
		f.Format(item.Timestamp),
	}
	if !item.ExpirationDate.IsZero() {
		fields = append(fields, f.FormatDate(item.ExpirationDate))
	}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return strings.Contains(strconv.Itoa(item.QuantitySold), query)
}
