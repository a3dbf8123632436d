package inventory

import "strings"

// Filter keeps the products whose name, brand or category contains query,
// ignoring case. An empty query keeps everything.
func Filter(products []Product, query string) []Product {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return products
	}
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), query) ||
			strings.Contains(strings.ToLower(p.Brand), query) ||
			strings.Contains(strings.ToLower(p.Category), query) {
			out = append(out, p)
		}
	}
	return out
}
