// Package catalog holds the product listing logic clients apply on top of the
// backend's product feed: category extraction, local filtering and sorting.
package catalog

import (
	"slices"
	"strings"
)

// Product mirrors the backend product payload
type Product struct {
	ID          any     `json:"id,omitempty"`
	Title       string  `json:"title" validate:"required"`
	Price       float64 `json:"price" validate:"gte=0"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Image       string  `json:"image,omitempty" validate:"omitempty,uri"`
}

// Sort modes understood by Sort
const (
	SortDefault   = "default"
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
	SortName      = "name"
)

// Query narrows a product list. Zero values disable a criterion.
type Query struct {
	Text     string
	Category string
	MinPrice *float64
	MaxPrice *float64
}

// Categories returns the distinct non-empty categories in first-seen order
func Categories(products []Product) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range products {
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out
}

// Filter keeps products matching every set criterion of q
func Filter(products []Product, q Query) []Product {
	text := strings.ToLower(q.Text)
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if text != "" &&
			!strings.Contains(strings.ToLower(p.Title), text) &&
			!strings.Contains(strings.ToLower(p.Description), text) {
			continue
		}
		if q.Category != "" && p.Category != q.Category {
			continue
		}
		if q.MinPrice != nil && p.Price < *q.MinPrice {
			continue
		}
		if q.MaxPrice != nil && p.Price > *q.MaxPrice {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Sort returns a sorted copy. Unknown modes keep the backend order.
func Sort(products []Product, mode string) []Product {
	out := slices.Clone(products)
	switch mode {
	case SortPriceLow:
		slices.SortStableFunc(out, func(a, b Product) int { return compareFloat(a.Price, b.Price) })
	case SortPriceHigh:
		slices.SortStableFunc(out, func(a, b Product) int { return compareFloat(b.Price, a.Price) })
	case SortName:
		slices.SortStableFunc(out, func(a, b Product) int {
			if c := strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title)); c != 0 {
				return c
			}
			return strings.Compare(a.Title, b.Title)
		})
	}
	return out
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// ValidSort reports whether mode is a known sort mode
func ValidSort(mode string) bool {
	switch mode {
	case SortDefault, SortPriceLow, SortPriceHigh, SortName, "":
		return true
	}
	return false
}
