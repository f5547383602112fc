package catalog

import (
	"errors"
	"sort"
	"strings"

	"github.com/fjod/go_storefront/internal/domain"
)

type SortKey string

const (
	SortByPrice  SortKey = "price"
	SortByRating SortKey = "rating"
)

type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

var ErrInvalidSortKey = errors.New("invalid sort key")

// SortOrder is the sort applied to a listing. The zero value means catalog order.
type SortOrder struct {
	Key       SortKey   `json:"key,omitempty"`
	Direction Direction `json:"direction,omitempty"`
}

func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(strings.ToLower(strings.TrimSpace(s))) {
	case SortByPrice:
		return SortByPrice, nil
	case SortByRating:
		return SortByRating, nil
	}
	return "", ErrInvalidSortKey
}

// NextSortOrder flips to descending when key is already sorted ascending, else sorts ascending.
func NextSortOrder(current SortOrder, key SortKey) SortOrder {
	if current.Key == key && current.Direction == Ascending {
		return SortOrder{Key: key, Direction: Descending}
	}
	return SortOrder{Key: key, Direction: Ascending}
}

// FilterByTitle keeps products whose title contains query, case-insensitively.
func FilterByTitle(products []domain.Product, query string) []domain.Product {
	q := strings.ToLower(query)
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Title), q) {
			out = append(out, p)
		}
	}
	return out
}

// SortProducts sorts products in place. Equal values keep their relative order.
func SortProducts(products []domain.Product, order SortOrder) {
	value := sortValue(order.Key)
	if value == nil {
		return
	}
	sort.SliceStable(products, func(i, j int) bool {
		if order.Direction == Descending {
			return value(products[i]) > value(products[j])
		}
		return value(products[i]) < value(products[j])
	})
}

func sortValue(key SortKey) func(domain.Product) float64 {
	switch key {
	case SortByPrice:
		return func(p domain.Product) float64 { return p.Price }
	case SortByRating:
		return func(p domain.Product) float64 { return p.Rating.Rate }
	}
	return nil
}
