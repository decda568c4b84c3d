package catalog

import (
	"cmp"
	"fmt"
	"goods-manager/core"
	"goods-manager/textkey"
	"slices"
	"strings"
)

type (
	// SortField names the product attribute a view is ordered by.
	SortField string
	// SortOrder is either ascending or descending.
	SortOrder string

	// Query describes one derived view of the catalog.
	Query struct {
		Search string
		Field  SortField
		Order  SortOrder
	}
)

const (
	SortByName      SortField = "name"
	SortByPrice     SortField = "price"
	SortByCreatedAt SortField = "created_at"

	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

// DefaultQuery is the dashboard's initial view: newest first.
var DefaultQuery = Query{Field: SortByCreatedAt, Order: Descending}

// ParseSortField maps a wire name to a SortField. Empty means created_at.
func ParseSortField(s string) (SortField, error) {
	switch f := SortField(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return SortByCreatedAt, nil
	case SortByName, SortByPrice, SortByCreatedAt:
		return f, nil
	default:
		return "", fmt.Errorf("unknown sort field %q", s)
	}
}

// ParseSortOrder maps a wire name to a SortOrder. Empty means descending.
func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case "":
		return Descending, nil
	case Ascending, Descending:
		return o, nil
	default:
		return "", fmt.Errorf("unknown sort order %q", s)
	}
}

// View filters products by name and sorts the result. The input is never
// modified; products with equal keys keep their relative order.
func View(products []core.Product, q Query) []core.Product {
	term := textkey.Key(q.Search)

	type keyed struct {
		p   core.Product
		key string
	}
	rows := make([]keyed, 0, len(products))
	for _, p := range products {
		k := textkey.Key(p.Name)
		if strings.Contains(k, term) {
			rows = append(rows, keyed{p: p, key: k})
		}
	}

	sign := 1
	if q.Order == Descending {
		sign = -1
	}
	slices.SortStableFunc(rows, func(a, b keyed) int {
		switch q.Field {
		case SortByName:
			return sign * strings.Compare(a.key, b.key)
		case SortByPrice:
			return sign * cmp.Compare(a.p.Price, b.p.Price)
		case SortByCreatedAt:
			return sign * cmp.Compare(a.p.CreatedAt, b.p.CreatedAt)
		}
		return 0
	})

	out := make([]core.Product, len(rows))
	for i, r := range rows {
		out[i] = r.p
	}
	return out
}
