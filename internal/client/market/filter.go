package market

import (
	"fmt"
	"sort"
	"strings"

	"github.com/resellai/resell-api/internal/client/api"
)

// View selects which listing statuses a projection includes.
type View string

const (
	ViewAll    View = "all"
	ViewOnSale View = "on_sale"
	ViewSold   View = "sold"
)

// PriceSort orders a projection by price.
type PriceSort string

const (
	SortNone      PriceSort = ""
	SortPriceAsc  PriceSort = "asc"
	SortPriceDesc PriceSort = "desc"
)

// Filter is one projection over the fetched listing set.
type Filter struct {
	Brand string
	Query string
	View  View
	Sort  PriceSort
}

// Apply derives a new slice from the base set. The base is never
// mutated: every filter or sort change re-derives from the same
// fetched set.
func Apply(base []api.Listing, f Filter) []api.Listing {
	out := make([]api.Listing, 0, len(base))
	for _, l := range base {
		if !matches(l, f) {
			continue
		}
		out = append(out, l)
	}

	switch f.Sort {
	case SortPriceAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	case SortPriceDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	}
	return out
}

func matches(l api.Listing, f Filter) bool {
	switch f.View {
	case ViewOnSale:
		if l.Status != "on_sale" {
			return false
		}
	case ViewSold:
		if l.Status != "sold" {
			return false
		}
	}

	if f.Brand != "" && !strings.EqualFold(l.Brand, f.Brand) {
		return false
	}

	if f.Query != "" {
		haystack := strings.ToLower(fmt.Sprintf("%s %dgb %dgb %s", l.Brand, l.RAM, l.Storage, l.Damage))
		if !strings.Contains(haystack, strings.ToLower(strings.TrimSpace(f.Query))) {
			return false
		}
	}
	return true
}
