package market

import (
	"encoding/json"
	"testing"

	"github.com/resellai/resell-api/internal/client/api"
)

func baseListings() []api.Listing {
	return []api.Listing{
		{ID: json.RawMessage(`"a"`), Brand: "samsung", RAM: 8, Storage: 128, Price: 15000, Status: "on_sale"},
		{ID: json.RawMessage(`"b"`), Brand: "apple", RAM: 6, Storage: 256, Price: 42000, Status: "on_sale"},
		{ID: json.RawMessage(`"c"`), Brand: "xiaomi", RAM: 8, Storage: 128, Price: 9000, Status: "sold"},
		{ID: json.RawMessage(`"d"`), Brand: "samsung", RAM: 4, Storage: 64, Price: 7000, Status: "sold"},
	}
}

func ids(listings []api.Listing) []string {
	out := make([]string, 0, len(listings))
	for _, l := range listings {
		out = append(out, ListingID(l))
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestApply(t *testing.T) {
	base := baseListings()

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"no filter keeps everything", Filter{}, []string{"a", "b", "c", "d"}},
		{"on sale view", Filter{View: ViewOnSale}, []string{"a", "b"}},
		{"sold view", Filter{View: ViewSold}, []string{"c", "d"}},
		{"brand filter", Filter{Brand: "samsung"}, []string{"a", "d"}},
		{"brand is case insensitive", Filter{Brand: "Samsung"}, []string{"a", "d"}},
		{"text search over specs", Filter{Query: "256gb"}, []string{"b"}},
		{"price ascending", Filter{Sort: SortPriceAsc}, []string{"d", "c", "a", "b"}},
		{"price descending on sale", Filter{View: ViewOnSale, Sort: SortPriceDesc}, []string{"b", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Apply(base, tt.filter))
			if !equal(got, tt.want) {
				t.Errorf("Apply() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApply_NeverMutatesBase(t *testing.T) {
	base := baseListings()
	Apply(base, Filter{Sort: SortPriceAsc, View: ViewOnSale})

	want := []string{"a", "b", "c", "d"}
	if !equal(ids(base), want) {
		t.Fatalf("base set mutated: %v", ids(base))
	}
}

func TestApply_RederivesPerFilterChange(t *testing.T) {
	base := baseListings()

	first := Apply(base, Filter{View: ViewOnSale})
	second := Apply(base, Filter{View: ViewSold})

	if equal(ids(first), ids(second)) {
		t.Fatal("projections for different filters must differ")
	}
	// The earlier projection is unaffected by the later one.
	if !equal(ids(first), []string{"a", "b"}) {
		t.Errorf("first projection changed: %v", ids(first))
	}
}
