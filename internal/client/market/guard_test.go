package market

import (
	"encoding/json"
	"testing"

	"github.com/resellai/resell-api/internal/client/api"
)

func TestExtractID(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"bare string", `"abc123"`, "abc123"},
		{"oid wrapper", `{"$oid": "abc123"}`, "abc123"},
		{"underscore id wrapper", `{"_id": "abc123"}`, "abc123"},
		{"plain id wrapper", `{"id": "abc123"}`, "abc123"},
		{"nested wrapper", `{"_id": {"$oid": "abc123"}}`, "abc123"},
		{"whitespace trimmed", `"  abc123 "`, "abc123"},
		{"empty", ``, ""},
		{"unknown object", `{"other": "abc123"}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractID(json.RawMessage(tt.raw))
			if got != tt.want {
				t.Errorf("ExtractID(%s) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestIsOwner(t *testing.T) {
	tests := []struct {
		name   string
		buyer  string
		seller string
		want   bool
	}{
		{"same bare id", "u1", `"u1"`, true},
		{"same wrapped id", "u1", `{"$oid": "u1"}`, true},
		{"same nested id", "u1", `{"_id": {"$oid": "u1"}}`, true},
		{"different id", "u1", `"u2"`, false},
		{"empty buyer never owns", "", `""`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := api.Listing{SellerID: json.RawMessage(tt.seller)}
			if got := IsOwner(tt.buyer, l); got != tt.want {
				t.Errorf("IsOwner(%q, seller=%s) = %v, want %v", tt.buyer, tt.seller, got, tt.want)
			}
		})
	}
}

func TestListingID_FallsBackToMongoKey(t *testing.T) {
	l := api.Listing{MongoID: json.RawMessage(`{"$oid": "abc"}`)}
	if got := ListingID(l); got != "abc" {
		t.Errorf("ListingID = %q, want abc", got)
	}
}
