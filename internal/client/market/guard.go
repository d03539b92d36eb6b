// Package market projects and guards the fetched listing set. All of
// it is pure client-side computation over data the api package fetched;
// nothing here mutates server state.
package market

import (
	"encoding/json"
	"strings"

	"github.com/resellai/resell-api/internal/client/api"
)

// idKeys are the wrapper keys identity ids have been shipped under.
var idKeys = []string{"$oid", "_id", "id", "oid"}

// ExtractID normalizes an identity field to a bare comparable string.
// Accepts a plain string, a quoted JSON string, or an object carrying
// the id under one of the known keys, nested arbitrarily deep.
func ExtractID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return strings.TrimSpace(string(raw))
	}
	for _, key := range idKeys {
		if inner, ok := obj[key]; ok {
			if id := ExtractID(inner); id != "" {
				return id
			}
		}
	}
	return ""
}

// ListingID returns the listing's own id, whichever key carried it.
func ListingID(l api.Listing) string {
	if id := ExtractID(l.ID); id != "" {
		return id
	}
	return ExtractID(l.MongoID)
}

// SellerID returns the listing's seller identity, normalized.
func SellerID(l api.Listing) string {
	return ExtractID(l.SellerID)
}

// IsOwner reports whether the buyer is the listing's seller. Used to
// hide the purchase affordance and rechecked immediately before an
// order is created.
func IsOwner(buyerID string, l api.Listing) bool {
	buyerID = strings.TrimSpace(buyerID)
	if buyerID == "" {
		return false
	}
	return buyerID == SellerID(l)
}
