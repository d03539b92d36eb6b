package order

import (
	"time"

	"github.com/google/uuid"
)

// Purpose of an order: what the payment buys.
const (
	PurposeCredits = "credits"
	PurposeListing = "listing"
)

// Order status values. Verification flips pending to completed exactly
// once; everything after a receipt failure is failed.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Order is one payment attempt against the gateway. ProviderOrderID is
// the gateway's order id and is unique, so receipts key back to exactly
// one row.
type Order struct {
	ID                uuid.UUID  `db:"id"`
	UserID            uuid.UUID  `db:"user_id"`
	Purpose           string     `db:"purpose"`
	Credits           int        `db:"credits"`
	ListingID         *uuid.UUID `db:"listing_id"`
	AmountPaise       int64      `db:"amount_paise"`
	Currency          string     `db:"currency"`
	ProviderOrderID   string     `db:"provider_order_id"`
	ProviderPaymentID *string    `db:"provider_payment_id"`
	Status            string     `db:"status"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"`
}
