package payment

import (
	"context"

	"github.com/resellai/resell-api/internal/client/api"
)

// CheckoutParams is what the external payment widget is opened with.
// Exactly one of the callbacks fires, possibly from another goroutine,
// after an unbounded delay: the user may sit on the checkout forever.
type CheckoutParams struct {
	Key       string
	Amount    int64
	Currency  string
	OrderID   string
	OnSuccess func(api.Receipt)
	OnDismiss func()
}

// Checkout is the opaque external payment step. The orchestrator
// treats it as a black box that eventually reports a receipt or a
// dismissal.
type Checkout interface {
	Open(ctx context.Context, params CheckoutParams)
}
