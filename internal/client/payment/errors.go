package payment

import "errors"

var (
	// ErrInFlight rejects a second flow for a target that already has
	// one between order_requested and receipt_submitted.
	ErrInFlight = errors.New("a payment for this target is already in progress")

	// ErrCancelled reports a checkout dismissed without completing.
	// No side effects occurred; the action can be retried at once.
	ErrCancelled = errors.New("checkout dismissed")
)

// OwnershipError blocks a self-purchase before any network call.
type OwnershipError struct {
	ListingID string
}

func (e *OwnershipError) Error() string {
	return "you cannot buy your own phone"
}

// VerificationError reports a receipt the backend refused. The
// monetary transaction did not complete; no balance or listing change
// may be assumed.
type VerificationError struct {
	Reason string
}

func (e *VerificationError) Error() string {
	if e.Reason == "" {
		return "payment verification failed"
	}
	return e.Reason
}
