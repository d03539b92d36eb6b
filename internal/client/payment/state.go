package payment

// State of one payment flow. Terminal states are Verified, Failed and
// Cancelled; Cancelled is only reachable from CheckoutOpen.
type State string

const (
	StateIdle             State = "idle"
	StateOrderRequested   State = "order_requested"
	StateOrderCreated     State = "order_created"
	StateCheckoutOpen     State = "checkout_open"
	StateReceiptSubmitted State = "receipt_submitted"
	StateVerified         State = "verified"
	StateFailed           State = "failed"
	StateCancelled        State = "cancelled"
)

// Terminal reports whether the flow has finished.
func (s State) Terminal() bool {
	return s == StateVerified || s == StateFailed || s == StateCancelled
}
