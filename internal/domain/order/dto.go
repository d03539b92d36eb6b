package order

// CreateCreditOrderRequest selects one of the fixed credit packs.
type CreateCreditOrderRequest struct {
	Credits int `json:"credits" validate:"required"`
}

// CheckoutResponse is what the external checkout widget is opened with.
// The field names are a wire contract with the payment flow.
type CheckoutResponse struct {
	Key      string `json:"key"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	OrderID  string `json:"order_id"`
}

// VerifyRequest is the receipt triple handed back by the checkout.
type VerifyRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id" validate:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	RazorpaySignature string `json:"razorpay_signature" validate:"required"`
}
