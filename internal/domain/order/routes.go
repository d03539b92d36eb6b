package order

import "github.com/go-chi/chi/v5"

// Routes mounts payment endpoints under an authenticated router.
func Routes(r chi.Router, h *Handler) {
	r.Post("/payments/create-credit-order", h.CreateCreditOrder)
	r.Post("/payments/verify", h.Verify)
	r.Post("/marketplace/buy/create-order/{id}", h.CreateListingOrder)
}
