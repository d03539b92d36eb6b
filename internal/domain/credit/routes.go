package credit

import "github.com/go-chi/chi/v5"

// Routes mounts ledger endpoints under an authenticated router.
func Routes(r chi.Router, h *Handler) {
	r.Get("/credits/balance", h.Balance)
	r.Get("/credits/transactions", h.Transactions)
}
