package valuation

import "github.com/go-chi/chi/v5"

// Routes mounts valuation endpoints. The router passed in is already
// behind auth middleware.
func Routes(r chi.Router, h *Handler) {
	r.Post("/predict", h.Predict)
}
