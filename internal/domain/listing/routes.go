package listing

import "github.com/go-chi/chi/v5"

// Routes mounts marketplace endpoints under an authenticated router.
func Routes(r chi.Router, h *Handler, feed *Feed) {
	r.Get("/marketplace", h.List)
	r.Post("/marketplace/mark-sold/{id}", h.MarkSold)
	r.Post("/predict/sell-from-prediction", h.SellFromPrediction)
	if feed != nil {
		r.Get("/marketplace/feed", feed.ServeWS)
	}
}
