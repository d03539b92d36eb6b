package auth

import "github.com/go-chi/chi/v5"

// PublicRoutes mounts endpoints that need no credential.
func PublicRoutes(r chi.Router, h *Handler) {
	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", h.Login)
}

// ProtectedRoutes mounts endpoints behind the auth middleware.
func ProtectedRoutes(r chi.Router, h *Handler) {
	r.Get("/auth/me", h.Me)
	r.Post("/auth/logout", h.Logout)
}
