package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/resellai/resell-api/internal/domain/user"
	"github.com/resellai/resell-api/internal/middleware"
	"github.com/resellai/resell-api/internal/pkg/jwt"
	"github.com/resellai/resell-api/internal/pkg/response"
	"github.com/resellai/resell-api/internal/pkg/validator"
)

type Handler struct {
	service Service
	jwt     *jwt.Service
}

func NewHandler(service Service, jwtService *jwt.Service) *Handler {
	return &Handler{service: service, jwt: jwtService}
}

// Register handles POST /auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	token, err := h.service.Register(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailTaken):
			response.Conflict(w, "Email already registered")
		case errors.Is(err, ErrUsernameTaken):
			response.Conflict(w, "Username already taken")
		default:
			log.Error().Err(err).Msg("registration failed")
			response.InternalError(w)
		}
		return
	}

	response.Created(w, token)
}

// Login handles POST /auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	token, err := h.service.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			response.Unauthorized(w, "Invalid email or password")
			return
		}
		log.Error().Err(err).Msg("login failed")
		response.InternalError(w)
		return
	}

	response.OK(w, token)
}

// Me handles GET /auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	me, err := h.service.Me(r.Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			response.NotFound(w, "User not found")
			return
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("failed to load profile")
		response.InternalError(w)
		return
	}

	response.OK(w, me)
}

// Logout handles POST /auth/logout by revoking the presented token.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 {
		response.Unauthorized(w, "Missing authorization header")
		return
	}

	claims, err := h.jwt.ValidateAccessToken(parts[1])
	if err != nil {
		// Expired or invalid tokens need no revocation.
		response.Message(w, "Logged out")
		return
	}

	if err := h.service.Logout(r.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
		log.Warn().Err(err).Msg("failed to revoke token")
	}
	response.Message(w, "Logged out")
}
