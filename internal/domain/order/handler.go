package order

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/resellai/resell-api/internal/domain/listing"
	"github.com/resellai/resell-api/internal/middleware"
	"github.com/resellai/resell-api/internal/pkg/response"
	"github.com/resellai/resell-api/internal/pkg/validator"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// CreateCreditOrder handles POST /payments/create-credit-order
func (h *Handler) CreateCreditOrder(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req CreateCreditOrderRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	checkout, err := h.service.CreateCreditOrder(r.Context(), userID, req.Credits)
	if err != nil {
		h.writeCreateError(w, err, userID)
		return
	}
	response.OK(w, checkout)
}

// CreateListingOrder handles POST /marketplace/buy/create-order/{id}
func (h *Handler) CreateListingOrder(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	listingID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid listing id")
		return
	}

	checkout, err := h.service.CreateListingOrder(r.Context(), userID, listingID)
	if err != nil {
		h.writeCreateError(w, err, userID)
		return
	}
	response.OK(w, checkout)
}

// Verify handles POST /payments/verify
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req VerifyRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	err := h.service.Verify(r.Context(), userID, req)
	switch {
	case err == nil:
		response.Message(w, "Payment verified")
	case errors.Is(err, ErrAlreadyProcessed):
		// A replayed receipt is not an error from the payer's side.
		response.Message(w, "Payment already verified")
	case errors.Is(err, ErrBadSignature):
		response.BadRequest(w, "Payment verification failed")
	case errors.Is(err, ErrNotPayable):
		response.Conflict(w, "Order can no longer be settled")
	case errors.Is(err, ErrNotFound):
		response.NotFound(w, "Order not found")
	case errors.Is(err, ErrNotYourOrder):
		response.Forbidden(w, "Not your order")
	default:
		log.Error().Err(err).Str("user_id", userID.String()).Msg("payment verification failed")
		response.InternalError(w)
	}
}

func (h *Handler) writeCreateError(w http.ResponseWriter, err error, userID uuid.UUID) {
	switch {
	case errors.Is(err, ErrInvalidPack):
		response.BadRequest(w, "Invalid credit pack")
	case errors.Is(err, listing.ErrNotFound):
		response.NotFound(w, "Listing not found")
	case errors.Is(err, listing.ErrOwnListing):
		response.Forbidden(w, "You cannot buy your own phone")
	case errors.Is(err, listing.ErrAlreadySold):
		response.BadRequest(w, "Already sold")
	case errors.Is(err, ErrGateway):
		log.Error().Err(err).Str("user_id", userID.String()).Msg("gateway order creation failed")
		response.Error(w, http.StatusBadGateway, "Payment gateway unavailable")
	default:
		log.Error().Err(err).Str("user_id", userID.String()).Msg("order creation failed")
		response.InternalError(w)
	}
}
