package listing

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/resellai/resell-api/internal/domain/valuation"
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

// List handles GET /marketplace
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	listings, err := h.service.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list marketplace")
		response.InternalError(w)
		return
	}
	response.OK(w, listings)
}

// SellFromPrediction handles POST /predict/sell-from-prediction
func (h *Handler) SellFromPrediction(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req SellFromPredictionRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	if err := h.service.SellFromPrediction(r.Context(), userID, req); err != nil {
		switch {
		case errors.Is(err, valuation.ErrNotFound):
			response.NotFound(w, "Prediction not found")
		case errors.Is(err, valuation.ErrNotOwner):
			response.Forbidden(w, "Not your prediction")
		default:
			log.Error().Err(err).Str("user_id", userID.String()).Msg("failed to promote prediction")
			response.InternalError(w)
		}
		return
	}

	response.Message(w, "Phone listed for sale")
}

// MarkSold handles POST /marketplace/mark-sold/{id}
func (h *Handler) MarkSold(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid listing id")
		return
	}

	if err := h.service.MarkSold(r.Context(), id, userID); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(w, "Listing not found")
		case errors.Is(err, ErrNotSeller):
			response.Forbidden(w, "Not your listing")
		case errors.Is(err, ErrAlreadySold):
			response.BadRequest(w, "Already sold")
		default:
			log.Error().Err(err).Str("listing_id", id.String()).Msg("failed to mark listing sold")
			response.InternalError(w)
		}
		return
	}

	response.Message(w, "Listing marked as sold")
}
