package valuation

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/resellai/resell-api/internal/middleware"
	"github.com/resellai/resell-api/internal/pkg/response"
	"github.com/resellai/resell-api/internal/pkg/validator"
)

const maxUploadSize = 10 << 20 // 10 MB

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Predict handles POST /predict
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		response.BadRequest(w, "Invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		response.BadRequest(w, "Photo is required")
		return
	}
	defer file.Close()

	req, err := parsePredictForm(r)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	result, err := h.service.Predict(r.Context(), userID, *req, file)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoCredits):
			response.Forbidden(w, "No credits left")
		case errors.Is(err, ErrInvalidPhoto):
			response.BadRequest(w, "Could not read the uploaded photo")
		default:
			log.Error().Err(err).Str("user_id", userID.String()).Msg("prediction failed")
			response.InternalError(w)
		}
		return
	}

	response.OK(w, result)
}

func parsePredictForm(r *http.Request) (*PredictRequest, error) {
	ram, err := strconv.Atoi(strings.TrimSpace(r.FormValue("ram")))
	if err != nil {
		return nil, errors.New("ram must be a number")
	}
	storage, err := strconv.Atoi(strings.TrimSpace(r.FormValue("storage")))
	if err != nil {
		return nil, errors.New("storage must be a number")
	}
	age, err := strconv.Atoi(strings.TrimSpace(r.FormValue("age")))
	if err != nil {
		return nil, errors.New("age must be a number")
	}
	mrp, err := strconv.ParseFloat(strings.TrimSpace(r.FormValue("mrp")), 64)
	if err != nil {
		return nil, errors.New("mrp must be a number")
	}
	bodyBroken, _ := strconv.ParseBool(strings.TrimSpace(r.FormValue("body_broken")))

	return &PredictRequest{
		Brand:      strings.ToLower(strings.TrimSpace(r.FormValue("brand"))),
		RAM:        ram,
		Storage:    storage,
		Age:        age,
		BodyBroken: bodyBroken,
		MRP:        mrp,
	}, nil
}
