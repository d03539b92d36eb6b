package credit

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/resellai/resell-api/internal/middleware"
	"github.com/resellai/resell-api/internal/pkg/response"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Balance handles GET /credits/balance
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	balance, err := h.service.GetBalance(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("failed to fetch balance")
		response.InternalError(w)
		return
	}
	response.OK(w, map[string]int{"credits": balance})
}

// Transactions handles GET /credits/transactions
func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	transactions, err := h.service.ListTransactions(r.Context(), userID, limit, offset)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("failed to fetch transactions")
		response.InternalError(w)
		return
	}
	response.OK(w, transactions)
}
