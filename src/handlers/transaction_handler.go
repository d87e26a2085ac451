// backend/src/handlers/transaction_handler.go
package handlers

import (
	"net/http"
	"time"

	"github.com/username/finlens/backend/src/logger"
	"github.com/username/finlens/backend/src/models"
	"github.com/username/finlens/backend/src/services"
	"github.com/username/finlens/backend/src/utils"
)

type TransactionHandler struct {
	ingestionService services.IngestionService
}

func NewTransactionHandler(service services.IngestionService) *TransactionHandler {
	return &TransactionHandler{ingestionService: service}
}

// parseDateRange reads optional from/to query parameters (YYYY-MM-DD).
func parseDateRange(r *http.Request) (time.Time, time.Time, error) {
	var from, to time.Time
	var err error

	if v := r.URL.Query().Get("from"); v != "" {
		if from, err = time.Parse("2006-01-02", v); err != nil {
			return from, to, err
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if to, err = time.Parse("2006-01-02", v); err != nil {
			return from, to, err
		}
		// Inclusive upper bound: cover the whole day.
		to = to.Add(24*time.Hour - time.Second)
	}
	return from, to, nil
}

// HandleGetTransactions lists a user's normalized transactions, newest first.
func (h *TransactionHandler) HandleGetTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	from, to, err := parseDateRange(r)
	if err != nil {
		utils.SendJSONError(w, "from/to must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	txs, err := h.ingestionService.GetTransactions(userID, from, to)
	if err != nil {
		logger.L.Error("Failed to list transactions", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to list transactions", http.StatusInternalServerError)
		return
	}
	if txs == nil {
		txs = []models.NormalizedTransaction{}
	}
	utils.SendJSON(w, txs, http.StatusOK)
}

// HandleGetSummary returns credit/debit/category totals for a date range.
func (h *TransactionHandler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	from, to, err := parseDateRange(r)
	if err != nil {
		utils.SendJSONError(w, "from/to must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	summary, err := h.ingestionService.GetSummary(userID, from, to)
	if err != nil {
		logger.L.Error("Failed to build transaction summary", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to build transaction summary", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, summary, http.StatusOK)
}
