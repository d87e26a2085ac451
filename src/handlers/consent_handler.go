// backend/src/handlers/consent_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/username/finlens/backend/src/logger"
	"github.com/username/finlens/backend/src/model"
	"github.com/username/finlens/backend/src/models"
	"github.com/username/finlens/backend/src/security/validation"
	"github.com/username/finlens/backend/src/services"
	"github.com/username/finlens/backend/src/utils"
)

type ConsentHandler struct {
	consentService   services.ConsentService
	ingestionService services.IngestionService
}

func NewConsentHandler(consentService services.ConsentService, ingestionService services.IngestionService) *ConsentHandler {
	return &ConsentHandler{consentService: consentService, ingestionService: ingestionService}
}

type initiateConsentRequest struct {
	CustomerIdentifier string   `json:"customer_identifier"`
	Scopes             []string `json:"scopes"`
	DateRangeFrom      string   `json:"date_range_from"`
	DateRangeTo        string   `json:"date_range_to"`
}

// HandleInitiateConsent starts a new authorization flow: version-1 PENDING
// record plus the redirect URL the customer approves on.
func (h *ConsentHandler) HandleInitiateConsent(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req initiateConsentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	customerIdentifier := validation.SanitizeText(req.CustomerIdentifier)
	if customerIdentifier == "" {
		utils.SendJSONError(w, "customer_identifier is required", http.StatusBadRequest)
		return
	}
	if len(req.Scopes) == 0 {
		utils.SendJSONError(w, "at least one scope is required", http.StatusBadRequest)
		return
	}

	from, err := time.Parse("2006-01-02", req.DateRangeFrom)
	if err != nil {
		utils.SendJSONError(w, "date_range_from must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	to, err := time.Parse("2006-01-02", req.DateRangeTo)
	if err != nil {
		utils.SendJSONError(w, "date_range_to must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	result, err := h.consentService.Initiate(userID, customerIdentifier, req.Scopes, from, to)
	if err != nil {
		logger.L.Error("Failed to initiate consent", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to initiate consent", http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, result, http.StatusCreated)
}

type consentCallbackRequest struct {
	ConsentID       string `json:"consent_id"`
	Status          string `json:"status"`
	ResponsePayload string `json:"response_payload,omitempty"`
}

// HandleConsentCallback records the status the aggregator reports after the
// customer acts on the authorization page. Duplicate deliveries are
// idempotent.
func (h *ConsentHandler) HandleConsentCallback(w http.ResponseWriter, r *http.Request) {
	var req consentCallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	status := models.ConsentStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	record, err := h.consentService.RecordCallback(req.ConsentID, status, req.ResponsePayload)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrConsentNotFound):
			utils.SendJSONError(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, services.ErrInvalidConsentTransition):
			utils.SendJSONError(w, err.Error(), http.StatusConflict)
		default:
			logger.L.Error("Failed to record consent callback", "consentID", req.ConsentID, "error", err)
			utils.SendJSONError(w, "Failed to record consent callback", http.StatusInternalServerError)
		}
		return
	}

	utils.SendJSON(w, record, http.StatusOK)
}

// HandleConsentHistory returns every version of one consent, oldest first.
func (h *ConsentHandler) HandleConsentHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	consentID := chi.URLParam(r, "consentID")
	history, err := h.consentService.History(consentID)
	if err != nil {
		if errors.Is(err, model.ErrConsentNotFound) {
			utils.SendJSONError(w, err.Error(), http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to load consent history", "consentID", consentID, "error", err)
		utils.SendJSONError(w, "Failed to load consent history", http.StatusInternalServerError)
		return
	}

	if history[0].UserID != userID {
		utils.SendJSONError(w, "consent does not belong to this user", http.StatusForbidden)
		return
	}

	utils.SendJSON(w, history, http.StatusOK)
}

// HandleRevokeConsent appends a REVOKED version on top of an approved consent.
func (h *ConsentHandler) HandleRevokeConsent(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	consentID := chi.URLParam(r, "consentID")
	latest, err := h.consentService.Latest(consentID)
	if err != nil {
		if errors.Is(err, model.ErrConsentNotFound) {
			utils.SendJSONError(w, err.Error(), http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to load consent", "consentID", consentID, "error", err)
		utils.SendJSONError(w, "Failed to load consent", http.StatusInternalServerError)
		return
	}
	if latest.UserID != userID {
		utils.SendJSONError(w, "consent does not belong to this user", http.StatusForbidden)
		return
	}

	record, err := h.consentService.Revoke(consentID)
	if err != nil {
		if errors.Is(err, services.ErrInvalidConsentTransition) {
			utils.SendJSONError(w, err.Error(), http.StatusConflict)
			return
		}
		logger.L.Error("Failed to revoke consent", "consentID", consentID, "error", err)
		utils.SendJSONError(w, "Failed to revoke consent", http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, record, http.StatusOK)
}

// HandleListConsents returns the latest version of each of the user's consents.
func (h *ConsentHandler) HandleListConsents(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	records, err := h.consentService.ListByUser(userID)
	if err != nil {
		logger.L.Error("Failed to list consents", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to list consents", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []models.ConsentRecord{}
	}
	utils.SendJSON(w, records, http.StatusOK)
}

// HandleFetchFinancialData triggers an aggregator-sourced ingestion under an
// approved, unexpired, integrity-verified consent.
func (h *ConsentHandler) HandleFetchFinancialData(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	consentID := chi.URLParam(r, "consentID")
	result, err := h.ingestionService.IngestAggregator(r.Context(), userID, consentID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrConsentNotFound):
			utils.SendJSONError(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, services.ErrConsentOwnerMismatch):
			utils.SendJSONError(w, err.Error(), http.StatusForbidden)
		case errors.Is(err, services.ErrConsentExpiredOrUnapproved):
			utils.SendJSONError(w, err.Error(), http.StatusForbidden)
		case errors.Is(err, services.ErrConsentIntegrityViolation):
			// Tampering is never a silent condition.
			logger.L.Error("Consent integrity violation on fetch", "consentID", consentID, "userID", userID)
			utils.SendJSONError(w, err.Error(), http.StatusConflict)
		default:
			logger.L.Error("Aggregator ingestion failed", "consentID", consentID, "userID", userID, "error", err)
			utils.SendJSONError(w, "Failed to fetch financial data", http.StatusBadGateway)
		}
		return
	}

	utils.SendJSON(w, result, http.StatusOK)
}
