// backend/src/services/consent_service.go
package services

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/username/finlens/backend/src/logger"
	"github.com/username/finlens/backend/src/models"
)

// ConsentConfig carries the static consent parameters from app config.
type ConsentConfig struct {
	Validity     time.Duration
	PurposeCode  string
	ProviderID   string
	RedirectBase string
}

type consentServiceImpl struct {
	store ConsentStore
	cfg   ConsentConfig
}

func NewConsentService(store ConsentStore, cfg ConsentConfig) ConsentService {
	return &consentServiceImpl{store: store, cfg: cfg}
}

// computeIntegrityHash digests the semantically meaningful fields of a consent
// version. Storage timestamps and the hash itself are excluded, so any
// after-the-fact mutation of a stored row is detectable by recomputation.
func computeIntegrityHash(r models.ConsentRecord) string {
	parts := []string{
		r.ConsentID,
		r.ConsentHandle,
		strconv.FormatInt(r.UserID, 10),
		r.CustomerIdentifier,
		r.RequestPayload,
		r.ResponsePayload,
		strings.Join(r.Scopes, ","),
		string(r.Status),
		r.PurposeCode,
		r.ProviderID,
		strconv.Itoa(r.Version),
		strconv.FormatInt(r.ParentVersionRef, 10),
		r.DateRangeFrom.UTC().Format(time.RFC3339),
		r.DateRangeTo.UTC().Format(time.RFC3339),
		r.ExpiresAt.UTC().Format(time.RFC3339),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

func (s *consentServiceImpl) Initiate(userID int64, customerIdentifier string, scopes []string, from, to time.Time) (*InitiateConsentResult, error) {
	consentID := uuid.New().String()
	handle := uuid.New().String()
	now := time.Now().UTC()

	requestPayload, err := json.Marshal(map[string]any{
		"customer_identifier": customerIdentifier,
		"scopes":              scopes,
		"purpose_code":        s.cfg.PurposeCode,
		"date_range_from":     from.UTC().Format(time.RFC3339),
		"date_range_to":       to.UTC().Format(time.RFC3339),
		"requested_at":        now.Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("encoding consent request payload: %w", err)
	}

	record := models.ConsentRecord{
		ConsentID:          consentID,
		ConsentHandle:      handle,
		UserID:             userID,
		CustomerIdentifier: customerIdentifier,
		RequestPayload:     string(requestPayload),
		Scopes:             scopes,
		Status:             models.ConsentPending,
		PurposeCode:        s.cfg.PurposeCode,
		ProviderID:         s.cfg.ProviderID,
		Version:            1,
		DateRangeFrom:      from,
		DateRangeTo:        to,
		ExpiresAt:          now.Add(s.cfg.Validity),
	}
	record.IntegrityHash = computeIntegrityHash(record)

	if err := s.store.Append(&record); err != nil {
		return nil, err
	}

	logger.L.Info("Consent initiated", "consentID", consentID, "userID", userID, "scopes", scopes)

	return &InitiateConsentResult{
		ConsentID:        consentID,
		ConsentHandle:    handle,
		AuthorizationURL: fmt.Sprintf("%s?handle=%s", s.cfg.RedirectBase, handle),
	}, nil
}

// allowedTransitions encodes the consent state machine. Every transition is
// realized by appending a new version, never by editing the prior row.
var allowedTransitions = map[models.ConsentStatus][]models.ConsentStatus{
	models.ConsentPending:  {models.ConsentApproved, models.ConsentRejected},
	models.ConsentApproved: {models.ConsentExpired, models.ConsentRevoked},
}

func transitionAllowed(from, to models.ConsentStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// nextVersion mints a new version with the given status on top of the current
// latest. A callback reporting the status the chain already holds is a
// duplicate delivery and returns the latest version unchanged, so redelivery
// cannot create a contradictory branch.
func (s *consentServiceImpl) nextVersion(consentID string, status models.ConsentStatus, responsePayload string) (*models.ConsentRecord, error) {
	latest, err := s.store.Latest(consentID)
	if err != nil {
		return nil, err
	}

	if latest.Status == status {
		logger.L.Info("Duplicate consent callback ignored", "consentID", consentID, "status", status)
		return &latest, nil
	}
	if !transitionAllowed(latest.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidConsentTransition, latest.Status, status)
	}

	next := latest
	next.ID = 0
	next.Version = latest.Version + 1
	next.ParentVersionRef = latest.ID
	next.Status = status
	if responsePayload != "" {
		next.ResponsePayload = responsePayload
	}
	next.IntegrityHash = computeIntegrityHash(next)

	if err := s.store.Append(&next); err != nil {
		return nil, err
	}

	logger.L.Info("Consent version appended", "consentID", consentID, "version", next.Version, "status", status)
	return &next, nil
}

func (s *consentServiceImpl) RecordCallback(consentID string, status models.ConsentStatus, responsePayload string) (*models.ConsentRecord, error) {
	if status != models.ConsentApproved && status != models.ConsentRejected {
		return nil, fmt.Errorf("%w: callback may only report APPROVED or REJECTED, got %s", ErrInvalidConsentTransition, status)
	}
	return s.nextVersion(consentID, status, responsePayload)
}

func (s *consentServiceImpl) Revoke(consentID string) (*models.ConsentRecord, error) {
	return s.nextVersion(consentID, models.ConsentRevoked, "")
}

// MarkExpired appends the time-triggered EXPIRED version. Called when a fetch
// attempt finds an approved consent past its expiry.
func (s *consentServiceImpl) MarkExpired(consentID string) (*models.ConsentRecord, error) {
	return s.nextVersion(consentID, models.ConsentExpired, "")
}

// Verify recomputes the integrity hash and compares it with the recorded one.
// A mismatch signals tampering and must be surfaced loudly by callers.
func (s *consentServiceImpl) Verify(record models.ConsentRecord) bool {
	return computeIntegrityHash(record) == record.IntegrityHash
}

// IsUsableForIngestion reports whether this consent version authorizes an
// aggregator fetch right now.
func (s *consentServiceImpl) IsUsableForIngestion(record models.ConsentRecord) bool {
	return record.Status == models.ConsentApproved && record.ExpiresAt.After(time.Now())
}

func (s *consentServiceImpl) History(consentID string) ([]models.ConsentRecord, error) {
	return s.store.History(consentID)
}

func (s *consentServiceImpl) ListByUser(userID int64) ([]models.ConsentRecord, error) {
	return s.store.ListByUser(userID)
}

func (s *consentServiceImpl) Latest(consentID string) (models.ConsentRecord, error) {
	return s.store.Latest(consentID)
}
