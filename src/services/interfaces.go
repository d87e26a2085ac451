// backend/src/services/interfaces.go
package services

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/username/finlens/backend/src/models"
)

// Define common service errors
var (
	ErrParsingFailed              = errors.New("statement parsing failed")
	ErrConsentExpiredOrUnapproved = errors.New("consent is not approved or has expired")
	ErrConsentIntegrityViolation  = errors.New("consent integrity hash mismatch: record may have been tampered with")
	ErrInvalidConsentTransition   = errors.New("invalid consent status transition")
	ErrConsentOwnerMismatch       = errors.New("consent does not belong to this user")
)

// TransactionStore is the persistence contract for normalized transactions.
// Insert must be an atomic upsert-or-skip on the (externalID, userID) key; it
// is the sole concurrency-safety mechanism for ingestion.
type TransactionStore interface {
	Insert(tx *models.NormalizedTransaction) (bool, error)
	ListByUser(userID int64, from, to time.Time) ([]models.NormalizedTransaction, error)
}

// ConsentStore is the append-only persistence contract for consent versions.
type ConsentStore interface {
	Append(record *models.ConsentRecord) error
	Latest(consentID string) (models.ConsentRecord, error)
	History(consentID string) ([]models.ConsentRecord, error)
	ListByUser(userID int64) ([]models.ConsentRecord, error)
}

// AggregatorClient is the boundary to the external account-aggregator
// gateway. The network call, its retry policy and its timeouts are the
// collaborator's concern; a failure here is propagated as a normal error.
type AggregatorClient interface {
	FetchFinancialData(ctx context.Context, consent models.ConsentRecord) (*models.AggregatorPayload, error)
}

// InitiateConsentResult is returned to the caller that starts an
// authorization flow.
type InitiateConsentResult struct {
	ConsentID        string `json:"consent_id"`
	ConsentHandle    string `json:"consent_handle"`
	AuthorizationURL string `json:"authorization_url"`
}

// ConsentService manages the append-only, hash-chained consent ledger.
type ConsentService interface {
	Initiate(userID int64, customerIdentifier string, scopes []string, from, to time.Time) (*InitiateConsentResult, error)
	RecordCallback(consentID string, status models.ConsentStatus, responsePayload string) (*models.ConsentRecord, error)
	Revoke(consentID string) (*models.ConsentRecord, error)
	MarkExpired(consentID string) (*models.ConsentRecord, error)
	Verify(record models.ConsentRecord) bool
	IsUsableForIngestion(record models.ConsentRecord) bool
	History(consentID string) ([]models.ConsentRecord, error)
	ListByUser(userID int64) ([]models.ConsentRecord, error)
	Latest(consentID string) (models.ConsentRecord, error)
}

// IngestionService orchestrates parse -> classify -> dedupe-persist for both
// ingestion paths and exposes the stored records for reporting.
type IngestionService interface {
	Ingest(records []models.NormalizedTransaction) models.IngestionResult
	IngestUpload(fileReader io.Reader, userID int64, accountHint string) (*models.IngestionResult, error)
	IngestAggregator(ctx context.Context, userID int64, consentID string) (*models.IngestionResult, error)
	GetTransactions(userID int64, from, to time.Time) ([]models.NormalizedTransaction, error)
	GetSummary(userID int64, from, to time.Time) (*models.TransactionSummary, error)
	InvalidateUserCache(userID int64)
}
