// backend/src/model/consent_store.go
package model

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/username/finlens/backend/src/models"
)

// ErrConsentNotFound is returned when no version exists for a consent id.
var ErrConsentNotFound = errors.New("consent not found")

// ConsentStore persists consent versions. The table is append-only by
// construction: there is no update statement in this file, and the unique
// index on (consent_id, version) makes duplicate version minting impossible.
type ConsentStore struct {
	db *sql.DB
}

func NewConsentStore(db *sql.DB) *ConsentStore {
	return &ConsentStore{db: db}
}

// Append inserts one new consent version and fills in the row id.
func (s *ConsentStore) Append(record *models.ConsentRecord) error {
	var parentRef any
	if record.ParentVersionRef != 0 {
		parentRef = record.ParentVersionRef
	}
	record.CreatedAt = time.Now().UTC()

	query := `
	INSERT INTO consent_records (
		consent_id, consent_handle, user_id, customer_identifier,
		request_payload, response_payload, scopes, status, purpose_code,
		provider_id, integrity_hash, version, parent_version_ref,
		date_range_from, date_range_to, expires_at, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := s.db.Exec(query,
		record.ConsentID,
		record.ConsentHandle,
		record.UserID,
		record.CustomerIdentifier,
		record.RequestPayload,
		record.ResponsePayload,
		strings.Join(record.Scopes, ","),
		string(record.Status),
		record.PurposeCode,
		record.ProviderID,
		record.IntegrityHash,
		record.Version,
		parentRef,
		record.DateRangeFrom.UTC().Format(time.RFC3339),
		record.DateRangeTo.UTC().Format(time.RFC3339),
		record.ExpiresAt.UTC().Format(time.RFC3339),
		record.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("appending consent %s v%d: %w", record.ConsentID, record.Version, err)
	}
	record.ID, err = res.LastInsertId()
	return err
}

const consentColumns = `
	id, consent_id, consent_handle, user_id, customer_identifier,
	request_payload, response_payload, scopes, status, purpose_code,
	provider_id, integrity_hash, version, COALESCE(parent_version_ref, 0),
	date_range_from, date_range_to, expires_at, created_at`

func scanConsent(row interface{ Scan(...any) error }) (models.ConsentRecord, error) {
	var rec models.ConsentRecord
	var scopes, status, from, to, expires, created string

	err := row.Scan(
		&rec.ID, &rec.ConsentID, &rec.ConsentHandle, &rec.UserID,
		&rec.CustomerIdentifier, &rec.RequestPayload, &rec.ResponsePayload,
		&scopes, &status, &rec.PurposeCode, &rec.ProviderID,
		&rec.IntegrityHash, &rec.Version, &rec.ParentVersionRef,
		&from, &to, &expires, &created,
	)
	if err != nil {
		return rec, err
	}

	if scopes != "" {
		rec.Scopes = strings.Split(scopes, ",")
	}
	rec.Status = models.ConsentStatus(status)
	if rec.DateRangeFrom, err = time.Parse(time.RFC3339, from); err != nil {
		return rec, fmt.Errorf("parsing stored date_range_from %q: %w", from, err)
	}
	if rec.DateRangeTo, err = time.Parse(time.RFC3339, to); err != nil {
		return rec, fmt.Errorf("parsing stored date_range_to %q: %w", to, err)
	}
	if rec.ExpiresAt, err = time.Parse(time.RFC3339, expires); err != nil {
		return rec, fmt.Errorf("parsing stored expires_at %q: %w", expires, err)
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return rec, nil
}

// Latest returns the highest version for a consent id.
func (s *ConsentStore) Latest(consentID string) (models.ConsentRecord, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM consent_records WHERE consent_id = ? ORDER BY version DESC LIMIT 1", consentColumns)
	rec, err := scanConsent(s.db.QueryRow(query, consentID))
	if errors.Is(err, sql.ErrNoRows) {
		return rec, fmt.Errorf("%w: %s", ErrConsentNotFound, consentID)
	}
	return rec, err
}

// History returns every version for a consent id, oldest first — the full
// audit trail for one logical consent.
func (s *ConsentStore) History(consentID string) ([]models.ConsentRecord, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM consent_records WHERE consent_id = ? ORDER BY version ASC", consentColumns)
	rows, err := s.db.Query(query, consentID)
	if err != nil {
		return nil, fmt.Errorf("querying consent history for %s: %w", consentID, err)
	}
	defer rows.Close()

	var history []models.ConsentRecord
	for rows.Next() {
		rec, err := scanConsent(rows)
		if err != nil {
			return nil, err
		}
		history = append(history, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrConsentNotFound, consentID)
	}
	return history, nil
}

// ListByUser returns the latest version of each of a user's consents.
func (s *ConsentStore) ListByUser(userID int64) ([]models.ConsentRecord, error) {
	query := fmt.Sprintf(`
	SELECT %s FROM consent_records
	WHERE user_id = ? AND version = (
		SELECT MAX(version) FROM consent_records inner_cr
		WHERE inner_cr.consent_id = consent_records.consent_id
	)
	ORDER BY created_at DESC`, consentColumns)

	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying consents for user %d: %w", userID, err)
	}
	defer rows.Close()

	var records []models.ConsentRecord
	for rows.Next() {
		rec, err := scanConsent(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
