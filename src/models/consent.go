// backend/src/models/consent.go
package models

import "time"

// ConsentStatus is the lifecycle state of one consent version.
// PENDING -> {APPROVED, REJECTED} via callback; APPROVED -> {EXPIRED, REVOKED}.
type ConsentStatus string

const (
	ConsentPending  ConsentStatus = "PENDING"
	ConsentApproved ConsentStatus = "APPROVED"
	ConsentRejected ConsentStatus = "REJECTED"
	ConsentExpired  ConsentStatus = "EXPIRED"
	ConsentRevoked  ConsentStatus = "REVOKED"
)

// ConsentRecord is one immutable version of a customer authorization.
// A record is never updated in place: every state transition inserts a new
// version with Version = parent.Version+1 and ParentVersionRef pointing at the
// prior row's id. The chain from version 1 to the latest is the audit history
// for one logical consent.
type ConsentRecord struct {
	ID                 int64         `json:"id,omitempty"` // Database primary key, per version
	ConsentID          string        `json:"consent_id"`   // Stable, caller-visible id for the logical consent
	ConsentHandle      string        `json:"consent_handle,omitempty"`
	UserID             int64         `json:"user_id"`
	CustomerIdentifier string        `json:"customer_identifier"` // Mobile number or virtual address
	RequestPayload     string        `json:"request_payload,omitempty"`
	ResponsePayload    string        `json:"response_payload,omitempty"`
	Scopes             []string      `json:"scopes"` // Ordered list of requested data categories
	Status             ConsentStatus `json:"status"`
	PurposeCode        string        `json:"purpose_code"`
	ProviderID         string        `json:"provider_id"`
	IntegrityHash      string        `json:"integrity_hash"` // sha256 over the semantic fields
	Version            int           `json:"version"`        // >= 1
	ParentVersionRef   int64         `json:"parent_version_ref,omitempty"`
	DateRangeFrom      time.Time     `json:"date_range_from"`
	DateRangeTo        time.Time     `json:"date_range_to"`
	ExpiresAt          time.Time     `json:"expires_at"`
	CreatedAt          time.Time     `json:"created_at,omitempty"` // Storage timestamp, excluded from the hash
}
