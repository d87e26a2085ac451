// backend/src/models/transaction.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction of money movement. Amounts are always non-negative; the sign of a
// transaction lives here, never in the numeric value.
type Direction string

const (
	DirectionCredit Direction = "CREDIT"
	DirectionDebit  Direction = "DEBIT"
)

// SourceType identifies the kind of financial instrument a record came from.
type SourceType string

const (
	SourceBankAccount SourceType = "BANK_ACCOUNT"
	SourceCreditCard  SourceType = "CREDIT_CARD"
	SourceLoan        SourceType = "LOAN"
	SourceMutualFund  SourceType = "MUTUAL_FUND"
	SourceInsurance   SourceType = "INSURANCE"
	SourceOther       SourceType = "OTHER"
)

// PaymentMode is the rail a transaction moved over, inferred from the narration.
type PaymentMode string

const (
	ModeUPI       PaymentMode = "UPI"
	ModeNEFT      PaymentMode = "NEFT"
	ModeIMPS      PaymentMode = "IMPS"
	ModeRTGS      PaymentMode = "RTGS"
	ModeATM       PaymentMode = "ATM"
	ModeCard      PaymentMode = "CARD"
	ModeCheque    PaymentMode = "CHEQUE"
	ModeCash      PaymentMode = "CASH"
	ModeAutoDebit PaymentMode = "AUTO_DEBIT"
	ModeOther     PaymentMode = "OTHER"
)

// NormalizedTransaction is the unified representation of a transaction.
// Each parser is responsible for populating as many of these fields as possible
// directly from the source; the classifier fills category, merchant and payment
// mode afterwards. Records are immutable once persisted.
type NormalizedTransaction struct {
	ID            int64           `json:"id,omitempty"` // Database primary key
	ExternalID    string          `json:"external_id"`  // Source-provided or synthesized; unique per user
	UserID        int64           `json:"user_id"`
	ConsentRef    string          `json:"consent_ref,omitempty"` // Empty for CSV-only origin
	Timestamp     time.Time       `json:"timestamp"`             // UTC-naive policy: parsed in UTC, no offset applied
	Amount        decimal.Decimal `json:"amount"`                // Always >= 0, 2 decimal places
	Direction     Direction       `json:"direction"`
	Merchant      string          `json:"merchant,omitempty"` // Best effort, <= 100 chars
	Category      string          `json:"category"`
	Subcategory   string          `json:"subcategory"`
	SourceType    SourceType      `json:"source_type"`
	SourceAccount string          `json:"source_account,omitempty"` // Masked identifier
	PaymentMode   PaymentMode     `json:"payment_mode"`
	Reference     string          `json:"reference,omitempty"`
	Narration     string          `json:"narration,omitempty"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	HasBalance    bool            `json:"has_balance"`           // Flag to indicate if a balance was extracted
	Currency      string          `json:"currency"`              // 3-letter code
	RawPayload    string          `json:"raw_payload,omitempty"` // Original source fragment, retained for audit
	CreatedAt     time.Time       `json:"created_at,omitempty"`
}

// ParseSummary aggregates the outcome of parsing one statement.
type ParseSummary struct {
	TotalRows   int             `json:"total_rows"`
	ParsedRows  int             `json:"parsed_rows"`
	FailedRows  int             `json:"failed_rows"`
	TotalCredit decimal.Decimal `json:"total_credit"`
	TotalDebit  decimal.Decimal `json:"total_debit"`
}

// IngestionResult reports what happened to one persisted batch.
// Row-level and persistence-level failures never abort the batch; they are
// collected here so callers see partial success explicitly.
type IngestionResult struct {
	SavedCount   int          `json:"saved_count"`
	SkippedCount int          `json:"skipped_count"`
	Errors       []string     `json:"errors,omitempty"`
	RowErrors    []string     `json:"row_errors,omitempty"`
	Summary      ParseSummary `json:"summary"`
}

// CategoryTotal is one slice of a per-user spending summary.
type CategoryTotal struct {
	Category    string          `json:"category"`
	TotalCredit decimal.Decimal `json:"total_credit"`
	TotalDebit  decimal.Decimal `json:"total_debit"`
	Count       int             `json:"count"`
}

// TransactionSummary is the aggregate view returned by the summary endpoint.
type TransactionSummary struct {
	TotalCredit decimal.Decimal `json:"total_credit"`
	TotalDebit  decimal.Decimal `json:"total_debit"`
	Count       int             `json:"count"`
	ByCategory  []CategoryTotal `json:"by_category"`
}
