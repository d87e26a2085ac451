// backend/src/model/transaction_store.go
package model

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/finlens/backend/src/models"
)

// TransactionStore persists normalized transactions. The unique index on
// (external_id, user_id) is the idempotency contract: inserting a key that
// already exists is reported as a skip, never as an update.
type TransactionStore struct {
	db *sql.DB
}

func NewTransactionStore(db *sql.DB) *TransactionStore {
	return &TransactionStore{db: db}
}

// Insert writes one transaction. Returns (false, nil) when the
// (external_id, user_id) pair already exists.
func (s *TransactionStore) Insert(tx *models.NormalizedTransaction) (bool, error) {
	var balance any
	if tx.HasBalance {
		balance = tx.BalanceAfter.StringFixed(2)
	}
	var consentRef any
	if tx.ConsentRef != "" {
		consentRef = tx.ConsentRef
	}

	query := `
	INSERT OR IGNORE INTO transactions (
		external_id, user_id, consent_ref, timestamp, amount, direction,
		merchant, category, subcategory, source_type, source_account,
		payment_mode, reference, narration, balance_after, currency,
		raw_payload, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := s.db.Exec(query,
		tx.ExternalID,
		tx.UserID,
		consentRef,
		tx.Timestamp.UTC().Format(time.RFC3339),
		tx.Amount.StringFixed(2),
		string(tx.Direction),
		tx.Merchant,
		tx.Category,
		tx.Subcategory,
		string(tx.SourceType),
		tx.SourceAccount,
		string(tx.PaymentMode),
		tx.Reference,
		tx.Narration,
		balance,
		tx.Currency,
		tx.RawPayload,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return false, fmt.Errorf("inserting transaction %s/%d: %w", tx.ExternalID, tx.UserID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

const transactionColumns = `
	id, external_id, user_id, COALESCE(consent_ref, ''), timestamp, amount,
	direction, merchant, category, subcategory, source_type, source_account,
	payment_mode, reference, narration, balance_after, currency, raw_payload,
	created_at`

func scanTransaction(row interface{ Scan(...any) error }) (models.NormalizedTransaction, error) {
	var tx models.NormalizedTransaction
	var timestamp, amount, direction, sourceType, paymentMode, createdAt string
	var balance sql.NullString

	err := row.Scan(
		&tx.ID, &tx.ExternalID, &tx.UserID, &tx.ConsentRef, &timestamp, &amount,
		&direction, &tx.Merchant, &tx.Category, &tx.Subcategory, &sourceType,
		&tx.SourceAccount, &paymentMode, &tx.Reference, &tx.Narration, &balance,
		&tx.Currency, &tx.RawPayload, &createdAt,
	)
	if err != nil {
		return tx, err
	}

	if tx.Timestamp, err = time.Parse(time.RFC3339, timestamp); err != nil {
		return tx, fmt.Errorf("parsing stored timestamp %q: %w", timestamp, err)
	}
	if tx.Amount, err = decimal.NewFromString(amount); err != nil {
		return tx, fmt.Errorf("parsing stored amount %q: %w", amount, err)
	}
	if balance.Valid {
		if tx.BalanceAfter, err = decimal.NewFromString(balance.String); err != nil {
			return tx, fmt.Errorf("parsing stored balance %q: %w", balance.String, err)
		}
		tx.HasBalance = true
	}
	tx.Direction = models.Direction(direction)
	tx.SourceType = models.SourceType(sourceType)
	tx.PaymentMode = models.PaymentMode(paymentMode)
	tx.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return tx, nil
}

// ListByUser returns a user's transactions, optionally bounded by an
// inclusive date range, newest first.
func (s *TransactionStore) ListByUser(userID int64, from, to time.Time) ([]models.NormalizedTransaction, error) {
	query := fmt.Sprintf("SELECT %s FROM transactions WHERE user_id = ?", transactionColumns)
	args := []any{userID}
	if !from.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, from.UTC().Format(time.RFC3339))
	}
	if !to.IsZero() {
		query += " AND timestamp <= ?"
		args = append(args, to.UTC().Format(time.RFC3339))
	}
	query += " ORDER BY timestamp DESC, id DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying transactions for user %d: %w", userID, err)
	}
	defer rows.Close()

	var txs []models.NormalizedTransaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// CountByUser returns the number of stored transactions for one user.
func (s *TransactionStore) CountByUser(userID int64) (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM transactions WHERE user_id = ?", userID).Scan(&count)
	return count, err
}
