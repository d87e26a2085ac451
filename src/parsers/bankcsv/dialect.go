// backend/src/parsers/bankcsv/dialect.go
package bankcsv

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingRequiredColumn is returned when a header row carries no
// recognizable date column, or neither a debit nor a credit column.
var ErrMissingRequiredColumn = errors.New("missing required column")

// ColumnMapping resolves header positions to semantic statement fields.
// An index of -1 means the dialect does not carry that field.
type ColumnMapping struct {
	Date      int
	Narration int
	Debit     int
	Credit    int
	Balance   int
	Reference int
	Columns   int // header width, used to reject ragged rows
}

// columnAliases is the declarative dialect table. Each semantic field lists its
// known header spellings in priority order; detection is a case-insensitive
// substring match, first match wins, independently per field. Supporting a new
// bank export means adding aliases here, not new detection logic.
var columnAliases = map[string][]string{
	"date":      {"txn date", "transaction date", "value date", "date"},
	"narration": {"narration", "description", "particulars", "details", "remarks"},
	"debit":     {"withdrawal", "debit", "dr amount", "dr"},
	"credit":    {"deposit", "credit", "cr amount", "cr"},
	"balance":   {"balance", "closing"},
	"reference": {"ref no", "reference", "cheque no", "chq", "utr"},
}

func findColumn(headers []string, field string) int {
	for _, alias := range columnAliases[field] {
		for i, h := range headers {
			if strings.Contains(strings.ToLower(strings.TrimSpace(h)), alias) {
				return i
			}
		}
	}
	return -1
}

// DetectDialect infers which header position carries each semantic field.
// Designed for single-currency domestic retail bank statement exports.
func DetectDialect(headers []string) (ColumnMapping, error) {
	mapping := ColumnMapping{
		Date:      findColumn(headers, "date"),
		Narration: findColumn(headers, "narration"),
		Debit:     findColumn(headers, "debit"),
		Credit:    findColumn(headers, "credit"),
		Balance:   findColumn(headers, "balance"),
		Reference: findColumn(headers, "reference"),
		Columns:   len(headers),
	}

	if mapping.Date == -1 {
		return ColumnMapping{}, fmt.Errorf("%w: no date column in header %v", ErrMissingRequiredColumn, headers)
	}
	if mapping.Debit == -1 && mapping.Credit == -1 {
		return ColumnMapping{}, fmt.Errorf("%w: neither debit nor credit column in header %v", ErrMissingRequiredColumn, headers)
	}
	return mapping, nil
}
