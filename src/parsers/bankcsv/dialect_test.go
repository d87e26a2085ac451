package bankcsv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectDialectReferenceSchema(t *testing.T) {
	mapping, err := DetectDialect([]string{"Date", "Description", "Debit", "Credit", "Balance", "Reference"})
	require.NoError(t, err)

	assert.Equal(t, 0, mapping.Date)
	assert.Equal(t, 1, mapping.Narration)
	assert.Equal(t, 2, mapping.Debit)
	assert.Equal(t, 3, mapping.Credit)
	assert.Equal(t, 4, mapping.Balance)
	assert.Equal(t, 5, mapping.Reference)
	assert.Equal(t, 6, mapping.Columns)
}

func TestDetectDialectBankVariants(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		check   func(t *testing.T, m ColumnMapping)
	}{
		{
			name:    "hdfc style",
			headers: []string{"Txn Date", "Narration", "Chq/Ref No", "Withdrawal Amt", "Deposit Amt", "Closing Balance"},
			check: func(t *testing.T, m ColumnMapping) {
				assert.Equal(t, 0, m.Date)
				assert.Equal(t, 1, m.Narration)
				assert.Equal(t, 2, m.Reference)
				assert.Equal(t, 3, m.Debit)
				assert.Equal(t, 4, m.Credit)
				assert.Equal(t, 5, m.Balance)
			},
		},
		{
			name:    "sbi style",
			headers: []string{"Value Date", "Particulars", "DR", "CR", "Balance"},
			check: func(t *testing.T, m ColumnMapping) {
				assert.Equal(t, 0, m.Date)
				assert.Equal(t, 1, m.Narration)
				assert.Equal(t, 2, m.Debit)
				assert.Equal(t, 3, m.Credit)
				assert.Equal(t, 4, m.Balance)
				assert.Equal(t, -1, m.Reference)
			},
		},
		{
			name:    "credit only card export",
			headers: []string{"Transaction Date", "Details", "Credit Amount"},
			check: func(t *testing.T, m ColumnMapping) {
				assert.Equal(t, 0, m.Date)
				assert.Equal(t, 1, m.Narration)
				assert.Equal(t, -1, m.Debit)
				assert.Equal(t, 2, m.Credit)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapping, err := DetectDialect(tt.headers)
			require.NoError(t, err)
			tt.check(t, mapping)
		})
	}
}

func TestDetectDialectCaseInsensitive(t *testing.T) {
	mapping, err := DetectDialect([]string{"DATE", "DESCRIPTION", "DEBIT", "CREDIT"})
	require.NoError(t, err)
	assert.Equal(t, 0, mapping.Date)
	assert.Equal(t, 2, mapping.Debit)
}

func TestDetectDialectMissingColumns(t *testing.T) {
	t.Run("no date column", func(t *testing.T) {
		_, err := DetectDialect([]string{"Description", "Debit", "Credit"})
		assert.ErrorIs(t, err, ErrMissingRequiredColumn)
	})

	t.Run("neither debit nor credit", func(t *testing.T) {
		_, err := DetectDialect([]string{"Date", "Description", "Balance"})
		assert.ErrorIs(t, err, ErrMissingRequiredColumn)
	})
}
