package bankcsv

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/finlens/backend/src/logger"
	"github.com/username/finlens/backend/src/models"
	"github.com/username/finlens/backend/src/processors"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

const sampleStatement = `Date,Description,Debit,Credit,Balance,Reference
01-11-2024,SALARY CREDIT NOV 2024,,50000.00,75000.00,SAL2024110101
03-11-2024,UPI-SWIGGY-ORDER123,450.00,,74550.00,UPI412345
05-11-2024,NEFT-HOUSE RENT NOV,12000.00,,62550.00,NEFT99821
10-11-2024,HDFC LOAN EMI 042,8000.00,,54550.00,ACH55123
15-11-2024,UPI-AMAZON PAY-PAYMENT123,2550.00,,52000.00,UPI412999
30-11-2024,INT.PD:01-11-2024 TO 30-11-2024,,125.50,52125.50,
`

func newTestParser() *Parser {
	return NewParser(processors.NewClassifier(), "INR")
}

func TestParseSampleStatement(t *testing.T) {
	records, rowErrors, summary, err := newTestParser().Parse(sampleStatement, 42, "50100012341234")
	require.NoError(t, err)
	require.Empty(t, rowErrors)
	require.Len(t, records, 6)

	assert.Equal(t, 6, summary.TotalRows)
	assert.Equal(t, 6, summary.ParsedRows)
	assert.Equal(t, 0, summary.FailedRows)
	assert.Equal(t, "50125.5", summary.TotalCredit.String())
	assert.Equal(t, "23000", summary.TotalDebit.String())

	salary := records[0]
	assert.Equal(t, "SAL2024110101", salary.ExternalID)
	assert.Equal(t, int64(42), salary.UserID)
	assert.Equal(t, models.DirectionCredit, salary.Direction)
	assert.Equal(t, "50000", salary.Amount.String())
	assert.Equal(t, "Income", salary.Category)
	assert.Equal(t, "Salary", salary.Subcategory)
	assert.Equal(t, date(2024, 11, 1), salary.Timestamp)
	assert.Equal(t, "XXXXXXXXXX1234", salary.SourceAccount)
	assert.True(t, salary.HasBalance)
	assert.Equal(t, "75000", salary.BalanceAfter.String())
	assert.Equal(t, "INR", salary.Currency)
	assert.Equal(t, models.SourceBankAccount, salary.SourceType)

	swiggy := records[1]
	assert.Equal(t, models.DirectionDebit, swiggy.Direction)
	assert.Equal(t, "Food", swiggy.Category)
	assert.Equal(t, "Dining", swiggy.Subcategory)
	assert.Equal(t, models.ModeUPI, swiggy.PaymentMode)
	assert.Equal(t, "SWIGGY", swiggy.Merchant)

	interest := records[5]
	assert.Equal(t, models.DirectionCredit, interest.Direction)
	assert.Equal(t, "Income", interest.Category)
	assert.Equal(t, "Interest", interest.Subcategory)
}

func TestParseSynthesizesExternalIDWithoutReference(t *testing.T) {
	records, rowErrors, _, err := newTestParser().Parse(sampleStatement, 42, "")
	require.NoError(t, err)
	require.Empty(t, rowErrors)

	// Last row has no reference value.
	assert.Equal(t, "CSV-42-20241130-6", records[5].ExternalID)

	// Synthesized keys stay unique across reference-less rows.
	seen := map[string]bool{}
	for _, rec := range records {
		assert.False(t, seen[rec.ExternalID], "duplicate external id %s", rec.ExternalID)
		seen[rec.ExternalID] = true
	}
}

func TestParseQuotedFields(t *testing.T) {
	content := "Date,Description,Debit,Credit,Balance,Reference\n" +
		`02-11-2024,"UPI-BIG BAZAAR, MUMBAI-55412",899.00,,51000.00,UPI88991` + "\n"

	records, rowErrors, _, err := newTestParser().Parse(content, 7, "")
	require.NoError(t, err)
	require.Empty(t, rowErrors)
	require.Len(t, records, 1)

	// Quotes are stripped; the delimiter inside them is preserved.
	assert.Equal(t, "UPI-BIG BAZAAR, MUMBAI-55412", records[0].Narration)
	assert.Equal(t, "899", records[0].Amount.String())
}

func TestParseCollectsRowErrors(t *testing.T) {
	content := `Date,Description,Debit,Credit,Balance,Reference
01-11-2024,GOOD ROW,100.00,,900.00,REF1
bad-date,BROKEN DATE,50.00,,850.00,REF2
02-11-2024,NO AMOUNTS,,,850.00,REF3
03-11-2024,RAGGED ROW,25.00,,825.00
04-11-2024,ANOTHER GOOD ROW,,200.00,1025.00,REF5
`
	records, rowErrors, summary, err := newTestParser().Parse(content, 1, "")
	require.NoError(t, err)

	require.Len(t, records, 2)
	require.Len(t, rowErrors, 3)
	assert.Equal(t, 5, summary.TotalRows)
	assert.Equal(t, 2, summary.ParsedRows)
	assert.Equal(t, 3, summary.FailedRows)

	assert.Contains(t, rowErrors[0], "row 2")
	assert.Contains(t, rowErrors[1], "row 3")
	assert.Contains(t, rowErrors[1], "neither debit nor credit")
	assert.Contains(t, rowErrors[2], "row 4")
	assert.Contains(t, rowErrors[2], "expected 6 fields")
}

func TestParseStructuralFailures(t *testing.T) {
	t.Run("empty content", func(t *testing.T) {
		_, _, _, err := newTestParser().Parse("", 1, "")
		assert.ErrorIs(t, err, ErrEmptyStatement)
	})

	t.Run("whitespace only", func(t *testing.T) {
		_, _, _, err := newTestParser().Parse("\n\n  \n", 1, "")
		assert.ErrorIs(t, err, ErrEmptyStatement)
	})

	t.Run("unrecognizable header", func(t *testing.T) {
		_, _, _, err := newTestParser().Parse("foo,bar,baz\n1,2,3\n", 1, "")
		assert.ErrorIs(t, err, ErrMissingRequiredColumn)
	})
}

func TestParseSkipsBlankLines(t *testing.T) {
	content := "Date,Description,Debit,Credit,Balance,Reference\n\n01-11-2024,ROW,10.00,,90.00,R1\n\n"
	records, rowErrors, summary, err := newTestParser().Parse(content, 1, "")
	require.NoError(t, err)
	assert.Empty(t, rowErrors)
	assert.Len(t, records, 1)
	assert.Equal(t, 1, summary.TotalRows)
}
