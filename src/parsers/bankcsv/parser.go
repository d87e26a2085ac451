// backend/src/parsers/bankcsv/parser.go
package bankcsv

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/username/finlens/backend/src/logger"
	"github.com/username/finlens/backend/src/models"
	"github.com/username/finlens/backend/src/processors"
	"github.com/username/finlens/backend/src/utils"
)

// ErrEmptyStatement is returned when the uploaded content has no header row.
var ErrEmptyStatement = errors.New("statement has no header row")

// Parser converts delimited bank statement exports into normalized
// transactions. Dialect detection, date and amount normalization, and
// classification of each row all happen here; persistence does not.
type Parser struct {
	classifier      *processors.Classifier
	delimiter       rune
	defaultCurrency string
}

// NewParser creates a comma-delimited statement parser.
func NewParser(classifier *processors.Classifier, defaultCurrency string) *Parser {
	return &Parser{
		classifier:      classifier,
		delimiter:       ',',
		defaultCurrency: defaultCurrency,
	}
}

// splitLine splits one statement line on the delimiter, honoring quoted
// fields: a quote toggles the in-quote state, a delimiter inside quotes is
// literal, and quotes themselves are stripped from the output.
func (p *Parser) splitLine(line string) []string {
	var fields []string
	var current strings.Builder
	inQuotes := false

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == p.delimiter && !inQuotes:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	fields = append(fields, current.String())
	return fields
}

func fieldAt(fields []string, idx int) string {
	if idx < 0 || idx >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[idx])
}

// Parse converts raw delimited text into normalized transactions. Rows that
// fail validation are reported as indexed error strings and excluded from the
// output; a structural failure (no header, unrecognizable dialect) aborts the
// whole statement instead. Partial success is explicit, never silent.
func (p *Parser) Parse(content string, userID int64, accountHint string) ([]models.NormalizedTransaction, []string, models.ParseSummary, error) {
	summary := models.ParseSummary{
		TotalCredit: decimal.Zero,
		TotalDebit:  decimal.Zero,
	}

	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	var headerLine string
	var dataStart int
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			headerLine = line
			dataStart = i + 1
			break
		}
	}
	if headerLine == "" {
		return nil, nil, summary, ErrEmptyStatement
	}

	mapping, err := DetectDialect(p.splitLine(headerLine))
	if err != nil {
		return nil, nil, summary, err
	}

	maskedAccount := utils.MaskAccountNumber(accountHint)

	var records []models.NormalizedTransaction
	var rowErrors []string

	for i, line := range lines[dataStart:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		rowNum := i + 1
		summary.TotalRows++

		fields := p.splitLine(line)
		if len(fields) != mapping.Columns {
			summary.FailedRows++
			rowErrors = append(rowErrors, fmt.Sprintf("row %d: expected %d fields, got %d", rowNum, mapping.Columns, len(fields)))
			continue
		}

		timestamp, err := ParseDate(fieldAt(fields, mapping.Date))
		if err != nil {
			summary.FailedRows++
			rowErrors = append(rowErrors, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}

		debit := ParseAmount(fieldAt(fields, mapping.Debit))
		credit := ParseAmount(fieldAt(fields, mapping.Credit))
		if debit.IsZero() && credit.IsZero() {
			summary.FailedRows++
			rowErrors = append(rowErrors, fmt.Sprintf("row %d: neither debit nor credit amount present", rowNum))
			continue
		}

		direction := models.DirectionDebit
		amount := debit
		if credit.GreaterThan(decimal.Zero) {
			direction = models.DirectionCredit
			amount = credit
		}

		narration := fieldAt(fields, mapping.Narration)
		reference := fieldAt(fields, mapping.Reference)

		externalID := reference
		if externalID == "" {
			// Reference-less exports still need a stable idempotency key.
			externalID = fmt.Sprintf("CSV-%d-%s-%d", userID, timestamp.Format("20060102"), rowNum)
		}

		category, subcategory := p.classifier.Categorize(narration)

		record := models.NormalizedTransaction{
			ExternalID:    externalID,
			UserID:        userID,
			Timestamp:     timestamp,
			Amount:        amount,
			Direction:     direction,
			Merchant:      p.classifier.ExtractMerchant(narration),
			Category:      category,
			Subcategory:   subcategory,
			SourceType:    models.SourceBankAccount,
			SourceAccount: maskedAccount,
			PaymentMode:   p.classifier.DetectPaymentMode(narration),
			Reference:     reference,
			Narration:     narration,
			Currency:      p.defaultCurrency,
			RawPayload:    line,
		}
		if mapping.Balance != -1 {
			if balText := fieldAt(fields, mapping.Balance); balText != "" {
				record.BalanceAfter = ParseAmount(balText)
				record.HasBalance = true
			}
		}

		records = append(records, record)
		summary.ParsedRows++
		if direction == models.DirectionCredit {
			summary.TotalCredit = summary.TotalCredit.Add(amount)
		} else {
			summary.TotalDebit = summary.TotalDebit.Add(amount)
		}
	}

	if len(rowErrors) > 0 {
		logger.L.Warn("Statement parsed with row errors", "userID", userID, "failedRows", summary.FailedRows, "parsedRows", summary.ParsedRows)
	}

	return records, rowErrors, summary, nil
}
