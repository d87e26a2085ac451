// backend/src/parsers/aggregator/parser.go
package aggregator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/username/finlens/backend/src/logger"
	"github.com/username/finlens/backend/src/models"
	"github.com/username/finlens/backend/src/parsers/bankcsv"
	"github.com/username/finlens/backend/src/processors"
)

// Parser flattens the nested FI payload returned by the aggregator gateway
// into normalized transactions. Absence of any nested branch degrades to an
// empty result for that branch; one malformed provider must never block the
// others.
type Parser struct {
	classifier      *processors.Classifier
	defaultCurrency string
}

func NewParser(classifier *processors.Classifier, defaultCurrency string) *Parser {
	return &Parser{classifier: classifier, defaultCurrency: defaultCurrency}
}

func sourceTypeFor(accountType string) models.SourceType {
	switch strings.ToLower(strings.TrimSpace(accountType)) {
	case "deposit", "savings", "current", "bank_account":
		return models.SourceBankAccount
	case "credit_card", "creditcard", "card":
		return models.SourceCreditCard
	case "loan", "term_loan":
		return models.SourceLoan
	case "mutual_fund", "mutualfund", "mf":
		return models.SourceMutualFund
	case "insurance":
		return models.SourceInsurance
	default:
		return models.SourceOther
	}
}

// Parse walks provider -> account -> transactions and, for loan accounts,
// provider -> account -> loan -> EMI schedule.
func (p *Parser) Parse(payload *models.AggregatorPayload, userID int64, consentID string) []models.NormalizedTransaction {
	if payload == nil {
		return nil
	}

	var records []models.NormalizedTransaction
	for _, fip := range payload.FIPs {
		for _, account := range fip.Accounts {
			records = append(records, p.parseAccountTransactions(fip.FipID, account, userID, consentID)...)
			if account.Loan != nil {
				records = append(records, p.parseEMISchedule(account, userID, consentID)...)
			}
		}
	}
	return records
}

func (p *Parser) parseAccountTransactions(fipID string, account models.AccountData, userID int64, consentID string) []models.NormalizedTransaction {
	sourceType := sourceTypeFor(account.AccountType)
	currency := account.Currency
	if currency == "" {
		currency = p.defaultCurrency
	}

	var records []models.NormalizedTransaction
	for _, txn := range account.Transactions {
		timestamp, err := bankcsv.ParseDate(txn.ValueDate)
		if err != nil {
			logger.L.Warn("Skipping aggregator transaction with unparseable date",
				"fipID", fipID, "txnID", txn.TxnID, "valueDate", txn.ValueDate)
			continue
		}

		amount := bankcsv.ParseAmount(txn.Amount)
		if amount.IsZero() {
			logger.L.Warn("Skipping aggregator transaction with zero amount", "fipID", fipID, "txnID", txn.TxnID)
			continue
		}

		direction := models.DirectionDebit
		if strings.EqualFold(txn.Type, "CREDIT") {
			direction = models.DirectionCredit
		}

		category, subcategory := p.classifier.Categorize(txn.Narration)
		mode := p.classifier.DetectPaymentMode(txn.Narration)
		if mode == models.ModeOther && txn.Mode != "" {
			mode = p.classifier.DetectPaymentMode(txn.Mode)
		}

		raw, _ := json.Marshal(txn)

		record := models.NormalizedTransaction{
			ExternalID:    txn.TxnID,
			UserID:        userID,
			ConsentRef:    consentID,
			Timestamp:     timestamp,
			Amount:        amount,
			Direction:     direction,
			Merchant:      p.classifier.ExtractMerchant(txn.Narration),
			Category:      category,
			Subcategory:   subcategory,
			SourceType:    sourceType,
			SourceAccount: account.MaskedAccountNumber,
			PaymentMode:   mode,
			Reference:     txn.Reference,
			Narration:     txn.Narration,
			Currency:      currency,
			RawPayload:    string(raw),
		}
		if txn.CurrentBalance != "" {
			record.BalanceAfter = bankcsv.ParseAmount(txn.CurrentBalance)
			record.HasBalance = true
		}
		records = append(records, record)
	}
	return records
}

func (p *Parser) parseEMISchedule(account models.AccountData, userID int64, consentID string) []models.NormalizedTransaction {
	currency := account.Currency
	if currency == "" {
		currency = p.defaultCurrency
	}

	var records []models.NormalizedTransaction
	for _, emi := range account.Loan.EMIs {
		dueDate, err := bankcsv.ParseDate(emi.DueDate)
		if err != nil {
			logger.L.Warn("Skipping EMI entry with unparseable due date",
				"account", account.MaskedAccountNumber, "dueDate", emi.DueDate)
			continue
		}

		amount := bankcsv.ParseAmount(emi.Amount)
		if amount.IsZero() {
			continue
		}

		externalID := emi.TxnID
		if externalID == "" {
			// EMI schedules rarely carry provider ids; synthesize a stable one.
			externalID = fmt.Sprintf("EMI-%s-%s", account.MaskedAccountNumber, dueDate.Format("20060102"))
		}

		narration := fmt.Sprintf("EMI %s %s", account.Loan.LoanType, emi.Status)
		raw, _ := json.Marshal(emi)

		records = append(records, models.NormalizedTransaction{
			ExternalID:    externalID,
			UserID:        userID,
			ConsentRef:    consentID,
			Timestamp:     dueDate,
			Amount:        amount,
			Direction:     models.DirectionDebit,
			Category:      "Debt",
			Subcategory:   "EMI",
			SourceType:    models.SourceLoan,
			SourceAccount: account.MaskedAccountNumber,
			PaymentMode:   models.ModeAutoDebit,
			Narration:     strings.TrimSpace(narration),
			Currency:      currency,
			RawPayload:    string(raw),
		})
	}
	return records
}
