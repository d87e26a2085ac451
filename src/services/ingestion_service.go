// backend/src/services/ingestion_service.go
package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/username/finlens/backend/src/logger"
	"github.com/username/finlens/backend/src/models"
	"github.com/username/finlens/backend/src/parsers/aggregator"
	"github.com/username/finlens/backend/src/parsers/bankcsv"
	"github.com/username/finlens/backend/src/security/validation"
)

const (
	ckTransactionSummary   = "agg_transaction_summary_user_%d_%s_%s"
	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

type ingestionServiceImpl struct {
	csvParser        *bankcsv.Parser
	aggregatorParser *aggregator.Parser
	txStore          TransactionStore
	consentService   ConsentService
	aggregatorClient AggregatorClient
	summaryCache     *cache.Cache
}

func NewIngestionService(
	csvParser *bankcsv.Parser,
	aggregatorParser *aggregator.Parser,
	txStore TransactionStore,
	consentService ConsentService,
	aggregatorClient AggregatorClient,
	summaryCache *cache.Cache,
) IngestionService {
	return &ingestionServiceImpl{
		csvParser:        csvParser,
		aggregatorParser: aggregatorParser,
		txStore:          txStore,
		consentService:   consentService,
		aggregatorClient: aggregatorClient,
		summaryCache:     summaryCache,
	}
}

// Ingest persists a batch record by record. A duplicate (externalID, userID)
// key counts as skipped; any other store failure is collected per record. One
// bad record never blocks the rest of the batch.
func (s *ingestionServiceImpl) Ingest(records []models.NormalizedTransaction) models.IngestionResult {
	result := models.IngestionResult{}
	for i := range records {
		records[i].Narration = validation.SanitizeText(records[i].Narration)
		records[i].Merchant = validation.SanitizeText(records[i].Merchant)

		saved, err := s.txStore.Insert(&records[i])
		switch {
		case err != nil:
			result.Errors = append(result.Errors,
				fmt.Sprintf("record %s: %v", records[i].ExternalID, err))
		case saved:
			result.SavedCount++
		default:
			result.SkippedCount++
		}
	}
	return result
}

// IngestUpload runs the CSV path: parse -> classify -> dedupe-persist.
// Row-level failures are reported alongside the persisted records; a
// structural failure (no header, unknown dialect) aborts with zero records.
func (s *ingestionServiceImpl) IngestUpload(fileReader io.Reader, userID int64, accountHint string) (*models.IngestionResult, error) {
	content, err := io.ReadAll(fileReader)
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}

	records, rowErrors, summary, err := s.csvParser.Parse(string(content), userID, accountHint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	result := s.Ingest(records)
	result.RowErrors = rowErrors
	result.Summary = summary

	s.InvalidateUserCache(userID)
	logger.L.Info("CSV upload ingested", "userID", userID,
		"saved", result.SavedCount, "skipped", result.SkippedCount,
		"rowErrors", len(rowErrors))
	return &result, nil
}

// IngestAggregator runs the consented path. The consent is loaded, integrity
// checked (a mismatch is tampering and fails loudly), and checked for
// usability before any fetch happens. An approved consent found past its
// expiry gets its EXPIRED version appended here.
func (s *ingestionServiceImpl) IngestAggregator(ctx context.Context, userID int64, consentID string) (*models.IngestionResult, error) {
	consent, err := s.consentService.Latest(consentID)
	if err != nil {
		return nil, err
	}
	if consent.UserID != userID {
		return nil, ErrConsentOwnerMismatch
	}
	if !s.consentService.Verify(consent) {
		logger.L.Error("Consent integrity verification failed", "consentID", consentID, "version", consent.Version)
		return nil, fmt.Errorf("%w: consent %s v%d", ErrConsentIntegrityViolation, consentID, consent.Version)
	}
	if !s.consentService.IsUsableForIngestion(consent) {
		if consent.Status == models.ConsentApproved && consent.ExpiresAt.Before(time.Now()) {
			if _, expireErr := s.consentService.MarkExpired(consentID); expireErr != nil {
				logger.L.Error("Failed to append expired consent version", "consentID", consentID, "error", expireErr)
			}
		}
		return nil, fmt.Errorf("%w: consent %s is %s", ErrConsentExpiredOrUnapproved, consentID, consent.Status)
	}

	payload, err := s.aggregatorClient.FetchFinancialData(ctx, consent)
	if err != nil {
		return nil, fmt.Errorf("fetching financial data for consent %s: %w", consentID, err)
	}

	records := s.aggregatorParser.Parse(payload, userID, consentID)
	result := s.Ingest(records)
	result.Summary = summarizeRecords(records)

	s.InvalidateUserCache(userID)
	logger.L.Info("Aggregator payload ingested", "userID", userID, "consentID", consentID,
		"saved", result.SavedCount, "skipped", result.SkippedCount)
	return &result, nil
}

func summarizeRecords(records []models.NormalizedTransaction) models.ParseSummary {
	summary := models.ParseSummary{
		TotalRows:   len(records),
		ParsedRows:  len(records),
		TotalCredit: decimal.Zero,
		TotalDebit:  decimal.Zero,
	}
	for _, r := range records {
		if r.Direction == models.DirectionCredit {
			summary.TotalCredit = summary.TotalCredit.Add(r.Amount)
		} else {
			summary.TotalDebit = summary.TotalDebit.Add(r.Amount)
		}
	}
	return summary
}

func (s *ingestionServiceImpl) GetTransactions(userID int64, from, to time.Time) ([]models.NormalizedTransaction, error) {
	return s.txStore.ListByUser(userID, from, to)
}

func (s *ingestionServiceImpl) GetSummary(userID int64, from, to time.Time) (*models.TransactionSummary, error) {
	cacheKey := fmt.Sprintf(ckTransactionSummary, userID, from.Format("20060102"), to.Format("20060102"))
	if cached, found := s.summaryCache.Get(cacheKey); found {
		return cached.(*models.TransactionSummary), nil
	}

	txs, err := s.txStore.ListByUser(userID, from, to)
	if err != nil {
		return nil, err
	}

	summary := &models.TransactionSummary{
		TotalCredit: decimal.Zero,
		TotalDebit:  decimal.Zero,
		Count:       len(txs),
	}
	byCategory := make(map[string]*models.CategoryTotal)
	for _, tx := range txs {
		ct, ok := byCategory[tx.Category]
		if !ok {
			ct = &models.CategoryTotal{
				Category:    tx.Category,
				TotalCredit: decimal.Zero,
				TotalDebit:  decimal.Zero,
			}
			byCategory[tx.Category] = ct
		}
		ct.Count++
		if tx.Direction == models.DirectionCredit {
			summary.TotalCredit = summary.TotalCredit.Add(tx.Amount)
			ct.TotalCredit = ct.TotalCredit.Add(tx.Amount)
		} else {
			summary.TotalDebit = summary.TotalDebit.Add(tx.Amount)
			ct.TotalDebit = ct.TotalDebit.Add(tx.Amount)
		}
	}
	for _, ct := range byCategory {
		summary.ByCategory = append(summary.ByCategory, *ct)
	}
	sort.Slice(summary.ByCategory, func(i, j int) bool {
		return summary.ByCategory[i].Category < summary.ByCategory[j].Category
	})

	s.summaryCache.Set(cacheKey, summary, cache.DefaultExpiration)
	return summary, nil
}

// InvalidateUserCache drops every cached aggregate for a user after new data
// lands.
func (s *ingestionServiceImpl) InvalidateUserCache(userID int64) {
	prefix := fmt.Sprintf("agg_transaction_summary_user_%d_", userID)
	for key := range s.summaryCache.Items() {
		if strings.HasPrefix(key, prefix) {
			s.summaryCache.Delete(key)
		}
	}
}
