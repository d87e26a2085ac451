package services

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/finlens/backend/src/logger"
	"github.com/username/finlens/backend/src/model"
	"github.com/username/finlens/backend/src/models"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

// fakeConsentStore is an in-memory append-only stand-in for the sqlite store.
type fakeConsentStore struct {
	records []models.ConsentRecord
	nextID  int64
}

func (f *fakeConsentStore) Append(record *models.ConsentRecord) error {
	f.nextID++
	record.ID = f.nextID
	record.CreatedAt = time.Now().UTC()
	f.records = append(f.records, *record)
	return nil
}

func (f *fakeConsentStore) Latest(consentID string) (models.ConsentRecord, error) {
	var latest models.ConsentRecord
	found := false
	for _, r := range f.records {
		if r.ConsentID == consentID && (!found || r.Version > latest.Version) {
			latest = r
			found = true
		}
	}
	if !found {
		return models.ConsentRecord{}, model.ErrConsentNotFound
	}
	return latest, nil
}

func (f *fakeConsentStore) History(consentID string) ([]models.ConsentRecord, error) {
	var history []models.ConsentRecord
	for _, r := range f.records {
		if r.ConsentID == consentID {
			history = append(history, r)
		}
	}
	if len(history) == 0 {
		return nil, model.ErrConsentNotFound
	}
	return history, nil
}

func (f *fakeConsentStore) ListByUser(userID int64) ([]models.ConsentRecord, error) {
	byConsent := make(map[string]models.ConsentRecord)
	for _, r := range f.records {
		if r.UserID != userID {
			continue
		}
		if latest, ok := byConsent[r.ConsentID]; !ok || r.Version > latest.Version {
			byConsent[r.ConsentID] = r
		}
	}
	var out []models.ConsentRecord
	for _, r := range byConsent {
		out = append(out, r)
	}
	return out, nil
}

func testConsentConfig() ConsentConfig {
	return ConsentConfig{
		Validity:     90 * 24 * time.Hour,
		PurposeCode:  "101",
		ProviderID:   "FIP-TEST",
		RedirectBase: "https://aggregator.example/authorize",
	}
}

func newTestConsentService() (ConsentService, *fakeConsentStore) {
	store := &fakeConsentStore{}
	return NewConsentService(store, testConsentConfig()), store
}

func initiateTestConsent(t *testing.T, svc ConsentService, userID int64) *InitiateConsentResult {
	t.Helper()
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	result, err := svc.Initiate(userID, "9876543210", []string{"DEPOSIT", "TERM_DEPOSIT"}, from, to)
	require.NoError(t, err)
	return result
}

func TestInitiateCreatesPendingVersionOne(t *testing.T) {
	svc, store := newTestConsentService()
	result := initiateTestConsent(t, svc, 42)

	assert.NotEmpty(t, result.ConsentID)
	assert.NotEmpty(t, result.ConsentHandle)
	assert.Contains(t, result.AuthorizationURL, "handle="+result.ConsentHandle)

	require.Len(t, store.records, 1)
	record := store.records[0]
	assert.Equal(t, models.ConsentPending, record.Status)
	assert.Equal(t, 1, record.Version)
	assert.Equal(t, int64(42), record.UserID)
	assert.Equal(t, "101", record.PurposeCode)
	assert.True(t, svc.Verify(record))
}

func TestCallbackAppendsNewVersion(t *testing.T) {
	svc, store := newTestConsentService()
	result := initiateTestConsent(t, svc, 42)

	approved, err := svc.RecordCallback(result.ConsentID, models.ConsentApproved, `{"status":"APPROVED"}`)
	require.NoError(t, err)
	assert.Equal(t, 2, approved.Version)
	assert.Equal(t, models.ConsentApproved, approved.Status)
	assert.Equal(t, store.records[0].ID, approved.ParentVersionRef)
	assert.True(t, svc.Verify(*approved))

	// The prior version is untouched and both versions are in the chain.
	history, err := svc.History(result.ConsentID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.ConsentPending, history[0].Status)
	assert.Equal(t, models.ConsentApproved, history[1].Status)
	assert.NotEqual(t, history[0].IntegrityHash, history[1].IntegrityHash)

	// Only the latest version authorizes ingestion.
	assert.False(t, svc.IsUsableForIngestion(history[0]))
	assert.True(t, svc.IsUsableForIngestion(history[1]))
}

func TestDuplicateCallbackIsIgnored(t *testing.T) {
	svc, store := newTestConsentService()
	result := initiateTestConsent(t, svc, 42)

	first, err := svc.RecordCallback(result.ConsentID, models.ConsentApproved, `{"status":"APPROVED"}`)
	require.NoError(t, err)

	// Redelivery of the same callback returns the existing version.
	second, err := svc.RecordCallback(result.ConsentID, models.ConsentApproved, `{"status":"APPROVED"}`)
	require.NoError(t, err)
	assert.Equal(t, first.Version, second.Version)
	assert.Len(t, store.records, 2)
}

func TestInvalidTransitionsRejected(t *testing.T) {
	svc, _ := newTestConsentService()
	result := initiateTestConsent(t, svc, 42)

	// PENDING cannot be revoked or expired.
	_, err := svc.Revoke(result.ConsentID)
	assert.ErrorIs(t, err, ErrInvalidConsentTransition)
	_, err = svc.MarkExpired(result.ConsentID)
	assert.ErrorIs(t, err, ErrInvalidConsentTransition)

	// Callbacks may only report APPROVED or REJECTED.
	_, err = svc.RecordCallback(result.ConsentID, models.ConsentRevoked, "")
	assert.ErrorIs(t, err, ErrInvalidConsentTransition)

	// REJECTED is terminal.
	_, err = svc.RecordCallback(result.ConsentID, models.ConsentRejected, "")
	require.NoError(t, err)
	_, err = svc.RecordCallback(result.ConsentID, models.ConsentApproved, "")
	assert.ErrorIs(t, err, ErrInvalidConsentTransition)
}

func TestRevokeApprovedConsent(t *testing.T) {
	svc, _ := newTestConsentService()
	result := initiateTestConsent(t, svc, 42)

	_, err := svc.RecordCallback(result.ConsentID, models.ConsentApproved, "")
	require.NoError(t, err)

	revoked, err := svc.Revoke(result.ConsentID)
	require.NoError(t, err)
	assert.Equal(t, 3, revoked.Version)
	assert.Equal(t, models.ConsentRevoked, revoked.Status)
	assert.False(t, svc.IsUsableForIngestion(*revoked))
}

func TestVerifyDetectsTampering(t *testing.T) {
	svc, store := newTestConsentService()
	initiateTestConsent(t, svc, 42)

	record := store.records[0]
	require.True(t, svc.Verify(record))

	tampered := record
	tampered.CustomerIdentifier = "1112223334"
	assert.False(t, svc.Verify(tampered))

	tampered = record
	tampered.Scopes = []string{"DEPOSIT"}
	assert.False(t, svc.Verify(tampered))

	tampered = record
	tampered.Status = models.ConsentApproved
	assert.False(t, svc.Verify(tampered))
}

func TestIsUsableForIngestion(t *testing.T) {
	svc, _ := newTestConsentService()
	base := models.ConsentRecord{
		Status:    models.ConsentApproved,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	assert.True(t, svc.IsUsableForIngestion(base))

	expired := base
	expired.ExpiresAt = time.Now().Add(-time.Hour)
	assert.False(t, svc.IsUsableForIngestion(expired))

	pending := base
	pending.Status = models.ConsentPending
	assert.False(t, svc.IsUsableForIngestion(pending))
}

func TestLatestUnknownConsent(t *testing.T) {
	svc, _ := newTestConsentService()
	_, err := svc.Latest("no-such-consent")
	assert.ErrorIs(t, err, model.ErrConsentNotFound)
}
