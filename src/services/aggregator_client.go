// backend/src/services/aggregator_client.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/username/finlens/backend/src/logger"
	"github.com/username/finlens/backend/src/models"
)

// AggregatorClientConfig carries the gateway connection settings.
type AggregatorClientConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	TokenURL     string
	Timeout      time.Duration
}

// httpAggregatorClient talks to the account-aggregator gateway over HTTP with
// OAuth2 client-credentials auth. It owns no retry policy: a timeout or error
// from the gateway propagates to the caller as a normal failure.
type httpAggregatorClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewAggregatorClient(cfg AggregatorClientConfig) AggregatorClient {
	oauthCfg := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
	}

	client := oauthCfg.Client(context.Background())
	client.Timeout = cfg.Timeout

	return &httpAggregatorClient{
		baseURL:    cfg.BaseURL,
		httpClient: client,
	}
}

type fiFetchRequest struct {
	ConsentID     string `json:"consent_id"`
	ConsentHandle string `json:"consent_handle"`
	DateRangeFrom string `json:"date_range_from"`
	DateRangeTo   string `json:"date_range_to"`
}

// FetchFinancialData requests the FI payload covered by an approved consent.
func (c *httpAggregatorClient) FetchFinancialData(ctx context.Context, consent models.ConsentRecord) (*models.AggregatorPayload, error) {
	body, err := json.Marshal(fiFetchRequest{
		ConsentID:     consent.ConsentID,
		ConsentHandle: consent.ConsentHandle,
		DateRangeFrom: consent.DateRangeFrom.UTC().Format(time.RFC3339),
		DateRangeTo:   consent.DateRangeTo.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("encoding FI fetch request: %w", err)
	}

	url := c.baseURL + "/fi/fetch"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building FI fetch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling aggregator gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		logger.L.Warn("Aggregator gateway returned non-OK status",
			"status", resp.StatusCode, "consentID", consent.ConsentID)
		return nil, fmt.Errorf("aggregator gateway returned status %d: %s", resp.StatusCode, string(snippet))
	}

	var payload models.AggregatorPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding aggregator payload: %w", err)
	}
	return &payload, nil
}
