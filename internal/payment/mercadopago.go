// Package payment talks to the Mercado Pago checkout API.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrProviderUnavailable is returned when the provider rejects or cannot
// serve a request.
var ErrProviderUnavailable = errors.New("payment provider unavailable")

// PreferenceCreator creates hosted checkout preferences.
type PreferenceCreator interface {
	CreatePreference(ctx context.Context, req PreferenceRequest) (string, error)
}

type PreferenceItem struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id"`
}

type BackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

type PreferenceRequest struct {
	Items           []PreferenceItem  `json:"items"`
	BackURLs        BackURLs          `json:"back_urls"`
	AutoReturn      string            `json:"auto_return,omitempty"`
	NotificationURL string            `json:"notification_url,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

type preferenceResponse struct {
	ID string `json:"id"`
}

// MercadoPagoClient is a minimal client for the checkout preferences API.
type MercadoPagoClient struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

func NewMercadoPagoClient(baseURL, accessToken string, httpClient *http.Client) *MercadoPagoClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &MercadoPagoClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
		httpClient:  httpClient,
	}
}

// CreatePreference posts req and returns the preference id.
func (c *MercadoPagoClient) CreatePreference(ctx context.Context, req PreferenceRequest) (string, error) {
	if c.accessToken == "" {
		return "", fmt.Errorf("%w: access token not configured", ErrProviderUnavailable)
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode preference: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/checkout/preferences", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build preference request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Idempotency-Key", uuid.NewString())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d: %s", ErrProviderUnavailable, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	var pr preferenceResponse
	if err := json.Unmarshal(respBody, &pr); err != nil {
		return "", fmt.Errorf("decode preference response: %w", err)
	}
	if pr.ID == "" {
		return "", fmt.Errorf("%w: response without preference id", ErrProviderUnavailable)
	}
	return pr.ID, nil
}
