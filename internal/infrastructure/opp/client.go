package opp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rently/rently-api/internal/application/billing"
	"github.com/rently/rently-api/pkg/config"
)

var _ billing.PaymentProviderGateway = (*Client)(nil)

// Client is the online payment provider REST client. Authentication is a
// static API key; all amounts travel in cents.
type Client struct {
	cfg        config.OppConfig
	httpClient *http.Client
}

// NewClient builds the client.
func NewClient(cfg config.OppConfig) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// CreateTransaction creates a payment for the merchant. The caller's
// ExternalID lands in the transaction metadata for webhook correlation.
func (c *Client) CreateTransaction(ctx context.Context, req *billing.TransactionRequest) (*billing.ProviderTransaction, error) {
	payload := transactionPayload{
		MerchantUID: req.MerchantID,
		TotalPrice:  req.AmountCents,
		Description: req.Description,
		ReturnURL:   c.cfg.ReturnURL,
		NotifyURL:   c.cfg.NotifyURL,
		Metadata:    map[string]string{"external_id": req.ExternalID},
	}

	var rec transactionRecord
	path := fmt.Sprintf("/v1/merchants/%s/transactions", req.MerchantID)
	if err := c.do(ctx, http.MethodPost, path, payload, &rec); err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	return toProviderTransaction(&rec), nil
}

// GetTransaction fetches the provider's current view of a payment.
func (c *Client) GetTransaction(ctx context.Context, merchantID, uid string) (*billing.ProviderTransaction, error) {
	var rec transactionRecord
	path := fmt.Sprintf("/v1/merchants/%s/transactions/%s", merchantID, uid)
	if err := c.do(ctx, http.MethodGet, path, nil, &rec); err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return toProviderTransaction(&rec), nil
}

// GetMerchantCompliance fetches the merchant's onboarding state, used when a
// merchant-status notification arrives.
func (c *Client) GetMerchantCompliance(ctx context.Context, merchantID string) (level int, status string, err error) {
	var rec merchantRecord
	if err := c.do(ctx, http.MethodGet, "/v1/merchants/"+merchantID, nil, &rec); err != nil {
		return 0, "", fmt.Errorf("get merchant: %w", err)
	}
	return rec.ComplianceLevel, rec.ComplianceStatus, nil
}

func toProviderTransaction(rec *transactionRecord) *billing.ProviderTransaction {
	return &billing.ProviderTransaction{
		UID:         rec.UID,
		Status:      rec.Status,
		RedirectURL: rec.RedirectURL,
		Metadata:    rec.Metadata,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("opp %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("opp %s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
