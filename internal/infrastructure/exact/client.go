package exact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rently/rently-api/internal/domain"
	"github.com/rently/rently-api/internal/domain/entity"
	"github.com/rently/rently-api/internal/domain/repository"
	"github.com/rently/rently-api/pkg/config"
	"github.com/rently/rently-api/pkg/logger"
)

// tokenExpirySlack is subtracted from the reported token lifetime so a token
// is refreshed before it actually lapses mid-request.
const tokenExpirySlack = 30 * time.Second

// Client is the low-level Exact Online REST client. It owns the OAuth token
// lifecycle per tenant: tokens live in the tenant's connection bag and refresh
// tokens are single-use, so every refresh is persisted immediately.
type Client struct {
	cfg         config.ExactConfig
	connections repository.ExactConnectionRepository
	httpClient  *http.Client
	log         *logger.Logger
	now         func() time.Time
}

// NewClient builds the client. now is injectable for tests; pass nil for the
// wall clock.
func NewClient(cfg config.ExactConfig, connections repository.ExactConnectionRepository, log *logger.Logger, now func() time.Time) *Client {
	if now == nil {
		now = time.Now
	}
	return &Client{
		cfg:         cfg,
		connections: connections,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		log:         log,
		now:         now,
	}
}

// AuthorizeURL is where the landlord's browser is sent to grant access.
func (c *Client) AuthorizeURL(state string) string {
	q := url.Values{}
	q.Set("client_id", c.cfg.ClientID)
	q.Set("redirect_uri", c.cfg.RedirectURL)
	q.Set("response_type", "code")
	q.Set("state", state)
	return c.cfg.BaseURL + "/api/oauth2/auth?" + q.Encode()
}

// Exchange turns an authorization code into a token pair and stores it in the
// tenant's connection bag, creating the bag on first connect.
func (c *Client) Exchange(ctx context.Context, tenantID, code string) error {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", c.cfg.RedirectURL)

	tok, err := c.token(ctx, form)
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}

	conn, err := c.connections.Get(ctx, tenantID)
	if err != nil {
		return err
	}
	if conn == nil {
		conn = entity.NewExactConnection(tenantID)
	}
	c.storeTokens(conn, tok)
	conn.UpdatedAt = c.now()
	return c.connections.Save(ctx, conn)
}

// Connection loads the tenant's connection bag (nil when never connected).
func (c *Client) Connection(ctx context.Context, tenantID string) (*entity.ExactConnection, error) {
	return c.connections.Get(ctx, tenantID)
}

// SaveConnection persists the bag.
func (c *Client) SaveConnection(ctx context.Context, conn *entity.ExactConnection) error {
	conn.UpdatedAt = c.now()
	return c.connections.Save(ctx, conn)
}

// Disconnect clears the tenant's bag wholesale: tokens, division, item codes
// and VAT mappings all go.
func (c *Client) Disconnect(ctx context.Context, tenantID string) error {
	return c.connections.Delete(ctx, tenantID)
}

// Call performs an authenticated JSON request against the Exact REST API.
// path is relative to the base URL (e.g. /api/v1/123/salesinvoice/SalesInvoices).
// The access token is refreshed up front when expired, and once more on a 401.
func (c *Client) Call(ctx context.Context, tenantID, method, path string, body, out any) error {
	conn, err := c.connections.Get(ctx, tenantID)
	if err != nil {
		return err
	}
	if !conn.Connected() {
		return domain.ErrNotConnected
	}

	if conn.TokenExpired(c.now()) {
		if err := c.refresh(ctx, conn); err != nil {
			return err
		}
	}

	status, err := c.do(ctx, conn, method, path, body, out)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized {
		// Expiry clock skew: refresh once and retry.
		if err := c.refresh(ctx, conn); err != nil {
			return err
		}
		status, err = c.do(ctx, conn, method, path, body, out)
		if err != nil {
			return err
		}
	}
	if status < 200 || status > 299 {
		return fmt.Errorf("exact %s %s: unexpected status %d", method, path, status)
	}
	return nil
}

// do runs one HTTP round trip. Non-401 error statuses are returned to the
// caller as the status code, with the body consumed into the error on Call's
// side.
func (c *Client) do(ctx context.Context, conn *entity.ExactConnection, method, path string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+conn.AccessToken())
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("exact %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return resp.StatusCode, fmt.Errorf("exact %s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	} else {
		io.Copy(io.Discard, resp.Body)
	}
	return resp.StatusCode, nil
}

// refresh rotates the token pair. Exact refresh tokens are single-use: the new
// pair must be persisted before anything else can happen, or the stored
// refresh token is dead and the tenant has to reconnect.
func (c *Client) refresh(ctx context.Context, conn *entity.ExactConnection) error {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", conn.RefreshToken())

	tok, err := c.token(ctx, form)
	if err != nil {
		return fmt.Errorf("refresh token: %w", err)
	}
	c.storeTokens(conn, tok)
	conn.UpdatedAt = c.now()
	if err := c.connections.Save(ctx, conn); err != nil {
		return fmt.Errorf("persist rotated tokens: %w", err)
	}
	return nil
}

func (c *Client) storeTokens(conn *entity.ExactConnection, tok *tokenResponse) {
	lifetime, _ := tok.ExpiresIn.Int64()
	expiry := c.now().Add(time.Duration(lifetime)*time.Second - tokenExpirySlack)
	conn.SetTokens(tok.AccessToken, tok.RefreshToken, expiry)
}

// token calls the OAuth token endpoint with the client credentials added to
// the form.
func (c *Client) token(ctx context.Context, form url.Values) (*tokenResponse, error) {
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("token endpoint status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if tok.AccessToken == "" || tok.RefreshToken == "" {
		return nil, fmt.Errorf("token endpoint returned an incomplete pair")
	}
	return &tok, nil
}
