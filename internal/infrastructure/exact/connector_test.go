package exact

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rently/rently-api/internal/application/billing"
	"github.com/rently/rently-api/internal/domain"
	"github.com/rently/rently-api/internal/domain/entity"
	"github.com/rently/rently-api/pkg/config"
	"github.com/rently/rently-api/pkg/logger"
)

type memConnectionRepo struct {
	rows  map[string]*entity.ExactConnection
	saves int
}

func newMemConnectionRepo() *memConnectionRepo {
	return &memConnectionRepo{rows: map[string]*entity.ExactConnection{}}
}

func (r *memConnectionRepo) Get(_ context.Context, tenantID string) (*entity.ExactConnection, error) {
	return r.rows[tenantID], nil
}

func (r *memConnectionRepo) Save(_ context.Context, c *entity.ExactConnection) error {
	r.saves++
	r.rows[c.TenantID] = c
	return nil
}

func (r *memConnectionRepo) Delete(_ context.Context, tenantID string) error {
	delete(r.rows, tenantID)
	return nil
}

func connectedRepo(t *testing.T, division string, expiry time.Time) *memConnectionRepo {
	t.Helper()
	repo := newMemConnectionRepo()
	conn := entity.NewExactConnection("tenant-1")
	conn.SetTokens("access-1", "refresh-1", expiry)
	if division != "" {
		conn.SetDivision(division)
	}
	repo.rows["tenant-1"] = conn
	return repo
}

func testClient(repo *memConnectionRepo, baseURL string, now time.Time) *Client {
	return NewClient(config.ExactConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "https://rently.app/exact/callback",
		BaseURL:      baseURL,
	}, repo, logger.NewNop(), func() time.Time { return now })
}

func TestParseExactDate(t *testing.T) {
	got := parseExactDate("/Date(1767225600000)/")
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), *got)

	assert.Nil(t, parseExactDate(""))
	assert.Nil(t, parseExactDate("2026-01-01"))
	assert.Nil(t, parseExactDate("/Date(abc)/"))
}

func TestClient_RefreshRotatesAndPersistsTokens(t *testing.T) {
	now := time.Date(2026, time.March, 15, 8, 0, 0, 0, time.UTC)
	var gotGrant, gotRefresh string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/oauth2/token":
			require.NoError(t, r.ParseForm())
			gotGrant = r.Form.Get("grant_type")
			gotRefresh = r.Form.Get("refresh_token")
			json.NewEncoder(w).Encode(map[string]any{
				"access_token": "access-2", "refresh_token": "refresh-2", "expires_in": "600",
			})
		case "/api/v1/current/system/Divisions":
			assert.Equal(t, "Bearer access-2", r.Header.Get("Authorization"))
			w.Write([]byte(`{"d":{"results":[{"Code":102455,"Description":"Acme BV"}]}}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	// Token already expired: the call must refresh first, persist the rotated
	// pair (refresh tokens are single-use), then hit the API with the new one.
	repo := connectedRepo(t, "", now.Add(-time.Minute))
	client := testClient(repo, srv.URL, now)
	connector := NewConnector(client, logger.NewNop())

	divisions, err := connector.Divisions(context.Background(), "tenant-1")
	require.NoError(t, err)
	require.Len(t, divisions, 1)
	assert.Equal(t, "102455", divisions[0].Code)
	assert.Equal(t, "Acme BV", divisions[0].Description)

	assert.Equal(t, "refresh_token", gotGrant)
	assert.Equal(t, "refresh-1", gotRefresh)
	assert.GreaterOrEqual(t, repo.saves, 1)

	conn := repo.rows["tenant-1"]
	assert.Equal(t, "access-2", conn.AccessToken())
	assert.Equal(t, "refresh-2", conn.RefreshToken())
	// Expiry carries the 30s slack: 600s - 30s from now.
	assert.Equal(t, now.Add(570*time.Second), conn.TokenExpiry())
}

func TestClient_CallWithoutConnection(t *testing.T) {
	repo := newMemConnectionRepo()
	client := testClient(repo, "http://unused", time.Now())

	err := client.Call(context.Background(), "tenant-1", http.MethodGet, "/api/v1/x", nil, nil)
	require.ErrorIs(t, err, domain.ErrNotConnected)
}

func TestConnector_Ready(t *testing.T) {
	now := time.Now()
	client := testClient(newMemConnectionRepo(), "http://unused", now)
	connector := NewConnector(client, logger.NewNop())
	assert.False(t, connector.Ready(context.Background(), "tenant-1"), "never connected")

	repo := connectedRepo(t, "", now.Add(time.Hour))
	connector = NewConnector(testClient(repo, "http://unused", now), logger.NewNop())
	assert.False(t, connector.Ready(context.Background(), "tenant-1"), "no division selected")

	repo = connectedRepo(t, "102455", now.Add(time.Hour))
	connector = NewConnector(testClient(repo, "http://unused", now), logger.NewNop())
	assert.True(t, connector.Ready(context.Background(), "tenant-1"))
}

func TestConnector_CreateSalesInvoice(t *testing.T) {
	now := time.Date(2026, time.March, 15, 8, 0, 0, 0, time.UTC)
	var payload salesInvoicePayload

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/102455/salesinvoice/SalesInvoices":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"d":{"InvoiceID":"guid-1","InvoiceNumber":2026042}}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	repo := connectedRepo(t, "102455", now.Add(time.Hour))
	conn := repo.rows["tenant-1"]
	conn.SetItemCode(entity.ItemTypeRent, "item-rent")
	conn.SetVatCode("tax-21", "VH")

	connector := NewConnector(testClient(repo, srv.URL, now), logger.NewNop())

	res, err := connector.CreateSalesInvoice(context.Background(), "tenant-1", &billing.SalesInvoiceRequest{
		RenterAccountID: "acct-1",
		Description:     "Rent March 2026",
		Lines: []billing.SalesInvoiceLine{
			{ItemType: entity.ItemTypeRent, Description: "Rent", Amount: decimal.NewFromInt(1000), TaxCodeID: "tax-21"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "guid-1", res.InvoiceID)
	assert.Equal(t, "2026042", res.InvoiceNumber)

	assert.Equal(t, "acct-1", payload.OrderedBy)
	require.Len(t, payload.SalesInvoiceLines, 1)
	assert.Equal(t, "item-rent", payload.SalesInvoiceLines[0].Item)
	assert.Equal(t, "VH", payload.SalesInvoiceLines[0].VATCode)
	assert.InDelta(t, 1000, payload.SalesInvoiceLines[0].UnitPrice, 0.001)
}

func TestConnector_CreateSalesInvoiceUnmappedTaxCode(t *testing.T) {
	now := time.Now()
	repo := connectedRepo(t, "102455", now.Add(time.Hour))
	repo.rows["tenant-1"].SetItemCode(entity.ItemTypeRent, "item-rent")

	connector := NewConnector(testClient(repo, "http://unused", now), logger.NewNop())

	_, err := connector.CreateSalesInvoice(context.Background(), "tenant-1", &billing.SalesInvoiceRequest{
		RenterAccountID: "acct-1",
		Lines: []billing.SalesInvoiceLine{
			{ItemType: entity.ItemTypeRent, Amount: decimal.NewFromInt(1000), TaxCodeID: "tax-9"},
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tax-9", "the error names the unmapped tax code")
}

func TestConnector_CreateSalesInvoiceUnknownItemType(t *testing.T) {
	now := time.Now()
	repo := connectedRepo(t, "102455", now.Add(time.Hour))
	conn := repo.rows["tenant-1"]
	for _, itemType := range entity.ItemTypes {
		conn.SetItemCode(itemType, "item-"+itemType)
	}
	conn.SetVatCode("tax-21", "VH")

	connector := NewConnector(testClient(repo, "http://unused", now), logger.NewNop())

	_, err := connector.CreateSalesInvoice(context.Background(), "tenant-1", &billing.SalesInvoiceRequest{
		RenterAccountID: "acct-1",
		Lines: []billing.SalesInvoiceLine{
			{ItemType: "GARAGE", Description: "Garage box", Amount: decimal.NewFromInt(75), TaxCodeID: "tax-21"},
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GARAGE", "the error names the type without a catalog item")
}

func TestConnector_SendPrintedInvoiceRespectsAutoSend(t *testing.T) {
	now := time.Now()
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	repo := connectedRepo(t, "102455", now.Add(time.Hour))
	connector := NewConnector(testClient(repo, srv.URL, now), logger.NewNop())

	// Auto-send off: nothing leaves the building.
	require.NoError(t, connector.SendPrintedInvoice(context.Background(), "tenant-1", "guid-1"))
	assert.Zero(t, calls)

	repo.rows["tenant-1"].SetAutoSendInvoice(true)
	require.NoError(t, connector.SendPrintedInvoice(context.Background(), "tenant-1", "guid-1"))
	assert.Equal(t, 1, calls)
}

func TestConnector_ReadOpenInvoices(t *testing.T) {
	now := time.Date(2026, time.March, 20, 9, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/read/financial/ReceivablesList")
		w.Write([]byte(`{"d":{"results":[
			{"InvoiceId":"guid-1","InvoiceNumber":2026001,"Amount":500,"InvoiceDate":"/Date(1767225600000)/"},
			{"InvoiceId":"guid-2","InvoiceNumber":2026002,"Amount":300.50,"InvoiceDate":""}
		]}}`))
	}))
	defer srv.Close()

	repo := connectedRepo(t, "102455", now.Add(time.Hour))
	connector := NewConnector(testClient(repo, srv.URL, now), logger.NewNop())

	invoices, err := connector.ReadOpenInvoices(context.Background(), "tenant-1", now.AddDate(-2, 0, 0))
	require.NoError(t, err)
	require.Len(t, invoices, 2)

	assert.Equal(t, "2026001", invoices[0].InvoiceNumber)
	assert.True(t, decimal.NewFromInt(500).Equal(invoices[0].OpenAmount))
	require.NotNil(t, invoices[0].InvoiceDate)
	assert.Equal(t, 2026, invoices[0].InvoiceDate.Year())

	assert.Nil(t, invoices[1].InvoiceDate)
	assert.True(t, decimal.RequireFromString("300.5").Equal(invoices[1].OpenAmount))
}

func TestConnector_OperationsRequireDivision(t *testing.T) {
	now := time.Now()
	repo := connectedRepo(t, "", now.Add(time.Hour))
	connector := NewConnector(testClient(repo, "http://unused", now), logger.NewNop())

	_, err := connector.VatCodes(context.Background(), "tenant-1")
	require.ErrorIs(t, err, domain.ErrNoDivision)

	_, err = connector.ReadOpenInvoices(context.Background(), "tenant-1", now)
	require.ErrorIs(t, err, domain.ErrNoDivision)
}
