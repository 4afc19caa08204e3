package exact

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rently/rently-api/internal/application/billing"
	"github.com/rently/rently-api/internal/domain"
	"github.com/rently/rently-api/internal/domain/entity"
	"github.com/rently/rently-api/pkg/logger"
)

// itemCodePrefix namespaces the catalog items this application creates inside
// the tenant's accounting administration (RENTLY_RENT, RENTLY_DEPOSIT, ...).
const itemCodePrefix = "RENTLY_"

var _ billing.AccountingGateway = (*Connector)(nil)

// Connector is the high-level Exact Online integration: division and VAT
// configuration plus the sales-invoice operations the billing core needs.
type Connector struct {
	client *Client
	log    *logger.Logger
}

// NewConnector builds the connector over the REST client.
func NewConnector(client *Client, log *logger.Logger) *Connector {
	return &Connector{client: client, log: log}
}

// Ready reports whether the tenant can be invoiced: connected and a division
// selected.
func (c *Connector) Ready(ctx context.Context, tenantID string) bool {
	conn, err := c.client.Connection(ctx, tenantID)
	if err != nil {
		c.log.Error().Err(err).Str("tenant_id", tenantID).Msg("load exact connection")
		return false
	}
	return conn.Connected() && conn.Division() != ""
}

// Divisions lists the administrations the connected user may invoice in.
func (c *Connector) Divisions(ctx context.Context, tenantID string) ([]Division, error) {
	var env odataList[divisionRecord]
	if err := c.client.Call(ctx, tenantID, http.MethodGet, "/api/v1/current/system/Divisions?$select=Code,Description", nil, &env); err != nil {
		return nil, fmt.Errorf("list divisions: %w", err)
	}
	out := make([]Division, 0, len(env.D.Results))
	for _, d := range env.D.Results {
		out = append(out, Division{Code: d.Code.String(), Description: d.Description})
	}
	return out, nil
}

// SelectDivision stores the chosen division and seeds the catalog items in it.
func (c *Connector) SelectDivision(ctx context.Context, tenantID, division string) error {
	conn, err := c.client.Connection(ctx, tenantID)
	if err != nil {
		return err
	}
	if !conn.Connected() {
		return domain.ErrNotConnected
	}
	conn.SetDivision(division)
	if err := c.client.SaveConnection(ctx, conn); err != nil {
		return err
	}
	// Best-effort: item creation is retried lazily on the first invoice.
	if err := c.EnsureItemCodes(ctx, tenantID); err != nil {
		c.log.Warn().Err(err).Str("tenant_id", tenantID).Msg("seeding catalog items failed, will retry on first invoice")
	}
	return nil
}

// VatCodes lists the VAT codes of the selected division.
func (c *Connector) VatCodes(ctx context.Context, tenantID string) ([]VatCode, error) {
	division, err := c.division(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	var env odataList[vatCodeRecord]
	path := fmt.Sprintf("/api/v1/%s/vat/VATCodes?$select=Code,Description", division)
	if err := c.client.Call(ctx, tenantID, http.MethodGet, path, nil, &env); err != nil {
		return nil, fmt.Errorf("list VAT codes: %w", err)
	}
	out := make([]VatCode, 0, len(env.D.Results))
	for _, v := range env.D.Results {
		out = append(out, VatCode{Code: v.Code, Description: v.Description})
	}
	return out, nil
}

// SaveVatMappings maps local tax codes onto external VAT codes.
func (c *Connector) SaveVatMappings(ctx context.Context, tenantID string, mappings map[string]string) error {
	conn, err := c.client.Connection(ctx, tenantID)
	if err != nil {
		return err
	}
	if !conn.Connected() {
		return domain.ErrNotConnected
	}
	for taxCodeID, vatCode := range mappings {
		conn.SetVatCode(taxCodeID, vatCode)
	}
	return c.client.SaveConnection(ctx, conn)
}

// SetAutoSend toggles automatic printing/emailing of created invoices.
func (c *Connector) SetAutoSend(ctx context.Context, tenantID string, enabled bool) error {
	conn, err := c.client.Connection(ctx, tenantID)
	if err != nil {
		return err
	}
	if !conn.Connected() {
		return domain.ErrNotConnected
	}
	conn.SetAutoSendInvoice(enabled)
	return c.client.SaveConnection(ctx, conn)
}

// EnsureItemCodes makes sure every logistical item type has a catalog item in
// the tenant's division, creating missing ones, and caches their ids in the
// connection bag.
func (c *Connector) EnsureItemCodes(ctx context.Context, tenantID string) error {
	conn, err := c.client.Connection(ctx, tenantID)
	if err != nil {
		return err
	}
	division := conn.Division()
	if division == "" {
		return domain.ErrNoDivision
	}

	changed := false
	for _, itemType := range entity.ItemTypes {
		if conn.ItemCode(itemType) != "" {
			continue
		}
		code := itemCodePrefix + itemType
		id, err := c.findOrCreateItem(ctx, tenantID, division, code)
		if err != nil {
			return fmt.Errorf("ensure catalog item %s: %w", code, err)
		}
		conn.SetItemCode(itemType, id)
		changed = true
	}
	if changed {
		return c.client.SaveConnection(ctx, conn)
	}
	return nil
}

func (c *Connector) findOrCreateItem(ctx context.Context, tenantID, division, code string) (string, error) {
	filter := url.QueryEscape(fmt.Sprintf("Code eq '%s'", code))
	path := fmt.Sprintf("/api/v1/%s/logistics/Items?$select=ID,Code&$filter=%s", division, filter)

	var list odataList[itemRecord]
	if err := c.client.Call(ctx, tenantID, http.MethodGet, path, nil, &list); err != nil {
		return "", err
	}
	if len(list.D.Results) > 0 {
		return list.D.Results[0].ID, nil
	}

	var created odataSingle[itemRecord]
	createPath := fmt.Sprintf("/api/v1/%s/logistics/Items", division)
	payload := itemCreatePayload{Code: code, Description: code, IsSalesItem: true}
	if err := c.client.Call(ctx, tenantID, http.MethodPost, createPath, payload, &created); err != nil {
		return "", err
	}
	return created.D.ID, nil
}

// CreateSalesInvoice creates the invoice on the renter's account. Every line's
// tax code must be mapped to a VAT code and every line's item type must have a
// catalog item; either missing fails the whole invoice, naming the offender.
func (c *Connector) CreateSalesInvoice(ctx context.Context, tenantID string, req *billing.SalesInvoiceRequest) (*billing.SalesInvoiceResult, error) {
	conn, err := c.client.Connection(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !conn.Connected() {
		return nil, domain.ErrNotConnected
	}
	division := conn.Division()
	if division == "" {
		return nil, domain.ErrNoDivision
	}

	// Lazily seed catalog items when any line's type has no cached id yet.
	for _, line := range req.Lines {
		if conn.ItemCode(line.ItemType) == "" {
			if err := c.EnsureItemCodes(ctx, tenantID); err != nil {
				return nil, err
			}
			if conn, err = c.client.Connection(ctx, tenantID); err != nil {
				return nil, err
			}
			break
		}
	}

	payload := salesInvoicePayload{
		OrderedBy:   req.RenterAccountID,
		Description: req.Description,
	}
	for _, line := range req.Lines {
		vatCode := conn.VatCode(line.TaxCodeID)
		if vatCode == "" {
			return nil, fmt.Errorf("tax code %s has no VAT mapping for this tenant", line.TaxCodeID)
		}
		itemCode := conn.ItemCode(line.ItemType)
		if itemCode == "" {
			return nil, fmt.Errorf("item type %s has no catalog item for this tenant", line.ItemType)
		}
		payload.SalesInvoiceLines = append(payload.SalesInvoiceLines, salesInvoiceLinePayload{
			Item:        itemCode,
			Description: line.Description,
			Quantity:    1,
			UnitPrice:   line.Amount.InexactFloat64(),
			VATCode:     vatCode,
		})
	}

	var created odataSingle[salesInvoiceRecord]
	path := fmt.Sprintf("/api/v1/%s/salesinvoice/SalesInvoices", division)
	if err := c.client.Call(ctx, tenantID, http.MethodPost, path, payload, &created); err != nil {
		return nil, fmt.Errorf("create sales invoice: %w", err)
	}

	return &billing.SalesInvoiceResult{
		InvoiceID:     created.D.InvoiceID,
		InvoiceNumber: created.D.InvoiceNumber.String(),
	}, nil
}

// SendPrintedInvoice asks Exact to print and email the invoice to the renter.
// No-op when the tenant disabled auto-send.
func (c *Connector) SendPrintedInvoice(ctx context.Context, tenantID, invoiceID string) error {
	conn, err := c.client.Connection(ctx, tenantID)
	if err != nil {
		return err
	}
	if !conn.AutoSendInvoice() {
		return nil
	}
	division := conn.Division()
	if division == "" {
		return domain.ErrNoDivision
	}

	path := fmt.Sprintf("/api/v1/%s/salesinvoice/PrintedSalesInvoices", division)
	payload := printedInvoicePayload{InvoiceID: invoiceID, SendEmailToCustomer: true}
	if err := c.client.Call(ctx, tenantID, http.MethodPost, path, payload, nil); err != nil {
		return fmt.Errorf("print sales invoice: %w", err)
	}
	return nil
}

// ReadOpenInvoices pulls the outstanding receivables since the given date.
func (c *Connector) ReadOpenInvoices(ctx context.Context, tenantID string, since time.Time) ([]billing.OpenInvoice, error) {
	division, err := c.division(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	filter := url.QueryEscape(fmt.Sprintf("InvoiceDate ge datetime'%s'", since.UTC().Format("2006-01-02")))
	path := fmt.Sprintf("/api/v1/%s/read/financial/ReceivablesList?$select=InvoiceId,InvoiceNumber,Amount,InvoiceDate&$filter=%s", division, filter)

	var env odataList[receivableRecord]
	if err := c.client.Call(ctx, tenantID, http.MethodGet, path, nil, &env); err != nil {
		return nil, fmt.Errorf("read open invoices: %w", err)
	}

	out := make([]billing.OpenInvoice, 0, len(env.D.Results))
	for _, rec := range env.D.Results {
		out = append(out, billing.OpenInvoice{
			InvoiceID:     rec.InvoiceID,
			InvoiceNumber: rec.InvoiceNumber.String(),
			OpenAmount:    decimal.NewFromFloat(rec.Amount),
			InvoiceDate:   parseExactDate(rec.InvoiceDate),
		})
	}
	return out, nil
}

func (c *Connector) division(ctx context.Context, tenantID string) (string, error) {
	conn, err := c.client.Connection(ctx, tenantID)
	if err != nil {
		return "", err
	}
	if !conn.Connected() {
		return "", domain.ErrNotConnected
	}
	if conn.Division() == "" {
		return "", domain.ErrNoDivision
	}
	return conn.Division(), nil
}
