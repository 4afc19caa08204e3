package billing

import (
	"context"
	"fmt"

	"github.com/rently/rently-api/internal/domain/entity"
	"github.com/rently/rently-api/pkg/logger"
)

// ExactInvoiceChannel bills through the external accounting system: it creates
// a sales invoice on the renter's account there. Used for automatic billing of
// business tenants.
type ExactInvoiceChannel struct {
	gateway AccountingGateway
	log     *logger.Logger
}

// NewExactInvoiceChannel builds the channel.
func NewExactInvoiceChannel(gateway AccountingGateway, log *logger.Logger) *ExactInvoiceChannel {
	return &ExactInvoiceChannel{gateway: gateway, log: log}
}

func (c *ExactInvoiceChannel) Name() string { return "exact-invoice" }

// Ready gates on the connector (tokens + division) and on the renter having an
// account inside the accounting system.
func (c *ExactInvoiceChannel) Ready(ctx context.Context, d *Dispatch) (entity.FinanceStatus, bool) {
	if !c.gateway.Ready(ctx, d.Tenant.ID) {
		return entity.StatusPaymentProviderNotReady, false
	}
	if d.Renter.ExactAccountID == "" {
		return entity.StatusRenterNotFromProvider, false
	}
	return "", true
}

// Dispatch creates the sales invoice and then tries to have the accounting
// system print and email it. The print step is best-effort: its failure is
// logged and never undoes the created invoice.
func (c *ExactInvoiceChannel) Dispatch(ctx context.Context, d *Dispatch) (*DispatchResult, error) {
	req := &SalesInvoiceRequest{
		RenterAccountID: d.Renter.ExactAccountID,
		Description:     fmt.Sprintf("Rent %s - %s", d.Finance.CreatedAt.Format("January 2006"), d.Property.Address),
	}
	for _, item := range d.Finance.Items {
		req.Lines = append(req.Lines, SalesInvoiceLine{
			ItemType:    item.Type,
			Description: item.Description,
			Amount:      item.Amount,
			TaxCodeID:   item.TaxCodeID,
		})
	}

	res, err := c.gateway.CreateSalesInvoice(ctx, d.Tenant.ID, req)
	if err != nil {
		return nil, fmt.Errorf("create sales invoice: %w", err)
	}

	if err := c.gateway.SendPrintedInvoice(ctx, d.Tenant.ID, res.InvoiceID); err != nil {
		c.log.Warn().Err(err).
			Str("tenant_id", d.Tenant.ID).
			Str("invoice_id", res.InvoiceID).
			Msg("printing invoice failed, invoice itself was created")
	}

	return &DispatchResult{
		Status:             entity.StatusSent,
		PaymentMethod:      "exact-invoice",
		ExactInvoiceID:     res.InvoiceID,
		ExactInvoiceNumber: res.InvoiceNumber,
	}, nil
}

var _ Channel = (*ExactInvoiceChannel)(nil)
