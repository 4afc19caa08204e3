package billing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rently/rently-api/internal/domain/entity"
	"github.com/rently/rently-api/internal/domain/repository"
)

var hundredDec = decimal.NewFromInt(100)

// OppChannel creates a transaction at the online payment provider. Used for
// automatic billing of consumer tenants.
type OppChannel struct {
	accounts repository.OppAccountRepository
	gateway  PaymentProviderGateway
}

// NewOppChannel builds the channel.
func NewOppChannel(accounts repository.OppAccountRepository, gateway PaymentProviderGateway) *OppChannel {
	return &OppChannel{accounts: accounts, gateway: gateway}
}

func (c *OppChannel) Name() string { return "opp" }

// Ready gates on the merchant's compliance level: below 100 the provider will
// not accept payments for this tenant yet.
func (c *OppChannel) Ready(ctx context.Context, d *Dispatch) (entity.FinanceStatus, bool) {
	account, err := c.accounts.Get(ctx, d.Tenant.ID)
	if err != nil || !account.Ready() {
		return entity.StatusPaymentProviderNotReady, false
	}
	return "", true
}

// Dispatch creates the provider transaction; the finance record id travels as
// external_id metadata so the asynchronous notification can be correlated
// back.
func (c *OppChannel) Dispatch(ctx context.Context, d *Dispatch) (*DispatchResult, error) {
	account, err := c.accounts.Get(ctx, d.Tenant.ID)
	if err != nil || account == nil {
		return nil, fmt.Errorf("load merchant account: %w", err)
	}

	// The provider works in cents.
	cents := d.Finance.Amount.Mul(hundredDec).Round(0).IntPart()

	tx, err := c.gateway.CreateTransaction(ctx, &TransactionRequest{
		MerchantID:  account.MerchantID,
		AmountCents: cents,
		Description: fmt.Sprintf("Rent %s - %s", d.Finance.CreatedAt.Format("January 2006"), d.Property.Address),
		ExternalID:  d.Finance.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("create provider transaction: %w", err)
	}

	return &DispatchResult{
		Status:        entity.StatusSent,
		PaymentMethod: "opp",
		TransactionID: tx.UID,
		PaymentURL:    tx.RedirectURL,
	}, nil
}

var _ Channel = (*OppChannel)(nil)
