package repository

import (
	"context"
	"time"

	"github.com/rently/rently-api/internal/domain/entity"
)

// FinanceRepository is the persistence port for billing attempts. Reads return
// nil (not an error) when no row matches; callers treat nil as "no record".
type FinanceRepository interface {
	Create(ctx context.Context, finance *entity.Finance) error
	// Update writes back status, payment method, transaction/payment-url,
	// accounting invoice references, open amount and paidAt.
	Update(ctx context.Context, finance *entity.Finance) error
	GetByID(ctx context.Context, id string) (*entity.Finance, error)
	// LatestForAgreement returns the most recent finance record for
	// (agreement, property); its existence means the deposit was already
	// charged.
	LatestForAgreement(ctx context.Context, agreementID, propertyID string) (*entity.Finance, error)
	// ForMonth returns the finance record created in the given calendar month
	// for the agreement, nil when the month has none yet.
	ForMonth(ctx context.Context, agreementID string, month time.Time) (*entity.Finance, error)
	ListByAgreement(ctx context.Context, agreementID string) ([]*entity.Finance, error)
	// GetByExactInvoiceNumber matches on the human invoice *number*, not the
	// accounting system's internal invoice id.
	GetByExactInvoiceNumber(ctx context.Context, tenantID, invoiceNumber string) (*entity.Finance, error)
	// TenantsWithOpenExactInvoices returns tenant ids having at least one
	// finance record that carries an accounting invoice reference and no
	// paidAt yet; the reconciliation sweeper iterates these.
	TenantsWithOpenExactInvoices(ctx context.Context) ([]string, error)
}
