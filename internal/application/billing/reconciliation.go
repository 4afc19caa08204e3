package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/rently/rently-api/internal/domain/repository"
	"github.com/rently/rently-api/pkg/logger"
)

// openInvoiceLookback bounds how far back open invoices are pulled from the
// accounting system. Generous on purpose: rent invoices can stay open long.
const openInvoiceLookback = 2 * 365 * 24 * time.Hour

// ReconciliationSweeper reconciles local finance records against the open
// invoices reported by the accounting system. It runs independently of the
// billing batch.
type ReconciliationSweeper struct {
	finances repository.FinanceRepository
	gateway  AccountingGateway
	log      *logger.Logger
	now      func() time.Time
}

// NewReconciliationSweeper builds the sweeper. now is injectable for tests.
func NewReconciliationSweeper(finances repository.FinanceRepository, gateway AccountingGateway, log *logger.Logger, now func() time.Time) *ReconciliationSweeper {
	if now == nil {
		now = time.Now
	}
	return &ReconciliationSweeper{finances: finances, gateway: gateway, log: log, now: now}
}

// Run pulls open invoices per eligible tenant and matches them to local
// finance records by invoice *number*. Unmatched external invoices are logged,
// never an error. Per-tenant failures do not abort the sweep.
func (s *ReconciliationSweeper) Run(ctx context.Context) error {
	tenantIDs, err := s.finances.TenantsWithOpenExactInvoices(ctx)
	if err != nil {
		return fmt.Errorf("select tenants for reconciliation: %w", err)
	}

	s.log.Info().Int("tenants", len(tenantIDs)).Msg("reconciliation sweep started")

	for _, tenantID := range tenantIDs {
		if !s.gateway.Ready(ctx, tenantID) {
			continue
		}
		if err := s.reconcileTenant(ctx, tenantID); err != nil {
			s.log.Error().Err(err).Str("tenant_id", tenantID).Msg("tenant reconciliation failed, continuing sweep")
		}
	}

	s.log.Info().Msg("reconciliation sweep finished")
	return nil
}

func (s *ReconciliationSweeper) reconcileTenant(ctx context.Context, tenantID string) error {
	now := s.now()
	invoices, err := s.gateway.ReadOpenInvoices(ctx, tenantID, now.Add(-openInvoiceLookback))
	if err != nil {
		return fmt.Errorf("read open invoices: %w", err)
	}

	for _, inv := range invoices {
		if inv.OpenAmount.IsZero() {
			continue
		}

		fin, err := s.finances.GetByExactInvoiceNumber(ctx, tenantID, inv.InvoiceNumber)
		if err != nil {
			return fmt.Errorf("match invoice %s: %w", inv.InvoiceNumber, err)
		}
		if fin == nil {
			s.log.Debug().
				Str("tenant_id", tenantID).
				Str("invoice_number", inv.InvoiceNumber).
				Msg("open invoice has no local finance record")
			continue
		}
		if fin.PaidAt != nil {
			continue
		}

		fin.OpenAmount = inv.OpenAmount
		if inv.OpenAmount.GreaterThanOrEqual(fin.Amount) {
			paidAt := now
			if inv.InvoiceDate != nil {
				paidAt = *inv.InvoiceDate
			}
			fin.PaidAt = &paidAt
		}
		fin.UpdatedAt = now
		if err := s.finances.Update(ctx, fin); err != nil {
			return fmt.Errorf("update finance %s: %w", fin.ID, err)
		}
	}
	return nil
}
