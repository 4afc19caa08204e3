package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rently/rently-api/internal/application/billing"
	"github.com/rently/rently-api/internal/domain/repository"
)

var _ billing.BillingTxRunner = (*TxRunner)(nil)

// TxRunner executes callbacks inside one PostgreSQL transaction, with
// repositories bound to that transaction.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner builds the runner over the pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunFinance runs fn with a transactional finance repository. The billing
// orchestrator uses this for the per-month check-then-create. Under read
// committed two concurrent runs can both pass the check; the unique index on
// (agreement_id, billing month) is what actually prevents a double insert,
// surfacing as ErrDuplicate from FinanceRepo.Create.
func (r *TxRunner) RunFinance(ctx context.Context, fn func(financeRepo repository.FinanceRepository) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewFinanceRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunAgreement runs fn with a transactional agreement repository, so an
// agreement and its line items are written atomically.
func (r *TxRunner) RunAgreement(ctx context.Context, fn func(agreementRepo repository.AgreementRepository) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewAgreementRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
