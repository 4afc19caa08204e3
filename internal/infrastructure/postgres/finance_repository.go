package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rently/rently-api/internal/domain"
	"github.com/rently/rently-api/internal/domain/entity"
	"github.com/rently/rently-api/internal/domain/repository"
)

var _ repository.FinanceRepository = (*FinanceRepo)(nil)

// FinanceRepo implements FinanceRepository over PostgreSQL (usable with pool
// or tx).
type FinanceRepo struct {
	q Querier
}

// NewFinanceRepository builds the adapter. Pass a pool or a tx (Querier).
func NewFinanceRepository(q Querier) *FinanceRepo {
	return &FinanceRepo{q: q}
}

const financeColumns = `id, tenant_id, property_id, renter_id, agreement_id, amount, status, payment_method, transaction_id, payment_url, exact_invoice_id, exact_invoice_number, open_amount, paid_at, created_at, updated_at`

// Create persists the billing attempt and its item snapshot.
func (r *FinanceRepo) Create(ctx context.Context, f *entity.Finance) error {
	query := `
		INSERT INTO finances (` + financeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.q.Exec(ctx, query,
		f.ID, f.TenantID, f.PropertyID, f.RenterID, f.AgreementID,
		f.Amount, f.Status, nullIfEmpty(f.PaymentMethod), nullIfEmpty(f.TransactionID), nullIfEmpty(f.PaymentURL),
		nullIfEmpty(f.ExactInvoiceID), nullIfEmpty(f.ExactInvoiceNumber),
		f.OpenAmount, f.PaidAt, f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		// Requires the unique index on (agreement_id, date_trunc('month',
		// created_at)); it is the backstop against two concurrent billing
		// runs inserting the same month.
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert finance: %w", err)
	}

	for _, item := range f.Items {
		itemQuery := `
			INSERT INTO finance_items (finance_id, type, description, amount, tax_code_id, tax_percentage)
			VALUES ($1, $2, $3, $4, $5, $6)`
		if _, err := r.q.Exec(ctx, itemQuery, f.ID, item.Type, item.Description, item.Amount, item.TaxCodeID, item.TaxPercentage); err != nil {
			return fmt.Errorf("insert finance item: %w", err)
		}
	}
	return nil
}

// Update writes back the mutable lifecycle fields. The item snapshot is
// immutable and never rewritten.
func (r *FinanceRepo) Update(ctx context.Context, f *entity.Finance) error {
	query := `
		UPDATE finances
		SET status = $2,
		    payment_method = $3,
		    transaction_id = $4,
		    payment_url = $5,
		    exact_invoice_id = $6,
		    exact_invoice_number = $7,
		    open_amount = $8,
		    paid_at = $9,
		    updated_at = $10
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query,
		f.ID, f.Status,
		nullIfEmpty(f.PaymentMethod), nullIfEmpty(f.TransactionID), nullIfEmpty(f.PaymentURL),
		nullIfEmpty(f.ExactInvoiceID), nullIfEmpty(f.ExactInvoiceNumber),
		f.OpenAmount, f.PaidAt, f.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update finance: %w", err)
	}
	return nil
}

// GetByID loads one billing attempt with its items.
func (r *FinanceRepo) GetByID(ctx context.Context, id string) (*entity.Finance, error) {
	query := `SELECT ` + financeColumns + ` FROM finances WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// LatestForAgreement returns the most recent attempt for (agreement,
// property); its existence means the deposit was already charged once.
func (r *FinanceRepo) LatestForAgreement(ctx context.Context, agreementID, propertyID string) (*entity.Finance, error) {
	query := `
		SELECT ` + financeColumns + `
		FROM finances
		WHERE agreement_id = $1 AND property_id = $2
		ORDER BY created_at DESC
		LIMIT 1`
	return r.getOne(ctx, query, agreementID, propertyID)
}

// ForMonth returns the attempt created in month's calendar month, nil when
// the month has none yet.
func (r *FinanceRepo) ForMonth(ctx context.Context, agreementID string, month time.Time) (*entity.Finance, error) {
	query := `
		SELECT ` + financeColumns + `
		FROM finances
		WHERE agreement_id = $1 AND date_trunc('month', created_at) = date_trunc('month', $2::timestamptz)
		LIMIT 1`
	return r.getOne(ctx, query, agreementID, month)
}

// ListByAgreement returns all attempts for an agreement, oldest first.
func (r *FinanceRepo) ListByAgreement(ctx context.Context, agreementID string) ([]*entity.Finance, error) {
	query := `
		SELECT ` + financeColumns + `
		FROM finances
		WHERE agreement_id = $1
		ORDER BY created_at`
	rows, err := r.q.Query(ctx, query, agreementID)
	if err != nil {
		return nil, fmt.Errorf("list finances: %w", err)
	}
	defer rows.Close()

	var out []*entity.Finance
	for rows.Next() {
		f, err := scanFinance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan finance: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, f := range out {
		if err := r.loadItems(ctx, f); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// GetByExactInvoiceNumber matches on the human invoice number within one
// tenant, never on the accounting system's internal id.
func (r *FinanceRepo) GetByExactInvoiceNumber(ctx context.Context, tenantID, invoiceNumber string) (*entity.Finance, error) {
	query := `
		SELECT ` + financeColumns + `
		FROM finances
		WHERE tenant_id = $1 AND exact_invoice_number = $2
		LIMIT 1`
	return r.getOne(ctx, query, tenantID, invoiceNumber)
}

// TenantsWithOpenExactInvoices returns tenants having at least one unpaid
// attempt with an accounting invoice reference.
func (r *FinanceRepo) TenantsWithOpenExactInvoices(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT tenant_id
		FROM finances
		WHERE exact_invoice_number IS NOT NULL AND paid_at IS NULL
		ORDER BY tenant_id`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select reconciliation tenants: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan tenant id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *FinanceRepo) getOne(ctx context.Context, query string, args ...any) (*entity.Finance, error) {
	f, err := scanFinance(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get finance: %w", err)
	}
	if err := r.loadItems(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func scanFinance(row pgx.Row) (*entity.Finance, error) {
	var f entity.Finance
	var paymentMethod, transactionID, paymentURL, invoiceID, invoiceNumber *string
	err := row.Scan(
		&f.ID, &f.TenantID, &f.PropertyID, &f.RenterID, &f.AgreementID,
		&f.Amount, &f.Status, &paymentMethod, &transactionID, &paymentURL,
		&invoiceID, &invoiceNumber,
		&f.OpenAmount, &f.PaidAt, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	f.PaymentMethod = derefStr(paymentMethod)
	f.TransactionID = derefStr(transactionID)
	f.PaymentURL = derefStr(paymentURL)
	f.ExactInvoiceID = derefStr(invoiceID)
	f.ExactInvoiceNumber = derefStr(invoiceNumber)
	return &f, nil
}

func (r *FinanceRepo) loadItems(ctx context.Context, f *entity.Finance) error {
	query := `
		SELECT type, description, amount, tax_code_id, tax_percentage
		FROM finance_items
		WHERE finance_id = $1
		ORDER BY id`
	rows, err := r.q.Query(ctx, query, f.ID)
	if err != nil {
		return fmt.Errorf("list finance items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item entity.FinanceItem
		if err := rows.Scan(&item.Type, &item.Description, &item.Amount, &item.TaxCodeID, &item.TaxPercentage); err != nil {
			return fmt.Errorf("scan finance item: %w", err)
		}
		f.Items = append(f.Items, item)
	}
	return rows.Err()
}
