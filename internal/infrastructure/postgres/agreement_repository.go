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

var _ repository.AgreementRepository = (*AgreementRepo)(nil)

// AgreementRepo implements AgreementRepository over PostgreSQL (usable with
// pool or tx).
type AgreementRepo struct {
	q Querier
}

// NewAgreementRepository builds the adapter. Pass a pool or a tx (Querier).
func NewAgreementRepository(q Querier) *AgreementRepo {
	return &AgreementRepo{q: q}
}

// Create persists the agreement and all its line items.
func (r *AgreementRepo) Create(ctx context.Context, a *entity.Agreement) error {
	query := `
		INSERT INTO agreements (id, tenant_id, property_id, primary_renter_id, renter_ids, payment_method, payment_day_of_month, status, start_date, end_date, ended_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		a.ID, a.TenantID, a.PropertyID, a.PrimaryRenterID, a.RenterIDs,
		a.PaymentMethod, a.PaymentDayOfMonth, a.Status,
		a.StartDate, a.EndDate, a.EndedDate, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert agreement: %w", err)
	}

	for _, li := range a.Items {
		itemQuery := `
			INSERT INTO agreement_items (id, agreement_id, type, description, amount, tax_code_id)
			VALUES ($1, $2, $3, $4, $5, $6)`
		if _, err := r.q.Exec(ctx, itemQuery, li.ID, a.ID, li.Type, li.Description, li.Amount, li.TaxCodeID); err != nil {
			return fmt.Errorf("insert agreement item: %w", err)
		}
	}
	return nil
}

// GetByID loads an agreement with its line items hydrated.
func (r *AgreementRepo) GetByID(ctx context.Context, id string) (*entity.Agreement, error) {
	query := `
		SELECT id, tenant_id, property_id, primary_renter_id, renter_ids, payment_method, payment_day_of_month, status, start_date, end_date, ended_date, created_at, updated_at
		FROM agreements WHERE id = $1`
	a, err := r.scanAgreement(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get agreement: %w", err)
	}
	if err := r.loadItems(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// ListByTenant returns the tenant's agreements with items hydrated.
func (r *AgreementRepo) ListByTenant(ctx context.Context, tenantID string) ([]*entity.Agreement, error) {
	query := `
		SELECT id, tenant_id, property_id, primary_renter_id, renter_ids, payment_method, payment_day_of_month, status, start_date, end_date, ended_date, created_at, updated_at
		FROM agreements WHERE tenant_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, tenantID)
}

// ListActiveByTenantKind returns active agreements whose tenant has the given
// kind; the daily billing batch iterates these.
func (r *AgreementRepo) ListActiveByTenantKind(ctx context.Context, tenantKind string) ([]*entity.Agreement, error) {
	query := `
		SELECT a.id, a.tenant_id, a.property_id, a.primary_renter_id, a.renter_ids, a.payment_method, a.payment_day_of_month, a.status, a.start_date, a.end_date, a.ended_date, a.created_at, a.updated_at
		FROM agreements a
		JOIN tenants t ON t.id = a.tenant_id
		WHERE a.status = $1 AND t.kind = $2
		ORDER BY a.created_at`
	return r.list(ctx, query, entity.AgreementStatusActive, tenantKind)
}

// End marks the agreement inactive and stamps endedDate.
func (r *AgreementRepo) End(ctx context.Context, id string, endedDate time.Time) error {
	query := `
		UPDATE agreements
		SET status = $2, ended_date = $3, updated_at = $3
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, id, entity.AgreementStatusInactive, endedDate)
	if err != nil {
		return fmt.Errorf("end agreement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *AgreementRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Agreement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list agreements: %w", err)
	}
	defer rows.Close()

	var out []*entity.Agreement
	for rows.Next() {
		a, err := r.scanAgreement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan agreement: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, a := range out {
		if err := r.loadItems(ctx, a); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *AgreementRepo) scanAgreement(row pgx.Row) (*entity.Agreement, error) {
	var a entity.Agreement
	err := row.Scan(
		&a.ID, &a.TenantID, &a.PropertyID, &a.PrimaryRenterID, &a.RenterIDs,
		&a.PaymentMethod, &a.PaymentDayOfMonth, &a.Status,
		&a.StartDate, &a.EndDate, &a.EndedDate, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// loadItems hydrates the line items with the tax percentage joined from
// tax_codes, so billing math never needs a second lookup.
func (r *AgreementRepo) loadItems(ctx context.Context, a *entity.Agreement) error {
	query := `
		SELECT i.id, i.agreement_id, i.type, i.description, i.amount, i.tax_code_id, tc.percentage
		FROM agreement_items i
		JOIN tax_codes tc ON tc.id = i.tax_code_id
		WHERE i.agreement_id = $1
		ORDER BY i.id`
	rows, err := r.q.Query(ctx, query, a.ID)
	if err != nil {
		return fmt.Errorf("list agreement items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var li entity.LogisticalItem
		if err := rows.Scan(&li.ID, &li.AgreementID, &li.Type, &li.Description, &li.Amount, &li.TaxCodeID, &li.TaxPercentage); err != nil {
			return fmt.Errorf("scan agreement item: %w", err)
		}
		a.Items = append(a.Items, li)
	}
	return rows.Err()
}
