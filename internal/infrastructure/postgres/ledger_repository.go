package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rently/rently-api/internal/domain"
	"github.com/rently/rently-api/internal/domain/entity"
	"github.com/rently/rently-api/internal/domain/repository"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

// LedgerRepo implements LedgerRepository over PostgreSQL.
type LedgerRepo struct {
	q Querier
}

// NewLedgerRepository builds the adapter. Pass a pool or a tx (Querier).
func NewLedgerRepository(q Querier) *LedgerRepo {
	return &LedgerRepo{q: q}
}

// Create persists a bookkeeping posting. A duplicate third-party reference is
// a unique violation: the idempotency guard of system-generated postings.
func (r *LedgerRepo) Create(ctx context.Context, l *entity.Ledger) error {
	query := `
		INSERT INTO ledgers (id, tenant_id, property_id, kind, duration, description, amount, third_party_reference, mortgage_type, date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		l.ID, l.TenantID, l.PropertyID, l.Kind, l.Duration, l.Description,
		l.Amount, nullIfEmpty(l.ThirdPartyReference), nullIfEmpty(l.MortgageType),
		l.Date, l.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert ledger: %w", err)
	}
	return nil
}

// GetByThirdPartyReference is the idempotency lookup; nil when the reference
// was never posted.
func (r *LedgerRepo) GetByThirdPartyReference(ctx context.Context, reference string) (*entity.Ledger, error) {
	query := `
		SELECT id, tenant_id, property_id, kind, duration, description, amount, third_party_reference, mortgage_type, date, created_at
		FROM ledgers WHERE third_party_reference = $1`
	l, err := scanLedger(r.q.QueryRow(ctx, query, reference))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ledger by reference: %w", err)
	}
	return l, nil
}

// ListByProperty returns the property's postings, newest first.
func (r *LedgerRepo) ListByProperty(ctx context.Context, tenantID, propertyID string) ([]*entity.Ledger, error) {
	query := `
		SELECT id, tenant_id, property_id, kind, duration, description, amount, third_party_reference, mortgage_type, date, created_at
		FROM ledgers
		WHERE tenant_id = $1 AND property_id = $2
		ORDER BY date DESC`
	rows, err := r.q.Query(ctx, query, tenantID, propertyID)
	if err != nil {
		return nil, fmt.Errorf("list ledgers: %w", err)
	}
	defer rows.Close()

	var out []*entity.Ledger
	for rows.Next() {
		l, err := scanLedger(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func scanLedger(row pgx.Row) (*entity.Ledger, error) {
	var l entity.Ledger
	var reference, mortgageType *string
	err := row.Scan(
		&l.ID, &l.TenantID, &l.PropertyID, &l.Kind, &l.Duration, &l.Description,
		&l.Amount, &reference, &mortgageType, &l.Date, &l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.ThirdPartyReference = derefStr(reference)
	l.MortgageType = derefStr(mortgageType)
	return &l, nil
}
