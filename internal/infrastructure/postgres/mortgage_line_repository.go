package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rently/rently-api/internal/domain/entity"
	"github.com/rently/rently-api/internal/domain/repository"
)

var _ repository.MortgageLineRepository = (*MortgageLineRepo)(nil)

// MortgageLineRepo implements MortgageLineRepository over PostgreSQL.
type MortgageLineRepo struct {
	q Querier
}

// NewMortgageLineRepository builds the adapter. Pass a pool or a tx (Querier).
func NewMortgageLineRepository(q Querier) *MortgageLineRepo {
	return &MortgageLineRepo{q: q}
}

const mortgageColumns = `id, tenant_id, property_id, amount, interest_rate, type, start_date, end_date, part, created_at, updated_at`

// Create persists a tranche.
func (r *MortgageLineRepo) Create(ctx context.Context, l *entity.MortgageLine) error {
	query := `
		INSERT INTO mortgage_lines (` + mortgageColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		l.ID, l.TenantID, l.PropertyID, l.Amount, l.InterestRate, l.Type,
		l.StartDate, l.EndDate, l.Part, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert mortgage line: %w", err)
	}
	return nil
}

// GetByID loads one tranche.
func (r *MortgageLineRepo) GetByID(ctx context.Context, id string) (*entity.MortgageLine, error) {
	query := `SELECT ` + mortgageColumns + ` FROM mortgage_lines WHERE id = $1`
	l, err := scanMortgageLine(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get mortgage line: %w", err)
	}
	return l, nil
}

// ListByProperty returns the property's tranches in part order.
func (r *MortgageLineRepo) ListByProperty(ctx context.Context, tenantID, propertyID string) ([]*entity.MortgageLine, error) {
	query := `
		SELECT ` + mortgageColumns + `
		FROM mortgage_lines
		WHERE tenant_id = $1 AND property_id = $2
		ORDER BY part`
	return r.list(ctx, query, tenantID, propertyID)
}

// ListRunning returns tranches whose [start_date, end_date] window contains at.
func (r *MortgageLineRepo) ListRunning(ctx context.Context, at time.Time) ([]*entity.MortgageLine, error) {
	query := `
		SELECT ` + mortgageColumns + `
		FROM mortgage_lines
		WHERE start_date <= $1 AND end_date >= $1
		ORDER BY id`
	return r.list(ctx, query, at)
}

func (r *MortgageLineRepo) list(ctx context.Context, query string, args ...any) ([]*entity.MortgageLine, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list mortgage lines: %w", err)
	}
	defer rows.Close()

	var out []*entity.MortgageLine
	for rows.Next() {
		l, err := scanMortgageLine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mortgage line: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func scanMortgageLine(row pgx.Row) (*entity.MortgageLine, error) {
	var l entity.MortgageLine
	err := row.Scan(
		&l.ID, &l.TenantID, &l.PropertyID, &l.Amount, &l.InterestRate, &l.Type,
		&l.StartDate, &l.EndDate, &l.Part, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
