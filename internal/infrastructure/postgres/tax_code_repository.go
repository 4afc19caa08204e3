package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rently/rently-api/internal/domain/entity"
	"github.com/rently/rently-api/internal/domain/repository"
)

var _ repository.TaxCodeRepository = (*TaxCodeRepo)(nil)

// TaxCodeRepo implements the read-side TaxCodeRepository over PostgreSQL.
type TaxCodeRepo struct {
	q Querier
}

// NewTaxCodeRepository builds the adapter. Pass a pool or a tx (Querier).
func NewTaxCodeRepository(q Querier) *TaxCodeRepo {
	return &TaxCodeRepo{q: q}
}

// GetByID loads one tax code, nil when unknown.
func (r *TaxCodeRepo) GetByID(ctx context.Context, id string) (*entity.TaxCode, error) {
	query := `SELECT id, name, percentage, created_at FROM tax_codes WHERE id = $1`
	var t entity.TaxCode
	err := r.q.QueryRow(ctx, query, id).Scan(&t.ID, &t.Name, &t.Percentage, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tax code: %w", err)
	}
	return &t, nil
}

// List returns all tax codes in catalog order.
func (r *TaxCodeRepo) List(ctx context.Context) ([]*entity.TaxCode, error) {
	query := `SELECT id, name, percentage, created_at FROM tax_codes ORDER BY percentage`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tax codes: %w", err)
	}
	defer rows.Close()

	var out []*entity.TaxCode
	for rows.Next() {
		var t entity.TaxCode
		if err := rows.Scan(&t.ID, &t.Name, &t.Percentage, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tax code: %w", err)
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}
