package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rently/rently-api/internal/domain/entity"
	"github.com/rently/rently-api/internal/domain/repository"
)

var _ repository.PropertyRepository = (*PropertyRepo)(nil)

// PropertyRepo implements the read-side PropertyRepository over PostgreSQL.
type PropertyRepo struct {
	q Querier
}

// NewPropertyRepository builds the adapter. Pass a pool or a tx (Querier).
func NewPropertyRepository(q Querier) *PropertyRepo {
	return &PropertyRepo{q: q}
}

// GetByID loads one property, nil when unknown.
func (r *PropertyRepo) GetByID(ctx context.Context, id string) (*entity.Property, error) {
	query := `
		SELECT id, tenant_id, address, postal_code, city, created_at, updated_at
		FROM properties WHERE id = $1`
	var p entity.Property
	var postalCode, city *string
	err := r.q.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.TenantID, &p.Address, &postalCode, &city, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get property: %w", err)
	}
	p.PostalCode = derefStr(postalCode)
	p.City = derefStr(city)
	return &p, nil
}
