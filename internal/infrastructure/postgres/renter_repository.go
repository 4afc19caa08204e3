package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rently/rently-api/internal/domain/entity"
	"github.com/rently/rently-api/internal/domain/repository"
)

var _ repository.RenterRepository = (*RenterRepo)(nil)

// RenterRepo implements the read-side RenterRepository over PostgreSQL.
type RenterRepo struct {
	q Querier
}

// NewRenterRepository builds the adapter. Pass a pool or a tx (Querier).
func NewRenterRepository(q Querier) *RenterRepo {
	return &RenterRepo{q: q}
}

// GetByID loads one renter, nil when unknown.
func (r *RenterRepo) GetByID(ctx context.Context, id string) (*entity.Renter, error) {
	query := `
		SELECT id, tenant_id, name, email, phone, exact_account_id, created_at, updated_at
		FROM renters WHERE id = $1`
	var rent entity.Renter
	var email, phone, exactAccountID *string
	err := r.q.QueryRow(ctx, query, id).Scan(
		&rent.ID, &rent.TenantID, &rent.Name, &email, &phone, &exactAccountID,
		&rent.CreatedAt, &rent.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get renter: %w", err)
	}
	rent.Email = derefStr(email)
	rent.Phone = derefStr(phone)
	rent.ExactAccountID = derefStr(exactAccountID)
	return &rent, nil
}
