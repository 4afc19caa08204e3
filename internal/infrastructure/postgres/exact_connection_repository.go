package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rently/rently-api/internal/domain/entity"
	"github.com/rently/rently-api/internal/domain/repository"
)

var _ repository.ExactConnectionRepository = (*ExactConnectionRepo)(nil)

// ExactConnectionRepo stores the per-tenant accounting connection bag as a
// jsonb column; pgx maps map[string]string onto jsonb directly.
type ExactConnectionRepo struct {
	q Querier
}

// NewExactConnectionRepository builds the adapter. Pass a pool or a tx (Querier).
func NewExactConnectionRepository(q Querier) *ExactConnectionRepo {
	return &ExactConnectionRepo{q: q}
}

// Get loads the bag, nil when the tenant never connected.
func (r *ExactConnectionRepo) Get(ctx context.Context, tenantID string) (*entity.ExactConnection, error) {
	query := `SELECT tenant_id, data, updated_at FROM exact_connections WHERE tenant_id = $1`
	var c entity.ExactConnection
	err := r.q.QueryRow(ctx, query, tenantID).Scan(&c.TenantID, &c.Values, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get exact connection: %w", err)
	}
	return &c, nil
}

// Save upserts the whole bag.
func (r *ExactConnectionRepo) Save(ctx context.Context, c *entity.ExactConnection) error {
	query := `
		INSERT INTO exact_connections (tenant_id, data, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (tenant_id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`
	if _, err := r.q.Exec(ctx, query, c.TenantID, c.Values, c.UpdatedAt); err != nil {
		return fmt.Errorf("save exact connection: %w", err)
	}
	return nil
}

// Delete clears the bag wholesale (disconnect).
func (r *ExactConnectionRepo) Delete(ctx context.Context, tenantID string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM exact_connections WHERE tenant_id = $1`, tenantID); err != nil {
		return fmt.Errorf("delete exact connection: %w", err)
	}
	return nil
}
