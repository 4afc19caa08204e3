package repository

import (
	"context"

	"github.com/rently/rently-api/internal/domain/entity"
)

// ExactConnectionRepository stores the per-tenant accounting connection bag.
type ExactConnectionRepository interface {
	// Get returns nil when the tenant never connected.
	Get(ctx context.Context, tenantID string) (*entity.ExactConnection, error)
	// Save upserts the whole bag.
	Save(ctx context.Context, conn *entity.ExactConnection) error
	// Delete clears the bag wholesale (disconnect).
	Delete(ctx context.Context, tenantID string) error
}
