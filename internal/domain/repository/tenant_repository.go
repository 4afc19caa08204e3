package repository

import (
	"context"

	"github.com/rently/rently-api/internal/domain/entity"
)

// TenantRepository read-side port for landlord organizations. Tenant CRUD
// itself lives outside the billing core.
type TenantRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Tenant, error)
	ListByKind(ctx context.Context, kind string) ([]*entity.Tenant, error)
}
