package repository

import (
	"context"
	"time"

	"github.com/rently/rently-api/internal/domain/entity"
)

// AgreementRepository is the persistence port for agreements and their line
// items. Loads always hydrate the line items with the tax percentage joined in.
type AgreementRepository interface {
	// Create persists the agreement and all its line items. Callers run it
	// inside a transaction so the post-commit billing trigger never observes a
	// partially written agreement.
	Create(ctx context.Context, agreement *entity.Agreement) error
	GetByID(ctx context.Context, id string) (*entity.Agreement, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*entity.Agreement, error)
	// ListActiveByTenantKind returns active agreements whose owning tenant has
	// the given kind, for the daily billing batch.
	ListActiveByTenantKind(ctx context.Context, tenantKind string) ([]*entity.Agreement, error)
	// End marks the agreement inactive and stamps endedDate.
	End(ctx context.Context, id string, endedDate time.Time) error
}
