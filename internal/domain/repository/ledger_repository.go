package repository

import (
	"context"

	"github.com/rently/rently-api/internal/domain/entity"
)

// LedgerRepository is the persistence port for bookkeeping postings.
type LedgerRepository interface {
	Create(ctx context.Context, ledger *entity.Ledger) error
	// GetByThirdPartyReference is the idempotency lookup for system-generated
	// postings; nil when the reference was never posted.
	GetByThirdPartyReference(ctx context.Context, reference string) (*entity.Ledger, error)
	ListByProperty(ctx context.Context, tenantID, propertyID string) ([]*entity.Ledger, error)
}
