package repository

import (
	"context"

	"github.com/rently/rently-api/internal/domain/entity"
)

// OppAccountRepository stores the per-tenant payment provider merchant
// account. Onboarding itself happens outside the billing core; the billing
// path only reads the compliance state.
type OppAccountRepository interface {
	// Get returns nil when the tenant has no merchant account.
	Get(ctx context.Context, tenantID string) (*entity.OppAccount, error)
	// GetByMerchantID resolves the tenant behind a provider merchant uid;
	// merchant notifications only carry that uid. Nil when unknown.
	GetByMerchantID(ctx context.Context, merchantID string) (*entity.OppAccount, error)
	Save(ctx context.Context, account *entity.OppAccount) error
}
