package billing

import (
	"context"
	"fmt"

	"github.com/rently/rently-api/internal/domain"
	"github.com/rently/rently-api/internal/domain/entity"
	"github.com/rently/rently-api/internal/domain/repository"
)

// FinanceUseCase is the read side of the billing history: landlords inspect
// what was billed, through which channel and whether it was paid.
type FinanceUseCase struct {
	finances   repository.FinanceRepository
	agreements repository.AgreementRepository
}

func NewFinanceUseCase(finances repository.FinanceRepository, agreements repository.AgreementRepository) *FinanceUseCase {
	return &FinanceUseCase{finances: finances, agreements: agreements}
}

// GetByID loads one billing attempt, scoped to the tenant.
func (uc *FinanceUseCase) GetByID(ctx context.Context, tenantID, id string) (*entity.Finance, error) {
	finance, err := uc.finances.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if finance == nil || finance.TenantID != tenantID {
		return nil, fmt.Errorf("%w: finance %s", domain.ErrNotFound, id)
	}
	return finance, nil
}

// ListByAgreement returns the billing history of an agreement, oldest first.
// The agreement itself is loaded first so a foreign tenant cannot enumerate
// another tenant's history by guessing agreement ids.
func (uc *FinanceUseCase) ListByAgreement(ctx context.Context, tenantID, agreementID string) ([]*entity.Finance, error) {
	agreement, err := uc.agreements.GetByID(ctx, agreementID)
	if err != nil {
		return nil, err
	}
	if agreement == nil || agreement.TenantID != tenantID {
		return nil, fmt.Errorf("%w: agreement %s", domain.ErrNotFound, agreementID)
	}
	return uc.finances.ListByAgreement(ctx, agreementID)
}
