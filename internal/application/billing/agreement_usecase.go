package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rently/rently-api/internal/domain"
	"github.com/rently/rently-api/internal/domain/entity"
	"github.com/rently/rently-api/internal/domain/repository"
	"github.com/rently/rently-api/pkg/logger"
)

// AgreementInput is the use-case input for creating an agreement.
type AgreementInput struct {
	TenantID          string
	PropertyID        string
	PrimaryRenterID   string
	RenterIDs         []string
	PaymentMethod     string
	PaymentDayOfMonth int
	StartDate         time.Time
	EndDate           *time.Time
	Items             []AgreementItemInput
}

// AgreementItemInput is one billable line of a new agreement.
type AgreementItemInput struct {
	Type        string
	Description string
	Amount      decimal.Decimal
	TaxCodeID   string
}

// AgreementUseCase creates and ends agreements. Creation validates the line
// constraints, resolves tax percentages, persists inside one transaction and
// then fires the billing trigger so a same-day agreement is billed immediately.
type AgreementUseCase struct {
	agreements repository.AgreementRepository
	properties repository.PropertyRepository
	renters    repository.RenterRepository
	taxCodes   repository.TaxCodeRepository
	tx         BillingTxRunner
	trigger    BillingTrigger
	log        *logger.Logger
}

func NewAgreementUseCase(
	agreements repository.AgreementRepository,
	properties repository.PropertyRepository,
	renters repository.RenterRepository,
	taxCodes repository.TaxCodeRepository,
	tx BillingTxRunner,
	trigger BillingTrigger,
	log *logger.Logger,
) *AgreementUseCase {
	return &AgreementUseCase{
		agreements: agreements,
		properties: properties,
		renters:    renters,
		taxCodes:   taxCodes,
		tx:         tx,
		trigger:    trigger,
		log:        log,
	}
}

// Create validates and persists a new agreement. The billing trigger fires
// strictly after the transaction commits: a trigger that observed an
// uncommitted agreement could bill it and then lose the finance row to a
// rollback.
func (uc *AgreementUseCase) Create(ctx context.Context, in *AgreementInput) (*entity.Agreement, error) {
	if in.TenantID == "" || in.PropertyID == "" || in.PrimaryRenterID == "" {
		return nil, fmt.Errorf("%w: tenant, property and primary renter are required", domain.ErrInvalidInput)
	}
	if in.PaymentMethod != entity.PaymentMethodAutomatic && in.PaymentMethod != entity.PaymentMethodManual {
		return nil, fmt.Errorf("%w: payment method must be Automatic or Manual", domain.ErrInvalidInput)
	}
	if in.PaymentDayOfMonth < 1 || in.PaymentDayOfMonth > 31 {
		return nil, fmt.Errorf("%w: payment day must be between 1 and 31", domain.ErrInvalidInput)
	}

	property, err := uc.properties.GetByID(ctx, in.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("load property: %w", err)
	}
	if property == nil || property.TenantID != in.TenantID {
		return nil, fmt.Errorf("%w: property %s", domain.ErrNotFound, in.PropertyID)
	}

	renterIDs := in.RenterIDs
	if len(renterIDs) == 0 {
		renterIDs = []string{in.PrimaryRenterID}
	}
	for _, rid := range renterIDs {
		renter, err := uc.renters.GetByID(ctx, rid)
		if err != nil {
			return nil, fmt.Errorf("load renter: %w", err)
		}
		if renter == nil {
			return nil, fmt.Errorf("%w: renter %s", domain.ErrNotFound, rid)
		}
	}

	now := time.Now().UTC()
	agreement := &entity.Agreement{
		ID:                uuid.NewString(),
		TenantID:          in.TenantID,
		PropertyID:        in.PropertyID,
		PrimaryRenterID:   in.PrimaryRenterID,
		RenterIDs:         renterIDs,
		PaymentMethod:     in.PaymentMethod,
		PaymentDayOfMonth: in.PaymentDayOfMonth,
		Status:            entity.AgreementStatusActive,
		StartDate:         in.StartDate,
		EndDate:           in.EndDate,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	for _, item := range in.Items {
		if !entity.ValidItemType(item.Type) {
			return nil, fmt.Errorf("%w: unknown item type %s", domain.ErrInvalidInput, item.Type)
		}
		taxCode, err := uc.taxCodes.GetByID(ctx, item.TaxCodeID)
		if err != nil {
			return nil, fmt.Errorf("load tax code: %w", err)
		}
		if taxCode == nil {
			return nil, fmt.Errorf("%w: tax code %s", domain.ErrNotFound, item.TaxCodeID)
		}
		agreement.Items = append(agreement.Items, entity.LogisticalItem{
			ID:            uuid.NewString(),
			AgreementID:   agreement.ID,
			Type:          item.Type,
			Description:   item.Description,
			Amount:        item.Amount,
			TaxCodeID:     taxCode.ID,
			TaxPercentage: taxCode.Percentage,
		})
	}

	if !agreement.ValidateItems() {
		return nil, domain.ErrAgreementLineConflict
	}

	err = uc.tx.RunAgreement(ctx, func(agreementRepo repository.AgreementRepository) error {
		return agreementRepo.Create(ctx, agreement)
	})
	if err != nil {
		return nil, fmt.Errorf("create agreement: %w", err)
	}

	uc.log.Info().
		Str("agreement_id", agreement.ID).
		Str("tenant_id", agreement.TenantID).
		Str("payment_method", agreement.PaymentMethod).
		Msg("agreement created")

	if uc.trigger != nil {
		uc.trigger.AgreementCreated(ctx, agreement.ID)
	}
	return agreement, nil
}

// GetByID loads an agreement, scoped to the tenant.
func (uc *AgreementUseCase) GetByID(ctx context.Context, tenantID, id string) (*entity.Agreement, error) {
	agreement, err := uc.agreements.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if agreement == nil || agreement.TenantID != tenantID {
		return nil, fmt.Errorf("%w: agreement %s", domain.ErrNotFound, id)
	}
	return agreement, nil
}

// ListByTenant returns all agreements of the tenant.
func (uc *AgreementUseCase) ListByTenant(ctx context.Context, tenantID string) ([]*entity.Agreement, error) {
	return uc.agreements.ListByTenant(ctx, tenantID)
}

// End marks the agreement inactive so the billing batch skips it from the next
// run onward. Already-dispatched finances are not touched.
func (uc *AgreementUseCase) End(ctx context.Context, tenantID, id string) error {
	agreement, err := uc.agreements.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if agreement == nil || agreement.TenantID != tenantID {
		return fmt.Errorf("%w: agreement %s", domain.ErrNotFound, id)
	}
	if !agreement.IsActive() {
		return fmt.Errorf("%w: agreement already ended", domain.ErrConflict)
	}
	if err := uc.agreements.End(ctx, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("end agreement: %w", err)
	}
	uc.log.Info().Str("agreement_id", id).Str("tenant_id", tenantID).Msg("agreement ended")
	return nil
}
