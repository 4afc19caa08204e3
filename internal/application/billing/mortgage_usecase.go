package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rently/rently-api/internal/domain"
	"github.com/rently/rently-api/internal/domain/entity"
	"github.com/rently/rently-api/internal/domain/mortgage"
	"github.com/rently/rently-api/internal/domain/repository"
)

// MortgageInput creates a loan tranche on a property.
type MortgageInput struct {
	TenantID     string
	PropertyID   string
	Amount       decimal.Decimal
	InterestRate decimal.Decimal
	Type         string // Annuity | Linear
	StartDate    time.Time
	EndDate      time.Time
	Part         int
}

// MortgageLineView pairs a stored tranche with its amortization figures as of
// now. The figures are recomputed on every read, never stored.
type MortgageLineView struct {
	Line     *entity.MortgageLine
	Schedule mortgage.Schedule
}

// MortgageUseCase manages loan tranches and exposes their amortization state.
type MortgageUseCase struct {
	lines      repository.MortgageLineRepository
	properties repository.PropertyRepository
	now        func() time.Time
}

func NewMortgageUseCase(lines repository.MortgageLineRepository, properties repository.PropertyRepository, now func() time.Time) *MortgageUseCase {
	if now == nil {
		now = time.Now
	}
	return &MortgageUseCase{lines: lines, properties: properties, now: now}
}

// Create validates and persists a tranche.
func (uc *MortgageUseCase) Create(ctx context.Context, in *MortgageInput) (*MortgageLineView, error) {
	if in.TenantID == "" || in.PropertyID == "" {
		return nil, fmt.Errorf("%w: tenant and property are required", domain.ErrInvalidInput)
	}
	if in.Type != entity.MortgageTypeAnnuity && in.Type != entity.MortgageTypeLinear {
		return nil, fmt.Errorf("%w: mortgage type must be Annuity or Linear", domain.ErrInvalidInput)
	}
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: principal must be positive", domain.ErrInvalidInput)
	}
	if in.InterestRate.IsNegative() {
		return nil, fmt.Errorf("%w: interest rate cannot be negative", domain.ErrInvalidInput)
	}
	if !in.EndDate.After(in.StartDate) {
		return nil, fmt.Errorf("%w: end date must be after start date", domain.ErrInvalidInput)
	}

	property, err := uc.properties.GetByID(ctx, in.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("load property: %w", err)
	}
	if property == nil || property.TenantID != in.TenantID {
		return nil, fmt.Errorf("%w: property %s", domain.ErrNotFound, in.PropertyID)
	}

	now := uc.now().UTC()
	line := &entity.MortgageLine{
		ID:           uuid.NewString(),
		TenantID:     in.TenantID,
		PropertyID:   in.PropertyID,
		Amount:       in.Amount,
		InterestRate: in.InterestRate,
		Type:         in.Type,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		Part:         in.Part,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.lines.Create(ctx, line); err != nil {
		return nil, fmt.Errorf("create mortgage line: %w", err)
	}
	return uc.view(line), nil
}

// ListByProperty returns the property's tranches with current amortization
// figures. The property lookup scopes the call to the tenant.
func (uc *MortgageUseCase) ListByProperty(ctx context.Context, tenantID, propertyID string) ([]*MortgageLineView, error) {
	property, err := uc.properties.GetByID(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("load property: %w", err)
	}
	if property == nil || property.TenantID != tenantID {
		return nil, fmt.Errorf("%w: property %s", domain.ErrNotFound, propertyID)
	}

	lines, err := uc.lines.ListByProperty(ctx, tenantID, propertyID)
	if err != nil {
		return nil, err
	}
	views := make([]*MortgageLineView, 0, len(lines))
	for _, line := range lines {
		views = append(views, uc.view(line))
	}
	return views, nil
}

func (uc *MortgageUseCase) view(line *entity.MortgageLine) *MortgageLineView {
	return &MortgageLineView{
		Line:     line,
		Schedule: mortgage.ScheduleFor(line.Type, line.Amount, line.InterestRate, line.StartDate, line.EndDate, uc.now().UTC()),
	}
}
