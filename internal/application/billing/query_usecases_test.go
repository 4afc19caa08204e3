package billing

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rently/rently-api/internal/domain"
	"github.com/rently/rently-api/internal/domain/entity"
)

func TestFinanceUseCase_ListByAgreementScopedToTenant(t *testing.T) {
	finances := newFakeFinanceRepo()
	agreements := newFakeAgreementRepo()
	require.NoError(t, agreements.Create(context.Background(), &entity.Agreement{ID: "agr-1", TenantID: "tenant-1"}))
	finances.put(&entity.Finance{ID: "fin-1", TenantID: "tenant-1", AgreementID: "agr-1", CreatedAt: time.Now()})

	uc := NewFinanceUseCase(finances, agreements)

	rows, err := uc.ListByAgreement(context.Background(), "tenant-1", "agr-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "fin-1", rows[0].ID)

	_, err = uc.ListByAgreement(context.Background(), "tenant-2", "agr-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFinanceUseCase_GetByIDForeignTenant(t *testing.T) {
	finances := newFakeFinanceRepo()
	finances.put(&entity.Finance{ID: "fin-1", TenantID: "tenant-1"})

	uc := NewFinanceUseCase(finances, newFakeAgreementRepo())

	got, err := uc.GetByID(context.Background(), "tenant-1", "fin-1")
	require.NoError(t, err)
	assert.Equal(t, "fin-1", got.ID)

	_, err = uc.GetByID(context.Background(), "tenant-2", "fin-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMortgageUseCase_CreateComputesSchedule(t *testing.T) {
	lines := &fakeMortgageLineRepo{rows: map[string]*entity.MortgageLine{}}
	properties := &fakePropertyRepo{rows: map[string]*entity.Property{
		"prop-1": {ID: "prop-1", TenantID: "tenant-1"},
	}}
	now := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	uc := NewMortgageUseCase(lines, properties, func() time.Time { return now })

	view, err := uc.Create(context.Background(), &MortgageInput{
		TenantID:     "tenant-1",
		PropertyID:   "prop-1",
		Amount:       decimal.NewFromInt(120000),
		InterestRate: decimal.NewFromInt(4),
		Type:         entity.MortgageTypeAnnuity,
		StartDate:    time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2044, time.January, 1, 0, 0, 0, 0, time.UTC),
		Part:         1,
	})
	require.NoError(t, err)
	require.NotEmpty(t, view.Line.ID)
	assert.Equal(t, 240, view.Schedule.DurationMonths)
	assert.True(t, view.Schedule.MonthlyPayment.IsPositive())
	assert.Len(t, lines.rows, 1)
}

func TestMortgageUseCase_CreateValidates(t *testing.T) {
	lines := &fakeMortgageLineRepo{rows: map[string]*entity.MortgageLine{}}
	properties := &fakePropertyRepo{rows: map[string]*entity.Property{
		"prop-1": {ID: "prop-1", TenantID: "tenant-1"},
	}}
	uc := NewMortgageUseCase(lines, properties, nil)

	base := MortgageInput{
		TenantID:     "tenant-1",
		PropertyID:   "prop-1",
		Amount:       decimal.NewFromInt(100000),
		InterestRate: decimal.NewFromInt(3),
		Type:         entity.MortgageTypeLinear,
		StartDate:    time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2045, time.January, 1, 0, 0, 0, 0, time.UTC),
	}

	bad := base
	bad.Type = "BalloonPayment"
	_, err := uc.Create(context.Background(), &bad)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	bad = base
	bad.Amount = decimal.Zero
	_, err = uc.Create(context.Background(), &bad)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	bad = base
	bad.EndDate = bad.StartDate
	_, err = uc.Create(context.Background(), &bad)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	bad = base
	bad.PropertyID = "prop-of-someone-else"
	_, err = uc.Create(context.Background(), &bad)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Empty(t, lines.rows)
}

func TestMortgageUseCase_ListByPropertyScopedToTenant(t *testing.T) {
	lines := &fakeMortgageLineRepo{rows: map[string]*entity.MortgageLine{
		"mort-1": {
			ID: "mort-1", TenantID: "tenant-1", PropertyID: "prop-1",
			Amount: decimal.NewFromInt(80000), InterestRate: decimal.NewFromInt(2),
			Type:      entity.MortgageTypeLinear,
			StartDate: time.Date(2020, time.June, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2040, time.June, 1, 0, 0, 0, 0, time.UTC),
		},
	}}
	properties := &fakePropertyRepo{rows: map[string]*entity.Property{
		"prop-1": {ID: "prop-1", TenantID: "tenant-1"},
	}}
	now := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	uc := NewMortgageUseCase(lines, properties, func() time.Time { return now })

	views, err := uc.ListByProperty(context.Background(), "tenant-1", "prop-1")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, 72, views[0].Schedule.MonthsPassed)

	_, err = uc.ListByProperty(context.Background(), "tenant-2", "prop-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
