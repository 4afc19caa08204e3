package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rently/rently-api/internal/domain/entity"
	"github.com/rently/rently-api/pkg/logger"
)

// orchFixture wires an orchestrator over in-memory fakes with one tenant, one
// renter, one property and one agreement (RENT 1000 + DEPOSIT 500, both 0%
// tax).
type orchFixture struct {
	now        time.Time
	finances   *fakeFinanceRepo
	agreements *fakeAgreementRepo
	manual     *fakeChannel
	opp        *fakeChannel
	invoice    *fakeChannel
	orch       *Orchestrator
	agreement  *entity.Agreement
}

func newOrchFixture(tenantKind, paymentMethod string, paymentDay int) *orchFixture {
	f := &orchFixture{
		now:        time.Date(2026, time.March, 15, 8, 0, 0, 0, time.UTC),
		finances:   newFakeFinanceRepo(),
		agreements: newFakeAgreementRepo(),
		manual:     &fakeChannel{name: "manual-email", ready: true, result: &DispatchResult{Status: entity.StatusManualActionNeeded, PaymentMethod: "email"}},
		opp:        &fakeChannel{name: "opp", ready: true, result: &DispatchResult{Status: entity.StatusSent, PaymentMethod: "opp", TransactionID: "tx-1"}},
		invoice:    &fakeChannel{name: "exact-invoice", ready: true, result: &DispatchResult{Status: entity.StatusSent, PaymentMethod: "exact-invoice", ExactInvoiceID: "inv-1", ExactInvoiceNumber: "2026-001"}},
	}

	tenant := &entity.Tenant{ID: "tenant-1", Name: "Acme Rentals", Kind: tenantKind, Email: "landlord@example.com"}
	renter := &entity.Renter{ID: "renter-1", TenantID: tenant.ID, Name: "Jan Jansen", Email: "jan@example.com", ExactAccountID: "acct-1"}
	property := &entity.Property{ID: "prop-1", TenantID: tenant.ID, Address: "Main Street 1"}

	f.agreement = &entity.Agreement{
		ID:                "agr-1",
		TenantID:          tenant.ID,
		PropertyID:        property.ID,
		PrimaryRenterID:   renter.ID,
		PaymentMethod:     paymentMethod,
		PaymentDayOfMonth: paymentDay,
		Status:            entity.AgreementStatusActive,
		StartDate:         time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		Items: []entity.LogisticalItem{
			{ID: "li-1", AgreementID: "agr-1", Type: entity.ItemTypeRent, Description: "Rent", Amount: decimal.NewFromInt(1000), TaxCodeID: "tax-0"},
			{ID: "li-2", AgreementID: "agr-1", Type: entity.ItemTypeDeposit, Description: "Deposit", Amount: decimal.NewFromInt(500), TaxCodeID: "tax-0"},
		},
	}
	f.agreements.rows[f.agreement.ID] = f.agreement
	f.agreements.kinds[tenant.ID] = tenantKind

	f.orch = NewOrchestrator(
		&fakeTxRunner{finances: f.finances, agreements: f.agreements},
		f.agreements,
		f.finances,
		&fakeTenantRepo{rows: map[string]*entity.Tenant{tenant.ID: tenant}},
		&fakeRenterRepo{rows: map[string]*entity.Renter{renter.ID: renter}},
		&fakePropertyRepo{rows: map[string]*entity.Property{property.ID: property}},
		f.manual, f.opp, f.invoice,
		logger.NewNop(),
		func() time.Time { return f.now },
	)
	return f
}

func (f *orchFixture) run(t *testing.T) {
	t.Helper()
	require.NoError(t, f.orch.ProcessAllAgreements(context.Background()))
}

func (f *orchFixture) singleFinance(t *testing.T) *entity.Finance {
	t.Helper()
	rows, err := f.finances.ListByAgreement(context.Background(), f.agreement.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	return rows[0]
}

func TestProcessPayment_FirstBillingIncludesDeposit(t *testing.T) {
	f := newOrchFixture(entity.TenantKindConsumer, entity.PaymentMethodAutomatic, 15)
	f.run(t)

	fin := f.singleFinance(t)
	assert.True(t, decimal.NewFromInt(1500).Equal(fin.Amount), "first billing charges rent + deposit, got %s", fin.Amount)
	assert.Equal(t, entity.StatusSent, fin.Status)
	assert.Equal(t, "opp", fin.PaymentMethod)
	assert.Len(t, fin.Items, 2)
	assert.Len(t, f.opp.dispatched, 1)
}

func TestProcessPayment_SecondMonthExcludesDeposit(t *testing.T) {
	f := newOrchFixture(entity.TenantKindConsumer, entity.PaymentMethodAutomatic, 15)
	f.run(t)

	f.now = time.Date(2026, time.April, 15, 8, 0, 0, 0, time.UTC)
	f.run(t)

	rows, err := f.finances.ListByAgreement(context.Background(), f.agreement.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.True(t, decimal.NewFromInt(1000).Equal(rows[1].Amount), "deposit is charged once, got %s", rows[1].Amount)
	assert.Len(t, rows[1].Items, 1)
	assert.Equal(t, entity.ItemTypeRent, rows[1].Items[0].Type)
}

func TestProcessPayment_MonthIsIdempotent(t *testing.T) {
	f := newOrchFixture(entity.TenantKindConsumer, entity.PaymentMethodAutomatic, 15)
	f.run(t)
	f.run(t)

	f.singleFinance(t)
	assert.Len(t, f.opp.dispatched, 1, "a Sent finance record must not be dispatched again")
}

func TestProcessPayment_RetryableStatusIsReattempted(t *testing.T) {
	f := newOrchFixture(entity.TenantKindConsumer, entity.PaymentMethodAutomatic, 15)

	// First run with the provider not ready: the attempt is recorded and
	// deferred, nothing is dispatched.
	f.opp.ready = false
	f.opp.blockStatus = entity.StatusPaymentProviderNotReady
	f.run(t)

	fin := f.singleFinance(t)
	assert.Equal(t, entity.StatusPaymentProviderNotReady, fin.Status)
	assert.Empty(t, f.opp.dispatched)

	// Compliance resolves the same month: the existing record is reused and
	// dispatched, no second row appears.
	f.opp.ready = true
	f.run(t)

	after := f.singleFinance(t)
	assert.Equal(t, fin.ID, after.ID)
	assert.Equal(t, entity.StatusSent, after.Status)
	assert.Len(t, f.opp.dispatched, 1)
}

func TestProcessPayment_ManualActionNeededIsTerminal(t *testing.T) {
	f := newOrchFixture(entity.TenantKindConsumer, entity.PaymentMethodManual, 15)
	existing := &entity.Finance{
		ID:          "fin-1",
		TenantID:    "tenant-1",
		PropertyID:  "prop-1",
		RenterID:    "renter-1",
		AgreementID: "agr-1",
		Amount:      decimal.NewFromInt(1500),
		Status:      entity.StatusManualActionNeeded,
		CreatedAt:   f.now.AddDate(0, 0, -3),
	}
	require.NoError(t, f.finances.Create(context.Background(), existing))

	f.run(t)

	fin := f.singleFinance(t)
	assert.Equal(t, entity.StatusManualActionNeeded, fin.Status)
	assert.Empty(t, f.manual.dispatched, "ManualActionNeeded is left to a human")
}

func TestProcessPayment_ReadinessIsCheckedBeforeDayGate(t *testing.T) {
	// Payment day is the 20th, today is the 15th. The readiness failure must
	// still be recorded today so configuration problems surface daily.
	f := newOrchFixture(entity.TenantKindConsumer, entity.PaymentMethodAutomatic, 20)
	f.opp.ready = false
	f.opp.blockStatus = entity.StatusPaymentProviderNotReady
	f.run(t)

	fin := f.singleFinance(t)
	assert.Equal(t, entity.StatusPaymentProviderNotReady, fin.Status)
	assert.Empty(t, f.opp.dispatched)
}

func TestProcessPayment_DayGateDefersDispatch(t *testing.T) {
	f := newOrchFixture(entity.TenantKindConsumer, entity.PaymentMethodAutomatic, 20)
	f.run(t)

	fin := f.singleFinance(t)
	assert.Equal(t, entity.StatusPlannedForSent, fin.Status, "record is created ahead of the payment day")
	assert.Empty(t, f.opp.dispatched)

	// The payment day arrives: the planned record is dispatched.
	f.now = time.Date(2026, time.March, 20, 8, 0, 0, 0, time.UTC)
	f.run(t)

	after := f.singleFinance(t)
	assert.Equal(t, fin.ID, after.ID)
	assert.Equal(t, entity.StatusSent, after.Status)
	assert.Len(t, f.opp.dispatched, 1)
}

func TestProcessPayment_DispatchFailureIsRetried(t *testing.T) {
	f := newOrchFixture(entity.TenantKindConsumer, entity.PaymentMethodAutomatic, 15)
	f.opp.err = errors.New("provider boom")
	f.run(t)

	fin := f.singleFinance(t)
	assert.Equal(t, entity.StatusFailedToSent, fin.Status)

	f.opp.err = nil
	f.run(t)

	after := f.singleFinance(t)
	assert.Equal(t, entity.StatusSent, after.Status)
	assert.Len(t, f.opp.dispatched, 2)
}

func TestProcessPayment_ChannelSelection(t *testing.T) {
	t.Run("consumer automatic goes through the payment provider", func(t *testing.T) {
		f := newOrchFixture(entity.TenantKindConsumer, entity.PaymentMethodAutomatic, 15)
		f.run(t)
		assert.Len(t, f.opp.dispatched, 1)
		assert.Empty(t, f.invoice.dispatched)
		assert.Empty(t, f.manual.dispatched)
	})

	t.Run("business automatic goes through the accounting invoice", func(t *testing.T) {
		f := newOrchFixture(entity.TenantKindBusiness, entity.PaymentMethodAutomatic, 15)
		require.NoError(t, f.orch.ProcessAllBusinessAgreements(context.Background()))
		assert.Len(t, f.invoice.dispatched, 1)
		assert.Empty(t, f.opp.dispatched)
	})

	t.Run("manual always goes through email", func(t *testing.T) {
		f := newOrchFixture(entity.TenantKindConsumer, entity.PaymentMethodManual, 15)
		f.run(t)
		assert.Len(t, f.manual.dispatched, 1)
		assert.Empty(t, f.opp.dispatched)
	})
}

func TestProcessPayment_ManualCreatesRetryableRecord(t *testing.T) {
	// Ahead of the payment day a manual agreement's record sits in Manual,
	// which is retryable; once the email goes out it lands in
	// ManualActionNeeded, which is not.
	f := newOrchFixture(entity.TenantKindConsumer, entity.PaymentMethodManual, 20)
	f.run(t)

	fin := f.singleFinance(t)
	assert.Equal(t, entity.StatusManual, fin.Status)
	assert.True(t, fin.Status.Retryable())

	f.now = time.Date(2026, time.March, 20, 8, 0, 0, 0, time.UTC)
	f.run(t)

	after := f.singleFinance(t)
	assert.Equal(t, entity.StatusManualActionNeeded, after.Status)
	assert.False(t, after.Status.Retryable())
}

func TestAgreementCreated_FastPathBillsImmediately(t *testing.T) {
	f := newOrchFixture(entity.TenantKindConsumer, entity.PaymentMethodAutomatic, 15)
	f.orch.AgreementCreated(context.Background(), f.agreement.ID)

	fin := f.singleFinance(t)
	assert.Equal(t, entity.StatusSent, fin.Status)
	assert.Len(t, f.opp.dispatched, 1)
}

func TestAgreementCreated_NoItemsIsNoOp(t *testing.T) {
	f := newOrchFixture(entity.TenantKindConsumer, entity.PaymentMethodAutomatic, 15)
	f.agreements.rows[f.agreement.ID].Items = nil

	f.orch.AgreementCreated(context.Background(), f.agreement.ID)

	rows, err := f.finances.ListByAgreement(context.Background(), f.agreement.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Empty(t, f.opp.dispatched)
}

func TestProcessPayment_BatchIsolatesFailures(t *testing.T) {
	f := newOrchFixture(entity.TenantKindConsumer, entity.PaymentMethodAutomatic, 15)

	// A second agreement whose tenant cannot be loaded fails, but the healthy
	// one is still billed.
	broken := &entity.Agreement{
		ID:                "agr-0",
		TenantID:          "tenant-missing",
		PropertyID:        "prop-1",
		PrimaryRenterID:   "renter-1",
		PaymentMethod:     entity.PaymentMethodAutomatic,
		PaymentDayOfMonth: 15,
		Status:            entity.AgreementStatusActive,
		Items:             f.agreement.Items,
	}
	f.agreements.rows[broken.ID] = broken
	f.agreements.kinds["tenant-missing"] = entity.TenantKindConsumer

	f.run(t)

	f.singleFinance(t)
	assert.Len(t, f.opp.dispatched, 1)
}
