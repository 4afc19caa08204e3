package billing

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rently/rently-api/internal/domain/entity"
	"github.com/rently/rently-api/pkg/logger"
)

func reconFixture(t *testing.T, open []OpenInvoice) (*fakeFinanceRepo, *fakeAccountingGateway, *ReconciliationSweeper, time.Time) {
	t.Helper()
	now := time.Date(2026, time.March, 20, 9, 0, 0, 0, time.UTC)
	finances := newFakeFinanceRepo()
	require.NoError(t, finances.Create(context.Background(), &entity.Finance{
		ID:                 "fin-1",
		TenantID:           "tenant-1",
		PropertyID:         "prop-1",
		AgreementID:        "agr-1",
		Amount:             decimal.NewFromInt(500),
		Status:             entity.StatusSent,
		ExactInvoiceID:     "guid-1",
		ExactInvoiceNumber: "2026-001",
		CreatedAt:          now.AddDate(0, -1, 0),
	}))
	gateway := &fakeAccountingGateway{
		ready: map[string]bool{"tenant-1": true},
		open:  map[string][]OpenInvoice{"tenant-1": open},
	}
	sweeper := NewReconciliationSweeper(finances, gateway, logger.NewNop(), func() time.Time { return now })
	return finances, gateway, sweeper, now
}

func TestReconciliation_FullyOpenInvoiceMarksPaid(t *testing.T) {
	invoiceDate := time.Date(2026, time.February, 15, 0, 0, 0, 0, time.UTC)
	finances, _, sweeper, _ := reconFixture(t, []OpenInvoice{
		{InvoiceID: "guid-1", InvoiceNumber: "2026-001", OpenAmount: decimal.NewFromInt(500), InvoiceDate: &invoiceDate},
	})

	require.NoError(t, sweeper.Run(context.Background()))

	fin, err := finances.GetByID(context.Background(), "fin-1")
	require.NoError(t, err)
	require.NotNil(t, fin.PaidAt)
	assert.Equal(t, invoiceDate, *fin.PaidAt)
	assert.True(t, decimal.NewFromInt(500).Equal(fin.OpenAmount))
}

func TestReconciliation_PartialAmountOnlyUpdatesOpenAmount(t *testing.T) {
	finances, _, sweeper, _ := reconFixture(t, []OpenInvoice{
		{InvoiceID: "guid-1", InvoiceNumber: "2026-001", OpenAmount: decimal.NewFromInt(300)},
	})

	require.NoError(t, sweeper.Run(context.Background()))

	fin, err := finances.GetByID(context.Background(), "fin-1")
	require.NoError(t, err)
	assert.Nil(t, fin.PaidAt)
	assert.True(t, decimal.NewFromInt(300).Equal(fin.OpenAmount))
}

func TestReconciliation_SecondSweepRewritesOpenAmountWhileUnpaid(t *testing.T) {
	finances, gateway, sweeper, _ := reconFixture(t, []OpenInvoice{
		{InvoiceID: "guid-1", InvoiceNumber: "2026-001", OpenAmount: decimal.NewFromInt(300)},
	})

	require.NoError(t, sweeper.Run(context.Background()))

	fin, err := finances.GetByID(context.Background(), "fin-1")
	require.NoError(t, err)
	require.Nil(t, fin.PaidAt)
	require.True(t, decimal.NewFromInt(300).Equal(fin.OpenAmount))

	// The renter pays off another chunk; the unpaid record stays selected for
	// the next sweep and its open amount follows the accounting system.
	tenants, err := finances.TenantsWithOpenExactInvoices(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"tenant-1"}, tenants)

	gateway.open["tenant-1"] = []OpenInvoice{
		{InvoiceID: "guid-1", InvoiceNumber: "2026-001", OpenAmount: decimal.NewFromInt(200)},
	}
	require.NoError(t, sweeper.Run(context.Background()))

	after, err := finances.GetByID(context.Background(), "fin-1")
	require.NoError(t, err)
	assert.Nil(t, after.PaidAt)
	assert.True(t, decimal.NewFromInt(200).Equal(after.OpenAmount))
}

func TestReconciliation_MissingInvoiceDateFallsBackToNow(t *testing.T) {
	finances, _, sweeper, now := reconFixture(t, []OpenInvoice{
		{InvoiceID: "guid-1", InvoiceNumber: "2026-001", OpenAmount: decimal.NewFromInt(500)},
	})

	require.NoError(t, sweeper.Run(context.Background()))

	fin, err := finances.GetByID(context.Background(), "fin-1")
	require.NoError(t, err)
	require.NotNil(t, fin.PaidAt)
	assert.Equal(t, now, *fin.PaidAt)
}

func TestReconciliation_MatchesOnInvoiceNumberNotID(t *testing.T) {
	// The external system reports its internal id in InvoiceID; matching must
	// use the human invoice number.
	finances, _, sweeper, _ := reconFixture(t, []OpenInvoice{
		{InvoiceID: "2026-001", InvoiceNumber: "some-other-number", OpenAmount: decimal.NewFromInt(500)},
	})

	require.NoError(t, sweeper.Run(context.Background()))

	fin, err := finances.GetByID(context.Background(), "fin-1")
	require.NoError(t, err)
	assert.Nil(t, fin.PaidAt, "an id that merely looks like the number must not match")
	assert.True(t, fin.OpenAmount.IsZero())
}

func TestReconciliation_SkipsZeroAmountAndPaidRecords(t *testing.T) {
	finances, gateway, sweeper, now := reconFixture(t, []OpenInvoice{
		{InvoiceID: "guid-1", InvoiceNumber: "2026-001", OpenAmount: decimal.Zero},
	})

	require.NoError(t, sweeper.Run(context.Background()))
	fin, err := finances.GetByID(context.Background(), "fin-1")
	require.NoError(t, err)
	assert.Nil(t, fin.PaidAt)

	// An already-paid record is never rewritten.
	paid := now.AddDate(0, 0, -1)
	fin.PaidAt = &paid
	fin.OpenAmount = decimal.NewFromInt(500)
	require.NoError(t, finances.Update(context.Background(), fin))

	gateway.open["tenant-1"] = []OpenInvoice{
		{InvoiceID: "guid-1", InvoiceNumber: "2026-001", OpenAmount: decimal.NewFromInt(123)},
	}
	require.NoError(t, sweeper.Run(context.Background()))

	after, err := finances.GetByID(context.Background(), "fin-1")
	require.NoError(t, err)
	assert.Equal(t, paid, *after.PaidAt)
	assert.True(t, decimal.NewFromInt(500).Equal(after.OpenAmount))
}

func TestReconciliation_SkipsTenantsWithUnreadyGateway(t *testing.T) {
	_, gateway, sweeper, _ := reconFixture(t, nil)
	gateway.ready["tenant-1"] = false

	require.NoError(t, sweeper.Run(context.Background()))
	assert.Zero(t, gateway.readCalls, "no invoice pull for a disconnected tenant")
}
