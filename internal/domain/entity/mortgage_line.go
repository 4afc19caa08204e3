package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Mortgage repayment types.
const (
	MortgageTypeAnnuity = "Annuity"
	MortgageTypeLinear  = "Linear"
)

// MortgageLine is one loan tranche on a property. MonthlyPayment and
// AccumulatedAmount are derived figures, recomputed from the amortization
// engine; they are not authoritative history.
type MortgageLine struct {
	ID           string
	TenantID     string
	PropertyID   string
	Amount       decimal.Decimal // principal
	InterestRate decimal.Decimal // annual %
	Type         string          // Annuity | Linear
	StartDate    time.Time
	EndDate      time.Time
	Part         int // tranche index
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
