package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Ledger kinds.
const (
	LedgerKindRevenues = "Revenues"
	LedgerKindCost     = "Cost"
)

// Ledger durations.
const (
	LedgerDurationOneTime         = "OneTime"
	LedgerDurationPeriodicKnown   = "PeriodicKnown"
	LedgerDurationPeriodicUnknown = "PeriodicUnknown"
)

// Ledger is a generic bookkeeping posting owned by tenant + property. System
// generated postings (mortgage interest) carry a ThirdPartyReference that acts
// as the idempotency key.
type Ledger struct {
	ID                  string
	TenantID            string
	PropertyID          string
	Kind                string // Revenues | Cost
	Duration            string // OneTime | PeriodicKnown | PeriodicUnknown
	Description         string
	Amount              decimal.Decimal
	ThirdPartyReference string
	MortgageType        string // Annuity | Linear, empty for non-mortgage postings
	Date                time.Time
	CreatedAt           time.Time
}

// MortgageReference builds the idempotency key for a monthly mortgage interest
// posting: mortgage_id:<id>-period:<month>-<year>.
func MortgageReference(mortgageLineID string, period time.Time) string {
	return fmt.Sprintf("mortgage_id:%s-period:%d-%d", mortgageLineID, int(period.Month()), period.Year())
}
