package dto

import (
	"github.com/shopspring/decimal"
)

// CreateMortgageLineRequest adds a loan tranche to a property.
type CreateMortgageLineRequest struct {
	PropertyID   string          `json:"property_id"`
	Amount       decimal.Decimal `json:"amount"`        // principal
	InterestRate decimal.Decimal `json:"interest_rate"` // annual %
	Type         string          `json:"type"`          // Annuity | Linear
	StartDate    string          `json:"start_date"`    // YYYY-MM-DD
	EndDate      string          `json:"end_date"`      // YYYY-MM-DD
	Part         int             `json:"part"`
}

// MortgageLineResponse mirrors a tranche plus its recomputed schedule figures.
type MortgageLineResponse struct {
	ID                 string          `json:"id"`
	PropertyID         string          `json:"property_id"`
	Amount             decimal.Decimal `json:"amount"`
	InterestRate       decimal.Decimal `json:"interest_rate"`
	Type               string          `json:"type"`
	StartDate          string          `json:"start_date"`
	EndDate            string          `json:"end_date"`
	Part               int             `json:"part"`
	DurationMonths     int             `json:"duration_months"`
	MonthlyPayment     decimal.Decimal `json:"monthly_payment"`
	AccumulatedAmount  decimal.Decimal `json:"accumulated_amount"`
	RemainingAmount    decimal.Decimal `json:"remaining_amount"`
	InterestPayment    decimal.Decimal `json:"interest_payment"`
	PrincipalRepayment decimal.Decimal `json:"principal_repayment"`
	MonthsPassed       int             `json:"months_passed"`
}
