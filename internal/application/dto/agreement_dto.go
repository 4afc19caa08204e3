package dto

import (
	"github.com/shopspring/decimal"
)

// AgreementItemRequest is one billable line of a new agreement.
type AgreementItemRequest struct {
	Type        string          `json:"type"` // RENT | SERVICE_FEE | DEPOSIT | OTHER
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"` // pre-tax
	TaxCodeID   string          `json:"tax_code_id"`
}

// CreateAgreementRequest creates a rental agreement with its line items in one
// transaction.
type CreateAgreementRequest struct {
	PropertyID        string                 `json:"property_id"`
	PrimaryRenterID   string                 `json:"primary_renter_id"`
	RenterIDs         []string               `json:"renter_ids"`
	PaymentMethod     string                 `json:"payment_method"` // Automatic | Manual
	PaymentDayOfMonth int                    `json:"payment_day_of_month"`
	StartDate         string                 `json:"start_date"` // YYYY-MM-DD
	EndDate           string                 `json:"end_date"`   // optional, YYYY-MM-DD
	Items             []AgreementItemRequest `json:"items"`
}

// AgreementItemResponse mirrors a stored line item.
type AgreementItemResponse struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	TaxCodeID     string          `json:"tax_code_id"`
	TaxPercentage decimal.Decimal `json:"tax_percentage"`
}

// AgreementResponse mirrors a stored agreement.
type AgreementResponse struct {
	ID                string                  `json:"id"`
	TenantID          string                  `json:"tenant_id"`
	PropertyID        string                  `json:"property_id"`
	PrimaryRenterID   string                  `json:"primary_renter_id"`
	RenterIDs         []string                `json:"renter_ids"`
	PaymentMethod     string                  `json:"payment_method"`
	PaymentDayOfMonth int                     `json:"payment_day_of_month"`
	Status            string                  `json:"status"`
	StartDate         string                  `json:"start_date"`
	EndDate           string                  `json:"end_date,omitempty"`
	EndedDate         string                  `json:"ended_date,omitempty"`
	Items             []AgreementItemResponse `json:"items"`
}
