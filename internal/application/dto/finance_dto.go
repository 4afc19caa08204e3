package dto

import (
	"github.com/shopspring/decimal"
)

// FinanceItemResponse is one snapshotted line of a billing attempt.
type FinanceItemResponse struct {
	Type          string          `json:"type"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	TaxPercentage decimal.Decimal `json:"tax_percentage"`
}

// FinanceResponse mirrors a billing attempt and its lifecycle status.
type FinanceResponse struct {
	ID                 string                `json:"id"`
	AgreementID        string                `json:"agreement_id"`
	PropertyID         string                `json:"property_id"`
	RenterID           string                `json:"renter_id"`
	Amount             decimal.Decimal       `json:"amount"`
	Status             string                `json:"status"`
	PaymentMethod      string                `json:"payment_method,omitempty"`
	TransactionID      string                `json:"transaction_id,omitempty"`
	PaymentURL         string                `json:"payment_url,omitempty"`
	ExactInvoiceID     string                `json:"exact_invoice_id,omitempty"`
	ExactInvoiceNumber string                `json:"exact_invoice_number,omitempty"`
	OpenAmount         decimal.Decimal       `json:"open_amount"`
	PaidAt             string                `json:"paid_at,omitempty"`
	CreatedAt          string                `json:"created_at"`
	Items              []FinanceItemResponse `json:"items"`
}
