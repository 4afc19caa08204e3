package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TaxCode is a VAT percentage applied to a logistical item (e.g. 0%, 9%, 21%).
type TaxCode struct {
	ID         string
	Name       string
	Percentage decimal.Decimal // e.g. 21 for 21%
	CreatedAt  time.Time
}

// Multiplier returns 1 + percentage/100, the factor that turns a pre-tax
// amount into a tax-inclusive one.
func (t TaxCode) Multiplier() decimal.Decimal {
	return decimal.NewFromInt(1).Add(t.Percentage.Div(decimal.NewFromInt(100)))
}
