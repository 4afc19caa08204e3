package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Agreement payment methods.
const (
	PaymentMethodAutomatic = "Automatic"
	PaymentMethodManual    = "Manual"
)

// Agreement statuses.
const (
	AgreementStatusActive   = "Active"
	AgreementStatusInactive = "Inactive"
)

// Logistical item types. Exactly one RENT line and at most one SERVICE_FEE and
// one DEPOSIT line may exist per agreement; that invariant is enforced at
// create/update time, before any billing logic runs.
const (
	ItemTypeRent       = "RENT"
	ItemTypeServiceFee = "SERVICE_FEE"
	ItemTypeDeposit    = "DEPOSIT"
	ItemTypeOther      = "OTHER"
)

// ItemTypes lists all logistical item types, in catalog order.
var ItemTypes = []string{ItemTypeRent, ItemTypeServiceFee, ItemTypeDeposit, ItemTypeOther}

// ValidItemType reports whether t is one of the known logistical item types.
func ValidItemType(t string) bool {
	for _, known := range ItemTypes {
		if t == known {
			return true
		}
	}
	return false
}

// LogisticalItem is one billable line of an agreement. Amount is pre-tax; the
// tax percentage is denormalized from the referenced TaxCode when the
// agreement is loaded so the billing math never needs a second lookup.
type LogisticalItem struct {
	ID            string
	AgreementID   string
	Type          string // RENT | SERVICE_FEE | DEPOSIT | OTHER
	Description   string
	Amount        decimal.Decimal // pre-tax
	TaxCodeID     string
	TaxPercentage decimal.Decimal // from TaxCode at load time
}

// GrossAmount returns the tax-inclusive amount of the line.
func (li LogisticalItem) GrossAmount() decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(li.TaxPercentage.Div(decimal.NewFromInt(100)))
	return li.Amount.Mul(factor)
}

// Agreement is a rental contract between a tenant and one or more renters for
// one property.
type Agreement struct {
	ID                string
	TenantID          string
	PropertyID        string
	PrimaryRenterID   string
	RenterIDs         []string
	PaymentMethod     string // Automatic | Manual
	PaymentDayOfMonth int    // 1-31
	Status            string // Active | Inactive
	StartDate         time.Time
	EndDate           *time.Time
	EndedDate         *time.Time
	Items             []LogisticalItem
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsActive reports whether the agreement is eligible for billing.
func (a *Agreement) IsActive() bool {
	return a.Status == AgreementStatusActive
}

// ValidateItems enforces the line-item invariant: exactly one RENT line, at
// most one SERVICE_FEE and at most one DEPOSIT.
func (a *Agreement) ValidateItems() bool {
	counts := map[string]int{}
	for _, li := range a.Items {
		counts[li.Type]++
	}
	if counts[ItemTypeRent] != 1 {
		return false
	}
	if counts[ItemTypeServiceFee] > 1 || counts[ItemTypeDeposit] > 1 {
		return false
	}
	return true
}

// BillableAmount computes the tax-inclusive amount for one billing cycle.
// The DEPOSIT line is charged on the first billing only, so callers pass
// includeDeposit=false once a prior Finance record exists.
func (a *Agreement) BillableAmount(includeDeposit bool) decimal.Decimal {
	total := decimal.Zero
	for _, li := range a.Items {
		if li.Type == ItemTypeDeposit && !includeDeposit {
			continue
		}
		total = total.Add(li.GrossAmount())
	}
	return total
}

// BillableItems returns the line items for one billing cycle, applying the
// same deposit-once rule as BillableAmount.
func (a *Agreement) BillableItems(includeDeposit bool) []LogisticalItem {
	items := make([]LogisticalItem, 0, len(a.Items))
	for _, li := range a.Items {
		if li.Type == ItemTypeDeposit && !includeDeposit {
			continue
		}
		items = append(items, li)
	}
	return items
}
