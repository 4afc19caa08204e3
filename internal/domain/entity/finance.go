package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FinanceStatus is the lifecycle status of a billing attempt.
//
// Local statuses are set by the orchestrator and the channels. Provider-echoed
// statuses arrive through the payment provider webhook and carry the "opp:"
// prefix so they can never collide with a local one.
type FinanceStatus string

// Local statuses.
const (
	StatusManual                  FinanceStatus = "Manual"
	StatusPlannedForSent          FinanceStatus = "PlannedForSent"
	StatusManualActionNeeded      FinanceStatus = "ManualActionNeeded"
	StatusPaymentProviderNotReady FinanceStatus = "PaymentProviderNotReady"
	StatusRenterNotFromProvider   FinanceStatus = "RenterNotFromProvider"
	StatusFailedToSent            FinanceStatus = "FailedToSent"
	StatusSent                    FinanceStatus = "Sent"
)

// Provider-echoed statuses.
const (
	StatusOppCreated    FinanceStatus = "opp:created"
	StatusOppPending    FinanceStatus = "opp:pending"
	StatusOppPlanned    FinanceStatus = "opp:planned"
	StatusOppCompleted  FinanceStatus = "opp:completed"
	StatusOppReserved   FinanceStatus = "opp:reserved"
	StatusOppCancelled  FinanceStatus = "opp:cancelled"
	StatusOppFailed     FinanceStatus = "opp:failed"
	StatusOppExpired    FinanceStatus = "opp:expired"
	StatusOppRefunded   FinanceStatus = "opp:refunded"
	StatusOppChargeback FinanceStatus = "opp:chargeback"
)

// StatusFromProvider maps a raw provider status string onto the prefixed
// FinanceStatus space. Unknown provider values still get the prefix so they
// remain distinguishable from local statuses.
func StatusFromProvider(raw string) FinanceStatus {
	return FinanceStatus("opp:" + strings.ToLower(strings.TrimSpace(raw)))
}

// FromProvider reports whether the status was echoed by the payment provider.
func (s FinanceStatus) FromProvider() bool {
	return strings.HasPrefix(string(s), "opp:")
}

// Retryable reports whether the next scheduled run may re-attempt a finance
// record in this status within the same calendar month. Only these four
// statuses are retried; ManualActionNeeded and all Sent/provider statuses are
// left alone until a human or an external event changes them.
func (s FinanceStatus) Retryable() bool {
	switch s {
	case StatusManual, StatusPlannedForSent, StatusPaymentProviderNotReady, StatusFailedToSent:
		return true
	}
	return false
}

// FinanceItem is the immutable snapshot of one logistical item at billing
// time. Later edits to the agreement never alter historical invoices.
type FinanceItem struct {
	Type          string
	Description   string
	Amount        decimal.Decimal // pre-tax
	TaxCodeID     string
	TaxPercentage decimal.Decimal
}

// Finance is one billing attempt for one agreement in one calendar month. It
// is created once per (agreement, month) and reused across retries within
// that month.
type Finance struct {
	ID                 string
	TenantID           string
	PropertyID         string
	RenterID           string
	AgreementID        string
	Amount             decimal.Decimal // computed, tax-inclusive
	Status             FinanceStatus
	PaymentMethod      string // free text, set post-dispatch ("email", "opp", "exact-invoice")
	TransactionID      string
	PaymentURL         string
	ExactInvoiceID     string // internal id inside the accounting system
	ExactInvoiceNumber string // human invoice number; reconciliation matches on this
	OpenAmount         decimal.Decimal
	PaidAt             *time.Time
	Items              []FinanceItem
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// SnapshotItems copies the agreement's billable lines into the finance record.
func (f *Finance) SnapshotItems(items []LogisticalItem) {
	f.Items = make([]FinanceItem, 0, len(items))
	for _, li := range items {
		f.Items = append(f.Items, FinanceItem{
			Type:          li.Type,
			Description:   li.Description,
			Amount:        li.Amount,
			TaxCodeID:     li.TaxCodeID,
			TaxPercentage: li.TaxPercentage,
		})
	}
}
