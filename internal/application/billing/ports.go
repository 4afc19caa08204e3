package billing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rently/rently-api/internal/domain/entity"
	"github.com/rently/rently-api/internal/domain/repository"
)

// BillingTxRunner runs a function inside one database transaction with
// repositories bound to that transaction. The per-month idempotency check and
// the finance create must share a transaction so two concurrent runs cannot
// bill the same agreement twice.
type BillingTxRunner interface {
	RunFinance(ctx context.Context, fn func(financeRepo repository.FinanceRepository) error) error
	RunAgreement(ctx context.Context, fn func(agreementRepo repository.AgreementRepository) error) error
}

// ── Email ─────────────────────────────────────────────────────────────────────

// EmailAttachment is an optional file attached to an outbound mail.
type EmailAttachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// EmailMessage is the outbound mail contract: template id plus substitution
// data, delivery handled elsewhere.
type EmailMessage struct {
	To         string
	Subject    string
	TemplateID string
	Data       map[string]string
	ReplyTo    string
	Attachment *EmailAttachment
}

// EmailSender is the outbound email capability.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// ── Payment request PDF ───────────────────────────────────────────────────────

// PaymentRequest carries everything the manual channel needs to render the
// payment-request document.
type PaymentRequest struct {
	TenantName      string
	RenterName      string
	PropertyAddress string
	Reference       string // finance record id, printed for support lookups
	Period          time.Time
	Lines           []entity.FinanceItem
	Total           decimal.Decimal
}

// PaymentRequestPDFGenerator renders the payment request attached to the
// manual-channel email.
type PaymentRequestPDFGenerator interface {
	Generate(ctx context.Context, req *PaymentRequest) ([]byte, error)
}

// ── Accounting gateway ────────────────────────────────────────────────────────

// SalesInvoiceLine is one line of an accounting sales invoice.
type SalesInvoiceLine struct {
	ItemType    string // logistical item type, resolved to a catalog item code
	Description string
	Amount      decimal.Decimal // pre-tax
	TaxCodeID   string          // resolved to the tenant's VAT-code mapping
}

// SalesInvoiceRequest asks the accounting system to create an invoice for a
// renter's external account.
type SalesInvoiceRequest struct {
	RenterAccountID string
	Description     string
	Lines           []SalesInvoiceLine
}

// SalesInvoiceResult carries both accounting identifiers. InvoiceID is the
// system's internal id; InvoiceNumber is the human number reconciliation
// matches on. They are different identifiers and must not be confused.
type SalesInvoiceResult struct {
	InvoiceID     string
	InvoiceNumber string
}

// OpenInvoice is an outstanding receivable reported by the accounting system.
type OpenInvoice struct {
	InvoiceID     string
	InvoiceNumber string
	OpenAmount    decimal.Decimal
	InvoiceDate   *time.Time
}

// AccountingGateway is the port over the external accounting connector.
type AccountingGateway interface {
	// Ready reports whether the tenant can be invoiced: connected and a
	// division selected.
	Ready(ctx context.Context, tenantID string) bool
	CreateSalesInvoice(ctx context.Context, tenantID string, req *SalesInvoiceRequest) (*SalesInvoiceResult, error)
	// SendPrintedInvoice is best-effort: a failure must not undo a successful
	// invoice creation. No-ops when the tenant disabled auto-send.
	SendPrintedInvoice(ctx context.Context, tenantID, invoiceID string) error
	ReadOpenInvoices(ctx context.Context, tenantID string, since time.Time) ([]OpenInvoice, error)
}

// ── Payment provider gateway ──────────────────────────────────────────────────

// TransactionRequest creates a payment at the online payment provider.
// ExternalID travels in the transaction metadata and correlates asynchronous
// notifications back to the finance record.
type TransactionRequest struct {
	MerchantID  string
	AmountCents int64
	Description string
	ExternalID  string
}

// ProviderTransaction is the provider's view of a payment.
type ProviderTransaction struct {
	UID         string
	Status      string
	RedirectURL string
	Metadata    map[string]string
}

// PaymentProviderGateway is the port over the online payment provider client.
type PaymentProviderGateway interface {
	CreateTransaction(ctx context.Context, req *TransactionRequest) (*ProviderTransaction, error)
	GetTransaction(ctx context.Context, merchantID, uid string) (*ProviderTransaction, error)
}

// ── Channel strategy ──────────────────────────────────────────────────────────

// Dispatch bundles the loaded aggregate a channel operates on.
type Dispatch struct {
	Tenant    *entity.Tenant
	Renter    *entity.Renter
	Property  *entity.Property
	Agreement *entity.Agreement
	Finance   *entity.Finance
}

// DispatchResult is what a successful dispatch writes back onto the finance
// record.
type DispatchResult struct {
	Status             entity.FinanceStatus
	PaymentMethod      string
	TransactionID      string
	PaymentURL         string
	ExactInvoiceID     string
	ExactInvoiceNumber string
}

// Channel is one of the three interchangeable payment dispatch strategies.
type Channel interface {
	Name() string
	// Ready reports whether the channel can dispatch for this tenant/renter.
	// When not ready it returns the blocking finance status; such statuses are
	// terminal for today but may be retried by a later day's run.
	Ready(ctx context.Context, d *Dispatch) (entity.FinanceStatus, bool)
	Dispatch(ctx context.Context, d *Dispatch) (*DispatchResult, error)
}

// BillingTrigger is the post-commit hook fired after an agreement is durably
// created, so same-day agreements are billed without waiting for the next
// scheduled sweep.
type BillingTrigger interface {
	AgreementCreated(ctx context.Context, agreementID string)
}
