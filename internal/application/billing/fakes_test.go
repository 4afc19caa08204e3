package billing

import (
	"context"
	"sort"
	"time"

	"github.com/rently/rently-api/internal/domain/entity"
	"github.com/rently/rently-api/internal/domain/repository"
)

// In-memory fakes for the billing core. They implement the repository ports
// and gateways with maps so the orchestration logic can be exercised without a
// database or network.

type fakeTxRunner struct {
	finances   repository.FinanceRepository
	agreements repository.AgreementRepository
}

func (f *fakeTxRunner) RunFinance(ctx context.Context, fn func(repository.FinanceRepository) error) error {
	return fn(f.finances)
}

func (f *fakeTxRunner) RunAgreement(ctx context.Context, fn func(repository.AgreementRepository) error) error {
	return fn(f.agreements)
}

// ── finance repo ──────────────────────────────────────────────────────────────

type fakeFinanceRepo struct {
	rows map[string]*entity.Finance
}

func newFakeFinanceRepo() *fakeFinanceRepo {
	return &fakeFinanceRepo{rows: map[string]*entity.Finance{}}
}

func (r *fakeFinanceRepo) put(f *entity.Finance) {
	cp := *f
	r.rows[f.ID] = &cp
}

func (r *fakeFinanceRepo) Create(_ context.Context, f *entity.Finance) error {
	r.put(f)
	return nil
}

func (r *fakeFinanceRepo) Update(_ context.Context, f *entity.Finance) error {
	r.put(f)
	return nil
}

func (r *fakeFinanceRepo) GetByID(_ context.Context, id string) (*entity.Finance, error) {
	f, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *f
	return &cp, nil
}

func (r *fakeFinanceRepo) LatestForAgreement(_ context.Context, agreementID, propertyID string) (*entity.Finance, error) {
	var latest *entity.Finance
	for _, f := range r.rows {
		if f.AgreementID != agreementID || f.PropertyID != propertyID {
			continue
		}
		if latest == nil || f.CreatedAt.After(latest.CreatedAt) {
			latest = f
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (r *fakeFinanceRepo) ForMonth(_ context.Context, agreementID string, month time.Time) (*entity.Finance, error) {
	for _, f := range r.rows {
		if f.AgreementID != agreementID {
			continue
		}
		if f.CreatedAt.Year() == month.Year() && f.CreatedAt.Month() == month.Month() {
			cp := *f
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeFinanceRepo) ListByAgreement(_ context.Context, agreementID string) ([]*entity.Finance, error) {
	var out []*entity.Finance
	for _, f := range r.rows {
		if f.AgreementID == agreementID {
			cp := *f
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeFinanceRepo) GetByExactInvoiceNumber(_ context.Context, tenantID, invoiceNumber string) (*entity.Finance, error) {
	for _, f := range r.rows {
		if f.TenantID == tenantID && f.ExactInvoiceNumber == invoiceNumber {
			cp := *f
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeFinanceRepo) TenantsWithOpenExactInvoices(_ context.Context) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, f := range r.rows {
		if f.ExactInvoiceNumber != "" && f.PaidAt == nil && !seen[f.TenantID] {
			seen[f.TenantID] = true
			out = append(out, f.TenantID)
		}
	}
	sort.Strings(out)
	return out, nil
}

// ── agreement repo ────────────────────────────────────────────────────────────

type fakeAgreementRepo struct {
	rows  map[string]*entity.Agreement
	kinds map[string]string // tenant id -> kind, for ListActiveByTenantKind
}

func newFakeAgreementRepo() *fakeAgreementRepo {
	return &fakeAgreementRepo{rows: map[string]*entity.Agreement{}, kinds: map[string]string{}}
}

func (r *fakeAgreementRepo) Create(_ context.Context, a *entity.Agreement) error {
	cp := *a
	r.rows[a.ID] = &cp
	return nil
}

func (r *fakeAgreementRepo) GetByID(_ context.Context, id string) (*entity.Agreement, error) {
	a, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAgreementRepo) ListByTenant(_ context.Context, tenantID string) ([]*entity.Agreement, error) {
	var out []*entity.Agreement
	for _, a := range r.rows {
		if a.TenantID == tenantID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeAgreementRepo) ListActiveByTenantKind(_ context.Context, tenantKind string) ([]*entity.Agreement, error) {
	var out []*entity.Agreement
	for _, a := range r.rows {
		if a.Status == entity.AgreementStatusActive && r.kinds[a.TenantID] == tenantKind {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeAgreementRepo) End(_ context.Context, id string, endedDate time.Time) error {
	a, ok := r.rows[id]
	if !ok {
		return nil
	}
	a.Status = entity.AgreementStatusInactive
	ed := endedDate
	a.EndedDate = &ed
	return nil
}

// ── read-side repos ───────────────────────────────────────────────────────────

type fakeTenantRepo struct {
	rows map[string]*entity.Tenant
}

func (r *fakeTenantRepo) GetByID(_ context.Context, id string) (*entity.Tenant, error) {
	return r.rows[id], nil
}

func (r *fakeTenantRepo) ListByKind(_ context.Context, kind string) ([]*entity.Tenant, error) {
	var out []*entity.Tenant
	for _, t := range r.rows {
		if t.Kind == kind {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakeRenterRepo struct {
	rows map[string]*entity.Renter
}

func (r *fakeRenterRepo) GetByID(_ context.Context, id string) (*entity.Renter, error) {
	return r.rows[id], nil
}

type fakePropertyRepo struct {
	rows map[string]*entity.Property
}

func (r *fakePropertyRepo) GetByID(_ context.Context, id string) (*entity.Property, error) {
	return r.rows[id], nil
}

type fakeTaxCodeRepo struct {
	rows map[string]*entity.TaxCode
}

func (r *fakeTaxCodeRepo) GetByID(_ context.Context, id string) (*entity.TaxCode, error) {
	return r.rows[id], nil
}

func (r *fakeTaxCodeRepo) List(_ context.Context) ([]*entity.TaxCode, error) {
	var out []*entity.TaxCode
	for _, t := range r.rows {
		out = append(out, t)
	}
	return out, nil
}

type fakeOppAccountRepo struct {
	rows map[string]*entity.OppAccount
}

func (r *fakeOppAccountRepo) Get(_ context.Context, tenantID string) (*entity.OppAccount, error) {
	return r.rows[tenantID], nil
}

func (r *fakeOppAccountRepo) GetByMerchantID(_ context.Context, merchantID string) (*entity.OppAccount, error) {
	for _, a := range r.rows {
		if a.MerchantID == merchantID {
			return a, nil
		}
	}
	return nil, nil
}

func (r *fakeOppAccountRepo) Save(_ context.Context, a *entity.OppAccount) error {
	r.rows[a.TenantID] = a
	return nil
}

// ── mortgage repos ────────────────────────────────────────────────────────────

type fakeMortgageLineRepo struct {
	rows map[string]*entity.MortgageLine
}

func (r *fakeMortgageLineRepo) Create(_ context.Context, l *entity.MortgageLine) error {
	r.rows[l.ID] = l
	return nil
}

func (r *fakeMortgageLineRepo) GetByID(_ context.Context, id string) (*entity.MortgageLine, error) {
	return r.rows[id], nil
}

func (r *fakeMortgageLineRepo) ListByProperty(_ context.Context, tenantID, propertyID string) ([]*entity.MortgageLine, error) {
	var out []*entity.MortgageLine
	for _, l := range r.rows {
		if l.TenantID == tenantID && l.PropertyID == propertyID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *fakeMortgageLineRepo) ListRunning(_ context.Context, at time.Time) ([]*entity.MortgageLine, error) {
	var out []*entity.MortgageLine
	for _, l := range r.rows {
		if !at.Before(l.StartDate) && !at.After(l.EndDate) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeLedgerRepo struct {
	rows []*entity.Ledger
}

func (r *fakeLedgerRepo) Create(_ context.Context, l *entity.Ledger) error {
	r.rows = append(r.rows, l)
	return nil
}

func (r *fakeLedgerRepo) GetByThirdPartyReference(_ context.Context, reference string) (*entity.Ledger, error) {
	for _, l := range r.rows {
		if l.ThirdPartyReference == reference {
			return l, nil
		}
	}
	return nil, nil
}

func (r *fakeLedgerRepo) ListByProperty(_ context.Context, tenantID, propertyID string) ([]*entity.Ledger, error) {
	var out []*entity.Ledger
	for _, l := range r.rows {
		if l.TenantID == tenantID && l.PropertyID == propertyID {
			out = append(out, l)
		}
	}
	return out, nil
}

// ── channels and gateways ─────────────────────────────────────────────────────

type fakeChannel struct {
	name        string
	ready       bool
	blockStatus entity.FinanceStatus
	result      *DispatchResult
	err         error
	dispatched  []*Dispatch
}

func (c *fakeChannel) Name() string { return c.name }

func (c *fakeChannel) Ready(_ context.Context, _ *Dispatch) (entity.FinanceStatus, bool) {
	if !c.ready {
		return c.blockStatus, false
	}
	return "", true
}

func (c *fakeChannel) Dispatch(_ context.Context, d *Dispatch) (*DispatchResult, error) {
	c.dispatched = append(c.dispatched, d)
	if c.err != nil {
		return nil, c.err
	}
	return c.result, nil
}

type fakeAccountingGateway struct {
	ready     map[string]bool
	open      map[string][]OpenInvoice
	created   []*SalesInvoiceRequest
	result    *SalesInvoiceResult
	createErr error
	sendErr   error
	printed   []string
	readCalls int
}

func (g *fakeAccountingGateway) Ready(_ context.Context, tenantID string) bool {
	return g.ready[tenantID]
}

func (g *fakeAccountingGateway) CreateSalesInvoice(_ context.Context, _ string, req *SalesInvoiceRequest) (*SalesInvoiceResult, error) {
	g.created = append(g.created, req)
	if g.createErr != nil {
		return nil, g.createErr
	}
	return g.result, nil
}

func (g *fakeAccountingGateway) SendPrintedInvoice(_ context.Context, _, invoiceID string) error {
	if g.sendErr != nil {
		return g.sendErr
	}
	g.printed = append(g.printed, invoiceID)
	return nil
}

func (g *fakeAccountingGateway) ReadOpenInvoices(_ context.Context, tenantID string, _ time.Time) ([]OpenInvoice, error) {
	g.readCalls++
	return g.open[tenantID], nil
}

type fakeProviderGateway struct {
	requests []*TransactionRequest
	tx       *ProviderTransaction
	err      error
}

func (g *fakeProviderGateway) CreateTransaction(_ context.Context, req *TransactionRequest) (*ProviderTransaction, error) {
	g.requests = append(g.requests, req)
	if g.err != nil {
		return nil, g.err
	}
	return g.tx, nil
}

func (g *fakeProviderGateway) GetTransaction(_ context.Context, _, uid string) (*ProviderTransaction, error) {
	if g.tx != nil && g.tx.UID == uid {
		return g.tx, nil
	}
	return nil, nil
}

type fakeEmailSender struct {
	sent []EmailMessage
	err  error
}

func (s *fakeEmailSender) Send(_ context.Context, msg EmailMessage) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

type fakePDFGenerator struct {
	data []byte
	err  error
}

func (g *fakePDFGenerator) Generate(_ context.Context, _ *PaymentRequest) ([]byte, error) {
	return g.data, g.err
}

type fakeTrigger struct {
	fired []string
}

func (t *fakeTrigger) AgreementCreated(_ context.Context, agreementID string) {
	t.fired = append(t.fired, agreementID)
}
