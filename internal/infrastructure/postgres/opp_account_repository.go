package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rently/rently-api/internal/domain/entity"
	"github.com/rently/rently-api/internal/domain/repository"
)

var _ repository.OppAccountRepository = (*OppAccountRepo)(nil)

// OppAccountRepo stores the per-tenant payment-provider merchant account.
type OppAccountRepo struct {
	q Querier
}

// NewOppAccountRepository builds the adapter. Pass a pool or a tx (Querier).
func NewOppAccountRepository(q Querier) *OppAccountRepo {
	return &OppAccountRepo{q: q}
}

// Get loads the merchant account, nil when the tenant was never onboarded.
func (r *OppAccountRepo) Get(ctx context.Context, tenantID string) (*entity.OppAccount, error) {
	query := `
		SELECT tenant_id, merchant_id, compliance_level, compliance_status, bank_verification_url, contact_verification_url, created_at, updated_at
		FROM opp_accounts WHERE tenant_id = $1`
	var a entity.OppAccount
	var status, bankURL, contactURL *string
	err := r.q.QueryRow(ctx, query, tenantID).Scan(
		&a.TenantID, &a.MerchantID, &a.ComplianceLevel, &status, &bankURL, &contactURL,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get opp account: %w", err)
	}
	a.ComplianceStatus = derefStr(status)
	a.BankVerificationURL = derefStr(bankURL)
	a.ContactVerificationURL = derefStr(contactURL)
	return &a, nil
}

// GetByMerchantID resolves the account behind a provider merchant uid, nil
// when unknown.
func (r *OppAccountRepo) GetByMerchantID(ctx context.Context, merchantID string) (*entity.OppAccount, error) {
	query := `
		SELECT tenant_id, merchant_id, compliance_level, compliance_status, bank_verification_url, contact_verification_url, created_at, updated_at
		FROM opp_accounts WHERE merchant_id = $1`
	var a entity.OppAccount
	var status, bankURL, contactURL *string
	err := r.q.QueryRow(ctx, query, merchantID).Scan(
		&a.TenantID, &a.MerchantID, &a.ComplianceLevel, &status, &bankURL, &contactURL,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get opp account by merchant: %w", err)
	}
	a.ComplianceStatus = derefStr(status)
	a.BankVerificationURL = derefStr(bankURL)
	a.ContactVerificationURL = derefStr(contactURL)
	return &a, nil
}

// Save upserts the merchant account; provider notifications update the
// compliance state through this.
func (r *OppAccountRepo) Save(ctx context.Context, a *entity.OppAccount) error {
	query := `
		INSERT INTO opp_accounts (tenant_id, merchant_id, compliance_level, compliance_status, bank_verification_url, contact_verification_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (tenant_id) DO UPDATE SET
			merchant_id = EXCLUDED.merchant_id,
			compliance_level = EXCLUDED.compliance_level,
			compliance_status = EXCLUDED.compliance_status,
			bank_verification_url = EXCLUDED.bank_verification_url,
			contact_verification_url = EXCLUDED.contact_verification_url,
			updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query,
		a.TenantID, a.MerchantID, a.ComplianceLevel,
		nullIfEmpty(a.ComplianceStatus), nullIfEmpty(a.BankVerificationURL), nullIfEmpty(a.ContactVerificationURL),
		a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save opp account: %w", err)
	}
	return nil
}
