package entity

import "time"

// OppComplianceReady is the compliance level at which a merchant may receive
// payments. Anything below blocks the payment-provider channel.
const OppComplianceReady = 100

// OppAccount is the per-tenant merchant account at the online payment
// provider, kept in sync from provider notifications.
type OppAccount struct {
	TenantID               string
	MerchantID             string
	ComplianceLevel        int
	ComplianceStatus       string
	BankVerificationURL    string
	ContactVerificationURL string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// Ready reports whether the merchant can receive payments.
func (a *OppAccount) Ready() bool {
	return a != nil && a.ComplianceLevel >= OppComplianceReady
}
