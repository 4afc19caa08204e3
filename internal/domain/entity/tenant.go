package entity

import "time"

// Tenant kinds. Consumer tenants are billed through the online payment
// provider; business tenants through the accounting system.
const (
	TenantKindConsumer = "Consumer"
	TenantKindBusiness = "Business"
)

// Tenant is a landlord organization. All billing runs are scoped per tenant.
type Tenant struct {
	ID        string
	Name      string
	Kind      string // TenantKindConsumer | TenantKindBusiness
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsBusiness reports whether the tenant is billed through the accounting system.
func (t *Tenant) IsBusiness() bool {
	return t.Kind == TenantKindBusiness
}
