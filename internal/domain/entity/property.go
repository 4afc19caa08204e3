package entity

import "time"

// Property is a rentable unit owned by a tenant.
type Property struct {
	ID         string
	TenantID   string
	Address    string
	PostalCode string
	City       string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
