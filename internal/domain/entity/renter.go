package entity

import "time"

// Renter is a person renting a property.
//
// ExactAccountID is the renter's account id inside the tenant's accounting
// system; it is required for the accounting billing channel and empty for
// renters that were never synced there.
type Renter struct {
	ID             string
	TenantID       string
	Name           string
	Email          string
	Phone          string
	ExactAccountID string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
