package domain

import "errors"

// Domain errors (no external dependencies).
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrDuplicate    = errors.New("duplicate resource")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("access denied")
	ErrConflict     = errors.New("conflict with current state")

	// ErrAgreementLineConflict is returned when an agreement carries more than
	// one RENT, SERVICE_FEE or DEPOSIT line, or no RENT line at all.
	ErrAgreementLineConflict = errors.New("agreement line items violate rent/service-fee/deposit constraints")

	// ErrNoDivision is returned when an accounting operation runs for a tenant
	// that never selected an Exact division.
	ErrNoDivision = errors.New("no accounting division configured for tenant")

	// ErrNotConnected is returned when a tenant has no stored accounting tokens.
	ErrNotConnected = errors.New("tenant is not connected to the accounting system")
)
