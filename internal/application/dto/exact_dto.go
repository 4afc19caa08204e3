package dto

// ExactStatusResponse summarizes the tenant's accounting connection.
type ExactStatusResponse struct {
	Connected       bool   `json:"connected"`
	Division        string `json:"division,omitempty"`
	AutoSendInvoice bool   `json:"auto_send_invoice"`
}

// ExactDivisionResponse is one selectable accounting division.
type ExactDivisionResponse struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// SelectDivisionRequest stores the chosen division for a tenant.
type SelectDivisionRequest struct {
	Division string `json:"division"`
}

// ExactVatCodeResponse is one VAT code available in the accounting system.
type ExactVatCodeResponse struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// VatMappingRequest maps local tax codes onto external VAT codes. Every tax
// code used on a billed agreement must be mapped before invoicing works.
type VatMappingRequest struct {
	Mappings map[string]string `json:"mappings"` // tax_code_id -> external VAT code
}

// AutoSendRequest toggles automatic printing/emailing of created invoices.
type AutoSendRequest struct {
	Enabled bool `json:"enabled"`
}
