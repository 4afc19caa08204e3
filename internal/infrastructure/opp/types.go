package opp

// transactionPayload creates a transaction at the provider. Amounts are in
// cents. The metadata carries the finance record id as external_id so the
// asynchronous notification can be correlated back.
type transactionPayload struct {
	MerchantUID string            `json:"merchant_uid"`
	TotalPrice  int64             `json:"total_price"`
	Description string            `json:"description"`
	ReturnURL   string            `json:"return_url,omitempty"`
	NotifyURL   string            `json:"notify_url,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type transactionRecord struct {
	UID         string            `json:"uid"`
	Status      string            `json:"status"`
	RedirectURL string            `json:"redirect_url"`
	Metadata    map[string]string `json:"metadata"`
}

// Notification is the webhook body the provider posts on every transaction or
// merchant status change.
type Notification struct {
	UID         string `json:"uid"`
	Type        string `json:"type"`      // e.g. transaction.status.changed
	ObjectUID   string `json:"object_uid"`
	ObjectType  string `json:"object_type"` // transaction | merchant
	MerchantUID string `json:"merchant_uid"`
}

// merchantRecord is the provider's view of a merchant's onboarding state.
type merchantRecord struct {
	UID              string `json:"uid"`
	ComplianceLevel  int    `json:"compliance_level"`
	ComplianceStatus string `json:"compliance_status"`
}
