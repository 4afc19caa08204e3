package entity

import (
	"strconv"
	"time"
)

// Keys of the ExactConnection value bag.
const (
	ExactKeyAccessToken     = "access_token"
	ExactKeyRefreshToken    = "refresh_token"
	ExactKeyTokenExpiry     = "token_expiry" // unix seconds
	ExactKeyDivision        = "division"
	ExactKeyAutoSendInvoice = "auto_send_invoice"

	// Per-item-type catalog codes and per-tax-code VAT mappings use prefixed
	// keys: item_code:<TYPE> and vat_code:<tax_code_id>.
	exactKeyItemCodePrefix = "item_code:"
	exactKeyVatCodePrefix  = "vat_code:"
)

// ExactConnection is the per-tenant configuration of the accounting
// integration, stored as an opaque key/value bag. It is created lazily on the
// first OAuth callback and cleared wholesale on disconnect.
type ExactConnection struct {
	TenantID  string
	Values    map[string]string
	UpdatedAt time.Time
}

// NewExactConnection builds an empty connection bag for a tenant.
func NewExactConnection(tenantID string) *ExactConnection {
	return &ExactConnection{TenantID: tenantID, Values: map[string]string{}}
}

func (c *ExactConnection) get(key string) string {
	if c == nil || c.Values == nil {
		return ""
	}
	return c.Values[key]
}

func (c *ExactConnection) set(key, value string) {
	if c.Values == nil {
		c.Values = map[string]string{}
	}
	c.Values[key] = value
}

// AccessToken returns the stored OAuth access token.
func (c *ExactConnection) AccessToken() string { return c.get(ExactKeyAccessToken) }

// RefreshToken returns the stored OAuth refresh token.
func (c *ExactConnection) RefreshToken() string { return c.get(ExactKeyRefreshToken) }

// Division returns the selected accounting division, empty when unset.
func (c *ExactConnection) Division() string { return c.get(ExactKeyDivision) }

// TokenExpiry returns the access-token expiry instant (zero when unset).
func (c *ExactConnection) TokenExpiry() time.Time {
	raw := c.get(ExactKeyTokenExpiry)
	if raw == "" {
		return time.Time{}
	}
	sec, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

// TokenExpired reports whether the access token must be refreshed before use.
// A token is expired once now >= expiry.
func (c *ExactConnection) TokenExpired(now time.Time) bool {
	exp := c.TokenExpiry()
	return exp.IsZero() || !now.Before(exp)
}

// SetTokens stores a fresh access/refresh token pair and its expiry.
func (c *ExactConnection) SetTokens(access, refresh string, expiry time.Time) {
	c.set(ExactKeyAccessToken, access)
	c.set(ExactKeyRefreshToken, refresh)
	c.set(ExactKeyTokenExpiry, strconv.FormatInt(expiry.Unix(), 10))
}

// SetDivision stores the selected division id.
func (c *ExactConnection) SetDivision(division string) { c.set(ExactKeyDivision, division) }

// ItemCode returns the cached accounting catalog item id for a logistical item
// type, empty when never created.
func (c *ExactConnection) ItemCode(itemType string) string {
	return c.get(exactKeyItemCodePrefix + itemType)
}

// SetItemCode caches a catalog item id for a logistical item type.
func (c *ExactConnection) SetItemCode(itemType, id string) {
	c.set(exactKeyItemCodePrefix+itemType, id)
}

// VatCode returns the external VAT code mapped to a local tax code, empty when
// the mapping was never configured.
func (c *ExactConnection) VatCode(taxCodeID string) string {
	return c.get(exactKeyVatCodePrefix + taxCodeID)
}

// SetVatCode maps a local tax code onto an external VAT code.
func (c *ExactConnection) SetVatCode(taxCodeID, vatCode string) {
	c.set(exactKeyVatCodePrefix+taxCodeID, vatCode)
}

// AutoSendInvoice reports whether created invoices should also be printed and
// emailed by the accounting system.
func (c *ExactConnection) AutoSendInvoice() bool {
	return c.get(ExactKeyAutoSendInvoice) == "true"
}

// SetAutoSendInvoice toggles automatic invoice sending.
func (c *ExactConnection) SetAutoSendInvoice(v bool) {
	c.set(ExactKeyAutoSendInvoice, strconv.FormatBool(v))
}

// Connected reports whether OAuth tokens are present.
func (c *ExactConnection) Connected() bool {
	return c != nil && c.RefreshToken() != ""
}
