package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/rently/rently-api/internal/application/dto"
	"github.com/rently/rently-api/internal/domain"
	"github.com/rently/rently-api/internal/infrastructure/exact"
)

// ExactHandler manages the tenant's accounting connection: the OAuth dance,
// division selection and the VAT-code mapping the invoicing channel needs.
type ExactHandler struct {
	client    *exact.Client
	connector *exact.Connector
}

// NewExactHandler builds the handler.
func NewExactHandler(client *exact.Client, connector *exact.Connector) *ExactHandler {
	return &ExactHandler{client: client, connector: connector}
}

// Connect returns the authorization URL the tenant's browser must visit. The
// tenant id travels in the OAuth state and comes back on the callback.
// GET /api/exact/connect
func (h *ExactHandler) Connect(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "invalid token"})
	}
	return c.JSON(fiber.Map{"authorize_url": h.client.AuthorizeURL(tenantID)})
}

// Callback is the OAuth redirect target. It is public: the accounting system
// calls it without our JWT, the state parameter identifies the tenant.
// GET /api/exact/callback?code=...&state=<tenant_id>
func (h *ExactHandler) Callback(c *fiber.Ctx) error {
	code := c.Query("code")
	tenantID := c.Query("state")
	if code == "" || tenantID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "code and state are required"})
	}
	if err := h.client.Exchange(c.Context(), tenantID, code); err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "EXCHANGE_FAILED", Message: err.Error()})
	}
	return c.JSON(fiber.Map{"connected": true})
}

// Status summarizes the tenant's connection.
// GET /api/exact/status
func (h *ExactHandler) Status(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "invalid token"})
	}
	conn, err := h.client.Connection(c.Context(), tenantID)
	if err != nil {
		return exactError(c, err)
	}
	return c.JSON(dto.ExactStatusResponse{
		Connected:       conn.Connected(),
		Division:        conn.Division(),
		AutoSendInvoice: conn.AutoSendInvoice(),
	})
}

// Divisions lists the selectable accounting divisions.
// GET /api/exact/divisions
func (h *ExactHandler) Divisions(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "invalid token"})
	}
	divisions, err := h.connector.Divisions(c.Context(), tenantID)
	if err != nil {
		return exactError(c, err)
	}
	out := make([]dto.ExactDivisionResponse, 0, len(divisions))
	for _, d := range divisions {
		out = append(out, dto.ExactDivisionResponse{Code: d.Code, Description: d.Description})
	}
	return c.JSON(out)
}

// SelectDivision stores the chosen division.
// POST /api/exact/division
func (h *ExactHandler) SelectDivision(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "invalid token"})
	}
	var in dto.SelectDivisionRequest
	if err := c.BodyParser(&in); err != nil || in.Division == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "division is required"})
	}
	if err := h.connector.SelectDivision(c.Context(), tenantID, in.Division); err != nil {
		return exactError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// VatCodes lists the VAT codes of the selected division.
// GET /api/exact/vat-codes
func (h *ExactHandler) VatCodes(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "invalid token"})
	}
	codes, err := h.connector.VatCodes(c.Context(), tenantID)
	if err != nil {
		return exactError(c, err)
	}
	out := make([]dto.ExactVatCodeResponse, 0, len(codes))
	for _, vc := range codes {
		out = append(out, dto.ExactVatCodeResponse{Code: vc.Code, Description: vc.Description})
	}
	return c.JSON(out)
}

// SaveVatMappings maps local tax codes onto external VAT codes.
// POST /api/exact/vat-mappings
func (h *ExactHandler) SaveVatMappings(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "invalid token"})
	}
	var in dto.VatMappingRequest
	if err := c.BodyParser(&in); err != nil || len(in.Mappings) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "mappings are required"})
	}
	if err := h.connector.SaveVatMappings(c.Context(), tenantID, in.Mappings); err != nil {
		return exactError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SetAutoSend toggles automatic sending of created invoices.
// POST /api/exact/auto-send
func (h *ExactHandler) SetAutoSend(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "invalid token"})
	}
	var in dto.AutoSendRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "invalid request body"})
	}
	if err := h.connector.SetAutoSend(c.Context(), tenantID, in.Enabled); err != nil {
		return exactError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Disconnect drops the tenant's connection wholesale, tokens and settings.
// DELETE /api/exact
func (h *ExactHandler) Disconnect(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "invalid token"})
	}
	if err := h.client.Disconnect(c.Context(), tenantID); err != nil {
		return exactError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func exactError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotConnected):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "NOT_CONNECTED", Message: err.Error()})
	case errors.Is(err, domain.ErrNoDivision):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "NO_DIVISION", Message: err.Error()})
	default:
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "ACCOUNTING_ERROR", Message: err.Error()})
	}
}
