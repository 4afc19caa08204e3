package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/rently/rently-api/internal/application/billing"
	"github.com/rently/rently-api/internal/application/dto"
	"github.com/rently/rently-api/internal/domain"
	"github.com/rently/rently-api/internal/domain/entity"
)

const dateLayout = "2006-01-02"

// AgreementHandler handles rental agreement requests (protected).
type AgreementHandler struct {
	uc *billing.AgreementUseCase
}

// NewAgreementHandler builds the handler.
func NewAgreementHandler(uc *billing.AgreementUseCase) *AgreementHandler {
	return &AgreementHandler{uc: uc}
}

// Create creates an agreement with its line items.
// POST /api/agreements
func (h *AgreementHandler) Create(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "invalid token"})
	}
	var in dto.CreateAgreementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "invalid request body"})
	}

	startDate, err := time.Parse(dateLayout, in.StartDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "start_date must be YYYY-MM-DD"})
	}
	var endDate *time.Time
	if in.EndDate != "" {
		ed, err := time.Parse(dateLayout, in.EndDate)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "end_date must be YYYY-MM-DD"})
		}
		endDate = &ed
	}

	input := &billing.AgreementInput{
		TenantID:          tenantID,
		PropertyID:        in.PropertyID,
		PrimaryRenterID:   in.PrimaryRenterID,
		RenterIDs:         in.RenterIDs,
		PaymentMethod:     in.PaymentMethod,
		PaymentDayOfMonth: in.PaymentDayOfMonth,
		StartDate:         startDate,
		EndDate:           endDate,
	}
	for _, item := range in.Items {
		input.Items = append(input.Items, billing.AgreementItemInput{
			Type:        item.Type,
			Description: item.Description,
			Amount:      item.Amount,
			TaxCodeID:   item.TaxCodeID,
		})
	}

	agreement, err := h.uc.Create(c.Context(), input)
	if err != nil {
		return agreementError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toAgreementResponse(agreement))
}

// List returns the tenant's agreements.
// GET /api/agreements
func (h *AgreementHandler) List(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "invalid token"})
	}
	agreements, err := h.uc.ListByTenant(c.Context(), tenantID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	out := make([]dto.AgreementResponse, 0, len(agreements))
	for _, a := range agreements {
		out = append(out, toAgreementResponse(a))
	}
	return c.JSON(out)
}

// GetByID returns one agreement with its items.
// GET /api/agreements/:id
func (h *AgreementHandler) GetByID(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "invalid token"})
	}
	agreement, err := h.uc.GetByID(c.Context(), tenantID, c.Params("id"))
	if err != nil {
		return agreementError(c, err)
	}
	return c.JSON(toAgreementResponse(agreement))
}

// End marks an agreement inactive; the next billing run skips it.
// POST /api/agreements/:id/end
func (h *AgreementHandler) End(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "invalid token"})
	}
	if err := h.uc.End(c.Context(), tenantID, c.Params("id")); err != nil {
		return agreementError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func agreementError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrAgreementLineConflict):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}

func toAgreementResponse(a *entity.Agreement) dto.AgreementResponse {
	resp := dto.AgreementResponse{
		ID:                a.ID,
		TenantID:          a.TenantID,
		PropertyID:        a.PropertyID,
		PrimaryRenterID:   a.PrimaryRenterID,
		RenterIDs:         a.RenterIDs,
		PaymentMethod:     a.PaymentMethod,
		PaymentDayOfMonth: a.PaymentDayOfMonth,
		Status:            a.Status,
		StartDate:         a.StartDate.Format(dateLayout),
	}
	if a.EndDate != nil {
		resp.EndDate = a.EndDate.Format(dateLayout)
	}
	if a.EndedDate != nil {
		resp.EndedDate = a.EndedDate.Format(dateLayout)
	}
	for _, li := range a.Items {
		resp.Items = append(resp.Items, dto.AgreementItemResponse{
			ID:            li.ID,
			Type:          li.Type,
			Description:   li.Description,
			Amount:        li.Amount,
			TaxCodeID:     li.TaxCodeID,
			TaxPercentage: li.TaxPercentage,
		})
	}
	return resp
}
