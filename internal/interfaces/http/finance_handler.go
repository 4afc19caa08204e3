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

// FinanceHandler exposes the billing history (protected, read-only).
type FinanceHandler struct {
	uc *billing.FinanceUseCase
}

// NewFinanceHandler builds the handler.
func NewFinanceHandler(uc *billing.FinanceUseCase) *FinanceHandler {
	return &FinanceHandler{uc: uc}
}

// ListByAgreement returns the agreement's billing attempts, oldest first.
// GET /api/agreements/:id/finances
func (h *FinanceHandler) ListByAgreement(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "invalid token"})
	}
	finances, err := h.uc.ListByAgreement(c.Context(), tenantID, c.Params("id"))
	if err != nil {
		return financeError(c, err)
	}
	out := make([]dto.FinanceResponse, 0, len(finances))
	for _, f := range finances {
		out = append(out, toFinanceResponse(f))
	}
	return c.JSON(out)
}

// GetByID returns one billing attempt.
// GET /api/finances/:id
func (h *FinanceHandler) GetByID(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "invalid token"})
	}
	finance, err := h.uc.GetByID(c.Context(), tenantID, c.Params("id"))
	if err != nil {
		return financeError(c, err)
	}
	return c.JSON(toFinanceResponse(finance))
}

func financeError(c *fiber.Ctx, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}

func toFinanceResponse(f *entity.Finance) dto.FinanceResponse {
	resp := dto.FinanceResponse{
		ID:                 f.ID,
		AgreementID:        f.AgreementID,
		PropertyID:         f.PropertyID,
		RenterID:           f.RenterID,
		Amount:             f.Amount,
		Status:             string(f.Status),
		PaymentMethod:      f.PaymentMethod,
		TransactionID:      f.TransactionID,
		PaymentURL:         f.PaymentURL,
		ExactInvoiceID:     f.ExactInvoiceID,
		ExactInvoiceNumber: f.ExactInvoiceNumber,
		OpenAmount:         f.OpenAmount,
		CreatedAt:          f.CreatedAt.Format(time.RFC3339),
	}
	if f.PaidAt != nil {
		resp.PaidAt = f.PaidAt.Format(time.RFC3339)
	}
	for _, item := range f.Items {
		resp.Items = append(resp.Items, dto.FinanceItemResponse{
			Type:          item.Type,
			Description:   item.Description,
			Amount:        item.Amount,
			TaxPercentage: item.TaxPercentage,
		})
	}
	return resp
}
