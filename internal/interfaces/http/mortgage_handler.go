package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/rently/rently-api/internal/application/billing"
	"github.com/rently/rently-api/internal/application/dto"
	"github.com/rently/rently-api/internal/domain"
)

// MortgageHandler manages loan tranches on properties (protected).
type MortgageHandler struct {
	uc *billing.MortgageUseCase
}

// NewMortgageHandler builds the handler.
func NewMortgageHandler(uc *billing.MortgageUseCase) *MortgageHandler {
	return &MortgageHandler{uc: uc}
}

// Create adds a tranche to a property.
// POST /api/mortgages
func (h *MortgageHandler) Create(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "invalid token"})
	}
	var in dto.CreateMortgageLineRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "invalid request body"})
	}
	startDate, err := time.Parse(dateLayout, in.StartDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "start_date must be YYYY-MM-DD"})
	}
	endDate, err := time.Parse(dateLayout, in.EndDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "end_date must be YYYY-MM-DD"})
	}

	view, err := h.uc.Create(c.Context(), &billing.MortgageInput{
		TenantID:     tenantID,
		PropertyID:   in.PropertyID,
		Amount:       in.Amount,
		InterestRate: in.InterestRate,
		Type:         in.Type,
		StartDate:    startDate,
		EndDate:      endDate,
		Part:         in.Part,
	})
	if err != nil {
		return mortgageError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMortgageLineResponse(view))
}

// ListByProperty returns the property's tranches with current amortization
// figures.
// GET /api/properties/:id/mortgages
func (h *MortgageHandler) ListByProperty(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "invalid token"})
	}
	views, err := h.uc.ListByProperty(c.Context(), tenantID, c.Params("id"))
	if err != nil {
		return mortgageError(c, err)
	}
	out := make([]dto.MortgageLineResponse, 0, len(views))
	for _, v := range views {
		out = append(out, toMortgageLineResponse(v))
	}
	return c.JSON(out)
}

func mortgageError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}

func toMortgageLineResponse(v *billing.MortgageLineView) dto.MortgageLineResponse {
	return dto.MortgageLineResponse{
		ID:                 v.Line.ID,
		PropertyID:         v.Line.PropertyID,
		Amount:             v.Line.Amount,
		InterestRate:       v.Line.InterestRate,
		Type:               v.Line.Type,
		StartDate:          v.Line.StartDate.Format(dateLayout),
		EndDate:            v.Line.EndDate.Format(dateLayout),
		Part:               v.Line.Part,
		DurationMonths:     v.Schedule.DurationMonths,
		MonthlyPayment:     v.Schedule.MonthlyPayment,
		AccumulatedAmount:  v.Schedule.AccumulatedAmount,
		RemainingAmount:    v.Schedule.RemainingAmount,
		InterestPayment:    v.Schedule.InterestPayment,
		PrincipalRepayment: v.Schedule.PrincipalRepayment,
		MonthsPassed:       v.Schedule.MonthsPassed,
	}
}
