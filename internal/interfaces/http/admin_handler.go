package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rently/rently-api/internal/application/billing"
	"github.com/rently/rently-api/internal/application/dto"
)

// AdminHandler triggers the scheduled jobs on demand (admin only). The same
// objects the scheduler owns are invoked, so a manual run and a cron run
// behave identically.
type AdminHandler struct {
	orchestrator *billing.Orchestrator
	sweeper      *billing.ReconciliationSweeper
	mortgage     *billing.MortgagePostingJob
}

// NewAdminHandler builds the handler.
func NewAdminHandler(orchestrator *billing.Orchestrator, sweeper *billing.ReconciliationSweeper, mortgage *billing.MortgagePostingJob) *AdminHandler {
	return &AdminHandler{orchestrator: orchestrator, sweeper: sweeper, mortgage: mortgage}
}

// RunBilling runs the consumer and business billing batches.
// POST /api/admin/run-billing
func (h *AdminHandler) RunBilling(c *fiber.Ctx) error {
	if err := h.orchestrator.ProcessAllAgreements(c.Context()); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "JOB_FAILED", Message: err.Error()})
	}
	if err := h.orchestrator.ProcessAllBusinessAgreements(c.Context()); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "JOB_FAILED", Message: err.Error()})
	}
	return c.JSON(fiber.Map{"ok": true})
}

// RunReconciliation runs the accounting reconciliation sweep.
// POST /api/admin/run-reconciliation
func (h *AdminHandler) RunReconciliation(c *fiber.Ctx) error {
	if err := h.sweeper.Run(c.Context()); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "JOB_FAILED", Message: err.Error()})
	}
	return c.JSON(fiber.Map{"ok": true})
}

// RunMortgagePosting runs the monthly mortgage interest posting.
// POST /api/admin/run-mortgage-posting
func (h *AdminHandler) RunMortgagePosting(c *fiber.Ctx) error {
	if err := h.mortgage.Run(c.Context()); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "JOB_FAILED", Message: err.Error()})
	}
	return c.JSON(fiber.Map{"ok": true})
}
