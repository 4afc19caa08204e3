package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/rently/rently-api/internal/application/billing"
	"github.com/rently/rently-api/internal/application/dto"
	"github.com/rently/rently-api/internal/domain/entity"
	"github.com/rently/rently-api/internal/domain/repository"
	"github.com/rently/rently-api/internal/infrastructure/opp"
	"github.com/rently/rently-api/pkg/logger"
)

// oppGateway is what the webhook needs from the payment provider client: the
// notification body carries no payload, the current state must be fetched.
type oppGateway interface {
	GetTransaction(ctx context.Context, merchantID, uid string) (*billing.ProviderTransaction, error)
	GetMerchantCompliance(ctx context.Context, merchantID string) (level int, status string, err error)
}

// WebhookHandler receives payment-provider notifications (public endpoint).
// Notifications are fetch-on-notify: the handler re-reads the object from the
// provider API and never trusts payload fields beyond the object reference.
type WebhookHandler struct {
	finances    repository.FinanceRepository
	oppAccounts repository.OppAccountRepository
	provider    oppGateway
	log         *logger.Logger
	now         func() time.Time
}

// NewWebhookHandler builds the handler.
func NewWebhookHandler(
	finances repository.FinanceRepository,
	oppAccounts repository.OppAccountRepository,
	provider oppGateway,
	log *logger.Logger,
	now func() time.Time,
) *WebhookHandler {
	if now == nil {
		now = time.Now
	}
	return &WebhookHandler{finances: finances, oppAccounts: oppAccounts, provider: provider, log: log, now: now}
}

// HandleOpp processes one provider notification. Unknown or unmatchable
// notifications are acknowledged with 200 so the provider stops retrying;
// upstream failures return 502 so it retries later.
// POST /webhooks/opp
func (h *WebhookHandler) HandleOpp(c *fiber.Ctx) error {
	var n opp.Notification
	if err := c.BodyParser(&n); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "invalid notification body"})
	}

	switch n.ObjectType {
	case "transaction":
		return h.handleTransaction(c, &n)
	case "merchant":
		return h.handleMerchant(c, &n)
	default:
		h.log.Debug().Str("object_type", n.ObjectType).Str("type", n.Type).Msg("ignoring provider notification")
		return c.SendStatus(fiber.StatusOK)
	}
}

func (h *WebhookHandler) handleTransaction(c *fiber.Ctx, n *opp.Notification) error {
	tx, err := h.provider.GetTransaction(c.Context(), n.MerchantUID, n.ObjectUID)
	if err != nil {
		h.log.Error().Err(err).Str("transaction_uid", n.ObjectUID).Msg("fetch transaction for notification")
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "PROVIDER_ERROR", Message: "could not fetch transaction"})
	}
	if tx == nil {
		return c.SendStatus(fiber.StatusOK)
	}

	financeID := tx.Metadata["external_id"]
	if financeID == "" {
		h.log.Warn().Str("transaction_uid", tx.UID).Msg("transaction carries no external_id, skipping")
		return c.SendStatus(fiber.StatusOK)
	}
	finance, err := h.finances.GetByID(c.Context(), financeID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	if finance == nil {
		h.log.Warn().Str("finance_id", financeID).Str("transaction_uid", tx.UID).Msg("notification references unknown finance record")
		return c.SendStatus(fiber.StatusOK)
	}

	status := entity.StatusFromProvider(tx.Status)
	finance.Status = status
	finance.TransactionID = tx.UID
	if status == entity.StatusOppCompleted && finance.PaidAt == nil {
		paidAt := h.now().UTC()
		finance.PaidAt = &paidAt
		finance.OpenAmount = finance.Amount
	}
	if err := h.finances.Update(c.Context(), finance); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}

	h.log.Info().
		Str("finance_id", finance.ID).
		Str("transaction_uid", tx.UID).
		Str("status", string(status)).
		Msg("finance status updated from provider notification")
	return c.SendStatus(fiber.StatusOK)
}

func (h *WebhookHandler) handleMerchant(c *fiber.Ctx, n *opp.Notification) error {
	account, err := h.oppAccounts.GetByMerchantID(c.Context(), n.ObjectUID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	if account == nil {
		h.log.Warn().Str("merchant_uid", n.ObjectUID).Msg("merchant notification for unknown account")
		return c.SendStatus(fiber.StatusOK)
	}

	level, status, err := h.provider.GetMerchantCompliance(c.Context(), n.ObjectUID)
	if err != nil {
		h.log.Error().Err(err).Str("merchant_uid", n.ObjectUID).Msg("fetch merchant compliance")
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "PROVIDER_ERROR", Message: "could not fetch merchant"})
	}

	account.ComplianceLevel = level
	account.ComplianceStatus = status
	account.UpdatedAt = h.now().UTC()
	if err := h.oppAccounts.Save(c.Context(), account); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}

	h.log.Info().
		Str("tenant_id", account.TenantID).
		Int("compliance_level", level).
		Msg("merchant compliance updated from provider notification")
	return c.SendStatus(fiber.StatusOK)
}
