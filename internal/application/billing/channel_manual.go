package billing

import (
	"context"
	"fmt"

	"github.com/rently/rently-api/internal/domain/entity"
	"github.com/rently/rently-api/pkg/logger"
)

// ManualChannel emails the renter a payment request with a PDF breakdown
// attached. Success lands the record in ManualActionNeeded: the landlord must
// verify receipt of the payment by hand.
type ManualChannel struct {
	sender     EmailSender
	pdf        PaymentRequestPDFGenerator
	templateID string
	log        *logger.Logger
}

// NewManualChannel builds the channel. pdf may be nil; the email then goes out
// without an attachment.
func NewManualChannel(sender EmailSender, pdf PaymentRequestPDFGenerator, templateID string, log *logger.Logger) *ManualChannel {
	return &ManualChannel{sender: sender, pdf: pdf, templateID: templateID, log: log}
}

func (c *ManualChannel) Name() string { return "manual-email" }

// Ready requires a renter email address; without one no payment request can go
// out and a human must take over.
func (c *ManualChannel) Ready(_ context.Context, d *Dispatch) (entity.FinanceStatus, bool) {
	if d.Renter.Email == "" {
		return entity.StatusManualActionNeeded, false
	}
	return "", true
}

// Dispatch renders the payment request and sends it.
func (c *ManualChannel) Dispatch(ctx context.Context, d *Dispatch) (*DispatchResult, error) {
	period := d.Finance.CreatedAt
	req := &PaymentRequest{
		TenantName:      d.Tenant.Name,
		RenterName:      d.Renter.Name,
		PropertyAddress: d.Property.Address,
		Reference:       d.Finance.ID,
		Period:          period,
		Lines:           d.Finance.Items,
		Total:           d.Finance.Amount,
	}

	msg := EmailMessage{
		To:         d.Renter.Email,
		Subject:    fmt.Sprintf("Payment request %s - %s", period.Format("January 2006"), d.Property.Address),
		TemplateID: c.templateID,
		ReplyTo:    d.Tenant.Email,
		Data: map[string]string{
			"renter_name":   d.Renter.Name,
			"tenant_name":   d.Tenant.Name,
			"property":      d.Property.Address,
			"period":        period.Format("January 2006"),
			"amount":        d.Finance.Amount.StringFixed(2),
			"reference":     d.Finance.ID,
			"payment_day":   fmt.Sprintf("%d", d.Agreement.PaymentDayOfMonth),
		},
	}

	if c.pdf != nil {
		data, err := c.pdf.Generate(ctx, req)
		if err != nil {
			// The attachment is a nicety; the request itself still has the
			// amount and reference.
			c.log.Warn().Err(err).Str("finance_id", d.Finance.ID).Msg("payment request PDF generation failed, sending without attachment")
		} else {
			msg.Attachment = &EmailAttachment{
				Filename:    fmt.Sprintf("payment-request-%s.pdf", period.Format("2006-01")),
				ContentType: "application/pdf",
				Data:        data,
			}
		}
	}

	if err := c.sender.Send(ctx, msg); err != nil {
		return nil, fmt.Errorf("send payment request: %w", err)
	}

	return &DispatchResult{
		Status:        entity.StatusManualActionNeeded,
		PaymentMethod: "email",
	}, nil
}

var _ Channel = (*ManualChannel)(nil)
