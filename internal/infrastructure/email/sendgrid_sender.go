// Package email delivers outbound mail through SendGrid.
package email

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/rently/rently-api/internal/application/billing"
	"github.com/rently/rently-api/pkg/config"
	"github.com/rently/rently-api/pkg/logger"
)

var _ billing.EmailSender = (*SendGridSender)(nil)

// SendGridSender implements the outbound email port with SendGrid dynamic
// templates.
type SendGridSender struct {
	client *sendgrid.Client
	from   *mail.Email
	log    *logger.Logger
}

// NewSendGridSender builds the sender from the email configuration.
func NewSendGridSender(cfg config.EmailConfig, log *logger.Logger) *SendGridSender {
	return &SendGridSender{
		client: sendgrid.NewSendClient(cfg.SendGridAPIKey),
		from:   mail.NewEmail(cfg.FromName, cfg.FromEmail),
		log:    log,
	}
}

// Send delivers one message. Template data is passed as dynamic template
// substitutions; a non-2xx SendGrid response is an error.
func (s *SendGridSender) Send(_ context.Context, msg billing.EmailMessage) error {
	m := mail.NewV3Mail()
	m.SetFrom(s.from)
	m.SetTemplateID(msg.TemplateID)

	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail("", msg.To))
	p.Subject = msg.Subject
	for k, v := range msg.Data {
		p.SetDynamicTemplateData(k, v)
	}
	m.AddPersonalizations(p)

	if msg.ReplyTo != "" {
		m.SetReplyTo(mail.NewEmail("", msg.ReplyTo))
	}
	if msg.Attachment != nil {
		att := mail.NewAttachment()
		att.SetContent(base64.StdEncoding.EncodeToString(msg.Attachment.Data))
		att.SetType(msg.Attachment.ContentType)
		att.SetFilename(msg.Attachment.Filename)
		att.SetDisposition("attachment")
		m.AddAttachment(att)
	}

	resp, err := s.client.Send(m)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}

	s.log.Debug().Str("to", msg.To).Str("template_id", msg.TemplateID).Msg("email sent")
	return nil
}
