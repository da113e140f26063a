package service

import (
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/lshigami/Assessa/config"
	"github.com/rs/zerolog/log"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Invitation is the content of one test invitation email.
type Invitation struct {
	To        string
	TestTitle string
	Duration  int
	Link      string
	ExpiresAt time.Time
}

type Mailer interface {
	SendInvitation(ctx context.Context, inv Invitation) error
}

// NewMailer returns a SendGrid mailer, or a log-only mailer when no API key is set.
func NewMailer(cfg *config.Config) Mailer {
	if cfg.Mail.SendGridApiKey == "" {
		log.Warn().Msg("SENDGRID_API_KEY is not set. Invitation emails will only be logged.")
		return logMailer{}
	}
	return &sendGridMailer{
		client: sendgrid.NewSendClient(cfg.Mail.SendGridApiKey),
		from:   mail.NewEmail(cfg.Mail.FromName, cfg.Mail.FromAddress),
	}
}

type sendGridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
}

func (m *sendGridMailer) SendInvitation(ctx context.Context, inv Invitation) error {
	html, err := renderInvitation(inv)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("You're invited to take: %s", inv.TestTitle)
	plain := fmt.Sprintf("You have been invited to take %q (%d minutes). Open %s before %s.",
		inv.TestTitle, inv.Duration, inv.Link, inv.ExpiresAt.Format("Jan 2, 2006"))
	msg := mail.NewSingleEmail(m.from, subject, mail.NewEmail("", inv.To), plain, html)

	resp, err := m.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid request: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
	}
	log.Info().Str("to", inv.To).Str("test", inv.TestTitle).Msg("Invitation email sent")
	return nil
}

type logMailer struct{}

func (logMailer) SendInvitation(_ context.Context, inv Invitation) error {
	log.Info().Str("to", inv.To).Str("test", inv.TestTitle).Str("link", inv.Link).Msg("Invitation email (not sent, mailer disabled)")
	return nil
}

var invitationTemplate = template.Must(template.New("invitation").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Helvetica, Arial, sans-serif; background-color: #F6F6F6;">
  <div style="max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; padding: 32px;">
    <h2>You're invited to an assessment</h2>
    <p>You have been invited to take <strong>{{.TestTitle}}</strong>.</p>
    <p>Duration: {{.Duration}} minutes</p>
    <p><a href="{{.Link}}" style="display: inline-block; padding: 12px 24px; background-color: #2563EB; color: #FFFFFF; text-decoration: none; border-radius: 4px;">Start test</a></p>
    <p style="font-size: 12px; color: #666666;">This link expires on {{.ExpiresAt.Format "Jan 2, 2006"}}.</p>
  </div>
</body>
</html>`))

func renderInvitation(inv Invitation) (string, error) {
	var b strings.Builder
	if err := invitationTemplate.Execute(&b, inv); err != nil {
		return "", fmt.Errorf("render invitation: %w", err)
	}
	return b.String(), nil
}
