package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/linesmerrill/police-case-api/models"
	templates "github.com/linesmerrill/police-case-api/templates/html"
)

// mailedEvents are the event types worth an email to the configured recipients
var mailedEvents = map[string]string{
	models.EventComplaintVoided:   "Complaint voided",
	models.EventCaseSentToCourt:   "Case sent to court",
	models.EventVerdictRegistered: "Verdict registered",
	models.EventPaymentSettled:    "Payment settled",
	models.EventHighAlertDigest:   "High alert list",
}

// MailClient sends one SendGrid message, *sendgrid.Client satisfies it
type MailClient interface {
	Send(email *mail.SGMailV3) (*rest.Response, error)
}

// Mailer emails selected events to a fixed recipient list through SendGrid
type Mailer struct {
	client  MailClient
	from    *mail.Email
	to      []string
	baseURL string
}

// NewMailer returns a Mailer using a SendGrid client for apiKey
func NewMailer(apiKey, from string, to []string, baseURL string) *Mailer {
	return NewMailerWithClient(sendgrid.NewSendClient(apiKey), from, to, baseURL)
}

// NewMailerWithClient returns a Mailer sending through client
func NewMailerWithClient(client MailClient, from string, to []string, baseURL string) *Mailer {
	return &Mailer{client: client, from: mail.NewEmail("Police Case Management", from), to: to, baseURL: baseURL}
}

// Publish implements workflow.Publisher
func (m *Mailer) Publish(_ context.Context, events []models.Event) error {
	if len(m.to) == 0 {
		return nil
	}
	var failed int
	for _, ev := range events {
		subject, ok := mailedEvents[ev.Type]
		if !ok {
			continue
		}
		caseURL := ""
		if ev.CaseID != 0 {
			subject = fmt.Sprintf("%s: case %d", subject, ev.CaseID)
			caseURL = fmt.Sprintf("%s/cases/%d", m.baseURL, ev.CaseID)
		}
		for _, addr := range m.to {
			if err := m.send(addr, subject, ev.Message, caseURL); err != nil {
				failed++
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("sendgrid: %d emails failed", failed)
	}
	return nil
}

func (m *Mailer) send(toEmail, subject, body, caseURL string) error {
	to := mail.NewEmail("", toEmail)
	message := mail.NewSingleEmail(m.from, subject, to, body, templates.RenderGenericEmail(subject, body, caseURL))
	response, err := m.client.Send(message)
	if err != nil {
		zap.S().Errorw("failed to send email", "error", err, "to", toEmail)
		return err
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body, "to", toEmail)
		return fmt.Errorf("sendgrid error: status %d", response.StatusCode)
	}
	zap.S().Debugw("email sent", "to", toEmail, "subject", subject)
	return nil
}
