package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/mailersend/mailersend-go"
)

// Email is one templated message to a single recipient.
type Email struct {
	To      string
	Subject string
	Data    map[string]interface{}
}

type Sender interface {
	Send(ctx context.Context, e Email) error
}

// Mailer sends Email through a MailerSend template.
type Mailer struct {
	client     *mailersend.Mailersend
	fromName   string
	fromEmail  string
	templateID string
	timeout    time.Duration
}

func NewMailer(apiKey, fromName, fromEmail, templateID string) *Mailer {
	return &Mailer{
		client:     mailersend.NewMailersend(apiKey),
		fromName:   fromName,
		fromEmail:  fromEmail,
		templateID: templateID,
		timeout:    5 * time.Second,
	}
}

func (m *Mailer) Send(ctx context.Context, e Email) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	message := m.client.Email.NewMessage()
	message.SetFrom(mailersend.From{Name: m.fromName, Email: m.fromEmail})
	message.SetRecipients([]mailersend.Recipient{{Email: e.To}})
	message.SetSubject(e.Subject)
	message.SetTemplateID(m.templateID)
	message.SetPersonalization([]mailersend.Personalization{{Email: e.To, Data: e.Data}})

	res, err := m.client.Email.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	logger.Printf("Email sent to %s. Message ID: %s", e.To, res.Header.Get("X-Message-Id"))
	return nil
}
