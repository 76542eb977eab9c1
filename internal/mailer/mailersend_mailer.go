package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mailersend/mailersend-go"
)

type MailerSendClient struct {
	client *mailersend.Mailersend
	from   mailersend.From
}

func NewMailerSend(apiKey, fromName, fromEmail string) *MailerSendClient {
	return &MailerSendClient{
		client: mailersend.NewMailersend(apiKey),
		from: mailersend.From{
			Name:  fromName,
			Email: fromEmail,
		},
	}
}

func (m *MailerSendClient) SendVerificationCode(ctx context.Context, toEmail, code string) error {
	return m.sendEmail(ctx, toEmail, verificationSubject, verificationText(code), verificationHTML(code))
}

func (m *MailerSendClient) SendNotification(ctx context.Context, toEmail, subject, body string) error {
	return m.sendEmail(ctx, toEmail, subject, body, "")
}

func (m *MailerSendClient) sendEmail(ctx context.Context, toEmail, subject, text, html string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Email: toEmail}})
	msg.SetSubject(subject)

	if strings.TrimSpace(text) != "" {
		msg.SetText(text)
	}
	if strings.TrimSpace(html) != "" {
		msg.SetHTML(html)
	}

	if _, err := m.client.Email.Send(ctx, msg); err != nil {
		return fmt.Errorf("mailersend: %w", err)
	}
	return nil
}
