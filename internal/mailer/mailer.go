package mailer

import (
	"context"
	"fmt"

	"github.com/trailbliss/trailbliss-api/pkg/config"
	"github.com/trailbliss/trailbliss-api/pkg/logger"
)

type Service interface {
	SendVerificationCode(ctx context.Context, toEmail, code string) error
	SendNotification(ctx context.Context, toEmail, subject, body string) error
}

const verificationSubject = "Verify your Trail Bliss Account"

func verificationText(code string) string {
	return fmt.Sprintf("Your verification code is: %s", code)
}

func verificationHTML(code string) string {
	return fmt.Sprintf(`
		<h2>Welcome to Trail Bliss!</h2>
		<p>Your verification code is: <strong style="font-size: 24px;">%s</strong></p>
		<p>This code expires in 5 minutes.</p>
	`, code)
}

// New picks a transport: dev logging, MailerSend when an API key is set, SMTP otherwise.
func New(cfg config.EmailConfig) Service {
	switch {
	case cfg.DevMode:
		logger.Info("Using dev mailer")
		return NewDevMailer()
	case cfg.MailerSendKey != "":
		logger.Info("Using MailerSend mailer")
		return NewMailerSend(cfg.MailerSendKey, cfg.FromName, cfg.FromAddress)
	default:
		logger.Info("Using SMTP mailer", "host", cfg.SMTPHost, "port", cfg.SMTPPort)
		user := cfg.SMTPUser
		if user == "" {
			user = cfg.FromAddress
		}
		return NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.FromName, cfg.FromAddress, user, cfg.SMTPPass, cfg.SMTPUseTLS)
	}
}
