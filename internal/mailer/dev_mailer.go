package mailer

import (
	"context"

	"github.com/trailbliss/trailbliss-api/pkg/logger"
)

// DevMailer writes emails to the log instead of sending them.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) SendVerificationCode(ctx context.Context, toEmail, code string) error {
	logger.InfoContext(ctx, "[DEV MAIL] Verification code",
		"to", toEmail,
		"subject", verificationSubject,
		"code", code,
	)
	return nil
}

func (d *DevMailer) SendNotification(ctx context.Context, toEmail, subject, body string) error {
	logger.InfoContext(ctx, "[DEV MAIL] Notification",
		"to", toEmail,
		"subject", subject,
		"body", body,
	)
	return nil
}
