package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/trailbliss/trailbliss-api/internal/domain"
	"github.com/trailbliss/trailbliss-api/internal/mailer"
	"github.com/trailbliss/trailbliss-api/internal/repository"
	"github.com/trailbliss/trailbliss-api/pkg/config"
	"github.com/trailbliss/trailbliss-api/pkg/logger"
)

const (
	minCode = 100000
	maxCode = 999999
)

type VerificationService interface {
	IssueChallenge(ctx context.Context, email string) error
	VerifyChallenge(ctx context.Context, email, code string) error
}

type verificationService struct {
	otps   repository.OTPRepository
	mailer mailer.Service
	config *config.Config
}

func NewVerificationService(otps repository.OTPRepository, mailer mailer.Service, config *config.Config) VerificationService {
	return &verificationService{otps: otps, mailer: mailer, config: config}
}

// generateCode returns a uniformly random six digit code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(maxCode-minCode+1))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+minCode), nil
}

func (s *verificationService) IssueChallenge(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)
	if !domain.IsValidEmail(email) {
		return domain.Invalid("valid email is required")
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash code: %w", err)
	}

	if err := s.otps.Save(ctx, email, string(hash), s.config.Auth.OTPTTL); err != nil {
		return storageErr("store verification code", err)
	}

	if err := s.mailer.SendVerificationCode(ctx, email, code); err != nil {
		logger.ErrorContext(ctx, "Failed to send verification email", "error", err)
		// a code the user never received must not stay redeemable
		if _, delErr := s.otps.Delete(ctx, email, string(hash)); delErr != nil {
			logger.ErrorContext(ctx, "Failed to discard undelivered code", "error", delErr)
		}
		return fmt.Errorf("%w: %w", domain.ErrDeliveryFailed, err)
	}

	logger.InfoContext(ctx, "Verification code issued")
	return nil
}

func (s *verificationService) VerifyChallenge(ctx context.Context, email, code string) error {
	email = domain.NormalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return domain.ErrInvalidOrExpired
	}

	hash, err := s.otps.Get(ctx, email)
	if err != nil {
		return storageErr("load verification code", err)
	}
	if hash == "" {
		return domain.ErrInvalidOrExpired
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return domain.ErrInvalidOrExpired
		}
		return fmt.Errorf("failed to compare code: %w", err)
	}

	// Only the caller that removes this exact challenge succeeds. A code
	// reissued since the read above stays live.
	deleted, err := s.otps.Delete(ctx, email, hash)
	if err != nil {
		return storageErr("consume verification code", err)
	}
	if !deleted {
		return domain.ErrInvalidOrExpired
	}

	if err := s.otps.MarkVerified(ctx, email, s.config.Auth.VerifiedEmailTTL); err != nil {
		logger.WarnContext(ctx, "Failed to record verified email", "error", err)
	}
	return nil
}
