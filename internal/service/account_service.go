package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexedwards/argon2id"

	"github.com/trailbliss/trailbliss-api/internal/domain"
	"github.com/trailbliss/trailbliss-api/internal/repository"
	"github.com/trailbliss/trailbliss-api/pkg/auth"
	"github.com/trailbliss/trailbliss-api/pkg/config"
	"github.com/trailbliss/trailbliss-api/pkg/logger"
)

type AccountService interface {
	Register(ctx context.Context, req *domain.Credentials) (*domain.Account, error)
	Authenticate(ctx context.Context, req *domain.Credentials) (*domain.LoginResult, error)
}

// VerifiedEmails is consulted at registration when verified email is required.
// The marker is consumed only once the account exists.
type VerifiedEmails interface {
	IsVerified(ctx context.Context, email string) (bool, error)
	ConsumeVerified(ctx context.Context, email string) (bool, error)
}

type accountService struct {
	accounts repository.AccountRepository
	verified VerifiedEmails
	config   *config.Config
	params   *argon2id.Params
}

func NewAccountService(
	accounts repository.AccountRepository,
	verified VerifiedEmails,
	config *config.Config,
) AccountService {
	return &accountService{
		accounts: accounts,
		verified: verified,
		config:   config,
		params:   argon2id.DefaultParams,
	}
}

func (s *accountService) Register(ctx context.Context, req *domain.Credentials) (*domain.Account, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.accounts.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, storageErr("check existing account", err)
	}
	if existing != nil {
		return nil, domain.ErrDuplicateAccount
	}

	if s.config.Auth.RequireVerifiedEmail {
		ok, err := s.verified.IsVerified(ctx, req.Email)
		if err != nil {
			return nil, storageErr("check email verification", err)
		}
		if !ok {
			return nil, fmt.Errorf("email not verified: %w", domain.ErrInvalidOrExpired)
		}
	}

	hash, err := argon2id.CreateHash(req.Password, s.params)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role, _ := domain.ParseRole(req.Role)
	account, err := s.accounts.Create(ctx, req.Email, hash, role)
	if errors.Is(err, domain.ErrDuplicateAccount) {
		return nil, err
	}
	if err != nil {
		return nil, storageErr("create account", err)
	}

	if s.config.Auth.RequireVerifiedEmail {
		if _, err := s.verified.ConsumeVerified(ctx, account.Email); err != nil {
			logger.WarnContext(ctx, "Failed to clear verified email marker", "error", err)
		}
	}

	logger.InfoContext(ctx, "Account registered", "account_id", account.ID, "role", account.Role)
	return account, nil
}

func (s *accountService) Authenticate(ctx context.Context, req *domain.Credentials) (*domain.LoginResult, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	account, err := s.accounts.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, storageErr("find account", err)
	}
	if account == nil {
		return nil, fmt.Errorf("account %s: %w", req.Email, domain.ErrNotFound)
	}

	if string(account.Role) != req.Role {
		return nil, &domain.RoleMismatchError{Role: account.Role}
	}

	match, err := argon2id.ComparePasswordAndHash(req.Password, account.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to compare password: %w", err)
	}
	if !match {
		return nil, domain.ErrInvalidCredential
	}

	token, err := auth.NewSessionToken(account.Email, string(account.Role), s.config.Auth.JWTSecret, s.config.Auth.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	return &domain.LoginResult{Role: account.Role, Token: token}, nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("failed to %s: %w: %w", op, domain.ErrStorage, err)
}
