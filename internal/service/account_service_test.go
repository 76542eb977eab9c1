package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trailbliss/trailbliss-api/internal/domain"
	"github.com/trailbliss/trailbliss-api/internal/repository/repotest"
	"github.com/trailbliss/trailbliss-api/pkg/auth"
)

func newAccountService(t *testing.T) (*accountService, *repotest.Accounts, *repotest.OTPs) {
	t.Helper()
	accounts := repotest.NewAccounts()
	otps := repotest.NewOTPs()
	svc := NewAccountService(accounts, otps, testConfig()).(*accountService)
	svc.params = testArgonParams
	return svc, accounts, otps
}

func creds(email, password, role string) *domain.Credentials {
	return &domain.Credentials{Email: email, Password: password, Role: role}
}

func TestRegister_Success(t *testing.T) {
	svc, accounts, _ := newAccountService(t)

	a, err := svc.Register(context.Background(), creds(" Ana@Example.com ", "s3cret", "tourist"))
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", a.Email)
	assert.Equal(t, domain.RoleTourist, a.Role)
	assert.NotEqual(t, "s3cret", a.PasswordHash)
	assert.Equal(t, 1, accounts.Count())
}

func TestRegister_DuplicateLeavesStoreUnchanged(t *testing.T) {
	svc, accounts, _ := newAccountService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, creds("ana@example.com", "first", "tourist"))
	require.NoError(t, err)

	_, err = svc.Register(ctx, creds("ANA@example.com", "second", "guide"))
	assert.ErrorIs(t, err, domain.ErrDuplicateAccount)
	assert.Equal(t, 1, accounts.Count())

	// the first password and role still work
	res, err := svc.Authenticate(ctx, creds("ana@example.com", "first", "tourist"))
	require.NoError(t, err)
	assert.Equal(t, domain.RoleTourist, res.Role)
}

func TestRegister_Validation(t *testing.T) {
	svc, accounts, _ := newAccountService(t)

	for _, c := range []*domain.Credentials{
		creds("not-an-email", "pw", "tourist"),
		creds("a@example.com", "", "tourist"),
		creds("a@example.com", "pw", "admin"),
	} {
		_, err := svc.Register(context.Background(), c)
		assert.ErrorIs(t, err, domain.ErrValidation)
	}
	assert.Equal(t, 0, accounts.Count())
}

func TestRegister_RequiresVerifiedEmailWhenEnabled(t *testing.T) {
	svc, accounts, otps := newAccountService(t)
	svc.config.Auth.RequireVerifiedEmail = true
	ctx := context.Background()

	_, err := svc.Register(ctx, creds("ana@example.com", "pw", "guide"))
	assert.ErrorIs(t, err, domain.ErrInvalidOrExpired)
	assert.Equal(t, 0, accounts.Count())

	require.NoError(t, otps.MarkVerified(ctx, "ana@example.com", svc.config.Auth.VerifiedEmailTTL))
	_, err = svc.Register(ctx, creds("ana@example.com", "pw", "guide"))
	require.NoError(t, err)

	verified, err := otps.IsVerified(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.False(t, verified)
}

func TestRegister_FailedCreateKeepsVerification(t *testing.T) {
	svc, accounts, otps := newAccountService(t)
	svc.config.Auth.RequireVerifiedEmail = true
	ctx := context.Background()

	require.NoError(t, otps.MarkVerified(ctx, "ana@example.com", svc.config.Auth.VerifiedEmailTTL))

	accounts.CreateErr = errBoom
	_, err := svc.Register(ctx, creds("ana@example.com", "pw", "guide"))
	require.Error(t, err)

	verified, err := otps.IsVerified(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.True(t, verified)

	// a retry goes through without verifying again
	accounts.CreateErr = nil
	_, err = svc.Register(ctx, creds("ana@example.com", "pw", "guide"))
	require.NoError(t, err)
	assert.Equal(t, 1, accounts.Count())
}

func TestAuthenticate_Outcomes(t *testing.T) {
	svc, _, _ := newAccountService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, creds("guide@example.com", "pw", "guide"))
	require.NoError(t, err)

	t.Run("not found", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, creds("nobody@example.com", "pw", "guide"))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("role mismatch names stored role", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, creds("guide@example.com", "pw", "tourist"))
		var roleErr *domain.RoleMismatchError
		require.True(t, errors.As(err, &roleErr))
		assert.Equal(t, domain.RoleGuide, roleErr.Role)
		assert.ErrorIs(t, err, domain.ErrRoleMismatch)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, creds("guide@example.com", "nope", "guide"))
		assert.ErrorIs(t, err, domain.ErrInvalidCredential)
	})

	t.Run("success issues session token", func(t *testing.T) {
		res, err := svc.Authenticate(ctx, creds("guide@example.com", "pw", "guide"))
		require.NoError(t, err)
		assert.Equal(t, domain.RoleGuide, res.Role)

		claims, err := auth.Parse(res.Token, "test-secret")
		require.NoError(t, err)
		assert.Equal(t, "guide@example.com", claims.Email)
		assert.Equal(t, "guide", claims.Role)
	})
}

func TestAuthenticate_StorageError(t *testing.T) {
	svc, accounts, _ := newAccountService(t)
	accounts.Err = errBoom

	_, err := svc.Authenticate(context.Background(), creds("a@example.com", "pw", "tourist"))
	assert.ErrorIs(t, err, domain.ErrStorage)
}
