package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trailbliss/trailbliss-api/internal/domain"
)

const uniqueViolation = "23505"

type AccountRepository interface {
	Create(ctx context.Context, email, passwordHash string, role domain.Role) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
}

type accountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(pool *pgxpool.Pool) AccountRepository {
	return &accountRepository{pool: pool}
}

func (r *accountRepository) Create(ctx context.Context, email, passwordHash string, role domain.Role) (*domain.Account, error) {
	const q = `
		INSERT INTO accounts (email, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING id, email, password_hash, role, created_at`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var a domain.Account
	err := r.pool.QueryRow(ctx, q, email, passwordHash, role).Scan(
		&a.ID, &a.Email, &a.PasswordHash, &a.Role, &a.CreatedAt,
	)
	if isUniqueViolation(err) {
		return nil, domain.ErrDuplicateAccount
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *accountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	const q = `SELECT id, email, password_hash, role, created_at FROM accounts WHERE email = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var a domain.Account
	err := r.pool.QueryRow(ctx, q, email).Scan(
		&a.ID, &a.Email, &a.PasswordHash, &a.Role, &a.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
