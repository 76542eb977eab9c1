package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trailbliss/trailbliss-api/internal/domain"
)

type FeedbackRepository interface {
	Create(ctx context.Context, entry *domain.FeedbackEntry) (*domain.FeedbackEntry, error)
	List(ctx context.Context) ([]domain.FeedbackEntry, error)
}

type feedbackRepository struct {
	pool *pgxpool.Pool
}

func NewFeedbackRepository(pool *pgxpool.Pool) FeedbackRepository {
	return &feedbackRepository{pool: pool}
}

func (r *feedbackRepository) Create(ctx context.Context, entry *domain.FeedbackEntry) (*domain.FeedbackEntry, error) {
	const q = `
		INSERT INTO feedback (name, email, message)
		VALUES ($1, $2, $3)
		RETURNING id, name, email, message, submitted_at`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var f domain.FeedbackEntry
	err := r.pool.QueryRow(ctx, q, entry.Name, entry.Email, entry.Message).Scan(
		&f.ID, &f.Name, &f.Email, &f.Message, &f.SubmittedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *feedbackRepository) List(ctx context.Context) ([]domain.FeedbackEntry, error) {
	const q = `SELECT id, name, email, message, submitted_at FROM feedback ORDER BY submitted_at DESC, id DESC`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []domain.FeedbackEntry{}
	for rows.Next() {
		var f domain.FeedbackEntry
		if err := rows.Scan(&f.ID, &f.Name, &f.Email, &f.Message, &f.SubmittedAt); err != nil {
			return nil, err
		}
		entries = append(entries, f)
	}
	return entries, rows.Err()
}
