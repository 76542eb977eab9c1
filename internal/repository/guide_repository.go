package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trailbliss/trailbliss-api/internal/domain"
)

type GuideRepository interface {
	List(ctx context.Context) ([]domain.GuideProfile, error)
	FindByEmail(ctx context.Context, email string) (*domain.GuideProfile, error)
	GetOrCreate(ctx context.Context, email string) (*domain.GuideProfile, error)
	Upsert(ctx context.Context, email string, patch domain.GuideProfilePatch) (*domain.GuideProfile, error)
	AddRating(ctx context.Context, email string, rating int) error
}

type guideRepository struct {
	pool *pgxpool.Pool
}

func NewGuideRepository(pool *pgxpool.Pool) GuideRepository {
	return &guideRepository{pool: pool}
}

const guideCols = `id, email, name, bio, experience, languages, phone, profile_image,
rating, reviews_count, created_at, updated_at`

func scanGuide(row pgx.Row) (*domain.GuideProfile, error) {
	var g domain.GuideProfile
	err := row.Scan(
		&g.ID, &g.Email, &g.Name, &g.Bio, &g.Experience, &g.Languages, &g.Phone, &g.ProfileImage,
		&g.Rating, &g.ReviewsCount, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *guideRepository) List(ctx context.Context) ([]domain.GuideProfile, error) {
	const q = `SELECT ` + guideCols + ` FROM guide_profiles ORDER BY name, id`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	guides := []domain.GuideProfile{}
	for rows.Next() {
		g, err := scanGuide(rows)
		if err != nil {
			return nil, err
		}
		guides = append(guides, *g)
	}
	return guides, rows.Err()
}

func (r *guideRepository) FindByEmail(ctx context.Context, email string) (*domain.GuideProfile, error) {
	const q = `SELECT ` + guideCols + ` FROM guide_profiles WHERE email = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	g, err := scanGuide(r.pool.QueryRow(ctx, q, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return g, err
}

// GetOrCreate inserts a placeholder profile when none exists. Concurrent
// callers for the same email all end up reading the single stored row.
func (r *guideRepository) GetOrCreate(ctx context.Context, email string) (*domain.GuideProfile, error) {
	const insert = `
		INSERT INTO guide_profiles (email, name) VALUES ($1, $2)
		ON CONFLICT (email) DO NOTHING`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if _, err := r.pool.Exec(ctx, insert, email, domain.DefaultGuideName); err != nil {
		return nil, err
	}
	return scanGuide(r.pool.QueryRow(ctx, `SELECT `+guideCols+` FROM guide_profiles WHERE email = $1`, email))
}

func (r *guideRepository) Upsert(ctx context.Context, email string, p domain.GuideProfilePatch) (*domain.GuideProfile, error) {
	const q = `
		INSERT INTO guide_profiles (email, name, bio, experience, languages, phone, profile_image)
		VALUES ($1,
			COALESCE($2::text, $8::text),
			COALESCE($3::text, ''),
			COALESCE($4::text, ''),
			COALESCE($5::text, ''),
			COALESCE($6::text, ''),
			COALESCE($7::text, ''))
		ON CONFLICT (email) DO UPDATE SET
			name          = COALESCE($2::text, guide_profiles.name),
			bio           = COALESCE($3::text, guide_profiles.bio),
			experience    = COALESCE($4::text, guide_profiles.experience),
			languages     = COALESCE($5::text, guide_profiles.languages),
			phone         = COALESCE($6::text, guide_profiles.phone),
			profile_image = COALESCE($7::text, guide_profiles.profile_image),
			updated_at    = now()
		RETURNING ` + guideCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanGuide(r.pool.QueryRow(ctx, q,
		email, p.Name, p.Bio, p.Experience, p.Languages, p.Phone, p.ProfileImage, domain.DefaultGuideName,
	))
}

// AddRating folds one review into the running average in a single statement.
func (r *guideRepository) AddRating(ctx context.Context, email string, rating int) error {
	const q = `
		UPDATE guide_profiles SET
			rating        = (rating * reviews_count + $2::double precision) / (reviews_count + 1),
			reviews_count = reviews_count + 1,
			updated_at    = now()
		WHERE email = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, email, rating)
	return err
}
