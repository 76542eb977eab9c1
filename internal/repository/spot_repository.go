package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trailbliss/trailbliss-api/internal/domain"
)

type SpotRepository interface {
	List(ctx context.Context) ([]domain.Spot, error)
	Create(ctx context.Context, spot *domain.Spot) (*domain.Spot, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type spotRepository struct {
	pool *pgxpool.Pool
}

func NewSpotRepository(pool *pgxpool.Pool) SpotRepository {
	return &spotRepository{pool: pool}
}

const spotCols = `id, state, name, category, description, image, lat, lng, created_at`

func scanSpot(row pgx.Row) (*domain.Spot, error) {
	var s domain.Spot
	err := row.Scan(&s.ID, &s.State, &s.Name, &s.Category, &s.Description, &s.Image, &s.Lat, &s.Lng, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *spotRepository) List(ctx context.Context) ([]domain.Spot, error) {
	const q = `SELECT ` + spotCols + ` FROM spots ORDER BY id`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	spots := []domain.Spot{}
	for rows.Next() {
		s, err := scanSpot(rows)
		if err != nil {
			return nil, err
		}
		spots = append(spots, *s)
	}
	return spots, rows.Err()
}

func (r *spotRepository) Create(ctx context.Context, spot *domain.Spot) (*domain.Spot, error) {
	const q = `
		INSERT INTO spots (state, name, category, description, image, lat, lng)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + spotCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanSpot(r.pool.QueryRow(ctx, q,
		spot.State, spot.Name, spot.Category, spot.Description, spot.Image, spot.Lat, spot.Lng,
	))
}

// Delete reports whether a row was removed.
func (r *spotRepository) Delete(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM spots WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
