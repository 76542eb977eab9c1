package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trailbliss/trailbliss-api/internal/domain"
)

type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error)
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	// Transition moves a booking to status "to" only if its current status is "from".
	// It returns nil, nil when no row matched.
	Transition(ctx context.Context, id int64, from, to domain.BookingStatus) (*domain.Booking, error)
	// Complete marks an Accepted booking Completed and stores the review.
	// It returns nil, nil when no row matched.
	Complete(ctx context.Context, id int64, rating int, review string) (*domain.Booking, error)
	ListByTourist(ctx context.Context, email string) ([]domain.Booking, error)
	ListByGuide(ctx context.Context, email string, bookingType domain.BookingType) ([]domain.Booking, error)
}

type bookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) BookingRepository {
	return &bookingRepository{pool: pool}
}

const bookingCols = `id, tourist_email, tourist_phone, guide_email, spot_name, date, type,
status, rating, review, created_at, updated_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(
		&b.ID, &b.TouristEmail, &b.TouristPhone, &b.GuideEmail, &b.SpotName, &b.Date, &b.Type,
		&b.Status, &b.Rating, &b.Review, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func scanOptionalBooking(row pgx.Row) (*domain.Booking, error) {
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

func (r *bookingRepository) Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	const q = `
		INSERT INTO bookings (tourist_email, tourist_phone, guide_email, spot_name, date, type, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'Pending')
		RETURNING ` + bookingCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanBooking(r.pool.QueryRow(ctx, q,
		b.TouristEmail, b.TouristPhone, b.GuideEmail, b.SpotName, b.Date, b.Type,
	))
}

func (r *bookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanOptionalBooking(r.pool.QueryRow(ctx, q, id))
}

func (r *bookingRepository) Transition(ctx context.Context, id int64, from, to domain.BookingStatus) (*domain.Booking, error) {
	const q = `
		UPDATE bookings SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2
		RETURNING ` + bookingCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanOptionalBooking(r.pool.QueryRow(ctx, q, id, from, to))
}

func (r *bookingRepository) Complete(ctx context.Context, id int64, rating int, review string) (*domain.Booking, error) {
	const q = `
		UPDATE bookings SET status = 'Completed', rating = $2, review = $3, updated_at = now()
		WHERE id = $1 AND status = 'Accepted'
		RETURNING ` + bookingCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanOptionalBooking(r.pool.QueryRow(ctx, q, id, rating, review))
}

func (r *bookingRepository) ListByTourist(ctx context.Context, email string) ([]domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings
		WHERE tourist_email = $1
		ORDER BY created_at DESC, id DESC`

	return r.list(ctx, q, email)
}

func (r *bookingRepository) ListByGuide(ctx context.Context, email string, bookingType domain.BookingType) ([]domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings
		WHERE guide_email = $1 AND type = $2
		ORDER BY created_at DESC, id DESC`

	return r.list(ctx, q, email, bookingType)
}

func (r *bookingRepository) list(ctx context.Context, q string, args ...any) ([]domain.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := []domain.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}
