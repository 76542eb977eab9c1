package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyRepository stores replayable responses keyed by a hashed
// Idempotency-Key.
type IdempotencyRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

type idempotencyRepository struct {
	client *redis.Client
}

func NewIdempotencyRepository(client *redis.Client) IdempotencyRepository {
	return &idempotencyRepository{client: client}
}

func (r *idempotencyRepository) Get(ctx context.Context, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	value, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return value, err
}

// Set keeps the first stored response; later writes under the same key are dropped.
func (r *idempotencyRepository) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return r.client.SetNX(ctx, key, value, ttl).Err()
}
