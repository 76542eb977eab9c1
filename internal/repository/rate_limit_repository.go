package repository

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RateLimitRepository interface {
	CheckRateLimit(ctx context.Context, key string, requests int, window time.Duration) (bool, error)
}

type rateLimitRepository struct {
	client *redis.Client
}

func NewRateLimitRepository(client *redis.Client) RateLimitRepository {
	return &rateLimitRepository{client: client}
}

// CheckRateLimit counts hits in a fixed window that starts with the first request.
func (r *rateLimitRepository) CheckRateLimit(ctx context.Context, key string, requests int, window time.Duration) (bool, error) {
	hashedKey := fmt.Sprintf("ratelimit:%x", sha256.Sum256([]byte(key)))

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, hashedKey)
	ttl := pipe.TTL(ctx, hashedKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	// A key without a TTL was just created by this request.
	if ttl.Val() < 0 {
		if err := r.client.Expire(ctx, hashedKey, window).Err(); err != nil {
			return false, err
		}
	}

	return incr.Val() <= int64(requests), nil
}
