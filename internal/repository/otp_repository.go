package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// OTPRepository keeps at most one verification challenge per email. Expiry is
// enforced by the key TTL.
type OTPRepository interface {
	// Save replaces any existing challenge for email.
	Save(ctx context.Context, email, codeHash string, ttl time.Duration) error
	// Get returns the stored code hash, or "" when there is no live challenge.
	Get(ctx context.Context, email string) (string, error)
	// Delete removes the challenge only while it still holds codeHash, and
	// reports whether this call removed it. A newer challenge is left alone.
	Delete(ctx context.Context, email, codeHash string) (bool, error)
	MarkVerified(ctx context.Context, email string, ttl time.Duration) error
	IsVerified(ctx context.Context, email string) (bool, error)
	// ConsumeVerified removes the verified marker and reports whether it was present.
	ConsumeVerified(ctx context.Context, email string) (bool, error)
}

type otpRepository struct {
	client *redis.Client
}

func NewOTPRepository(client *redis.Client) OTPRepository {
	return &otpRepository{client: client}
}

// deleteIfHash removes KEYS[1] only when its value is still ARGV[1].
var deleteIfHash = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func otpKey(email string) string      { return "otp:" + email }
func verifiedKey(email string) string { return "otp:verified:" + email }

func (r *otpRepository) Save(ctx context.Context, email, codeHash string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return r.client.Set(ctx, otpKey(email), codeHash, ttl).Err()
}

func (r *otpRepository) Get(ctx context.Context, email string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	hash, err := r.client.Get(ctx, otpKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return hash, err
}

func (r *otpRepository) Delete(ctx context.Context, email, codeHash string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	n, err := deleteIfHash.Run(ctx, r.client, []string{otpKey(email)}, codeHash).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *otpRepository) MarkVerified(ctx context.Context, email string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return r.client.Set(ctx, verifiedKey(email), "1", ttl).Err()
}

func (r *otpRepository) IsVerified(ctx context.Context, email string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	n, err := r.client.Exists(ctx, verifiedKey(email)).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *otpRepository) ConsumeVerified(ctx context.Context, email string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	n, err := r.client.Del(ctx, verifiedKey(email)).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
