package biz

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const nonceKeyPrefix = "login_nonce:"

var ErrNonceNotFound = errors.New("nonce not found")

// NonceRepo stores single-use login nonces keyed by wallet address.
// A nonce is created on request, expires on its TTL, and is deleted
// the moment a login attempt consumes it, successful or not.
type NonceRepo interface {
	Create(ctx context.Context, address string, ttl time.Duration) (string, error)
	Get(ctx context.Context, address string) (string, error)
	Delete(ctx context.Context, address string) error
}

// RedisNonceRepo is the redis-backed implementation.
type RedisNonceRepo struct {
	client *redis.Client
}

// NewRedisNonceRepo creates the repo.
func NewRedisNonceRepo(client *redis.Client) NonceRepo {
	return &RedisNonceRepo{client: client}
}

// Create generates a fresh random nonce for the address, replacing
// any outstanding one.
func (r *RedisNonceRepo) Create(ctx context.Context, address string, ttl time.Duration) (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	nonce := hex.EncodeToString(b)

	key := nonceKeyPrefix + strings.ToLower(address)
	if err := r.client.Set(ctx, key, nonce, ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store nonce: %w", err)
	}
	return nonce, nil
}

// Get returns the outstanding nonce for the address.
func (r *RedisNonceRepo) Get(ctx context.Context, address string) (string, error) {
	key := nonceKeyPrefix + strings.ToLower(address)
	nonce, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNonceNotFound
		}
		return "", fmt.Errorf("failed to get nonce: %w", err)
	}
	return nonce, nil
}

// Delete removes the nonce so it can never be replayed.
func (r *RedisNonceRepo) Delete(ctx context.Context, address string) error {
	key := nonceKeyPrefix + strings.ToLower(address)
	return r.client.Del(ctx, key).Err()
}
