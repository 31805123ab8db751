package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrMagicLinkNotFound signals an expired or unknown token.
var ErrMagicLinkNotFound = errors.New("magic link not found")

// MagicLinkRepository stores short-lived tokens that let anonymous submitters
// view their tickets. Tokens expire via Redis TTL and stay redeemable until
// then.
type MagicLinkRepository interface {
	Create(ctx context.Context, userID string, ttl time.Duration) (string, error)
	Resolve(ctx context.Context, token string) (string, error)
}

type magicLinkRepository struct {
	client *redis.Client
}

// NewMagicLinkRepository returns a Redis-backed implementation.
func NewMagicLinkRepository(client *redis.Client) MagicLinkRepository {
	return &magicLinkRepository{client: client}
}

func magicLinkKey(token string) string {
	return "magiclink:" + token
}

func (r *magicLinkRepository) Create(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	if err := r.client.Set(ctx, magicLinkKey(token), userID, ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

func (r *magicLinkRepository) Resolve(ctx context.Context, token string) (string, error) {
	userID, err := r.client.Get(ctx, magicLinkKey(token)).Result()
	if err == redis.Nil {
		return "", ErrMagicLinkNotFound
	}
	if err != nil {
		return "", err
	}
	return userID, nil
}
