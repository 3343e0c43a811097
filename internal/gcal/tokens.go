package gcal

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const tokenKeyPrefix = "gcal:token:"

// RedisTokenProvider reads per-practitioner access tokens written by the
// OAuth connect flow.
type RedisTokenProvider struct {
	client *redis.Client
}

func NewRedisTokenProvider(client *redis.Client) *RedisTokenProvider {
	return &RedisTokenProvider{client: client}
}

// AccessToken implements TokenProvider. A missing key means the practitioner
// never connected a calendar.
func (p *RedisTokenProvider) AccessToken(ctx context.Context, practitionerID string) (string, error) {
	token, err := p.client.Get(ctx, tokenKeyPrefix+practitionerID).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotConnected
	}
	if err != nil {
		return "", fmt.Errorf("gcal: load token: %w", err)
	}
	return token, nil
}

// SetAccessToken stores a practitioner's token.
func (p *RedisTokenProvider) SetAccessToken(ctx context.Context, practitionerID, token string) error {
	if err := p.client.Set(ctx, tokenKeyPrefix+practitionerID, token, 0).Err(); err != nil {
		return fmt.Errorf("gcal: store token: %w", err)
	}
	return nil
}

var _ TokenProvider = (*RedisTokenProvider)(nil)
