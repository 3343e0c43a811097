package availability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ErrSlugTaken is returned when a settings update tries to claim a booking
// slug that belongs to another practitioner.
var ErrSlugTaken = errors.New("availability: booking slug already in use")

// ErrUnknownSlug is returned when no practitioner owns the requested slug.
var ErrUnknownSlug = errors.New("availability: unknown booking slug")

// Store persists availability configs, one JSON blob per practitioner plus a
// slug index for the public booking page.
type Store struct {
	redis *redis.Client
}

// NewStore creates an availability config store.
func NewStore(redisClient *redis.Client) *Store {
	return &Store{redis: redisClient}
}

func (s *Store) key(practitionerID string) string {
	return fmt.Sprintf("availability:config:%s", practitionerID)
}

func (s *Store) slugKey(slug string) string {
	return fmt.Sprintf("availability:slug:%s", slug)
}

// Get retrieves a practitioner's config, creating and persisting the defaults
// on first access. Configs are never deleted.
func (s *Store) Get(ctx context.Context, practitionerID string) (*Config, error) {
	data, err := s.redis.Get(ctx, s.key(practitionerID)).Bytes()
	if err == redis.Nil {
		cfg := DefaultConfig(practitionerID)
		if err := s.Set(ctx, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("availability: get config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("availability: unmarshal config: %w", err)
	}
	return &cfg, nil
}

// GetBySlug resolves a public booking slug to its practitioner's config.
func (s *Store) GetBySlug(ctx context.Context, slug string) (*Config, error) {
	practitionerID, err := s.redis.Get(ctx, s.slugKey(slug)).Result()
	if err == redis.Nil {
		return nil, ErrUnknownSlug
	}
	if err != nil {
		return nil, fmt.Errorf("availability: resolve slug: %w", err)
	}
	return s.Get(ctx, practitionerID)
}

// Set validates and upserts a config, keeping the slug index consistent. A
// slug owned by a different practitioner is rejected with ErrSlugTaken.
func (s *Store) Set(ctx context.Context, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	owner, err := s.redis.Get(ctx, s.slugKey(cfg.BookingSlug)).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("availability: check slug: %w", err)
	}
	if err == nil && owner != cfg.PractitionerID {
		return ErrSlugTaken
	}

	// Drop the previous slug index when the slug changed.
	if prev, err := s.redis.Get(ctx, s.key(cfg.PractitionerID)).Bytes(); err == nil {
		var old Config
		if json.Unmarshal(prev, &old) == nil && old.BookingSlug != "" && old.BookingSlug != cfg.BookingSlug {
			if err := s.redis.Del(ctx, s.slugKey(old.BookingSlug)).Err(); err != nil {
				return fmt.Errorf("availability: drop old slug: %w", err)
			}
		}
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("availability: marshal config: %w", err)
	}
	if err := s.redis.Set(ctx, s.key(cfg.PractitionerID), data, 0).Err(); err != nil {
		return fmt.Errorf("availability: set config: %w", err)
	}
	if err := s.redis.Set(ctx, s.slugKey(cfg.BookingSlug), cfg.PractitionerID, 0).Err(); err != nil {
		return fmt.Errorf("availability: set slug index: %w", err)
	}
	return nil
}
