// Package bootstrap wires shared infrastructure for the api and worker
// binaries.
package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/nvarela/terapia-platform/internal/config"
	"github.com/nvarela/terapia-platform/internal/gcal"
	"github.com/nvarela/terapia-platform/internal/notify"
	"github.com/nvarela/terapia-platform/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

// BuildPool opens the Postgres pool and verifies connectivity.
func BuildPool(ctx context.Context, cfg *appconfig.Config) (*pgxpool.Pool, error) {
	if cfg == nil || strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, fmt.Errorf("bootstrap: DATABASE_URL is required")
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap: ping postgres: %w", err)
	}
	return pool, nil
}

// BuildSender returns the Twilio sender when credentials are present and
// falls back to the log-only stub otherwise.
func BuildSender(cfg *appconfig.Config, logger *logging.Logger) notify.Sender {
	if cfg != nil && cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" && cfg.TwilioFromNumber != "" {
		return notify.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, cfg.TwilioWhatsApp, logger)
	}
	if logger != nil {
		logger.Warn("twilio credentials missing, reminders will be logged only")
	}
	return notify.NewStubSender(logger)
}

// BuildCalendarClient returns the Google Calendar client backed by the Redis
// token store, or nil when Redis is unavailable.
func BuildCalendarClient(cfg *appconfig.Config, redisClient *redis.Client, logger *logging.Logger) *gcal.Client {
	if cfg == nil || redisClient == nil {
		return nil
	}
	tokens := gcal.NewRedisTokenProvider(redisClient)
	return gcal.NewClient(tokens, cfg.CalendarTimeout, logger)
}
