package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "*/5 * * * *", cfg.SweepSchedule)
	assert.Equal(t, 10*time.Second, cfg.CalendarTimeout)
	assert.Equal(t, 30, cfg.SyncWindowDays)
	assert.True(t, cfg.TwilioWhatsApp)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("TWILIO_WHATSAPP", "false")
	t.Setenv("REMINDER_DISPATCH_TIMEOUT", "3s")
	t.Setenv("CALENDAR_SYNC_WINDOW_DAYS", "14")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.False(t, cfg.TwilioWhatsApp)
	assert.Equal(t, 3*time.Second, cfg.DispatchTimeout)
	assert.Equal(t, 14, cfg.SyncWindowDays)
}

func TestInvalidEnvFallsBack(t *testing.T) {
	t.Setenv("CALENDAR_SYNC_WINDOW_DAYS", "soon")
	t.Setenv("REDIS_TLS", "yep")

	cfg := Load()

	assert.Equal(t, 30, cfg.SyncWindowDays)
	assert.False(t, cfg.RedisTLS)
}
