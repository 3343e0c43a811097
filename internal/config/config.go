package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Twilio messaging (SMS / WhatsApp reminders)
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string
	TwilioWhatsApp   bool

	// Google Calendar integration
	GoogleClientID     string
	GoogleClientSecret string
	CalendarTimeout    time.Duration
	MirrorTimeout      time.Duration
	SyncWindowDays     int

	// Reminder worker
	CronSecret      string
	SweepSchedule   string
	DispatchTimeout time.Duration

	CORSAllowedOrigins string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber: getEnv("TWILIO_FROM_NUMBER", ""),
		TwilioWhatsApp:   getEnvAsBool("TWILIO_WHATSAPP", true),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		CalendarTimeout:    getEnvAsDuration("CALENDAR_TIMEOUT", 10*time.Second),
		MirrorTimeout:      getEnvAsDuration("CALENDAR_MIRROR_TIMEOUT", 15*time.Second),
		SyncWindowDays:     getEnvAsInt("CALENDAR_SYNC_WINDOW_DAYS", 30),

		CronSecret:      getEnv("CRON_SECRET", ""),
		SweepSchedule:   getEnv("REMINDER_SWEEP_SCHEDULE", "*/5 * * * *"),
		DispatchTimeout: getEnvAsDuration("REMINDER_DISPATCH_TIMEOUT", 10*time.Second),

		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
