package availability

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("abc12345-6789")

	if cfg.SessionMinutes != 50 {
		t.Fatalf("expected 50 minute sessions, got %d", cfg.SessionMinutes)
	}
	if cfg.BufferMinutes != 10 {
		t.Fatalf("expected 10 minute buffer, got %d", cfg.BufferMinutes)
	}
	if cfg.Timezone != "America/Argentina/Buenos_Aires" {
		t.Fatalf("unexpected default zone %q", cfg.Timezone)
	}
	if !cfg.Week.Monday.Enabled || !cfg.Week.Friday.Enabled {
		t.Fatalf("expected weekdays enabled by default")
	}
	if cfg.Week.Saturday.Enabled || cfg.Week.Sunday.Enabled {
		t.Fatalf("expected weekend disabled by default")
	}
	if !cfg.Reminder24h || !cfg.Reminder1h {
		t.Fatalf("expected both reminders on by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config { return DefaultConfig("p1") }

	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "default is valid", mutate: func(*Config) {}},
		{name: "missing practitioner", mutate: func(c *Config) { c.PractitionerID = " " }, wantErr: true},
		{name: "bad slug characters", mutate: func(c *Config) { c.BookingSlug = "Dra García" }, wantErr: true},
		{name: "slug too short", mutate: func(c *Config) { c.BookingSlug = "ab" }, wantErr: true},
		{name: "session too short", mutate: func(c *Config) { c.SessionMinutes = 14 }, wantErr: true},
		{name: "session too long", mutate: func(c *Config) { c.SessionMinutes = 181 }, wantErr: true},
		{name: "session at lower bound", mutate: func(c *Config) { c.SessionMinutes = 15 }},
		{name: "session at upper bound", mutate: func(c *Config) { c.SessionMinutes = 180 }},
		{name: "negative buffer", mutate: func(c *Config) { c.BufferMinutes = -1 }, wantErr: true},
		{name: "buffer too long", mutate: func(c *Config) { c.BufferMinutes = 61 }, wantErr: true},
		{name: "zero buffer allowed", mutate: func(c *Config) { c.BufferMinutes = 0 }},
		{name: "unknown zone", mutate: func(c *Config) { c.Timezone = "Mars/Olympus" }, wantErr: true},
		{name: "malformed start", mutate: func(c *Config) { c.Week.Monday.Start = "8am" }, wantErr: true},
		{name: "enabled day start equals end", mutate: func(c *Config) {
			c.Week.Monday = DayRule{Start: "09:00", End: "09:00", Enabled: true}
		}, wantErr: true},
		{name: "enabled day start after end", mutate: func(c *Config) {
			c.Week.Monday = DayRule{Start: "18:00", End: "08:00", Enabled: true}
		}, wantErr: true},
		{name: "disabled day start after end is tolerated", mutate: func(c *Config) {
			c.Week.Sunday = DayRule{Start: "18:00", End: "08:00", Enabled: false}
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr && err == nil {
				t.Fatalf("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestParseClock(t *testing.T) {
	got, err := parseClock("08:30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 8*60+30 {
		t.Fatalf("expected 510, got %d", got)
	}

	for _, bad := range []string{"", "25:00", "12:60", "noon", "12"} {
		if _, err := parseClock(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestWeekScheduleRule(t *testing.T) {
	week := WeekSchedule{
		Tuesday: DayRule{Start: "10:00", End: "16:00", Enabled: true},
	}
	if got := week.Rule(time.Tuesday); !got.Enabled || got.Start != "10:00" {
		t.Fatalf("unexpected tuesday rule: %+v", got)
	}
	if got := week.Rule(time.Sunday); got.Enabled {
		t.Fatalf("expected zero-value sunday rule, got %+v", got)
	}
}

func TestValidateReturnsPlainErrors(t *testing.T) {
	cfg := DefaultConfig("p1")
	cfg.SessionMinutes = 5
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected error")
	}
	if errors.Is(err, ErrSlugTaken) {
		t.Fatalf("validation must not produce store errors")
	}
}
