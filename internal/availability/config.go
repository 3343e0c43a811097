// Package availability computes bookable time slots from a practitioner's
// working-hour configuration and the set of already-busy intervals.
package availability

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	MinSessionMinutes = 15
	MaxSessionMinutes = 180
	MaxBufferMinutes  = 60
)

var slugPattern = regexp.MustCompile(`^[a-z0-9-]{3,64}$`)

// DayRule is the working-hours rule for a single weekday.
// Start and End are local times of day in 24-hour "HH:MM" format.
type DayRule struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	Enabled bool   `json:"enabled"`
}

// WeekSchedule holds one rule per weekday.
type WeekSchedule struct {
	Monday    DayRule `json:"monday"`
	Tuesday   DayRule `json:"tuesday"`
	Wednesday DayRule `json:"wednesday"`
	Thursday  DayRule `json:"thursday"`
	Friday    DayRule `json:"friday"`
	Saturday  DayRule `json:"saturday"`
	Sunday    DayRule `json:"sunday"`
}

// Rule returns the rule for a weekday.
func (w WeekSchedule) Rule(day time.Weekday) DayRule {
	switch day {
	case time.Monday:
		return w.Monday
	case time.Tuesday:
		return w.Tuesday
	case time.Wednesday:
		return w.Wednesday
	case time.Thursday:
		return w.Thursday
	case time.Friday:
		return w.Friday
	case time.Saturday:
		return w.Saturday
	default:
		return w.Sunday
	}
}

func (w WeekSchedule) days() map[string]DayRule {
	return map[string]DayRule{
		"monday":    w.Monday,
		"tuesday":   w.Tuesday,
		"wednesday": w.Wednesday,
		"thursday":  w.Thursday,
		"friday":    w.Friday,
		"saturday":  w.Saturday,
		"sunday":    w.Sunday,
	}
}

// Config holds a practitioner's availability settings. It is an explicit value
// passed into every computation; nothing in this package reads shared state.
type Config struct {
	PractitionerID  string       `json:"practitioner_id"`
	BookingSlug     string       `json:"booking_slug"`
	SessionMinutes  int          `json:"session_minutes"`
	BufferMinutes   int          `json:"buffer_minutes"`
	Timezone        string       `json:"timezone"` // IANA name, e.g. "America/Argentina/Buenos_Aires"
	Week            WeekSchedule `json:"working_hours"`
	Reminder24h     bool         `json:"reminder_24h"`
	Reminder1h      bool         `json:"reminder_1h"`
	ReminderMessage string       `json:"reminder_message,omitempty"`
	PaymentReminder string       `json:"payment_reminder,omitempty"`
}

// DefaultConfig returns the settings a practitioner starts with.
func DefaultConfig(practitionerID string) *Config {
	workday := DayRule{Start: "08:00", End: "18:00", Enabled: true}
	weekend := DayRule{Start: "08:00", End: "12:00", Enabled: false}
	return &Config{
		PractitionerID: practitionerID,
		BookingSlug:    defaultSlug(practitionerID),
		SessionMinutes: 50,
		BufferMinutes:  10,
		Timezone:       "America/Argentina/Buenos_Aires",
		Week: WeekSchedule{
			Monday:    workday,
			Tuesday:   workday,
			Wednesday: workday,
			Thursday:  workday,
			Friday:    workday,
			Saturday:  weekend,
			Sunday:    weekend,
		},
		Reminder24h: true,
		Reminder1h:  true,
	}
}

func defaultSlug(practitionerID string) string {
	id := strings.ToLower(strings.ReplaceAll(practitionerID, " ", "-"))
	if len(id) > 8 {
		id = id[:8]
	}
	return "practitioner-" + id
}

// SessionDuration returns the session length as a Duration.
func (c *Config) SessionDuration() time.Duration {
	return time.Duration(c.SessionMinutes) * time.Minute
}

// BufferDuration returns the buffer between slots as a Duration.
func (c *Config) BufferDuration() time.Duration {
	return time.Duration(c.BufferMinutes) * time.Minute
}

// Validate rejects malformed settings at save time. An enabled day whose start
// does not precede its end is a configuration error, not an empty window.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.PractitionerID) == "" {
		return fmt.Errorf("availability: practitioner id is required")
	}
	if !slugPattern.MatchString(c.BookingSlug) {
		return fmt.Errorf("availability: booking slug %q must be lowercase letters, digits and hyphens", c.BookingSlug)
	}
	if c.SessionMinutes < MinSessionMinutes || c.SessionMinutes > MaxSessionMinutes {
		return fmt.Errorf("availability: session duration %d outside [%d,%d] minutes", c.SessionMinutes, MinSessionMinutes, MaxSessionMinutes)
	}
	if c.BufferMinutes < 0 || c.BufferMinutes > MaxBufferMinutes {
		return fmt.Errorf("availability: buffer %d outside [0,%d] minutes", c.BufferMinutes, MaxBufferMinutes)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("availability: unknown time zone %q: %w", c.Timezone, err)
	}
	for name, rule := range c.Week.days() {
		start, err := parseClock(rule.Start)
		if err != nil {
			return fmt.Errorf("availability: %s start: %w", name, err)
		}
		end, err := parseClock(rule.End)
		if err != nil {
			return fmt.Errorf("availability: %s end: %w", name, err)
		}
		if rule.Enabled && start >= end {
			return fmt.Errorf("availability: %s start %s must precede end %s", name, rule.Start, rule.End)
		}
	}
	return nil
}

// parseClock converts "HH:MM" into minutes from midnight.
func parseClock(s string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour*60 + minute, nil
}
