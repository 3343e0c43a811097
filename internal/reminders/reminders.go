// Package reminders decides which upcoming reservations need a 24-hour or
// 1-hour notification and dispatches them exactly once each.
package reminders

import (
	"strings"
	"time"

	"github.com/nvarela/terapia-platform/internal/availability"
	"github.com/nvarela/terapia-platform/internal/reservations"
)

// The windows are wider than the nominal 24h/1h marks so a sweep running on
// an irregular cadence neither misses nor double-sends: the sent flag makes
// repeats idempotent, the width covers gaps between sweeps.
const (
	window24hUpper = 25 * time.Hour
	window24hLower = 90 * time.Minute
	window1hUpper  = 90 * time.Minute
)

// DueKinds returns which reminders a reservation needs right now, given the
// practitioner's settings. Cancelled/completed reservations and already-sent
// flags never qualify.
func DueKinds(now time.Time, res *reservations.Reservation, cfg *availability.Config) []reservations.ReminderKind {
	if !res.Status.Occupies() {
		return nil
	}
	until := res.Start.Sub(now)
	if until <= 0 {
		return nil
	}

	var kinds []reservations.ReminderKind
	if cfg.Reminder24h && !res.Reminder24hSent && until > window24hLower && until <= window24hUpper {
		kinds = append(kinds, reservations.Reminder24h)
	}
	if cfg.Reminder1h && !res.Reminder1hSent && until <= window1hUpper {
		kinds = append(kinds, reservations.Reminder1h)
	}
	return kinds
}

// Message composes the patient-facing reminder text, with the session time
// rendered in the practitioner's zone.
func Message(res *reservations.Reservation, cfg *availability.Config) string {
	when := res.Start
	if loc, err := time.LoadLocation(cfg.Timezone); err == nil {
		when = when.In(loc)
	}

	parts := []string{
		"¡Hola " + res.DisplayName() + "!",
		"Recordatorio: tienes una sesión programada para " + when.Format("02/01/2006 a las 15:04") + ".",
	}
	if msg := strings.TrimSpace(cfg.ReminderMessage); msg != "" {
		parts = append(parts, msg)
	}
	if msg := strings.TrimSpace(cfg.PaymentReminder); msg != "" {
		parts = append(parts, msg)
	}
	return strings.Join(parts, "\n\n")
}
