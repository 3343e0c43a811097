package availability

import (
	"fmt"
	"time"

	"github.com/nvarela/terapia-platform/internal/interval"
)

// ResolveWindow returns the absolute working window for the date's weekday,
// computed in the practitioner's time zone. The weekday is taken from the
// practitioner's zone, not the caller's: an instant that is Monday in the
// caller's zone can still resolve Tuesday's rule here. The second return is
// false when the day is disabled.
//
// All weekday and time-of-day math for the service lives in this function;
// no other component converts zones.
func ResolveWindow(cfg *Config, date time.Time) (interval.Interval, bool, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return interval.Interval{}, false, fmt.Errorf("availability: load zone %q: %w", cfg.Timezone, err)
	}

	local := date.In(loc)
	rule := cfg.Week.Rule(local.Weekday())
	if !rule.Enabled {
		return interval.Interval{}, false, nil
	}

	startMins, err := parseClock(rule.Start)
	if err != nil {
		return interval.Interval{}, false, fmt.Errorf("availability: %w", err)
	}
	endMins, err := parseClock(rule.End)
	if err != nil {
		return interval.Interval{}, false, fmt.Errorf("availability: %w", err)
	}

	year, month, day := local.Date()
	dayStart := time.Date(year, month, day, 0, 0, 0, 0, loc)
	window := interval.Interval{
		Start: dayStart.Add(time.Duration(startMins) * time.Minute),
		End:   dayStart.Add(time.Duration(endMins) * time.Minute),
	}
	// Config validation rejects start >= end on enabled days, but stored
	// settings predating that check resolve to no window rather than failing.
	if err := window.Validate(); err != nil {
		return interval.Interval{}, false, nil
	}
	return window, true, nil
}

// DayBounds returns midnight-to-midnight for the date in the practitioner's
// zone, the range used when collecting busy intervals.
func DayBounds(cfg *Config, date time.Time) (time.Time, time.Time, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("availability: load zone %q: %w", cfg.Timezone, err)
	}
	local := date.In(loc)
	year, month, day := local.Date()
	start := time.Date(year, month, day, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1), nil
}
