// Package interval provides the half-open time interval used for every
// availability and conflict computation in the service.
package interval

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidInterval is returned when an interval's start is not before its end.
var ErrInvalidInterval = errors.New("interval: start must be before end")

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// New validates and builds an interval.
func New(start, end time.Time) (Interval, error) {
	iv := Interval{Start: start, End: end}
	if err := iv.Validate(); err != nil {
		return Interval{}, err
	}
	return iv, nil
}

// Validate reports ErrInvalidInterval when Start >= End.
func (iv Interval) Validate() error {
	if !iv.Start.Before(iv.End) {
		return fmt.Errorf("%w: start=%s end=%s", ErrInvalidInterval, iv.Start.Format(time.RFC3339), iv.End.Format(time.RFC3339))
	}
	return nil
}

// Overlaps is the strict half-open overlap test: two intervals collide iff
// a.Start < b.End && b.Start < a.End. Intervals sharing only a boundary
// instant do not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Contains reports whether other lies entirely within iv.
func (iv Interval) Contains(other Interval) bool {
	return !other.Start.Before(iv.Start) && !other.End.After(iv.End)
}

// Duration returns End - Start.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Source identifies where a busy interval came from.
type Source string

const (
	SourceExternalCalendar    Source = "external-calendar"
	SourceInternalReservation Source = "internal-reservation"
)

// Busy is an interval during which the practitioner is already committed.
// Busy intervals are only used for exclusion during slot computation and are
// never persisted.
type Busy struct {
	Interval
	Source Source
}

// OverlapsAny reports whether iv collides with any interval in busy.
func (iv Interval) OverlapsAny(busy []Busy) bool {
	for _, b := range busy {
		if iv.Overlaps(b.Interval) {
			return true
		}
	}
	return false
}
