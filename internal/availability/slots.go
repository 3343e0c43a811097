package availability

import (
	"time"

	"github.com/nvarela/terapia-platform/internal/interval"
)

// Slot is a bookable candidate interval of exactly one session length.
type Slot struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Display string    `json:"display"` // "08:00 - 08:50" in the practitioner's zone
}

// Interval returns the slot as a half-open interval.
func (s Slot) Interval() interval.Interval {
	return interval.Interval{Start: s.Start, End: s.End}
}

// GenerateSlots walks a fixed grid across the working window: candidates start
// at window.Start and advance by session+buffer whether or not the previous
// cell was free, so a busy interval wastes the remainder of its cell instead
// of shifting the grid. A candidate is emitted when it overlaps no busy
// interval, fits the window (exact fit at the end included), and starts after
// now. The result is sorted and pairwise non-overlapping by construction.
//
// A session longer than the window yields no slots. There is no error case:
// no availability is an empty sequence.
func GenerateSlots(window interval.Interval, session, buffer time.Duration, busy []interval.Busy, now time.Time) []Slot {
	if session <= 0 {
		return nil
	}

	step := session + buffer
	slots := []Slot{}
	for cursor := window.Start; !cursor.Add(session).After(window.End); cursor = cursor.Add(step) {
		candidate := interval.Interval{Start: cursor, End: cursor.Add(session)}
		if candidate.OverlapsAny(busy) {
			continue
		}
		if !candidate.Start.After(now) {
			// Today's already-started grid cells are not bookable.
			continue
		}
		slots = append(slots, Slot{
			Start:   candidate.Start,
			End:     candidate.End,
			Display: candidate.Start.Format("15:04") + " - " + candidate.End.Format("15:04"),
		})
	}
	return slots
}
