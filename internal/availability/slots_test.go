package availability

import (
	"testing"
	"time"

	"github.com/nvarela/terapia-platform/internal/interval"
)

func mustWindow(t *testing.T, startHour, endHour int) interval.Interval {
	t.Helper()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	return interval.Interval{
		Start: day.Add(time.Duration(startHour) * time.Hour),
		End:   day.Add(time.Duration(endHour) * time.Hour),
	}
}

func busyAt(window interval.Interval, fromMin, toMin int) interval.Busy {
	return interval.Busy{
		Interval: interval.Interval{
			Start: window.Start.Add(time.Duration(fromMin) * time.Minute),
			End:   window.Start.Add(time.Duration(toMin) * time.Minute),
		},
		Source: interval.SourceInternalReservation,
	}
}

func TestGenerateSlotsFullDay(t *testing.T) {
	window := mustWindow(t, 8, 18) // 08:00 - 18:00
	past := window.Start.Add(-24 * time.Hour)

	slots := GenerateSlots(window, 50*time.Minute, 10*time.Minute, nil, past)

	// 600 minutes of window on a 60-minute grid: 08:00, 09:00, ... 17:00.
	if len(slots) != 10 {
		t.Fatalf("expected 10 slots, got %d", len(slots))
	}
	if slots[0].Display != "08:00 - 08:50" {
		t.Fatalf("unexpected first slot %q", slots[0].Display)
	}
	if slots[9].Display != "17:00 - 17:50" {
		t.Fatalf("unexpected last slot %q", slots[9].Display)
	}
}

// A busy interval kills only the grid cells it overlaps; the grid never
// shifts to repack around it.
func TestGenerateSlotsFixedGridDoesNotRepack(t *testing.T) {
	window := mustWindow(t, 8, 18)
	past := window.Start.Add(-24 * time.Hour)
	busy := []interval.Busy{busyAt(window, 60, 90)} // 09:00 - 09:30

	slots := GenerateSlots(window, 50*time.Minute, 10*time.Minute, busy, past)

	if len(slots) != 9 {
		t.Fatalf("expected 9 slots, got %d", len(slots))
	}
	for _, s := range slots {
		if s.Display == "09:00 - 09:50" {
			t.Fatalf("expected the 09:00 cell to be dropped")
		}
		if s.Start.Minute() != 0 {
			t.Fatalf("grid shifted: slot starts at %v", s.Start)
		}
	}
}

// A busy interval ending exactly at a cell start does not kill that cell:
// half-open intervals sharing a boundary do not overlap.
func TestGenerateSlotsBackToBackBoundary(t *testing.T) {
	window := mustWindow(t, 8, 18)
	past := window.Start.Add(-24 * time.Hour)
	busy := []interval.Busy{busyAt(window, 0, 60)} // 08:00 - 09:00

	slots := GenerateSlots(window, 50*time.Minute, 10*time.Minute, busy, past)

	if len(slots) != 9 {
		t.Fatalf("expected 9 slots, got %d", len(slots))
	}
	if slots[0].Display != "09:00 - 09:50" {
		t.Fatalf("expected 09:00 to survive a block ending at 09:00, got %q", slots[0].Display)
	}
}

// With zero buffer the last session may end exactly at the window end.
func TestGenerateSlotsExactFitAtWindowEnd(t *testing.T) {
	window := mustWindow(t, 8, 10) // two hours
	past := window.Start.Add(-24 * time.Hour)

	slots := GenerateSlots(window, 60*time.Minute, 0, nil, past)

	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
	if !slots[1].End.Equal(window.End) {
		t.Fatalf("expected exact fit at window end, got %v", slots[1].End)
	}
}

func TestGenerateSlotsSessionLongerThanWindow(t *testing.T) {
	window := mustWindow(t, 8, 9)
	past := window.Start.Add(-24 * time.Hour)

	slots := GenerateSlots(window, 2*time.Hour, 0, nil, past)
	if len(slots) != 0 {
		t.Fatalf("expected no slots, got %d", len(slots))
	}
}

func TestGenerateSlotsDropsPastAndCurrent(t *testing.T) {
	window := mustWindow(t, 8, 18)

	// Now is exactly 10:00: the 10:00 cell starts at now and is excluded,
	// 11:00 is the first bookable slot.
	now := window.Start.Add(2 * time.Hour)
	slots := GenerateSlots(window, 50*time.Minute, 10*time.Minute, nil, now)

	if len(slots) != 7 {
		t.Fatalf("expected 7 slots, got %d", len(slots))
	}
	if slots[0].Display != "11:00 - 11:50" {
		t.Fatalf("unexpected first slot %q", slots[0].Display)
	}
}

func TestGenerateSlotsPairwiseNonOverlapping(t *testing.T) {
	window := mustWindow(t, 8, 18)
	past := window.Start.Add(-24 * time.Hour)

	slots := GenerateSlots(window, 45*time.Minute, 5*time.Minute, nil, past)
	for i := 1; i < len(slots); i++ {
		if slots[i].Interval().Overlaps(slots[i-1].Interval()) {
			t.Fatalf("slots %d and %d overlap", i-1, i)
		}
		if !slots[i].Start.After(slots[i-1].Start) {
			t.Fatalf("slots out of order at %d", i)
		}
	}
}

func TestGenerateSlotsZeroSession(t *testing.T) {
	window := mustWindow(t, 8, 18)
	if slots := GenerateSlots(window, 0, 0, nil, time.Time{}); slots != nil {
		t.Fatalf("expected nil for zero session")
	}
}
