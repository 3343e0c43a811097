package interval

import (
	"errors"
	"testing"
	"time"
)

func mustInterval(t *testing.T, start, end time.Time) Interval {
	t.Helper()
	iv, err := New(start, end)
	if err != nil {
		t.Fatalf("New(%s, %s): %v", start, end, err)
	}
	return iv
}

func TestNewRejectsInvertedAndEmpty(t *testing.T) {
	now := time.Now()

	if _, err := New(now, now); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval for empty interval, got %v", err)
	}
	if _, err := New(now.Add(time.Hour), now); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval for inverted interval, got %v", err)
	}
}

func TestOverlaps(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	at := func(mins int) time.Time { return base.Add(time.Duration(mins) * time.Minute) }

	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"identical", Interval{at(0), at(50)}, Interval{at(0), at(50)}, true},
		{"partial overlap", Interval{at(0), at(50)}, Interval{at(30), at(80)}, true},
		{"containment", Interval{at(0), at(120)}, Interval{at(30), at(60)}, true},
		{"touching endpoints", Interval{at(0), at(50)}, Interval{at(50), at(100)}, false},
		{"disjoint", Interval{at(0), at(50)}, Interval{at(60), at(100)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.want {
				t.Errorf("Overlaps(a, b) = %v, want %v", got, tt.want)
			}
			// The predicate is symmetric.
			if got := tt.b.Overlaps(tt.a); got != tt.want {
				t.Errorf("Overlaps(b, a) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOverlapsSelf(t *testing.T) {
	now := time.Now()
	iv := mustInterval(t, now, now.Add(time.Minute))
	if !iv.Overlaps(iv) {
		t.Fatal("nonzero-length interval must overlap itself")
	}
}

func TestDuration(t *testing.T) {
	now := time.Now()
	iv := mustInterval(t, now, now.Add(50*time.Minute))
	if iv.Duration() != 50*time.Minute {
		t.Fatalf("Duration = %s, want 50m", iv.Duration())
	}
}

func TestContains(t *testing.T) {
	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	window := Interval{base, base.Add(10 * time.Hour)}

	inside := Interval{base.Add(time.Hour), base.Add(2 * time.Hour)}
	exact := Interval{base, base.Add(10 * time.Hour)}
	spills := Interval{base.Add(9 * time.Hour), base.Add(11 * time.Hour)}

	if !window.Contains(inside) {
		t.Error("expected window to contain inner interval")
	}
	if !window.Contains(exact) {
		t.Error("expected window to contain itself")
	}
	if window.Contains(spills) {
		t.Error("did not expect window to contain spilling interval")
	}
}

func TestOverlapsAny(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	busy := []Busy{
		{Interval: Interval{base, base.Add(30 * time.Minute)}, Source: SourceExternalCalendar},
		{Interval: Interval{base.Add(2 * time.Hour), base.Add(3 * time.Hour)}, Source: SourceInternalReservation},
	}

	hit := Interval{base.Add(15 * time.Minute), base.Add(65 * time.Minute)}
	miss := Interval{base.Add(time.Hour), base.Add(90 * time.Minute)}

	if !hit.OverlapsAny(busy) {
		t.Error("expected overlap with external busy interval")
	}
	if miss.OverlapsAny(busy) {
		t.Error("expected no overlap in the gap between busy intervals")
	}
	if miss.OverlapsAny(nil) {
		t.Error("empty busy set must never report overlap")
	}
}
