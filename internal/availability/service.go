package availability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nvarela/terapia-platform/internal/interval"
	"github.com/nvarela/terapia-platform/internal/observability/metrics"
	"github.com/nvarela/terapia-platform/pkg/logging"
)

// CalendarBusySource yields busy intervals from the practitioner's external
// calendar. A failing source degrades to zero intervals; the internal
// reservation source still protects against double booking.
type CalendarBusySource interface {
	FreeBusy(ctx context.Context, practitionerID string, from, to time.Time) ([]interval.Interval, error)
}

// ReservationBusySource yields busy intervals from the internal reservation
// store (Scheduled/Confirmed reservations only).
type ReservationBusySource interface {
	BusyIntervals(ctx context.Context, practitionerID string, from, to time.Time) ([]interval.Interval, error)
}

// ConfigSource resolves a practitioner's availability settings.
type ConfigSource interface {
	Get(ctx context.Context, practitionerID string) (*Config, error)
	GetBySlug(ctx context.Context, slug string) (*Config, error)
}

// DayAvailability is the public booking page's view of one day.
type DayAvailability struct {
	Slots          []Slot `json:"slots"`
	SessionMinutes int    `json:"session_minutes"`
}

// Service computes a day's bookable slots for a practitioner.
type Service struct {
	configs      ConfigSource
	calendar     CalendarBusySource
	reservations ReservationBusySource
	logger       *logging.Logger
	metrics      *metrics.SchedulingMetrics
	now          func() time.Time
}

// NewService wires the availability service. calendar may be nil when no
// external calendar is connected.
func NewService(configs ConfigSource, calendar CalendarBusySource, reservations ReservationBusySource, logger *logging.Logger, m *metrics.SchedulingMetrics) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		configs:      configs,
		calendar:     calendar,
		reservations: reservations,
		logger:       logger,
		metrics:      m,
		now:          time.Now,
	}
}

// WithClock overrides the service's notion of now. Tests only.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// DaySlotsBySlug computes available slots for the practitioner behind a
// public booking slug.
func (s *Service) DaySlotsBySlug(ctx context.Context, slug string, date time.Time) (*DayAvailability, error) {
	cfg, err := s.configs.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.daySlots(ctx, cfg, date)
}

// DaySlots computes available slots for a practitioner on a given date.
func (s *Service) DaySlots(ctx context.Context, practitionerID string, date time.Time) (*DayAvailability, error) {
	cfg, err := s.configs.Get(ctx, practitionerID)
	if err != nil {
		return nil, err
	}
	return s.daySlots(ctx, cfg, date)
}

func (s *Service) daySlots(ctx context.Context, cfg *Config, date time.Time) (*DayAvailability, error) {
	window, open, err := ResolveWindow(cfg, date)
	if err != nil {
		return nil, err
	}
	if !open {
		s.metrics.ObserveSlotQuery("closed", 0)
		return &DayAvailability{Slots: []Slot{}, SessionMinutes: cfg.SessionMinutes}, nil
	}

	dayStart, dayEnd, err := DayBounds(cfg, date)
	if err != nil {
		return nil, err
	}

	busy, err := s.collectBusy(ctx, cfg.PractitionerID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	slots := GenerateSlots(window, cfg.SessionDuration(), cfg.BufferDuration(), busy, s.now())
	s.metrics.ObserveSlotQuery("ok", len(slots))
	return &DayAvailability{Slots: slots, SessionMinutes: cfg.SessionMinutes}, nil
}

// collectBusy fetches both busy sources concurrently and unions them. The
// external calendar is best effort; the reservation store is authoritative
// and its failure fails the query.
func (s *Service) collectBusy(ctx context.Context, practitionerID string, from, to time.Time) ([]interval.Busy, error) {
	var (
		wg          sync.WaitGroup
		external    []interval.Interval
		internal    []interval.Interval
		externalErr error
		internalErr error
	)

	if s.calendar != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			external, externalErr = s.calendar.FreeBusy(ctx, practitionerID, from, to)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		internal, internalErr = s.reservations.BusyIntervals(ctx, practitionerID, from, to)
	}()

	wg.Wait()

	if internalErr != nil {
		return nil, fmt.Errorf("availability: fetch reservations: %w", internalErr)
	}
	if externalErr != nil {
		s.logger.Warn("availability: external calendar fetch failed, continuing without it",
			"practitioner_id", practitionerID, "error", externalErr)
		s.metrics.ObserveCalendarFailure("freebusy")
		external = nil
	}

	busy := make([]interval.Busy, 0, len(external)+len(internal))
	for _, iv := range external {
		busy = append(busy, interval.Busy{Interval: iv, Source: interval.SourceExternalCalendar})
	}
	for _, iv := range internal {
		busy = append(busy, interval.Busy{Interval: iv, Source: interval.SourceInternalReservation})
	}
	return busy, nil
}
