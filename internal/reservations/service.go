package reservations

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nvarela/terapia-platform/internal/interval"
	"github.com/nvarela/terapia-platform/internal/observability/metrics"
	"github.com/nvarela/terapia-platform/pkg/logging"
)

// CalendarEvent is the slice of an external calendar event the sync needs.
type CalendarEvent struct {
	ID      string
	Summary string
	Start   time.Time
	End     time.Time
}

// Calendar is the external calendar collaborator: mirroring is best effort
// and advisory, the reservation row is the source of truth.
type Calendar interface {
	InsertEvent(ctx context.Context, practitionerID, summary, description string, start, end time.Time) (string, error)
	ListEvents(ctx context.Context, practitionerID string, from, to time.Time) ([]CalendarEvent, error)
}

// BookRequest carries the caller-supplied slot. The interval is re-derived
// and re-checked server-side; a client's claim that the slot is free is
// never trusted.
type BookRequest struct {
	PractitionerID string
	PatientID      *string
	GuestName      string
	GuestPhone     string
	Start          time.Time
	End            time.Time
	Notes          string
}

// Service owns the booking transaction and calendar synchronization.
type Service struct {
	repo          *Repository
	calendar      Calendar
	logger        *logging.Logger
	metrics       *metrics.SchedulingMetrics
	mirrorTimeout time.Duration
	syncMirror    bool
}

// Options tunes the service.
type Options struct {
	MirrorTimeout time.Duration
	// SyncMirror runs calendar mirroring inline instead of in a goroutine.
	// The worker and tests use it; the API serves bookings asynchronously.
	SyncMirror bool
}

// NewService creates the booking service. calendar may be nil when no
// external calendar is connected.
func NewService(repo *Repository, calendar Calendar, logger *logging.Logger, m *metrics.SchedulingMetrics, opts Options) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if opts.MirrorTimeout <= 0 {
		opts.MirrorTimeout = 15 * time.Second
	}
	return &Service{
		repo:          repo,
		calendar:      calendar,
		logger:        logger,
		metrics:       m,
		mirrorTimeout: opts.MirrorTimeout,
		syncMirror:    opts.SyncMirror,
	}
}

// Book re-validates the requested slot inside the repository's atomic
// transaction and commits the reservation, or fails with ErrSlotTaken.
// Two concurrent calls for the same interval produce exactly one
// reservation; the loser gets the conflict. On success the reservation is
// mirrored to the external calendar best effort: a mirror failure is logged
// and never surfaced to the booking caller.
func (s *Service) Book(ctx context.Context, req BookRequest) (*Reservation, error) {
	iv, err := interval.New(req.Start, req.End)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.PractitionerID) == "" {
		return nil, fmt.Errorf("reservations: practitioner id is required")
	}

	res := &Reservation{
		PractitionerID: req.PractitionerID,
		PatientID:      req.PatientID,
		Start:          iv.Start,
		End:            iv.End,
		Status:         StatusScheduled,
	}
	if name := strings.TrimSpace(req.GuestName); name != "" {
		res.GuestName = &name
	}
	if phone := strings.TrimSpace(req.GuestPhone); phone != "" {
		res.GuestPhone = &phone
	}
	if notes := strings.TrimSpace(req.Notes); notes != "" {
		res.Notes = &notes
	}

	created, err := s.repo.CreateIfFree(ctx, res)
	if err != nil {
		if err == ErrSlotTaken {
			s.metrics.ObserveBooking("conflict")
		} else {
			s.metrics.ObserveBooking("error")
		}
		return nil, err
	}
	s.metrics.ObserveBooking("created")

	if s.calendar != nil {
		if s.syncMirror {
			s.mirror(created)
		} else {
			go s.mirror(created)
		}
	}
	return created, nil
}

// mirror pushes the reservation to the external calendar under a bounded
// timeout. The booking already committed; failure here leaves the row's
// google_event_id null and is only reported to the operator log.
func (s *Service) mirror(res *Reservation) {
	ctx, cancel := context.WithTimeout(context.Background(), s.mirrorTimeout)
	defer cancel()

	summary := fmt.Sprintf("Sesión - %s", res.DisplayName())
	description := "Reservado desde la página de reservas"
	if res.GuestPhone != nil {
		description += "\nTeléfono: " + *res.GuestPhone
	}

	eventID, err := s.calendar.InsertEvent(ctx, res.PractitionerID, summary, description, res.Start, res.End)
	if err != nil {
		s.logger.Warn("reservations: calendar mirror failed",
			"reservation_id", res.ID, "practitioner_id", res.PractitionerID, "error", err)
		s.metrics.ObserveCalendarFailure("mirror")
		return
	}
	if err := s.repo.SetGoogleEventID(ctx, res.ID, eventID); err != nil {
		s.logger.Warn("reservations: record mirror id failed",
			"reservation_id", res.ID, "event_id", eventID, "error", err)
	}
}

// SyncFromCalendar imports events from the external calendar for the coming
// window, creating reservations for unknown events and moving ones that were
// rescheduled there. Imported events block slots like any other reservation.
func (s *Service) SyncFromCalendar(ctx context.Context, practitionerID string, windowDays int) (int, error) {
	if s.calendar == nil {
		return 0, fmt.Errorf("reservations: no calendar connected")
	}
	if windowDays <= 0 {
		windowDays = 30
	}

	now := time.Now()
	events, err := s.calendar.ListEvents(ctx, practitionerID, now, now.AddDate(0, 0, windowDays))
	if err != nil {
		s.metrics.ObserveCalendarFailure("list")
		return 0, fmt.Errorf("reservations: list calendar events: %w", err)
	}

	synced := 0
	for _, ev := range events {
		if ev.ID == "" || !ev.Start.Before(ev.End) {
			continue
		}
		existing, err := s.repo.GetByGoogleEventID(ctx, ev.ID)
		if err == ErrNotFound {
			guestName := ev.Summary
			if guestName == "" {
				guestName = "Evento de calendario"
			}
			eventID := ev.ID
			_, err := s.repo.CreateIfFree(ctx, &Reservation{
				PractitionerID: practitionerID,
				GuestName:      &guestName,
				Start:          ev.Start,
				End:            ev.End,
				Status:         StatusScheduled,
				GoogleEventID:  &eventID,
			})
			if err == ErrSlotTaken {
				// The time is already blocked internally; nothing to import.
				continue
			}
			if err != nil {
				return synced, err
			}
			synced++
			continue
		}
		if err != nil {
			return synced, err
		}
		if !existing.Start.Equal(ev.Start) || !existing.End.Equal(ev.End) {
			if err := s.repo.UpdateTimes(ctx, existing.ID, ev.Start, ev.End); err != nil {
				return synced, err
			}
			synced++
		}
	}
	return synced, nil
}
