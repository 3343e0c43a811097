package reminders

import (
	"context"
	"time"

	"github.com/nvarela/terapia-platform/internal/availability"
	"github.com/nvarela/terapia-platform/internal/notify"
	"github.com/nvarela/terapia-platform/internal/observability/metrics"
	"github.com/nvarela/terapia-platform/internal/reservations"
	"github.com/nvarela/terapia-platform/pkg/logging"
)

// ReservationStore is the slice of the reservation repository the sweep uses.
type ReservationStore interface {
	ListDueForReminders(ctx context.Context, now time.Time) ([]reservations.Reservation, error)
	SetReminderSent(ctx context.Context, id string, kind reservations.ReminderKind) (bool, error)
	ClearReminderSent(ctx context.Context, id string, kind reservations.ReminderKind) error
}

// ConfigSource resolves practitioner settings (reminder toggles, zone, texts).
type ConfigSource interface {
	Get(ctx context.Context, practitionerID string) (*availability.Config, error)
}

// Result summarizes one sweep.
type Result struct {
	Sent24h int `json:"sent_24h"`
	Sent1h  int `json:"sent_1h"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// Sweeper runs the periodic reminder scan. Concurrent sweeps are safe: each
// reminder is claimed with a compare-and-set flag update before dispatch, so
// only one sweep sends it. A failed dispatch releases the claim and the next
// sweep retries.
type Sweeper struct {
	store           ReservationStore
	configs         ConfigSource
	sender          notify.Sender
	logger          *logging.Logger
	metrics         *metrics.SchedulingMetrics
	dispatchTimeout time.Duration
	now             func() time.Time
}

// NewSweeper wires a sweeper.
func NewSweeper(store ReservationStore, configs ConfigSource, sender notify.Sender, logger *logging.Logger, m *metrics.SchedulingMetrics, dispatchTimeout time.Duration) *Sweeper {
	if logger == nil {
		logger = logging.Default()
	}
	if dispatchTimeout <= 0 {
		dispatchTimeout = 10 * time.Second
	}
	return &Sweeper{
		store:           store,
		configs:         configs,
		sender:          sender,
		logger:          logger,
		metrics:         m,
		dispatchTimeout: dispatchTimeout,
		now:             time.Now,
	}
}

// WithClock overrides the sweeper's notion of now. Tests only.
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

// Run performs one sweep. One failing reservation never blocks the rest of
// the batch; the only hard error is failing to list the batch itself.
func (s *Sweeper) Run(ctx context.Context) (Result, error) {
	now := s.now()
	var result Result

	due, err := s.store.ListDueForReminders(ctx, now)
	if err != nil {
		return result, err
	}

	configs := map[string]*availability.Config{}
	for i := range due {
		res := &due[i]

		cfg, ok := configs[res.PractitionerID]
		if !ok {
			cfg, err = s.configs.Get(ctx, res.PractitionerID)
			if err != nil {
				s.logger.Error("reminders: load config failed, skipping practitioner",
					"practitioner_id", res.PractitionerID, "error", err)
				result.Skipped++
				continue
			}
			configs[res.PractitionerID] = cfg
		}

		for _, kind := range DueKinds(now, res, cfg) {
			switch s.dispatch(ctx, res, cfg, kind) {
			case dispatchSent:
				if kind == reservations.Reminder24h {
					result.Sent24h++
				} else {
					result.Sent1h++
				}
			case dispatchFailed:
				result.Failed++
			case dispatchSkipped:
				result.Skipped++
			}
		}
	}
	return result, nil
}

type dispatchOutcome int

const (
	dispatchSent dispatchOutcome = iota
	dispatchFailed
	dispatchSkipped
)

// dispatch claims the reminder flag, sends, and releases the claim on
// failure so the next sweep retries.
func (s *Sweeper) dispatch(ctx context.Context, res *reservations.Reservation, cfg *availability.Config, kind reservations.ReminderKind) dispatchOutcome {
	phone := res.Phone()
	if phone == "" {
		return dispatchSkipped
	}

	claimed, err := s.store.SetReminderSent(ctx, res.ID, kind)
	if err != nil {
		s.logger.Error("reminders: claim failed", "reservation_id", res.ID, "kind", kind, "error", err)
		s.metrics.ObserveReminder(string(kind), "failed")
		return dispatchFailed
	}
	if !claimed {
		// Another sweep got here first.
		return dispatchSkipped
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.dispatchTimeout)
	defer cancel()
	if err := s.sender.Send(sendCtx, phone, Message(res, cfg)); err != nil {
		s.logger.Error("reminders: dispatch failed, releasing claim",
			"reservation_id", res.ID, "kind", kind, "error", err)
		s.metrics.ObserveReminder(string(kind), "failed")
		if clearErr := s.store.ClearReminderSent(ctx, res.ID, kind); clearErr != nil {
			s.logger.Error("reminders: release claim failed",
				"reservation_id", res.ID, "kind", kind, "error", clearErr)
		}
		return dispatchFailed
	}

	s.metrics.ObserveReminder(string(kind), "sent")
	s.logger.Info("reminders: sent", "reservation_id", res.ID, "kind", kind)
	return dispatchSent
}
