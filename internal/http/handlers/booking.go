package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nvarela/terapia-platform/internal/availability"
	"github.com/nvarela/terapia-platform/internal/interval"
	"github.com/nvarela/terapia-platform/internal/reservations"
	"github.com/nvarela/terapia-platform/pkg/logging"
)

// SlotSource computes a day's availability for a public booking slug.
type SlotSource interface {
	DaySlotsBySlug(ctx context.Context, slug string, date time.Time) (*availability.DayAvailability, error)
}

// Booker commits a reservation or reports a conflict.
type Booker interface {
	Book(ctx context.Context, req reservations.BookRequest) (*reservations.Reservation, error)
}

// SlugResolver resolves a public slug to the practitioner's settings.
type SlugResolver interface {
	GetBySlug(ctx context.Context, slug string) (*availability.Config, error)
}

// PublicBookingHandler serves the guest booking page API.
type PublicBookingHandler struct {
	slots   SlotSource
	booker  Booker
	configs SlugResolver
	logger  *logging.Logger
}

// NewPublicBookingHandler creates the public booking handler.
func NewPublicBookingHandler(slots SlotSource, booker Booker, configs SlugResolver, logger *logging.Logger) *PublicBookingHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &PublicBookingHandler{
		slots:   slots,
		booker:  booker,
		configs: configs,
		logger:  logger,
	}
}

// Routes returns the public booking routes.
func (h *PublicBookingHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{slug}/availability", h.Availability)
	r.Post("/{slug}", h.Book)
	return r
}

// Availability handles GET /booking/{slug}/availability?date=YYYY-MM-DD.
func (h *PublicBookingHandler) Availability(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		respondError(w, http.StatusBadRequest, "date is required")
		return
	}

	cfg, err := h.configs.GetBySlug(r.Context(), slug)
	if err != nil {
		h.respondConfigError(w, slug, err)
		return
	}

	date, err := parseLocalDate(dateStr, cfg.Timezone)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	day, err := h.slots.DaySlotsBySlug(r.Context(), slug, date)
	if err != nil {
		h.logger.Error("booking: availability query failed", "slug", slug, "date", dateStr, "error", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondJSON(w, http.StatusOK, day)
}

// BookRequest is the public booking submission.
type BookRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
	Date  string `json:"date"` // YYYY-MM-DD
	Time  string `json:"time"` // HH:MM in the practitioner's zone
	Notes string `json:"notes,omitempty"`
}

// BookResponse is the created reservation summary.
type BookResponse struct {
	ID        string    `json:"id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Message   string    `json:"message"`
}

// Book handles POST /booking/{slug}. The requested slot is re-validated
// inside the booking transaction; a lost race answers 409.
func (h *PublicBookingHandler) Book(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	var req BookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Phone) == "" {
		respondError(w, http.StatusBadRequest, "name and phone are required")
		return
	}

	cfg, err := h.configs.GetBySlug(r.Context(), slug)
	if err != nil {
		h.respondConfigError(w, slug, err)
		return
	}

	start, err := parseLocalDateTime(req.Date, req.Time, cfg.Timezone)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid date or time")
		return
	}

	created, err := h.booker.Book(r.Context(), reservations.BookRequest{
		PractitionerID: cfg.PractitionerID,
		GuestName:      req.Name,
		GuestPhone:     req.Phone,
		Start:          start,
		End:            start.Add(cfg.SessionDuration()),
		Notes:          req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, reservations.ErrSlotTaken):
			respondError(w, http.StatusConflict, "Este horario ya no está disponible")
		case errors.Is(err, interval.ErrInvalidInterval):
			respondError(w, http.StatusBadRequest, "invalid time slot")
		default:
			h.logger.Error("booking: create failed", "slug", slug, "error", err)
			respondError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	respondJSON(w, http.StatusCreated, BookResponse{
		ID:        created.ID,
		StartTime: created.Start,
		EndTime:   created.End,
		Message:   "¡Sesión reservada con éxito!",
	})
}

func (h *PublicBookingHandler) respondConfigError(w http.ResponseWriter, slug string, err error) {
	if errors.Is(err, availability.ErrUnknownSlug) {
		respondError(w, http.StatusNotFound, "practitioner not found")
		return
	}
	h.logger.Error("booking: resolve slug failed", "slug", slug, "error", err)
	respondError(w, http.StatusInternalServerError, "internal server error")
}

// parseLocalDate interprets YYYY-MM-DD as midnight in the practitioner's
// zone, so the weekday rule resolves in that zone regardless of where the
// caller is.
func parseLocalDate(date, timezone string) (time.Time, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.Time{}, err
	}
	return time.ParseInLocation("2006-01-02", date, loc)
}

func parseLocalDateTime(date, clock, timezone string) (time.Time, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.Time{}, err
	}
	return time.ParseInLocation("2006-01-02 15:04", date+" "+clock, loc)
}
