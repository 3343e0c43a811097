package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nvarela/terapia-platform/internal/interval"
	"github.com/nvarela/terapia-platform/internal/reservations"
	"github.com/nvarela/terapia-platform/pkg/logging"
)

// SessionStore is the slice of the reservation repository the practitioner
// calendar needs.
type SessionStore interface {
	ListRange(ctx context.Context, practitionerID string, from, to time.Time) ([]reservations.Reservation, error)
	UpdateStatus(ctx context.Context, id string, status reservations.Status) error
}

// CalendarSyncer imports events from the external calendar.
type CalendarSyncer interface {
	SyncFromCalendar(ctx context.Context, practitionerID string, windowDays int) (int, error)
}

// SessionsHandler serves the practitioner's own calendar: listing sessions,
// creating them directly, status transitions and calendar sync.
type SessionsHandler struct {
	store          SessionStore
	booker         Booker
	syncer         CalendarSyncer
	syncWindowDays int
	logger         *logging.Logger
}

// NewSessionsHandler creates the sessions handler. syncer may be nil when no
// external calendar is configured.
func NewSessionsHandler(store SessionStore, booker Booker, syncer CalendarSyncer, syncWindowDays int, logger *logging.Logger) *SessionsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &SessionsHandler{
		store:          store,
		booker:         booker,
		syncer:         syncer,
		syncWindowDays: syncWindowDays,
		logger:         logger,
	}
}

// Routes returns the session routes.
func (h *SessionsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{practitionerID}", h.List)
	r.Post("/{practitionerID}", h.Create)
	r.Patch("/{practitionerID}/{id}/status", h.UpdateStatus)
	return r
}

// List handles GET /api/sessions/{practitionerID}?from=...&to=... with
// RFC 3339 bounds. Without bounds it returns the coming month.
func (h *SessionsHandler) List(w http.ResponseWriter, r *http.Request) {
	practitionerID := chi.URLParam(r, "practitionerID")

	from, to := time.Now().AddDate(0, 0, -1), time.Now().AddDate(0, 1, 0)
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid from, expected RFC 3339")
			return
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid to, expected RFC 3339")
			return
		}
		to = parsed
	}

	sessions, err := h.store.ListRange(r.Context(), practitionerID, from, to)
	if err != nil {
		h.logger.Error("sessions: list failed", "practitioner_id", practitionerID, "error", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if sessions == nil {
		sessions = []reservations.Reservation{}
	}
	respondJSON(w, http.StatusOK, sessions)
}

// CreateSessionRequest is a practitioner-created session.
type CreateSessionRequest struct {
	PatientID  *string   `json:"patient_id,omitempty"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	GuestName  string    `json:"guest_name,omitempty"`
	GuestPhone string    `json:"guest_phone,omitempty"`
	Notes      string    `json:"notes,omitempty"`
}

// Create handles POST /api/sessions/{practitionerID}. The same conflict rules
// apply as for public bookings.
func (h *SessionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	practitionerID := chi.URLParam(r, "practitionerID")

	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	created, err := h.booker.Book(r.Context(), reservations.BookRequest{
		PractitionerID: practitionerID,
		PatientID:      req.PatientID,
		GuestName:      req.GuestName,
		GuestPhone:     req.GuestPhone,
		Start:          req.StartTime,
		End:            req.EndTime,
		Notes:          req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, reservations.ErrSlotTaken):
			respondError(w, http.StatusConflict, "another session already occupies that time")
		case errors.Is(err, interval.ErrInvalidInterval):
			respondError(w, http.StatusBadRequest, "start_time must precede end_time")
		default:
			h.logger.Error("sessions: create failed", "practitioner_id", practitionerID, "error", err)
			respondError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// UpdateStatusRequest carries a status transition.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /api/sessions/{practitionerID}/{id}/status.
// Cancellation is a transition like any other; rows are never deleted.
func (h *SessionsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	status, err := reservations.ParseStatus(req.Status)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.UpdateStatus(r.Context(), id, status); err != nil {
		if errors.Is(err, reservations.ErrNotFound) {
			respondError(w, http.StatusNotFound, "session not found")
			return
		}
		h.logger.Error("sessions: status update failed", "session_id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": string(status)})
}

// Sync handles POST /api/calendar/sync/{practitionerID}, importing external
// calendar events into the reservation store.
func (h *SessionsHandler) Sync(w http.ResponseWriter, r *http.Request) {
	if h.syncer == nil {
		respondError(w, http.StatusServiceUnavailable, "calendar not configured")
		return
	}
	practitionerID := chi.URLParam(r, "practitionerID")

	synced, err := h.syncer.SyncFromCalendar(r.Context(), practitionerID, h.syncWindowDays)
	if err != nil {
		h.logger.Error("sessions: calendar sync failed", "practitioner_id", practitionerID, "error", err)
		respondError(w, http.StatusBadGateway, "calendar sync failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"synced": synced})
}
