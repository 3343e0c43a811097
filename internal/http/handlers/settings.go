package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nvarela/terapia-platform/internal/availability"
	"github.com/nvarela/terapia-platform/pkg/logging"
)

// SettingsStore reads and upserts availability configs.
type SettingsStore interface {
	Get(ctx context.Context, practitionerID string) (*availability.Config, error)
	Set(ctx context.Context, cfg *availability.Config) error
}

// SettingsHandler serves practitioner availability settings.
type SettingsHandler struct {
	store  SettingsStore
	logger *logging.Logger
}

// NewSettingsHandler creates the settings handler.
func NewSettingsHandler(store SettingsStore, logger *logging.Logger) *SettingsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &SettingsHandler{store: store, logger: logger}
}

// Routes returns the settings routes.
func (h *SettingsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{practitionerID}", h.Get)
	r.Put("/{practitionerID}", h.Update)
	return r
}

// Get returns the practitioner's settings, creating defaults on first access.
// GET /api/settings/{practitionerID}
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	practitionerID := chi.URLParam(r, "practitionerID")
	if practitionerID == "" {
		respondError(w, http.StatusBadRequest, "practitioner id required")
		return
	}

	cfg, err := h.store.Get(r.Context(), practitionerID)
	if err != nil {
		h.logger.Error("settings: get failed", "practitioner_id", practitionerID, "error", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}

// Update validates and upserts the practitioner's settings.
// PUT /api/settings/{practitionerID}
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	practitionerID := chi.URLParam(r, "practitionerID")
	if practitionerID == "" {
		respondError(w, http.StatusBadRequest, "practitioner id required")
		return
	}

	var cfg availability.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	cfg.PractitionerID = practitionerID

	if err := cfg.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Set(r.Context(), &cfg); err != nil {
		if errors.Is(err, availability.ErrSlugTaken) {
			respondError(w, http.StatusConflict, "booking slug already in use")
			return
		}
		h.logger.Error("settings: update failed", "practitioner_id", practitionerID, "error", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondJSON(w, http.StatusOK, &cfg)
}
