package handlers

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/nvarela/terapia-platform/internal/reminders"
	"github.com/nvarela/terapia-platform/pkg/logging"
)

// SweepRunner runs one reminder sweep.
type SweepRunner interface {
	Run(ctx context.Context) (reminders.Result, error)
}

// RemindersHandler exposes the manual sweep trigger used by external cron
// services. The worker binary covers the normal path.
type RemindersHandler struct {
	sweeper SweepRunner
	secret  string
	logger  *logging.Logger
}

func NewRemindersHandler(sweeper SweepRunner, secret string, logger *logging.Logger) *RemindersHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &RemindersHandler{sweeper: sweeper, secret: secret, logger: logger}
}

// Run handles POST /internal/reminders/run, guarded by a bearer secret.
func (h *RemindersHandler) Run(w http.ResponseWriter, r *http.Request) {
	if h.secret == "" {
		respondError(w, http.StatusServiceUnavailable, "reminder trigger not configured")
		return
	}
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if subtle.ConstantTimeCompare([]byte(token), []byte(h.secret)) != 1 {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	result, err := h.sweeper.Run(r.Context())
	if err != nil {
		h.logger.Error("reminders: manual sweep failed", "error", err)
		respondError(w, http.StatusInternalServerError, "sweep failed")
		return
	}
	respondJSON(w, http.StatusOK, result)
}
