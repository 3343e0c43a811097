package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nvarela/terapia-platform/internal/http/handlers"
	httpmiddleware "github.com/nvarela/terapia-platform/internal/http/middleware"
	"github.com/nvarela/terapia-platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	BookingHandler     *handlers.PublicBookingHandler
	SettingsHandler    *handlers.SettingsHandler
	SessionsHandler    *handlers.SessionsHandler
	RemindersHandler   *handlers.RemindersHandler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints (patient-facing booking, health, metrics)
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.BookingHandler != nil {
			public.Mount("/booking", cfg.BookingHandler.Routes())
		}
	})

	// Practitioner API routes
	r.Route("/api", func(api chi.Router) {
		if cfg.SettingsHandler != nil {
			api.Mount("/settings", cfg.SettingsHandler.Routes())
		}
		if cfg.SessionsHandler != nil {
			api.Mount("/sessions", cfg.SessionsHandler.Routes())
			api.Post("/calendar/sync/{practitionerID}", cfg.SessionsHandler.Sync)
		}
	})

	// Internal routes (cron triggers)
	if cfg.RemindersHandler != nil {
		r.Post("/internal/reminders/run", cfg.RemindersHandler.Run)
	}

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
