package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nvarela/terapia-platform/internal/api/router"
	"github.com/nvarela/terapia-platform/internal/app/bootstrap"
	"github.com/nvarela/terapia-platform/internal/availability"
	appconfig "github.com/nvarela/terapia-platform/internal/config"
	"github.com/nvarela/terapia-platform/internal/http/handlers"
	"github.com/nvarela/terapia-platform/internal/observability/metrics"
	"github.com/nvarela/terapia-platform/internal/reminders"
	"github.com/nvarela/terapia-platform/internal/reservations"
	"github.com/nvarela/terapia-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting terapia-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	pool, err := bootstrap.BuildPool(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient == nil {
		logger.Error("redis is required for availability settings")
		os.Exit(1)
	}
	defer func() { _ = redisClient.Close() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	m := metrics.NewSchedulingMetrics(reg)

	calClient := bootstrap.BuildCalendarClient(cfg, redisClient, logger)

	// Stores and services
	configStore := availability.NewStore(redisClient)
	repo := reservations.NewRepository(pool)

	var calBusy availability.CalendarBusySource
	var resCalendar reservations.Calendar
	if calClient != nil {
		calBusy = calClient
		resCalendar = calClient
	}

	slotService := availability.NewService(configStore, calBusy, repo, logger, m)
	bookingService := reservations.NewService(repo, resCalendar, logger, m, reservations.Options{
		MirrorTimeout: cfg.MirrorTimeout,
	})

	sender := bootstrap.BuildSender(cfg, logger)
	sweeper := reminders.NewSweeper(repo, configStore, sender, logger, m, cfg.DispatchTimeout)

	// Handlers
	bookingHandler := handlers.NewPublicBookingHandler(slotService, bookingService, configStore, logger)
	settingsHandler := handlers.NewSettingsHandler(configStore, logger)
	sessionsHandler := handlers.NewSessionsHandler(repo, bookingService, bookingService, cfg.SyncWindowDays, logger)
	remindersHandler := handlers.NewRemindersHandler(sweeper, cfg.CronSecret, logger)

	routerCfg := &router.Config{
		Logger:             logger,
		BookingHandler:     bookingHandler,
		SettingsHandler:    settingsHandler,
		SessionsHandler:    sessionsHandler,
		RemindersHandler:   remindersHandler,
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: splitOrigins(cfg.CORSAllowedOrigins),
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
