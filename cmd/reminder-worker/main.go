package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/nvarela/terapia-platform/internal/app/bootstrap"
	"github.com/nvarela/terapia-platform/internal/availability"
	appconfig "github.com/nvarela/terapia-platform/internal/config"
	"github.com/nvarela/terapia-platform/internal/observability/metrics"
	"github.com/nvarela/terapia-platform/internal/reminders"
	"github.com/nvarela/terapia-platform/internal/reservations"
	"github.com/nvarela/terapia-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := bootstrap.BuildPool(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient == nil {
		logger.Error("reminder worker requires redis for availability settings")
		os.Exit(1)
	}
	defer func() { _ = redisClient.Close() }()

	repo := reservations.NewRepository(pool)
	configStore := availability.NewStore(redisClient)
	sender := bootstrap.BuildSender(cfg, logger)
	m := metrics.NewSchedulingMetrics(nil)

	sweeper := reminders.NewSweeper(repo, configStore, sender, logger, m, cfg.DispatchTimeout)

	c := cron.New()
	_, err = c.AddFunc(cfg.SweepSchedule, func() {
		result, err := sweeper.Run(ctx)
		if err != nil {
			logger.Error("reminder sweep failed", "error", err)
			return
		}
		logger.Info("reminder sweep complete",
			"sent_24h", result.Sent24h,
			"sent_1h", result.Sent1h,
			"failed", result.Failed,
			"skipped", result.Skipped,
		)
	})
	if err != nil {
		logger.Error("invalid sweep schedule", "schedule", cfg.SweepSchedule, "error", err)
		os.Exit(1)
	}

	c.Start()
	logger.Info("reminder worker started", "schedule", cfg.SweepSchedule)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("reminder worker shutting down")
	cancel()
	<-c.Stop().Done()
}
