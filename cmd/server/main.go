package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/picklevibe/bookings-crawler/internal/api"
	"github.com/picklevibe/bookings-crawler/internal/browser"
	"github.com/picklevibe/bookings-crawler/internal/config"
	"github.com/picklevibe/bookings-crawler/internal/exporter"
	"github.com/picklevibe/bookings-crawler/internal/monitoring"
	"github.com/picklevibe/bookings-crawler/internal/runstate"
	"github.com/picklevibe/bookings-crawler/internal/scheduler"
	"github.com/picklevibe/bookings-crawler/internal/scraper"
	"github.com/picklevibe/bookings-crawler/internal/storage"
)

func main() {
	// Initialize structured logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("could not load config", zap.Error(err))
	}

	orgs, err := config.LoadOrganizations(cfg.OrganizationsFile)
	if err != nil {
		logger.Fatal("could not load organizations", zap.Error(err))
	}
	logger.Info("loaded crawl targets", zap.Int("organizations", len(orgs)))

	// Initialize Monitoring
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetrics(registry)

	// Initialize Storage Layer
	var cache *storage.RedisCache
	if cfg.RedisAddr != "" {
		cache = storage.NewRedisCache(cfg.RedisAddr, time.Duration(cfg.CacheTTLMinutes)*time.Minute)
		defer cache.Close()
	} else {
		logger.Info("redis not configured, snapshot cache disabled")
	}

	var archive *storage.RunArchive
	if cfg.PostgresURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		archive, err = storage.NewRunArchive(ctx, cfg.PostgresURL)
		cancel()
		if err != nil {
			logger.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer archive.Close()
	} else {
		logger.Info("postgres not configured, run archive disabled")
	}

	local := storage.NewLocalStore(cfg.DataFile)
	store := storage.NewSnapshotStore(local, cache, logger)

	// Initialize Delivery
	var remote *exporter.RemoteSink
	if cfg.RemoteEndpoint != "" {
		remote = exporter.NewRemoteSink(cfg.RemoteEndpoint, time.Duration(cfg.RemoteTimeoutSeconds)*time.Second)
	} else {
		logger.Warn("remote endpoint not configured, datasets persist locally only")
	}
	pipeline := exporter.NewPipeline(remote, store, logger)

	// Initialize Schedule and Run State
	schedule, err := scheduler.ParseDaily(cfg.ScheduleTime, cfg.ScheduleTimezone)
	if err != nil {
		logger.Fatal("invalid schedule", zap.Error(err))
	}
	state := runstate.New(schedule.Next)

	// Initialize Core Scraper
	provider := browser.NewProvider(browser.Config{
		LoginURL:  cfg.LoginURL,
		Email:     cfg.LoginEmail,
		Password:  cfg.LoginPassword,
		Headless:  cfg.Headless,
		OpTimeout: time.Duration(cfg.StabilizeTimeoutSeconds) * time.Second,
	}, logger)

	paginator := scraper.NewPaginator(
		time.Duration(cfg.SettleSeconds)*time.Second,
		time.Duration(cfg.StabilizeTimeoutSeconds)*time.Second,
		cfg.MaxPages,
		logger,
	)

	var archiver scraper.RunArchiver
	if archive != nil {
		archiver = archive
	}
	orchestrator := scraper.NewOrchestrator(
		provider,
		paginator,
		orgs,
		pipeline,
		state,
		archiver,
		metrics,
		logger,
		time.Duration(cfg.RunTimeoutMinutes)*time.Minute,
	)

	// Initialize Scheduler
	sched, err := scheduler.New(schedule, orchestrator.Trigger, logger)
	if err != nil {
		logger.Fatal("could not start scheduler", zap.Error(err))
	}
	sched.Start()
	defer sched.Stop()

	// Initialize API Server
	var history api.RunHistory
	if archive != nil {
		history = archive
	}
	server := api.NewServer(cfg.ServerPort, state, orchestrator.Trigger, store, history, registry, logger)

	// Graceful Shutdown
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("could not start server", zap.Error(err))
		}
	}()

	logger.Info("server started", zap.String("port", cfg.ServerPort))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exiting")
}
