package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/diegoclair/course-reminder-bot/internal/config"
	"github.com/diegoclair/course-reminder-bot/internal/database"
	"github.com/diegoclair/course-reminder-bot/internal/domain/service"
	"github.com/diegoclair/course-reminder-bot/internal/handlers"
	"github.com/diegoclair/course-reminder-bot/internal/logger"
	"github.com/diegoclair/course-reminder-bot/internal/messenger"
	"github.com/diegoclair/course-reminder-bot/internal/metrics"
	"github.com/diegoclair/course-reminder-bot/internal/portal"
	"github.com/diegoclair/course-reminder-bot/internal/render"
	"github.com/diegoclair/course-reminder-bot/migrator/sqlite"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to a config file (default ./config.yaml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("bot stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	semesterStart, err := cfg.SemesterStart()
	if err != nil {
		return err
	}

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	zl.Info("running migrations")
	if err := sqlite.Migrate(db.DB()); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	slackClient := slack.New(cfg.Slack.BotToken)
	slackMessenger := messenger.NewSlack(slackClient, zl.Named("messenger"))

	portalClient, err := portal.New(cfg.Portal, zl.Named("portal"))
	if err != nil {
		return err
	}

	renderer, err := render.New(cfg.Render, zl.Named("render"))
	if err != nil {
		return err
	}

	services := service.NewInstance(
		database.NewInstance(db),
		portalClient,
		renderer,
		slackMessenger,
		service.Options{
			Timetable: service.TimetableOptions{
				SemesterStart: semesterStart,
				Location:      loc,
				FetchTimeout:  cfg.Portal.Timeout,
				RenderTimeout: cfg.Render.Timeout,
			},
			Registry: service.RegistryOptions{
				Location:        loc,
				DailySpec:       cfg.Scheduler.DailySpec,
				DeliveryTimeout: cfg.Delivery.Timeout,
			},
		},
		m,
		zl,
	)

	if err := services.Scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer services.Scheduler.Stop()

	handler := handlers.New(
		services.Subscriber,
		services.Feedback,
		services.Timetable,
		services.Scheduler,
		services.Broadcast,
		slackMessenger,
		cfg.Slack.SigningSecret,
		loc,
		zl.Named("handler"),
	)
	defer handler.Wait()

	mux := http.NewServeMux()
	mux.HandleFunc("/slack/commands", handler.HandleSlashCommand)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK")
	})
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		zl.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
		zl.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("server shutdown failed", zap.Error(err))
	}

	zl.Info("bot stopped")
	return nil
}
