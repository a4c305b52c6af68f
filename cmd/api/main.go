// Package main is the entry point for the Wayfarer API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/acady/wayfarer/backend/internal/config"
	"github.com/acady/wayfarer/backend/internal/extract"
	"github.com/acady/wayfarer/backend/internal/gmail"
	"github.com/acady/wayfarer/backend/internal/handler"
	"github.com/acady/wayfarer/backend/internal/middleware"
	"github.com/acady/wayfarer/backend/internal/repo"
	"github.com/acady/wayfarer/backend/internal/scheduler"
	"github.com/acady/wayfarer/backend/internal/service"
)

const maxRequestBody = 1 << 20 // 1 MiB

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// --- Database ---------------------------------------------------------
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(context.Background()); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	// --- Repositories -----------------------------------------------------
	tripRepo := repo.NewTripRepo(pool)
	dayRepo := repo.NewDayRepo(pool)
	activityRepo := repo.NewActivityRepo(pool)
	gmailRepo := repo.NewGmailRepo(pool)
	checklistRepo := repo.NewChecklistRepo(pool)

	// --- Services ---------------------------------------------------------
	reconciler := service.NewReconcilerService(dayRepo)
	tripSvc := service.NewTripService(tripRepo, reconciler)
	itinerarySvc := service.NewItineraryService(tripRepo, dayRepo, reconciler)
	activitySvc := service.NewActivityService(tripRepo, dayRepo, activityRepo)
	checklistSvc := service.NewChecklistService(tripRepo, checklistRepo)
	exportSvc := service.NewExportService(tripRepo, dayRepo, activityRepo)
	holidaySvc := service.NewHolidayService()
	geocodeSvc := service.NewGeocodeService(cfg.MapboxAccessToken)

	connector := gmail.NewClient(cfg.GoogleClientID, cfg.GoogleClientSecret)
	extractor := extract.NewOpenAIExtractor(cfg.OpenAIAPIKey)
	importSvc := service.NewImportService(tripRepo, dayRepo, gmailRepo, connector, extractor, logger)

	// --- Router -----------------------------------------------------------
	// Middleware order: RequestID → RealIP → SlogLogger → Recoverer → CORS →
	// MaxBodySize. Auth applies only under /api.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(maxRequestBody))

	r.Get("/healthz", handler.Health)

	srvHandlers := handler.NewServer(tripSvc, itinerarySvc, activitySvc, importSvc,
		checklistSvc, exportSvc, holidaySvc, geocodeSvc)
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NewAuthHandler([]byte(cfg.JWTSecret)))
		r.Mount("/", srvHandlers.Routes())
	})

	// --- Background scheduler ---------------------------------------------
	if cfg.ScanCron != "" {
		sched := scheduler.New(gmailRepo, tripRepo, importSvc, logger)
		if err := sched.Start(cfg.ScanCron); err != nil {
			slog.Error("failed to start scan scheduler", "error", err)
			os.Exit(1)
		}
		defer sched.Stop()
	}

	// --- HTTP Server ------------------------------------------------------
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
