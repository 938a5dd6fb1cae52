package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/waraqati/waraqa-backend/internal/config"
	"github.com/waraqati/waraqa-backend/internal/database"
	"github.com/waraqati/waraqa-backend/internal/genai"
	"github.com/waraqati/waraqa-backend/internal/handler"
	"github.com/waraqati/waraqa-backend/internal/logger"
	"github.com/waraqati/waraqa-backend/internal/repository"
	"github.com/waraqati/waraqa-backend/internal/router"
	"github.com/waraqati/waraqa-backend/internal/service"
	"github.com/waraqati/waraqa-backend/internal/session"
	"github.com/waraqati/waraqa-backend/internal/validator"
	"github.com/waraqati/waraqa-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Waraqa Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	teacherRepo := repository.NewTeacherRepository(pool)
	worksheetRepo := repository.NewWorksheetRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	aiClient := genai.NewClient(cfg)
	registry := session.NewRegistry(log)

	authService := service.NewAuthService(cfg)
	worksheetService := service.NewWorksheetService(cfg, worksheetRepo, aiClient, rdb, log)
	sessionService := service.NewSessionService(registry, worksheetRepo, aiClient, rdb, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:      handler.NewAuthHandler(authService, teacherRepo),
		Worksheet: handler.NewWorksheetHandler(worksheetService),
		Session:   handler.NewSessionHandler(sessionService),
		WS:        handler.NewWSHandler(sessionService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	imageWorker := worker.NewImageWorker(worksheetRepo, aiClient, rdb, log)
	snapshotWorker := worker.NewSnapshotWorker(rdb, cfg.SnapshotTTL, log)

	go imageWorker.Start(workerCtx)
	go snapshotWorker.Start(workerCtx)
	go registry.Janitor(workerCtx, cfg.SessionIdleTTL)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and live sessions, wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
