package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/sanu276140-eng/examsk24/internal/authz"
	"github.com/sanu276140-eng/examsk24/internal/config"
	"github.com/sanu276140-eng/examsk24/internal/database"
	"github.com/sanu276140-eng/examsk24/internal/events"
	"github.com/sanu276140-eng/examsk24/internal/handler"
	"github.com/sanu276140-eng/examsk24/internal/identity"
	"github.com/sanu276140-eng/examsk24/internal/logger"
	"github.com/sanu276140-eng/examsk24/internal/resource"
	"github.com/sanu276140-eng/examsk24/internal/router"
	"github.com/sanu276140-eng/examsk24/internal/store"
	"github.com/sanu276140-eng/examsk24/internal/validator"
	"github.com/sanu276140-eng/examsk24/internal/worker"
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
		Msg("Starting Examsk24 Admin Backend")

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

	// ─── Initialize Document Store ─────────────────────────────────────
	st := store.NewPostgres(pool, rdb, log)

	// ─── Initialize Services ──────────────────────────────────────────
	identityService := identity.NewService(st, cfg)
	checker := authz.NewChecker(st, log)
	recorder := events.NewRedisRecorder(rdb, log)

	questionManager := resource.NewQuestionManager(st, recorder, log)
	examManager := resource.NewExamManager(st, recorder, log)
	userManager := resource.NewUserManager(st, recorder, log)
	dashboardManager := resource.NewDashboardManager(st, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:      handler.NewAuthHandler(identityService, checker, recorder),
		Question:  handler.NewQuestionHandler(questionManager),
		Exam:      handler.NewExamHandler(examManager),
		User:      handler.NewUserHandler(userManager),
		Dashboard: handler.NewDashboardHandler(dashboardManager),
		Panel: handler.NewPanelHandler(
			identityService,
			checker,
			questionManager,
			examManager,
			userManager,
			dashboardManager,
			log,
			cfg.AllowedOrigins,
		),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	activityWorker := worker.NewActivityWorker(st, rdb, log)
	go activityWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(identityService, checker, handlers, cfg)

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

	// 2. Stop the activity worker and let the queue drain.
	workerCancel()
	time.Sleep(2 * time.Second)

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
