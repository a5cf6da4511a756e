package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"whisperd/internal/adapter/repo"
	"whisperd/internal/engine"
	"whisperd/internal/http/handlers"
	httpapi "whisperd/internal/http/httpapi"
	"whisperd/internal/infra"
	"whisperd/internal/storage"
	"whisperd/internal/transcribe"
)

func main() {
	// Load .env (optional)
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	runner := infra.NewSQLRunner(dbpool, logger)

	jobs := repo.NewJobStore(runner)
	if err := jobs.Init(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate jobs table")
	}
	users := repo.NewUserStore(runner)
	if err := users.Init(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate users table")
	}

	spool, err := storage.NewSpool(cfg.UploadDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare upload directory")
	}

	registry := transcribe.NewRegistry()
	whisper := transcribe.NewCommandTranscriber(cfg.WhisperBin)
	registry.Register(transcribe.ModelInfo{Name: "tiny", Label: "Tiny (fastest)", EstimateFactor: 2}, whisper)
	registry.Register(transcribe.ModelInfo{Name: "small", Label: "Small (balanced)", EstimateFactor: 6}, whisper)

	gate := engine.NewGate(jobs, cfg.MaxConcurrentJobs)
	pool := engine.NewPool(cfg.WorkerPoolSize, cfg.WorkerQueueDepth, logger)
	pool.Start(ctx)

	reporter := engine.NewReporter(jobs, logger)
	processor := engine.NewProcessor(jobs, reporter, registry, logger)

	app := &handlers.App{
		Logger:         logger,
		Jobs:           jobs,
		Spool:          spool,
		Registry:       registry,
		Gate:           gate,
		Pool:           pool,
		Processor:      processor,
		MaxUploadBytes: cfg.MaxUploadSizeBytes(),
	}

	router := httpapi.NewRouter(app, users)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	// Let queued and in-flight jobs land their terminal writes before the
	// process exits.
	pool.Stop()
	logger.Info().Msg("server stopped")
}
