package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fluentphrases/internal/api/v1/router"
	"fluentphrases/internal/config"
	"fluentphrases/internal/logger"

	"github.com/joho/godotenv"
)

// @title FluentPhrases API
// @version 1.0
// @description Accounts, phrase quotas and premium upgrades for FluentPhrases
// @host localhost:5001
// @BasePath /api
// @Schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	// 1. Load configuration
	if err := godotenv.Load(); err != nil {
		l := logger.New()
		l.Warn().Msg("Warning: no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		l := logger.New()
		l.Fatal().Msgf("Error loading config: %v", err)
	}
	log := logger.NewWithWriter(os.Stderr, cfg.Environment)

	// 2. Build router and its infrastructure
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handler, closeAll, err := router.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Msgf("Failed to build router: %v", err)
	}
	defer closeAll()

	// 3. Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 4. Start server in a goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Info().Msgf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// 5. Graceful shutdown
	select {
	case err := <-serverErr:
		log.Error().Err(err).Msg("Server stopped unexpectedly")
	case <-ctx.Done():
		log.Info().Msg("Shutdown signal received, exiting...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		return
	}
	log.Info().Msg("Server shut down gracefully")
}
