package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/nekogravitycat/lodging-booking-backend/internal/app"
	"github.com/nekogravitycat/lodging-booking-backend/internal/booking"
	"github.com/nekogravitycat/lodging-booking-backend/internal/config"
	"github.com/nekogravitycat/lodging-booking-backend/internal/db"
	"github.com/nekogravitycat/lodging-booking-backend/internal/logger"
)

func main() {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	appLogger, err := logger.NewNamed(cfg.AppEnv, "lodging-booking")
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	// Connect DB
	pool, err := db.NewPool(ctx, cfg.DBDSN, appLogger)
	if err != nil {
		appLogger.Fatal("failed to connect to db", zap.Error(err))
	}
	defer pool.Close()

	if cfg.AutoMigrate {
		if err := db.Migrate(ctx, pool); err != nil {
			appLogger.Fatal("failed to migrate schema", zap.Error(err))
		}
		appLogger.Info("schema migrated")
	}

	settings := booking.Settings{
		CodeMaxAttempts:           cfg.CodeMaxAttempts,
		RestaurantSeatingDuration: cfg.RestaurantSeatingDuration,
		SpaSessionDuration:        cfg.SpaSessionDuration,
	}

	container := app.NewContainer(app.Config{
		IsProduction:    cfg.IsProduction,
		ProdOrigins:     cfg.ProdOrigins,
		DBPool:          pool,
		JWTSecret:       cfg.JWTSecret,
		JWTTTL:          cfg.JWTAccessTokenTTL,
		TxTimeout:       cfg.TxTimeout,
		BookingSettings: settings,
		KafkaBrokers:    cfg.KafkaBrokers,
		KafkaTopic:      cfg.KafkaTopic,
		Logger:          appLogger,
	})
	defer func() {
		if err := container.Notifier.Close(); err != nil {
			appLogger.Warn("failed to close notifier", zap.Error(err))
		}
	}()

	// Use http.Server for graceful shutdown
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           container.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Run server in separate goroutine
	go func() {
		appLogger.Info("server running", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for Ctrl+C
	<-ctx.Done()
	appLogger.Info("shutdown signal received")

	// Create a shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Warn("server forced to shutdown", zap.Error(err))
	}

	appLogger.Info("server exited gracefully")
}
