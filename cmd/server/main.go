package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lingxijiao/backend/internal/config"
	"github.com/lingxijiao/backend/internal/database"
	"github.com/lingxijiao/backend/internal/handlers"
	"github.com/lingxijiao/backend/internal/kernel"
	"github.com/lingxijiao/backend/internal/logger"
	"github.com/lingxijiao/backend/internal/metrics"
	"github.com/lingxijiao/backend/internal/middleware"
	"github.com/lingxijiao/backend/internal/telemetry"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(logger.Options{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		Production: cfg.IsProduction(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	metrics.Initialize()

	ctx := context.Background()
	k, err := kernel.Bootstrap(ctx, cfg, log, kernel.Options{Migrate: true, Tracing: true})
	if err != nil {
		_ = k.Shutdown(ctx)
		return err
	}

	if err := k.ServiceValidator().ValidateServices(ctx); err != nil {
		_ = k.Shutdown(ctx)
		return err
	}

	stopSweeper := make(chan struct{})
	routerCfg := handlers.RouterConfig{
		UIDistPath: cfg.UIDistPath,
		Logger:     log,
	}
	limit := middleware.RateLimitConfig{Limit: cfg.IPRateLimit, Window: cfg.IPRateWindow}
	if rc := k.Cache(); rc != nil {
		routerCfg.RateLimit = middleware.RedisRateLimitMiddleware(rc, limit, log)
	} else {
		limiter := middleware.NewRateLimiter(limit)
		go limiter.RunSweeper(5*time.Minute, stopSweeper)
		routerCfg.RateLimit = limiter.Middleware()
	}
	if cfg.Telemetry.Enabled() {
		routerCfg.Tracing = middleware.TracingMiddleware(telemetry.ServiceName)
	}

	db := k.DB()
	h := handlers.NewHandlers(k.PostService(), k.FeedbackService(), func(ctx context.Context) error {
		return database.Health(ctx, db)
	}, log)
	r := handlers.NewRouter(h, routerCfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("🚀 Server listening", zap.String("port", cfg.Port), zap.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-quit:
		log.Info("Shutting down server...", zap.String("signal", sig.String()))
	case err := <-serverErr:
		runErr = fmt.Errorf("failed to start server: %w", err)
	}
	close(stopSweeper)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := k.Shutdown(ctx); err != nil {
		log.Warn("Cleanup finished with errors", zap.Error(err))
	}

	log.Info("Server exited")
	return runErr
}
