package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"golang.org/x/sync/errgroup"

	database "github.com/ecostep/walk-and-win/app/db"
	"github.com/ecostep/walk-and-win/app/mail"
	"github.com/ecostep/walk-and-win/app/observability/metrics"
	"github.com/ecostep/walk-and-win/app/tracer"
	"github.com/ecostep/walk-and-win/config"
	"github.com/ecostep/walk-and-win/internal/api/auth"
	"github.com/ecostep/walk-and-win/internal/api/user"
	"github.com/ecostep/walk-and-win/internal/router"
)

const serviceName = "ecostep-api"

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, relying on environment")
	}

	cfg, err := config.InitConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := setupLogger(cfg.Mode)
	slog.SetDefault(logger)
	logger.Info("Starting server", slog.String("service", serviceName), slog.String("mode", cfg.Mode))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbConfig, err := database.NewDatabaseConfig(&cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to build database config: %w", err)
	}
	if err = database.RunMigrations(dbConfig.ConnectionURL, logger); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	pgpool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database pool: %w", err)
	}
	defer pgpool.Close()

	if !database.WaitForDB(ctx, pgpool, logger) {
		return fmt.Errorf("database is not reachable")
	}

	metricsHandler, err := tracer.Init(serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	metrics.InitAppMetrics()

	// Dependency wiring, innermost first.
	authRepo := auth.NewPostgresAuthRepo(pgpool, logger)
	hasher := auth.NewHasher(auth.DefaultBcryptCost)
	issuer := auth.NewTokenIssuer(cfg.JWT)
	notifier := mail.New(cfg.SMTP, logger)
	authService := auth.NewAuthService(authRepo, hasher, issuer, notifier, cfg.Reset, metrics.Get(), logger)
	authHandler := auth.NewHandlerImpl(authService, logger)

	userRepo := user.NewPostgresUserRepo(pgpool, logger)
	userService := user.NewUserService(userRepo, logger)
	userHandler := user.NewHandlerImpl(userService, logger)

	mux := router.New(router.Config{
		AuthHandler:  authHandler,
		UserHandler:  userHandler,
		Authenticate: auth.Authenticate(issuer, logger),
		RequireAdmin: auth.RequireAdmin(logger),
		Logger:       logger,
		Timeout:      cfg.Server.Timeout,
	})

	apiServer := &http.Server{
		Addr:              ":" + cfg.Server.HTTPPort,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	metricsServer := &http.Server{
		Addr:              ":" + cfg.Server.MetricsPort,
		Handler:           metricsHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("API server listening", slog.String("addr", apiServer.Addr))
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("Metrics server listening", slog.String("addr", metricsServer.Addr))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutdown signal received, draining connections")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("API server shutdown error", slog.Any("error", err))
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Metrics server shutdown error", slog.Any("error", err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped cleanly")
	return nil
}

func setupLogger(mode string) *slog.Logger {
	if mode == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: time.Kitchen,
		AddSource:  true,
	}))
}
