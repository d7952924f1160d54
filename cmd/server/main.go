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

	"account_service/internal/config"
	"account_service/internal/handler"
	"account_service/internal/middleware"
	"account_service/internal/repository"
	"account_service/internal/service"
	"account_service/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	log := config.NewLogger(os.Stdout, logrus.InfoLevel)

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, relying on environment variables")
	}

	if err := run(log); err != nil {
		log.Fatal(err)
	}
	log.Info("Server exiting")
}

// run wires the service and blocks until a shutdown signal. Returning instead
// of exiting lets the deferred cleanups close the pool.
func run(log *logrus.Logger) error {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	var (
		accountRepo repository.AccountRepository
		pinger      handler.Pinger
	)
	switch cfg.Store {
	case config.StoreMemory:
		log.Warn("Using in-memory account store, accounts are lost on restart")
		accountRepo = repository.NewMemoryAccountRepository()
	default:
		dbPool, err := config.ConnectDB(ctx, cfg.DB, log)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer dbPool.Close()

		if err := config.Migrate(ctx, dbPool, log); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		accountRepo = repository.NewAccountRepository(dbPool)
		pinger = dbPool
	}

	// --- Services ---
	jwtUtil := utils.NewJWTUtil(cfg.JWTSecret, cfg.TokenTTL)
	gate := middleware.NewAccessGate(jwtUtil, log)
	accountService := service.NewAccountService(accountRepo, jwtUtil, gate, log)

	if err := accountService.BootstrapAdmin(ctx, cfg.AdminPassword); err != nil {
		return fmt.Errorf("failed to bootstrap admin account: %w", err)
	}

	// --- Router ---
	gin.SetMode(gin.ReleaseMode)
	router := handler.NewRouter(handler.NewAccountHandler(accountService, log), handler.RouterConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		DB:             pinger,
		Log:            log,
	})

	// --- Start Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Infof("Server starting on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// --- Graceful Shutdown ---
	select {
	case err := <-serveErr:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
