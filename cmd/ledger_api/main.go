package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/castilhosApc/financeiro-ledger/internal/api"
	"github.com/castilhosApc/financeiro-ledger/internal/config"
	"github.com/castilhosApc/financeiro-ledger/internal/data/postgres"
	"github.com/castilhosApc/financeiro-ledger/internal/ledger"
	"github.com/castilhosApc/financeiro-ledger/internal/logger"
	"github.com/castilhosApc/financeiro-ledger/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("ledger_api")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	// Initialize databases with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	// Redis is optional; a nil client disables the balance cache
	redisClient := persistence.NewRedisClient(appCtx, log, &cfg.Redis)

	// Initialize repositories. The ledger store wraps the posting repository
	// so every mutation lands in the same transaction as its outbox record.
	postingRepo := postgres.NewPostingRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	store := postgres.NewLedgerStore(log, postgresDB, postingRepo, outboxRepo)
	directory := postgres.NewContactRepository(log, postgresDB)

	// Initialize the ledger core
	cache := ledger.NewBalanceCache(log, redisClient, cfg.Ledger.BalanceCacheTTL)
	calculator := ledger.NewCalculator(log, store, cache)
	locks := ledger.NewOwnerLocks(cfg.Ledger.LockTimeout)
	ledgerService := ledger.NewService(log, store, directory, calculator, locks, cache)

	// Initialize REST server
	server := api.NewServer(log, cfg, ledgerService, calculator, directory)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server first so in-flight mutations finish against a
	// live pool
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	postgresDB.Close()

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("Error closing Redis client", "error", err)
		}
	}

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
