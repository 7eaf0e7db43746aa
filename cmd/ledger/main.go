package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/corventa/finance-ledger/internal/api"
	"github.com/corventa/finance-ledger/internal/auditor"
	"github.com/corventa/finance-ledger/internal/config"
	"github.com/corventa/finance-ledger/internal/data/postgres"
	"github.com/corventa/finance-ledger/internal/ledger"
	"github.com/corventa/finance-ledger/internal/logger"
	"github.com/corventa/finance-ledger/internal/platform/messaging/producers"
	"github.com/corventa/finance-ledger/internal/platform/metrics"
	"github.com/corventa/finance-ledger/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("ledger")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	// Initialize database with app context (runs schema migrations first)
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	// Initialize Kafka producer for audit events
	auditProducer, err := producers.NewAuditEventProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize audit Kafka producer", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	accountRepo := postgres.NewAccountRepository(log, postgresDB)
	transactionRepo := postgres.NewTransactionRepository(log, postgresDB)
	auditRepo := postgres.NewAuditRepository(log, postgresDB)
	codeGenerator := postgres.NewCodeGenerator(log, postgresDB, cfg.Ledger.CodePrefix)

	// Initialize metrics
	collector := metrics.NewCollector()

	// Initialize ledger services
	engine := ledger.NewEngine(postgresDB, accountRepo, transactionRepo, auditRepo, codeGenerator, collector, cfg.Ledger, log)
	lifecycle := ledger.NewLifecycle(postgresDB, accountRepo, transactionRepo, auditRepo, collector, log)
	accountService := ledger.NewAccounts(postgresDB, accountRepo, transactionRepo, auditRepo, log)

	// Initialize the audit dispatcher moving outbox rows to Kafka
	dispatcher, err := auditor.NewDispatcher(&cfg.Audit, &cfg.WorkerPool, auditRepo, auditProducer, collector, log)
	if err != nil {
		log.Error("Failed to initialize audit dispatcher", "error", err)
		os.Exit(1)
	}
	go dispatcher.Start(appCtx)

	// Initialize REST server
	server := api.NewServer(log, cfg, engine, lifecycle, accountService, collector)
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

	// Cancel the application context, stopping the dispatcher poll loop
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	// Drain the audit worker pool
	dispatcher.Shutdown()

	if err = auditProducer.Close(); err != nil {
		log.Error("Error closing Kafka producer", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

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
