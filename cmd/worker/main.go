// worker closes overdue sessions on an interval. Run alongside the server;
// safe to run more than one instance since the close is idempotent.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"cafe-control-plane/internal/audit"
	auditrepo "cafe-control-plane/internal/audit/repository"
	"cafe-control-plane/internal/config"
	"cafe-control-plane/internal/db"
	"cafe-control-plane/internal/pin"
	sessionrepo "cafe-control-plane/internal/session/repository"
	sessionservice "cafe-control-plane/internal/session/service"
	terminalrepo "cafe-control-plane/internal/terminal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	logger, err := zap.NewProduction()
	if cfg.Env == "development" {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db", zap.Error(err))
	}
	defer conn.Close()

	auditLog := audit.NewLogger(auditrepo.NewPostgresRepository(conn), logger)
	sessions := sessionrepo.NewPostgresRepository(conn)
	terminals := terminalrepo.NewPostgresRepository(conn)
	leases := sessionservice.NewLeaseService(sessions, terminals, pin.NewGenerator(), cfg.PinLength, auditLog, nil, logger)

	interval := cfg.SweepIntervalDuration()
	logger.Info("expiry worker started", zap.Duration("interval", interval))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("expiry worker stopped")
			return
		case <-ticker.C:
			sweepCtx, cancel := context.WithTimeout(ctx, interval)
			if _, err := leases.ExpireOverdue(sweepCtx, time.Now().UTC()); err != nil {
				logger.Error("sweep", zap.Error(err))
			}
			cancel()
		}
	}
}
