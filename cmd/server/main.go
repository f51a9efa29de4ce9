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

	adminrepo "cafe-control-plane/internal/admin/repository"
	adminservice "cafe-control-plane/internal/admin/service"
	"cafe-control-plane/internal/audit"
	auditrepo "cafe-control-plane/internal/audit/repository"
	"cafe-control-plane/internal/config"
	"cafe-control-plane/internal/db"
	"cafe-control-plane/internal/db/migrate"
	"cafe-control-plane/internal/pin"
	"cafe-control-plane/internal/security"
	"cafe-control-plane/internal/server"
	sessionrepo "cafe-control-plane/internal/session/repository"
	sessionservice "cafe-control-plane/internal/session/service"
	"cafe-control-plane/internal/snapshot"
	"cafe-control-plane/internal/telemetry"
	otelsetup "cafe-control-plane/internal/telemetry/otel"
	terminalrepo "cafe-control-plane/internal/terminal/repository"
	terminalservice "cafe-control-plane/internal/terminal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	logger, err := zap.NewProduction()
	if cfg.Env == "development" {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	providers, err := otelsetup.NewProviders(ctx, cfg.OTLPEndpoint, "cafe-control-plane", cfg.OTLPInsecure)
	if err != nil {
		logger.Fatal("telemetry", zap.Error(err))
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = providers.Shutdown(shutdownCtx)
	}()

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db", zap.Error(err))
	}
	defer conn.Close()

	if err := migrate.Run(cfg.DatabaseURL, "up"); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Fatal("migrate", zap.Error(err))
	}

	hasher := security.NewHasher(cfg.KDFIterations)
	tokens := security.NewTokenProvider(cfg.JWTSecret, "cafe-control-plane", cfg.TokenTTL())

	auditLog := audit.NewLogger(auditrepo.NewPostgresRepository(conn), logger)
	terminals := terminalrepo.NewPostgresRepository(conn)
	sessions := sessionrepo.NewPostgresRepository(conn)
	admins := adminrepo.NewPostgresRepository(conn)

	adminSvc := adminservice.NewService(admins, hasher, tokens, auditLog, logger)
	if _, err := adminSvc.EnsureDefaultAdmin(ctx); err != nil {
		logger.Fatal("bootstrap admin", zap.Error(err))
	}

	leaseMetrics, err := telemetry.NewLeaseMetrics()
	if err != nil {
		logger.Fatal("metrics", zap.Error(err))
	}
	if err := telemetry.RegisterActiveSessionsGauge(func(ctx context.Context) (int64, error) {
		active, err := sessions.ListActive(ctx)
		if err != nil {
			return 0, err
		}
		return int64(len(active)), nil
	}); err != nil {
		logger.Fatal("metrics", zap.Error(err))
	}

	registry := terminalservice.NewRegistry(terminals, logger)
	leases := sessionservice.NewLeaseService(sessions, terminals, pin.NewGenerator(), cfg.PinLength, auditLog, leaseMetrics, logger)
	views := snapshot.NewService(terminals, sessions, cfg.HeartbeatTimeoutDuration())

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: server.New(registry, leases, views, adminSvc, conn, logger).Handler(),
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
	logger.Info("http server stopped")
}
