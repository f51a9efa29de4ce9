// seed inserts development sample data for local testing.
// Idempotent: skips inserts when an admin or terminals already exist.
package main

import (
	"context"
	"fmt"
	"log"

	"go.uber.org/zap"

	adminrepo "cafe-control-plane/internal/admin/repository"
	adminservice "cafe-control-plane/internal/admin/service"
	"cafe-control-plane/internal/config"
	"cafe-control-plane/internal/db"
	"cafe-control-plane/internal/security"
	terminalrepo "cafe-control-plane/internal/terminal/repository"
	terminalservice "cafe-control-plane/internal/terminal/service"
)

var sampleTerminals = []string{"PC-01", "PC-02", "PC-03", "PC-04"}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	logger := zap.NewNop()
	ctx := context.Background()

	hasher := security.NewHasher(cfg.KDFIterations)
	tokens := security.NewTokenProvider("seed-only", "cafe-control-plane", cfg.TokenTTL())
	admins := adminservice.NewService(adminrepo.NewPostgresRepository(conn), hasher, tokens, nil, logger)

	created, err := admins.EnsureDefaultAdmin(ctx)
	if err != nil {
		log.Fatalf("seed admin: %v", err)
	}
	if created {
		fmt.Printf("Admin login: %s / %s\n", adminservice.DefaultAdminUsername, adminservice.DefaultAdminPassword)
	} else {
		log.Println("Admin already present. Skipping.")
	}

	registry := terminalservice.NewRegistry(terminalrepo.NewPostgresRepository(conn), logger)
	for _, name := range sampleTerminals {
		if _, err := registry.GetOrRegister(ctx, name); err != nil {
			log.Fatalf("seed terminal %s: %v", name, err)
		}
	}

	log.Println("Seed completed successfully.")
}
