// Package main implements the entry point for the karma engine server:
// behavioral scoring, the multi-token ledger, the lifecycle machine and the
// karmic debt network, all gated by the external authority.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"

	"github.com/yashikart/gurukul-backend--sub000/internal/config"
	"github.com/yashikart/gurukul-backend--sub000/internal/platform/logger"
)

func main() {
	migrateCmd := flag.String("migrate", "", "run a migration command (up, down, status) and exit")
	migrationsDir := flag.String("migrations-dir", "migrations", "path to the migrations directory")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		log.Fatalf("failed to set up logger: %v", err)
	}

	if *migrateCmd != "" {
		if err := runMigrations(cfg, *migrateCmd, *migrationsDir); err != nil {
			log.Fatalf("migration failed: %v", err)
		}
		return
	}

	if err := run(cfg, appLogger); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

// run wires the application and serves until shutdown.
func run(cfg *config.Config, appLogger *slog.Logger) error {
	app, err := newApplication(cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.startHTTPServer(context.Background(), app.setupRouter())
}
