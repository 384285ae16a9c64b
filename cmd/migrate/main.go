// migrate applies the embedded SQL migrations in order, recording each one with its
// checksum in schema_migrations. A changed checksum for an applied file aborts the run.
//
// Usage: go run ./cmd/migrate
package main

import (
	"context"
	"log"
	"time"

	"glass-shop/internal/config"
	"glass-shop/internal/db"
	"glass-shop/internal/logging"
	"glass-shop/migrations"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg := config.LoadEnv()
	logger, err := logging.New(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := migrations.Apply(ctx, pool, logger); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}
	logger.Info("all migrations processed")
}
