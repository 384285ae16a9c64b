// glassctl runs one-shot operator commands against the database as a shop user.
//
// Usage: go run ./cmd/glassctl -user admin stock
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"glass-shop/internal/adapters/cli"
	"glass-shop/internal/app"
	"glass-shop/internal/auth"
	"glass-shop/internal/config"
	"glass-shop/internal/db"
	"glass-shop/internal/logging"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	user := flag.String("user", os.Getenv("GLASSCTL_USER"), "username to act as")
	flag.Parse()

	cfg := config.LoadEnv()
	cfg.Logger.Level = "warn"
	logger, err := logging.New(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	tokens := auth.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	svc := app.NewAppService(app.NewCoreServices(pool), tokens, logger)

	if err := cli.Run(ctx, svc, *user, flag.Args(), os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
