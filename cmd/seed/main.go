// seed creates a demo shop with an admin user and a few priced glass types for local
// development. Running it again is a no-op for anything that already exists.
//
// Usage: go run ./cmd/seed
package main

import (
	"context"
	"errors"
	"log"
	"os"

	"glass-shop/internal/auth"
	"glass-shop/internal/config"
	"glass-shop/internal/core"
	"glass-shop/internal/db"
	"glass-shop/internal/logging"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type priceSeed struct {
	glassType, thickness string
	purchase, selling    string
}

var demoPrices = []priceSeed{
	{"Clear", "4", "28", "40"},
	{"Clear", "5", "34", "48"},
	{"Toughened", "8", "95", "130"},
	{"Frosted", "5", "45", "65"},
}

func main() {
	_ = godotenv.Load()

	cfg := config.LoadEnv()
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

	username := envOr("SEED_USERNAME", "admin")
	password := envOr("SEED_PASSWORD", "admin123")

	audit := core.NewAuditService(pool)
	shops := core.NewShopService(pool, audit)
	pricing := core.NewPricingService(pool, audit)

	user, err := shops.GetUserByUsername(ctx, username)
	switch {
	case errors.Is(err, core.ErrNotFound):
		hash, err := auth.HashPassword(password)
		if err != nil {
			logger.Fatal("hash password", zap.Error(err))
		}
		var shop *core.Shop
		shop, user, err = shops.RegisterShop(ctx, core.ShopInput{
			Name:      "Demo Glass House",
			OwnerName: "Demo Owner",
			Mobile:    "9000000000",
			Address:   "1 Market Road, Pune",
			GSTIN:     "27AAAAA0000A1Z5",
			State:     "Maharashtra",
			StateCode: "27",
		}, core.UserInput{Username: username, FullName: "Demo Admin", PasswordHash: hash, Role: core.RoleAdmin})
		if err != nil {
			logger.Fatal("register demo shop", zap.Error(err))
		}
		logger.Info("demo shop created", zap.Int("shop_id", shop.ID), zap.String("admin", user.Username))
	case err != nil:
		logger.Fatal("look up seed user", zap.Error(err))
	default:
		logger.Info("seed user already exists", zap.String("username", username), zap.Int("shop_id", user.ShopID))
	}

	for _, p := range demoPrices {
		purchase := decimal.RequireFromString(p.purchase)
		selling := decimal.RequireFromString(p.selling)
		_, err := pricing.CreatePriceMaster(ctx, user.ShopID, core.PriceMasterInput{
			GlassType:     p.glassType,
			Thickness:     p.thickness,
			PurchasePrice: &purchase,
			SellingPrice:  &selling,
			PerformedBy:   username,
		})
		if err != nil && !errors.Is(err, core.ErrConflict) {
			logger.Fatal("seed price", zap.String("glass_type", p.glassType), zap.Error(err))
		}
	}
	logger.Info("seed complete")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
