package core_test

import (
	"context"
	"os"
	"testing"

	"glass-shop/internal/core"
	"glass-shop/migrations"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

// testShops holds the two tenants seeded by setupTestDB.
type testShops struct {
	A, B int
}

func setupTestDB(t *testing.T) (*pgxpool.Pool, testShops) {
	t.Helper()
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := migrations.Apply(ctx, pool, nil); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE installations, payments, invoice_items, invoices, quotation_items, quotations,
			document_sequences, sites, customers, audit_logs, stock_history, stock,
			glass_price_master, glass, users, shops
		RESTART IDENTITY CASCADE;

		INSERT INTO shops (id, name, state) VALUES
		(1, 'Shop A Glass', 'Maharashtra'),
		(2, 'Shop B Glass', 'Gujarat');
		SELECT setval('shops_id_seq', 2);
	`)
	if err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}

	return pool, testShops{A: 1, B: 2}
}

// seedCustomer inserts a customer directly and returns its id.
func seedCustomer(t *testing.T, pool *pgxpool.Pool, shopID int, name, state string) int {
	t.Helper()
	var id int
	err := pool.QueryRow(context.Background(),
		"INSERT INTO customers (shop_id, name, state) VALUES ($1, $2, $3) RETURNING id",
		shopID, name, state,
	).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to seed customer: %v", err)
	}
	return id
}

func stockQty(t *testing.T, pool *pgxpool.Pool, shopID, standNo int, glassType string) int {
	t.Helper()
	var qty int
	err := pool.QueryRow(context.Background(), `
		SELECT COALESCE(SUM(s.quantity), 0)
		FROM stock s JOIN glass g ON g.id = s.glass_id
		WHERE s.shop_id = $1 AND s.stand_no = $2 AND g.glass_type = $3`,
		shopID, standNo, glassType,
	).Scan(&qty)
	if err != nil {
		t.Fatalf("Failed to read stock quantity: %v", err)
	}
	return qty
}

func newServices(pool *pgxpool.Pool) (core.StockService, core.PricingService, core.QuotationService, core.InvoiceService) {
	audit := core.NewAuditService(pool)
	docs := core.NewDocumentService(pool)
	return core.NewStockService(pool, audit),
		core.NewPricingService(pool, audit),
		core.NewQuotationService(pool, docs, audit),
		core.NewInvoiceService(pool, docs, audit)
}
