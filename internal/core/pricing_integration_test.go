package core_test

import (
	"context"
	"errors"
	"testing"

	"glass-shop/internal/core"

	"github.com/shopspring/decimal"
)

func price(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func TestPricing_CascadeApprovesOnlyOwnShop(t *testing.T) {
	pool, shops := setupTestDB(t)
	stockSvc, pricingSvc, _, _ := newServices(pool)
	ctx := context.Background()

	addStock(t, stockSvc, shops.A, 1, 4, "Clear", "5")
	addStock(t, stockSvc, shops.A, 2, 6, "Clear", "5")
	addStock(t, stockSvc, shops.B, 1, 9, "Clear", "5")

	pm, err := pricingSvc.CreatePriceMaster(ctx, shops.A, core.PriceMasterInput{
		GlassType: "Clear", Thickness: "5", PurchasePrice: price(40), SellingPrice: price(55), PerformedBy: "admin",
	})
	if err != nil {
		t.Fatalf("CreatePriceMaster failed: %v", err)
	}
	if pm.IsPending {
		t.Errorf("entry should no longer be pending")
	}

	rowsA, err := stockSvc.ListStock(ctx, shops.A, core.StockFilter{})
	if err != nil {
		t.Fatalf("ListStock A failed: %v", err)
	}
	if len(rowsA) != 2 {
		t.Fatalf("shop A rows = %d, want 2", len(rowsA))
	}
	for _, st := range rowsA {
		if st.Status != core.StockApproved {
			t.Errorf("stand %d status = %s, want APPROVED", st.StandNo, st.Status)
		}
		if st.SellingPrice == nil || !st.SellingPrice.Equal(decimal.NewFromInt(55)) {
			t.Errorf("stand %d selling price = %v, want 55", st.StandNo, st.SellingPrice)
		}
	}

	rowsB, err := stockSvc.ListStock(ctx, shops.B, core.StockFilter{})
	if err != nil {
		t.Fatalf("ListStock B failed: %v", err)
	}
	if len(rowsB) != 1 || rowsB[0].Status != core.StockPending || rowsB[0].SellingPrice != nil {
		t.Errorf("shop B stock must stay PENDING without prices, got %+v", rowsB)
	}

	// Later updates pick up the price master.
	st := addStock(t, stockSvc, shops.A, 3, 1, "Clear", "5")
	if st.Status != core.StockApproved {
		t.Errorf("new stock row status = %s, want APPROVED", st.Status)
	}
}

func TestPricing_CreateTwiceConflicts(t *testing.T) {
	pool, shops := setupTestDB(t)
	_, pricingSvc, _, _ := newServices(pool)
	ctx := context.Background()

	in := core.PriceMasterInput{GlassType: "Frosted", Thickness: "6", SellingPrice: price(70)}
	if _, err := pricingSvc.CreatePriceMaster(ctx, shops.A, in); err != nil {
		t.Fatalf("first CreatePriceMaster failed: %v", err)
	}
	if _, err := pricingSvc.CreatePriceMaster(ctx, shops.A, in); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("second create err = %v, want ErrConflict", err)
	}
	// Same pair in another shop is independent.
	if _, err := pricingSvc.CreatePriceMaster(ctx, shops.B, in); err != nil {
		t.Fatalf("shop B CreatePriceMaster failed: %v", err)
	}
}

func TestPricing_RequiresAPrice(t *testing.T) {
	pool, shops := setupTestDB(t)
	_, pricingSvc, _, _ := newServices(pool)

	_, err := pricingSvc.CreatePriceMaster(context.Background(), shops.A, core.PriceMasterInput{GlassType: "Clear", Thickness: "5"})
	if !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestPricing_UpdateCascadesAndIsShopScoped(t *testing.T) {
	pool, shops := setupTestDB(t)
	stockSvc, pricingSvc, _, _ := newServices(pool)
	ctx := context.Background()

	addStock(t, stockSvc, shops.A, 1, 2, "Clear", "5")
	pm, err := pricingSvc.CreatePriceMaster(ctx, shops.A, core.PriceMasterInput{GlassType: "Clear", Thickness: "5", SellingPrice: price(50)})
	if err != nil {
		t.Fatalf("CreatePriceMaster failed: %v", err)
	}

	if _, err := pricingSvc.UpdatePriceMaster(ctx, shops.B, pm.ID, core.PriceMasterInput{SellingPrice: price(1)}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("foreign update err = %v, want ErrNotFound", err)
	}

	if _, err := pricingSvc.UpdatePriceMaster(ctx, shops.A, pm.ID, core.PriceMasterInput{SellingPrice: price(65)}); err != nil {
		t.Fatalf("UpdatePriceMaster failed: %v", err)
	}
	rows, _ := stockSvc.ListStock(ctx, shops.A, core.StockFilter{})
	if len(rows) != 1 || rows[0].SellingPrice == nil || !rows[0].SellingPrice.Equal(decimal.NewFromInt(65)) {
		t.Errorf("stock did not receive updated price: %+v", rows)
	}
}

func TestPricing_DeletePending(t *testing.T) {
	pool, shops := setupTestDB(t)
	stockSvc, pricingSvc, _, _ := newServices(pool)
	ctx := context.Background()

	// Stand 1 keeps quantity, stand 2 is emptied.
	addStock(t, stockSvc, shops.A, 1, 2, "Clear", "5")
	addStock(t, stockSvc, shops.A, 2, 1, "Clear", "5")
	if _, err := stockSvc.UpdateStock(ctx, core.StockUpdateInput{
		ShopID: shops.A, GlassType: "Clear", Thickness: "5", StandNo: 2,
		Height: decimal.NewFromInt(6), Width: decimal.NewFromInt(4), Quantity: 1, Action: core.StockRemove,
	}); err != nil {
		t.Fatalf("UpdateStock REMOVE failed: %v", err)
	}

	pending, _ := pricingSvc.ListPriceMaster(ctx, shops.A, true)
	if len(pending) != 1 {
		t.Fatalf("pending entries = %d, want 1", len(pending))
	}
	if err := pricingSvc.DeletePendingPriceMaster(ctx, shops.A, pending[0].ID, "admin"); err != nil {
		t.Fatalf("DeletePendingPriceMaster failed: %v", err)
	}

	rows, _ := stockSvc.ListStock(ctx, shops.A, core.StockFilter{})
	if len(rows) != 1 || rows[0].StandNo != 1 {
		t.Errorf("expected only the non-empty stand to remain, got %+v", rows)
	}

	priced, err := pricingSvc.CreatePriceMaster(ctx, shops.A, core.PriceMasterInput{GlassType: "Clear", Thickness: "5", SellingPrice: price(10)})
	if err != nil {
		t.Fatalf("CreatePriceMaster failed: %v", err)
	}
	if err := pricingSvc.DeletePendingPriceMaster(ctx, shops.A, priced.ID, "admin"); !errors.Is(err, core.ErrInvalidState) {
		t.Fatalf("deleting priced entry err = %v, want ErrInvalidState", err)
	}
}
