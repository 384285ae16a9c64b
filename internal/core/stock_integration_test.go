package core_test

import (
	"context"
	"errors"
	"testing"

	"glass-shop/internal/core"

	"github.com/shopspring/decimal"
)

func addStock(t *testing.T, svc core.StockService, shopID, stand, qty int, glassType, thickness string) *core.Stock {
	t.Helper()
	st, err := svc.UpdateStock(context.Background(), core.StockUpdateInput{
		ShopID: shopID, GlassType: glassType, Thickness: thickness, StandNo: stand,
		Height: decimal.NewFromInt(6), Width: decimal.NewFromInt(4),
		Quantity: qty, Action: core.StockAdd, PerformedBy: "tester",
	})
	if err != nil {
		t.Fatalf("UpdateStock ADD failed: %v", err)
	}
	return st
}

func TestStock_UpdateCreatesPendingRows(t *testing.T) {
	pool, shops := setupTestDB(t)
	stockSvc, pricingSvc, _, _ := newServices(pool)
	ctx := context.Background()

	st := addStock(t, stockSvc, shops.A, 1, 10, "Clear", "5")
	if st.Quantity != 10 || st.Status != core.StockPending {
		t.Fatalf("got quantity=%d status=%s, want 10 PENDING", st.Quantity, st.Status)
	}
	if st.PurchasePrice != nil || st.SellingPrice != nil {
		t.Errorf("pending stock must not carry prices")
	}

	pending, err := pricingSvc.ListPriceMaster(ctx, shops.A, true)
	if err != nil {
		t.Fatalf("ListPriceMaster failed: %v", err)
	}
	if len(pending) != 1 || pending[0].GlassType != "Clear" || !pending[0].IsPending {
		t.Fatalf("expected one pending price entry for Clear, got %+v", pending)
	}

	var history, audits int
	pool.QueryRow(ctx, "SELECT COUNT(*) FROM stock_history WHERE shop_id = $1", shops.A).Scan(&history)
	pool.QueryRow(ctx, "SELECT COUNT(*) FROM audit_logs WHERE shop_id = $1 AND entity_type = 'STOCK'", shops.A).Scan(&audits)
	if history != 1 || audits != 1 {
		t.Errorf("history=%d audit=%d, want exactly one of each", history, audits)
	}
}

func TestStock_RemoveClampsAtZero(t *testing.T) {
	pool, shops := setupTestDB(t)
	stockSvc, _, _, _ := newServices(pool)

	addStock(t, stockSvc, shops.A, 1, 3, "Clear", "5")
	st, err := stockSvc.UpdateStock(context.Background(), core.StockUpdateInput{
		ShopID: shops.A, GlassType: "Clear", Thickness: "5", StandNo: 1,
		Height: decimal.NewFromInt(6), Width: decimal.NewFromInt(4),
		Quantity: 10, Action: core.StockRemove, PerformedBy: "tester",
	})
	if err != nil {
		t.Fatalf("UpdateStock REMOVE failed: %v", err)
	}
	if st.Quantity != 0 {
		t.Errorf("quantity = %d, want 0", st.Quantity)
	}
}

func TestStock_GlassLookupIsIdempotent(t *testing.T) {
	pool, shops := setupTestDB(t)
	stockSvc, _, _, _ := newServices(pool)
	ctx := context.Background()

	first := addStock(t, stockSvc, shops.A, 1, 1, "Toughened", "8")
	second := addStock(t, stockSvc, shops.A, 2, 1, "Toughened", "8.00")
	other := addStock(t, stockSvc, shops.B, 1, 1, "Toughened", "8mm")

	if first.GlassID != second.GlassID || first.GlassID != other.GlassID {
		t.Errorf("glass ids differ: %d, %d, %d", first.GlassID, second.GlassID, other.GlassID)
	}
	catalog, err := stockSvc.ListGlass(ctx)
	if err != nil {
		t.Fatalf("ListGlass failed: %v", err)
	}
	if len(catalog) != 1 {
		t.Errorf("expected one catalog row, got %d", len(catalog))
	}
}

func TestStock_InvalidThicknessWritesNothing(t *testing.T) {
	pool, shops := setupTestDB(t)
	stockSvc, _, _, _ := newServices(pool)
	ctx := context.Background()

	for _, thickness := range []string{"-5", "0.004"} {
		_, err := stockSvc.UpdateStock(ctx, core.StockUpdateInput{
			ShopID: shops.A, GlassType: "Clear", Thickness: thickness, StandNo: 1, Quantity: 1, Action: core.StockAdd,
		})
		if !errors.Is(err, core.ErrInvalidInput) {
			t.Fatalf("thickness %q: err = %v, want ErrInvalidInput", thickness, err)
		}
	}

	var n int
	pool.QueryRow(ctx, "SELECT (SELECT COUNT(*) FROM glass) + (SELECT COUNT(*) FROM glass_price_master) + (SELECT COUNT(*) FROM stock)").Scan(&n)
	if n != 0 {
		t.Errorf("expected no rows written, found %d", n)
	}
}

func TestStock_TransferInsufficientLeavesBothStands(t *testing.T) {
	pool, shops := setupTestDB(t)
	stockSvc, _, _, _ := newServices(pool)

	addStock(t, stockSvc, shops.A, 1, 5, "Clear", "5")
	addStock(t, stockSvc, shops.A, 2, 2, "Clear", "5")

	_, err := stockSvc.TransferStock(context.Background(), core.StockTransferInput{
		ShopID: shops.A, GlassType: "Clear", Thickness: "5", FromStandNo: 1, ToStandNo: 2,
		Height: decimal.NewFromInt(6), Width: decimal.NewFromInt(4), Quantity: 10, PerformedBy: "tester",
	})
	if !errors.Is(err, core.ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}
	if got := stockQty(t, pool, shops.A, 1, "Clear"); got != 5 {
		t.Errorf("source quantity = %d, want 5", got)
	}
	if got := stockQty(t, pool, shops.A, 2, "Clear"); got != 2 {
		t.Errorf("destination quantity = %d, want 2", got)
	}
}

func TestStock_TransferMissingSource(t *testing.T) {
	pool, shops := setupTestDB(t)
	stockSvc, _, _, _ := newServices(pool)

	_, err := stockSvc.TransferStock(context.Background(), core.StockTransferInput{
		ShopID: shops.A, GlassType: "Clear", Thickness: "5", FromStandNo: 1, ToStandNo: 2, Quantity: 1,
	})
	if !errors.Is(err, core.ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}
	if got := stockQty(t, pool, shops.A, 2, "Clear"); got != 0 {
		t.Errorf("destination quantity = %d, want 0", got)
	}
}

func TestStock_TransferMovesQuantity(t *testing.T) {
	pool, shops := setupTestDB(t)
	stockSvc, _, _, _ := newServices(pool)
	ctx := context.Background()

	addStock(t, stockSvc, shops.A, 1, 8, "Clear", "5")
	res, err := stockSvc.TransferStock(ctx, core.StockTransferInput{
		ShopID: shops.A, GlassType: "Clear", Thickness: "5", FromStandNo: 1, ToStandNo: 3,
		Height: decimal.NewFromInt(6), Width: decimal.NewFromInt(4), Quantity: 3, PerformedBy: "tester",
	})
	if err != nil {
		t.Fatalf("TransferStock failed: %v", err)
	}
	if res.From.Quantity != 5 || res.To.Quantity != 3 {
		t.Errorf("from=%d to=%d, want 5 and 3", res.From.Quantity, res.To.Quantity)
	}

	history, err := stockSvc.GetStockHistory(ctx, shops.A, 10)
	if err != nil {
		t.Fatalf("GetStockHistory failed: %v", err)
	}
	if len(history) != 2 || history[0].Action != core.StockTransfer {
		t.Fatalf("expected latest history entry to be TRANSFER, got %+v", history)
	}
	if history[0].ToStandNo == nil || *history[0].ToStandNo != 3 {
		t.Errorf("transfer history to_stand_no = %v, want 3", history[0].ToStandNo)
	}

	var transfers int
	pool.QueryRow(ctx, "SELECT COUNT(*) FROM audit_logs WHERE shop_id = $1 AND action = 'TRANSFER'", shops.A).Scan(&transfers)
	if transfers != 1 {
		t.Errorf("TRANSFER audit rows = %d, want 1", transfers)
	}
}

func TestStock_TransferSameStandRejected(t *testing.T) {
	pool, shops := setupTestDB(t)
	stockSvc, _, _, _ := newServices(pool)

	_, err := stockSvc.TransferStock(context.Background(), core.StockTransferInput{
		ShopID: shops.A, GlassType: "Clear", Thickness: "5", FromStandNo: 1, ToStandNo: 1, Quantity: 1,
	})
	if !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestStock_InvalidStandWritesNothing(t *testing.T) {
	pool, shops := setupTestDB(t)
	stockSvc, _, _, _ := newServices(pool)
	ctx := context.Background()

	for _, stand := range []int{0, -3} {
		_, err := stockSvc.UpdateStock(ctx, core.StockUpdateInput{
			ShopID: shops.A, GlassType: "Clear", Thickness: "5", StandNo: stand, Quantity: 1, Action: core.StockAdd,
		})
		if !errors.Is(err, core.ErrInvalidInput) {
			t.Errorf("UpdateStock stand %d err = %v, want ErrInvalidInput", stand, err)
		}
	}

	addStock(t, stockSvc, shops.A, 1, 4, "Clear", "5")
	_, err := stockSvc.TransferStock(ctx, core.StockTransferInput{
		ShopID: shops.A, GlassType: "Clear", Thickness: "5", FromStandNo: 1, ToStandNo: 0,
		Height: decimal.NewFromInt(6), Width: decimal.NewFromInt(4), Quantity: 1,
	})
	if !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("TransferStock to stand 0 err = %v, want ErrInvalidInput", err)
	}
	if got := stockQty(t, pool, shops.A, 1, "Clear"); got != 4 {
		t.Errorf("source quantity = %d, want 4", got)
	}

	var n int
	pool.QueryRow(ctx, "SELECT COUNT(*) FROM stock WHERE shop_id = $1 AND stand_no <= 0", shops.A).Scan(&n)
	if n != 0 {
		t.Errorf("found %d stock rows at non-positive stands", n)
	}
}

func TestStock_QuantityOverflowRejected(t *testing.T) {
	pool, shops := setupTestDB(t)
	stockSvc, _, _, _ := newServices(pool)
	ctx := context.Background()

	addStock(t, stockSvc, shops.A, 1, 1, "Clear", "5")
	addStock(t, stockSvc, shops.A, 2, core.MaxStockQuantity, "Clear", "5")

	_, err := stockSvc.UpdateStock(ctx, core.StockUpdateInput{
		ShopID: shops.A, GlassType: "Clear", Thickness: "5", StandNo: 2,
		Height: decimal.NewFromInt(6), Width: decimal.NewFromInt(4), Quantity: 1, Action: core.StockAdd,
	})
	if !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("ADD past maximum err = %v, want ErrInvalidInput", err)
	}

	_, err = stockSvc.TransferStock(ctx, core.StockTransferInput{
		ShopID: shops.A, GlassType: "Clear", Thickness: "5", FromStandNo: 1, ToStandNo: 2,
		Height: decimal.NewFromInt(6), Width: decimal.NewFromInt(4), Quantity: 1,
	})
	if !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("transfer past maximum err = %v, want ErrInvalidInput", err)
	}
	if got := stockQty(t, pool, shops.A, 1, "Clear"); got != 1 {
		t.Errorf("source quantity = %d, want 1", got)
	}
	if got := stockQty(t, pool, shops.A, 2, "Clear"); got != core.MaxStockQuantity {
		t.Errorf("destination quantity = %d, want %d", got, core.MaxStockQuantity)
	}
}

func TestStock_ConcurrentAddsAccumulate(t *testing.T) {
	pool, shops := setupTestDB(t)
	stockSvc, _, _, _ := newServices(pool)

	const workers = 8
	errCh := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func() {
			_, err := stockSvc.UpdateStock(context.Background(), core.StockUpdateInput{
				ShopID: shops.A, GlassType: "Clear", Thickness: "5", StandNo: 1,
				Height: decimal.NewFromInt(6), Width: decimal.NewFromInt(4),
				Quantity: 1, Action: core.StockAdd, PerformedBy: "tester",
			})
			errCh <- err
		}()
	}
	for i := 0; i < workers; i++ {
		if err := <-errCh; err != nil {
			t.Errorf("concurrent UpdateStock failed: %v", err)
		}
	}
	if got := stockQty(t, pool, shops.A, 1, "Clear"); got != workers {
		t.Errorf("quantity = %d, want %d", got, workers)
	}
}
