package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type stockService struct {
	pool  *pgxpool.Pool
	audit AuditService
}

func NewStockService(pool *pgxpool.Pool, audit AuditService) StockService {
	return &stockService{pool: pool, audit: audit}
}

const stockSelect = `
	SELECT s.id, s.shop_id, s.glass_id, g.glass_type, g.thickness, g.unit, s.stand_no,
	       s.height, s.width, s.quantity, s.purchase_price, s.selling_price, s.status, s.updated_at
	FROM stock s
	JOIN glass g ON g.id = s.glass_id`

func scanStock(row pgx.Row) (*Stock, error) {
	st := &Stock{}
	err := row.Scan(&st.ID, &st.ShopID, &st.GlassID, &st.GlassType, &st.Thickness, &st.Unit, &st.StandNo,
		&st.Height, &st.Width, &st.Quantity, &st.PurchasePrice, &st.SellingPrice, &st.Status, &st.UpdatedAt)
	return st, err
}

func getStock(ctx context.Context, q querier, id int) (*Stock, error) {
	st, err := scanStock(q.QueryRow(ctx, stockSelect+` WHERE s.id = $1`, id))
	if err != nil {
		return nil, wrapDBError(err, fmt.Sprintf("stock id=%d", id))
	}
	return st, nil
}

// ensurePriceMasterTx returns the shop's entry for (type, thickness), creating a pending one if absent.
func ensurePriceMasterTx(ctx context.Context, tx pgx.Tx, shopID int, glassType string, thickness decimal.Decimal) (*PriceMaster, error) {
	if _, err := tx.Exec(ctx, `
		INSERT INTO glass_price_master (shop_id, glass_type, thickness, is_pending)
		VALUES ($1, $2, $3, true)
		ON CONFLICT (shop_id, glass_type, thickness) DO NOTHING`,
		shopID, glassType, thickness,
	); err != nil {
		return nil, fmt.Errorf("failed to ensure price master entry: %w", err)
	}
	pm, err := scanPriceMaster(tx.QueryRow(ctx, `
		SELECT `+priceMasterColumns+`
		FROM glass_price_master
		WHERE shop_id = $1 AND glass_type = $2 AND thickness = $3`,
		shopID, glassType, thickness,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to read price master entry: %w", err)
	}
	return pm, nil
}

// ensureGlassTx resolves the shared catalog row for (type, thickness, unit).
func ensureGlassTx(ctx context.Context, tx pgx.Tx, glassType string, thickness decimal.Decimal, unit string) (int, error) {
	var id int
	err := tx.QueryRow(ctx, `
		INSERT INTO glass (glass_type, thickness, unit)
		VALUES ($1, $2, $3)
		ON CONFLICT (glass_type, thickness, unit) DO UPDATE SET glass_type = EXCLUDED.glass_type
		RETURNING id`,
		glassType, thickness, unit,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve glass catalog entry: %w", err)
	}
	return id, nil
}

type stockKey struct {
	shopID  int
	glassID int
	standNo int
	height  decimal.Decimal
	width   decimal.Decimal
}

// ensureStockRowTx creates the row lazily with zero quantity and returns its id.
func ensureStockRowTx(ctx context.Context, tx pgx.Tx, k stockKey) (int, error) {
	var id int
	err := tx.QueryRow(ctx, `
		INSERT INTO stock (shop_id, glass_id, stand_no, height, width, quantity, status)
		VALUES ($1, $2, $3, $4, $5, 0, 'PENDING')
		ON CONFLICT (glass_id, stand_no, shop_id, height, width) DO UPDATE SET updated_at = stock.updated_at
		RETURNING id`,
		k.shopID, k.glassID, k.standNo, k.height, k.width,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve stock row: %w", err)
	}
	return id, nil
}

func findStockRowTx(ctx context.Context, tx pgx.Tx, k stockKey) (int, bool, error) {
	var id int
	err := tx.QueryRow(ctx, `
		SELECT id FROM stock
		WHERE glass_id = $1 AND stand_no = $2 AND shop_id = $3 AND height = $4 AND width = $5`,
		k.glassID, k.standNo, k.shopID, k.height, k.width,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to look up stock row: %w", err)
	}
	return id, true, nil
}

func writeStockTx(ctx context.Context, tx pgx.Tx, id, qty int, pm *PriceMaster) error {
	_, err := tx.Exec(ctx, `
		UPDATE stock
		SET quantity = $2, purchase_price = $3, selling_price = $4, status = $5, updated_at = NOW()
		WHERE id = $1`,
		id, qty, pm.PurchasePrice, pm.SellingPrice, string(StockStatusFor(pm)),
	)
	if err != nil {
		return fmt.Errorf("failed to update stock row %d: %w", id, err)
	}
	return nil
}

func insertHistoryTx(ctx context.Context, tx pgx.Tx, h StockHistory) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO stock_history
		    (shop_id, stock_id, glass_id, action, stand_no, to_stand_no, quantity, old_quantity, new_quantity, performed_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		h.ShopID, h.StockID, h.GlassID, string(h.Action), h.StandNo, h.ToStandNo,
		h.Quantity, h.OldQuantity, h.NewQuantity, h.PerformedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to write stock history: %w", err)
	}
	return nil
}

// UpdateStock reconciles the position against the price master and applies one ADD or REMOVE.
// Stock, history and audit rows are written in one transaction under a row lock.
func (s *stockService) UpdateStock(ctx context.Context, in StockUpdateInput) (*Stock, error) {
	glassType := strings.TrimSpace(in.GlassType)
	if glassType == "" {
		return nil, fmt.Errorf("glass type is required: %w", ErrInvalidInput)
	}
	thickness, err := ParseThickness(in.Thickness)
	if err != nil {
		return nil, err
	}
	if err := validateQuantity(in.Quantity); err != nil {
		return nil, err
	}
	if err := validateStand("stand_no", in.StandNo); err != nil {
		return nil, err
	}
	if in.Action != StockAdd && in.Action != StockRemove {
		return nil, fmt.Errorf("action %q must be ADD or REMOVE: %w", in.Action, ErrInvalidInput)
	}
	if err := validateDims(in.Height, in.Width); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	pm, err := ensurePriceMasterTx(ctx, tx, in.ShopID, glassType, thickness)
	if err != nil {
		return nil, err
	}
	glassID, err := ensureGlassTx(ctx, tx, glassType, thickness, normalizeUnit(in.Unit))
	if err != nil {
		return nil, err
	}
	key := stockKey{shopID: in.ShopID, glassID: glassID, standNo: in.StandNo, height: in.Height.Round(2), width: in.Width.Round(2)}
	stockID, err := ensureStockRowTx(ctx, tx, key)
	if err != nil {
		return nil, err
	}

	var oldQty int
	if err := tx.QueryRow(ctx, "SELECT quantity FROM stock WHERE id = $1 FOR UPDATE", stockID).Scan(&oldQty); err != nil {
		return nil, fmt.Errorf("failed to lock stock row: %w", err)
	}
	newQty, err := ApplyStockDelta(oldQty, in.Quantity, in.Action)
	if err != nil {
		return nil, err
	}
	if err := writeStockTx(ctx, tx, stockID, newQty, pm); err != nil {
		return nil, err
	}

	if err := insertHistoryTx(ctx, tx, StockHistory{
		ShopID: in.ShopID, StockID: &stockID, GlassID: glassID, Action: in.Action, StandNo: in.StandNo,
		Quantity: in.Quantity, OldQuantity: oldQty, NewQuantity: newQty, PerformedBy: in.PerformedBy,
	}); err != nil {
		return nil, err
	}
	if err := s.audit.RecordTx(ctx, tx, AuditEntry{
		ShopID: in.ShopID, Username: in.PerformedBy, Action: string(in.Action), EntityType: "STOCK", EntityID: &stockID,
		Details: map[string]any{
			"glass_type": glassType, "thickness": thickness.String(), "stand_no": in.StandNo,
			"quantity": in.Quantity, "old_quantity": oldQty, "new_quantity": newQty,
		},
	}); err != nil {
		return nil, err
	}

	st, err := getStock(ctx, tx, stockID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return st, nil
}

// TransferStock moves quantity between two stands of the same shop.
// Both rows are locked in id order; on insufficient source quantity nothing changes.
func (s *stockService) TransferStock(ctx context.Context, in StockTransferInput) (*StockTransferResult, error) {
	glassType := strings.TrimSpace(in.GlassType)
	if glassType == "" {
		return nil, fmt.Errorf("glass type is required: %w", ErrInvalidInput)
	}
	thickness, err := ParseThickness(in.Thickness)
	if err != nil {
		return nil, err
	}
	if err := validateQuantity(in.Quantity); err != nil {
		return nil, err
	}
	if err := validateStand("from_stand_no", in.FromStandNo); err != nil {
		return nil, err
	}
	if err := validateStand("to_stand_no", in.ToStandNo); err != nil {
		return nil, err
	}
	if in.FromStandNo == in.ToStandNo {
		return nil, fmt.Errorf("source and destination stand are both %d: %w", in.FromStandNo, ErrInvalidInput)
	}
	if err := validateDims(in.Height, in.Width); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	pm, err := ensurePriceMasterTx(ctx, tx, in.ShopID, glassType, thickness)
	if err != nil {
		return nil, err
	}
	glassID, err := ensureGlassTx(ctx, tx, glassType, thickness, normalizeUnit(in.Unit))
	if err != nil {
		return nil, err
	}

	h, w := in.Height.Round(2), in.Width.Round(2)
	fromID, ok, err := findStockRowTx(ctx, tx, stockKey{shopID: in.ShopID, glassID: glassID, standNo: in.FromStandNo, height: h, width: w})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no stock of %s %smm at stand %d: %w", glassType, thickness, in.FromStandNo, ErrInsufficientStock)
	}
	toID, err := ensureStockRowTx(ctx, tx, stockKey{shopID: in.ShopID, glassID: glassID, standNo: in.ToStandNo, height: h, width: w})
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, "SELECT id, quantity FROM stock WHERE id = ANY($1) ORDER BY id FOR UPDATE", []int{fromID, toID})
	if err != nil {
		return nil, fmt.Errorf("failed to lock stock rows: %w", err)
	}
	qty := make(map[int]int, 2)
	for rows.Next() {
		var id, q int
		if err := rows.Scan(&id, &q); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan locked stock row: %w", err)
		}
		qty[id] = q
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to lock stock rows: %w", err)
	}

	fromOld, toOld := qty[fromID], qty[toID]
	if fromOld < in.Quantity {
		return nil, fmt.Errorf("stand %d holds %d, cannot transfer %d: %w", in.FromStandNo, fromOld, in.Quantity, ErrInsufficientStock)
	}
	toNew, err := addQuantity(toOld, in.Quantity)
	if err != nil {
		return nil, err
	}
	fromNew := fromOld - in.Quantity

	if err := writeStockTx(ctx, tx, fromID, fromNew, pm); err != nil {
		return nil, err
	}
	if err := writeStockTx(ctx, tx, toID, toNew, pm); err != nil {
		return nil, err
	}

	if err := insertHistoryTx(ctx, tx, StockHistory{
		ShopID: in.ShopID, StockID: &fromID, GlassID: glassID, Action: StockTransfer,
		StandNo: in.FromStandNo, ToStandNo: &in.ToStandNo,
		Quantity: in.Quantity, OldQuantity: fromOld, NewQuantity: fromNew, PerformedBy: in.PerformedBy,
	}); err != nil {
		return nil, err
	}
	if err := s.audit.RecordTx(ctx, tx, AuditEntry{
		ShopID: in.ShopID, Username: in.PerformedBy, Action: string(StockTransfer), EntityType: "STOCK", EntityID: &fromID,
		Details: map[string]any{
			"glass_type": glassType, "thickness": thickness.String(), "quantity": in.Quantity,
			"from_stand": in.FromStandNo, "to_stand": in.ToStandNo, "to_stock_id": toID,
		},
	}); err != nil {
		return nil, err
	}

	from, err := getStock(ctx, tx, fromID)
	if err != nil {
		return nil, err
	}
	to, err := getStock(ctx, tx, toID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &StockTransferResult{From: *from, To: *to}, nil
}

func (s *stockService) ListStock(ctx context.Context, shopID int, filter StockFilter) ([]Stock, error) {
	rows, err := s.pool.Query(ctx, stockSelect+`
		WHERE s.shop_id = $1
		  AND ($2 = '' OR g.glass_type ILIKE $2)
		  AND ($3::int IS NULL OR s.stand_no = $3)
		  AND ($4 = '' OR s.status = $4)
		ORDER BY g.glass_type, g.thickness, s.stand_no, s.height, s.width`,
		shopID, strings.TrimSpace(filter.GlassType), filter.StandNo, string(filter.Status),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock: %w", err)
	}
	defer rows.Close()

	out := []Stock{}
	for rows.Next() {
		st, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock: %w", err)
		}
		out = append(out, *st)
	}
	return out, rows.Err()
}

func (s *stockService) GetStockHistory(ctx context.Context, shopID int, limit int) ([]StockHistory, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT h.id, h.shop_id, h.stock_id, h.glass_id, g.glass_type, g.thickness::text, h.action,
		       h.stand_no, h.to_stand_no, h.quantity, h.old_quantity, h.new_quantity, h.performed_by, h.created_at
		FROM stock_history h
		JOIN glass g ON g.id = h.glass_id
		WHERE h.shop_id = $1
		ORDER BY h.created_at DESC, h.id DESC
		LIMIT $2`,
		shopID, clampLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock history: %w", err)
	}
	defer rows.Close()

	out := []StockHistory{}
	for rows.Next() {
		var h StockHistory
		if err := rows.Scan(&h.ID, &h.ShopID, &h.StockID, &h.GlassID, &h.GlassType, &h.Thickness, &h.Action,
			&h.StandNo, &h.ToStandNo, &h.Quantity, &h.OldQuantity, &h.NewQuantity, &h.PerformedBy, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stock history: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *stockService) ListGlass(ctx context.Context) ([]Glass, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, glass_type, thickness, unit, created_at
		FROM glass
		ORDER BY glass_type, thickness, unit`)
	if err != nil {
		return nil, fmt.Errorf("failed to query glass catalog: %w", err)
	}
	defer rows.Close()

	out := []Glass{}
	for rows.Next() {
		var g Glass
		if err := rows.Scan(&g.ID, &g.Type, &g.Thickness, &g.Unit, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan glass: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
