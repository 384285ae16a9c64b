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

type pricingService struct {
	pool  *pgxpool.Pool
	audit AuditService
}

func NewPricingService(pool *pgxpool.Pool, audit AuditService) PricingService {
	return &pricingService{pool: pool, audit: audit}
}

const priceMasterColumns = `id, shop_id, glass_type, thickness, purchase_price, selling_price, is_pending, created_at, updated_at`

func scanPriceMaster(row pgx.Row) (*PriceMaster, error) {
	pm := &PriceMaster{}
	err := row.Scan(&pm.ID, &pm.ShopID, &pm.GlassType, &pm.Thickness, &pm.PurchasePrice, &pm.SellingPrice,
		&pm.IsPending, &pm.CreatedAt, &pm.UpdatedAt)
	return pm, err
}

func (s *pricingService) ListPriceMaster(ctx context.Context, shopID int, pendingOnly bool) ([]PriceMaster, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+priceMasterColumns+`
		FROM glass_price_master
		WHERE shop_id = $1 AND (NOT $2 OR is_pending)
		ORDER BY glass_type, thickness`,
		shopID, pendingOnly,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query price master: %w", err)
	}
	defer rows.Close()

	out := []PriceMaster{}
	for rows.Next() {
		pm, err := scanPriceMaster(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price master: %w", err)
		}
		out = append(out, *pm)
	}
	return out, rows.Err()
}

// CreatePriceMaster prices a (type, thickness) pair. A pending entry created by a stock
// update is filled in; an already priced entry is a conflict.
func (s *pricingService) CreatePriceMaster(ctx context.Context, shopID int, in PriceMasterInput) (*PriceMaster, error) {
	glassType := strings.TrimSpace(in.GlassType)
	if glassType == "" {
		return nil, fmt.Errorf("glass type is required: %w", ErrInvalidInput)
	}
	thickness, err := ParseThickness(in.Thickness)
	if err != nil {
		return nil, err
	}
	if err := validatePrices(in.PurchasePrice, in.SellingPrice); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	existing, err := scanPriceMaster(tx.QueryRow(ctx, `
		SELECT `+priceMasterColumns+`
		FROM glass_price_master
		WHERE shop_id = $1 AND glass_type = $2 AND thickness = $3
		FOR UPDATE`,
		shopID, glassType, thickness,
	))
	var pm *PriceMaster
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		pm, err = scanPriceMaster(tx.QueryRow(ctx, `
			INSERT INTO glass_price_master (shop_id, glass_type, thickness, purchase_price, selling_price, is_pending)
			VALUES ($1, $2, $3, $4, $5, false)
			RETURNING `+priceMasterColumns,
			shopID, glassType, thickness, in.PurchasePrice, in.SellingPrice,
		))
		if err != nil {
			return nil, wrapDBError(err, "price master entry")
		}
	case err != nil:
		return nil, fmt.Errorf("failed to read price master entry: %w", err)
	case !existing.IsPending:
		return nil, fmt.Errorf("price for %s %smm is already set: %w", glassType, thickness, ErrConflict)
	default:
		pm, err = setPricesTx(ctx, tx, existing.ID, in.PurchasePrice, in.SellingPrice)
		if err != nil {
			return nil, err
		}
	}

	cascaded, err := cascadePricesTx(ctx, tx, pm)
	if err != nil {
		return nil, err
	}
	if err := s.audit.RecordTx(ctx, tx, AuditEntry{
		ShopID: shopID, Username: in.PerformedBy, Action: "CREATE_PRICE", EntityType: "PRICE_MASTER", EntityID: &pm.ID,
		Details: priceDetails(pm, cascaded),
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return pm, nil
}

// UpdatePriceMaster changes the prices of an entry. Type and thickness are fixed once created.
func (s *pricingService) UpdatePriceMaster(ctx context.Context, shopID, id int, in PriceMasterInput) (*PriceMaster, error) {
	if err := validatePrices(in.PurchasePrice, in.SellingPrice); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := lockPriceMasterTx(ctx, tx, shopID, id); err != nil {
		return nil, err
	}
	pm, err := setPricesTx(ctx, tx, id, in.PurchasePrice, in.SellingPrice)
	if err != nil {
		return nil, err
	}
	cascaded, err := cascadePricesTx(ctx, tx, pm)
	if err != nil {
		return nil, err
	}
	if err := s.audit.RecordTx(ctx, tx, AuditEntry{
		ShopID: shopID, Username: in.PerformedBy, Action: "UPDATE_PRICE", EntityType: "PRICE_MASTER", EntityID: &pm.ID,
		Details: priceDetails(pm, cascaded),
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return pm, nil
}

// DeletePendingPriceMaster removes an unpriced entry together with the shop's empty
// PENDING stock rows for the same glass. This is the only path that deletes stock rows.
func (s *pricingService) DeletePendingPriceMaster(ctx context.Context, shopID, id int, performedBy string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	pm, err := lockPriceMasterTx(ctx, tx, shopID, id)
	if err != nil {
		return err
	}
	if !pm.IsPending {
		return fmt.Errorf("price master entry %d is priced and cannot be deleted: %w", id, ErrInvalidState)
	}

	tag, err := tx.Exec(ctx, `
		DELETE FROM stock s
		USING glass g
		WHERE g.id = s.glass_id
		  AND s.shop_id = $1 AND g.glass_type = $2 AND g.thickness = $3
		  AND s.status = 'PENDING' AND s.quantity = 0`,
		shopID, pm.GlassType, pm.Thickness,
	)
	if err != nil {
		return fmt.Errorf("failed to delete empty pending stock: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM glass_price_master WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete price master entry: %w", err)
	}
	if err := s.audit.RecordTx(ctx, tx, AuditEntry{
		ShopID: shopID, Username: performedBy, Action: "DELETE_PRICE", EntityType: "PRICE_MASTER", EntityID: &id,
		Details: map[string]any{
			"glass_type": pm.GlassType, "thickness": pm.Thickness.String(), "stock_rows_deleted": tag.RowsAffected(),
		},
	}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func lockPriceMasterTx(ctx context.Context, tx pgx.Tx, shopID, id int) (*PriceMaster, error) {
	pm, err := scanPriceMaster(tx.QueryRow(ctx, `
		SELECT `+priceMasterColumns+`
		FROM glass_price_master
		WHERE id = $1 AND shop_id = $2
		FOR UPDATE`,
		id, shopID,
	))
	if err != nil {
		return nil, wrapDBError(err, fmt.Sprintf("price master entry %d", id))
	}
	return pm, nil
}

func setPricesTx(ctx context.Context, tx pgx.Tx, id int, purchase, selling *decimal.Decimal) (*PriceMaster, error) {
	pm, err := scanPriceMaster(tx.QueryRow(ctx, `
		UPDATE glass_price_master
		SET purchase_price = $2, selling_price = $3, is_pending = false, updated_at = NOW()
		WHERE id = $1
		RETURNING `+priceMasterColumns,
		id, purchase, selling,
	))
	if err != nil {
		return nil, wrapDBError(err, fmt.Sprintf("price master entry %d", id))
	}
	return pm, nil
}

// cascadePricesTx copies the entry's prices onto every stock row of the same shop and glass.
func cascadePricesTx(ctx context.Context, tx pgx.Tx, pm *PriceMaster) (int64, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE stock s
		SET purchase_price = $4, selling_price = $5, status = $6, updated_at = NOW()
		FROM glass g
		WHERE g.id = s.glass_id
		  AND s.shop_id = $1 AND g.glass_type = $2 AND g.thickness = $3`,
		pm.ShopID, pm.GlassType, pm.Thickness, pm.PurchasePrice, pm.SellingPrice, string(StockStatusFor(pm)),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to cascade prices to stock: %w", err)
	}
	return tag.RowsAffected(), nil
}

func priceDetails(pm *PriceMaster, cascaded int64) map[string]any {
	d := map[string]any{
		"glass_type":    pm.GlassType,
		"thickness":     pm.Thickness.String(),
		"stock_updated": cascaded,
	}
	if pm.PurchasePrice != nil {
		d["purchase_price"] = pm.PurchasePrice.String()
	}
	if pm.SellingPrice != nil {
		d["selling_price"] = pm.SellingPrice.String()
	}
	return d
}
