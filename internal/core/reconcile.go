package core

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseThickness accepts "5", "5.5" or "5mm" and returns a positive value rounded to two places.
func ParseThickness(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(strings.ToLower(raw))
	s = strings.TrimSpace(strings.TrimSuffix(s, "mm"))
	if s == "" {
		return decimal.Zero, fmt.Errorf("thickness is required: %w", ErrInvalidInput)
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("thickness %q is not a number: %w", raw, ErrInvalidInput)
	}
	v = v.Round(2)
	if !v.IsPositive() {
		return decimal.Zero, fmt.Errorf("thickness %q must be positive: %w", raw, ErrInvalidInput)
	}
	return v, nil
}

// StockStatusFor derives the status a stock row must carry from its price-master entry.
func StockStatusFor(pm *PriceMaster) StockStatus {
	if pm != nil && !pm.IsPending && (pm.PurchasePrice != nil || pm.SellingPrice != nil) {
		return StockApproved
	}
	return StockPending
}

// MaxStockQuantity is the largest quantity a stock row can hold (INTEGER column).
const MaxStockQuantity = math.MaxInt32

// ApplyStockDelta returns the new quantity. REMOVE is clamped at zero.
func ApplyStockDelta(current, qty int, action StockAction) (int, error) {
	if err := validateQuantity(qty); err != nil {
		return current, err
	}
	switch action {
	case StockAdd:
		total, err := addQuantity(current, qty)
		if err != nil {
			return current, err
		}
		return total, nil
	case StockRemove:
		if qty >= current {
			return 0, nil
		}
		return current - qty, nil
	}
	return current, fmt.Errorf("action %q must be ADD or REMOVE: %w", action, ErrInvalidInput)
}

func validateQuantity(qty int) error {
	if qty <= 0 {
		return fmt.Errorf("quantity must be positive: %w", ErrInvalidInput)
	}
	if qty > MaxStockQuantity {
		return fmt.Errorf("quantity %d exceeds the maximum of %d: %w", qty, MaxStockQuantity, ErrInvalidInput)
	}
	return nil
}

// addQuantity returns current+qty, refusing totals a stock row cannot store.
func addQuantity(current, qty int) (int, error) {
	if qty > MaxStockQuantity-current {
		return current, fmt.Errorf("stock of %d plus %d exceeds the maximum of %d: %w", current, qty, MaxStockQuantity, ErrInvalidInput)
	}
	return current + qty, nil
}

func validateStand(field string, standNo int) error {
	if standNo <= 0 {
		return fmt.Errorf("%s must be a positive stand number, got %d: %w", field, standNo, ErrInvalidInput)
	}
	return nil
}

func normalizeUnit(unit string) string {
	u := strings.ToUpper(strings.TrimSpace(unit))
	if u == "" {
		return DefaultGlassUnit
	}
	return u
}

func validateDims(height, width decimal.Decimal) error {
	if height.IsNegative() || width.IsNegative() {
		return fmt.Errorf("height and width cannot be negative: %w", ErrInvalidInput)
	}
	return nil
}

func validatePrices(purchase, selling *decimal.Decimal) error {
	if purchase == nil && selling == nil {
		return fmt.Errorf("at least one of purchase or selling price is required: %w", ErrInvalidInput)
	}
	for _, p := range []*decimal.Decimal{purchase, selling} {
		if p != nil && p.IsNegative() {
			return fmt.Errorf("prices cannot be negative: %w", ErrInvalidInput)
		}
	}
	return nil
}
