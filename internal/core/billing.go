package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	hundred         = decimal.NewFromInt(100)
	two             = decimal.NewFromInt(2)
	sqInchesPerSqFt = decimal.NewFromInt(144)
	sqMMPerSqFt     = decimal.RequireFromString("92903.04")
)

func round2(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// TotalsInput is everything the financial engine needs to price a document.
type TotalsInput struct {
	BillingType        BillingType
	Items              []LineItem
	InstallationCharge decimal.Decimal
	TransportCharge    decimal.Decimal
	Discount           decimal.Decimal
	GSTPercentage      *decimal.Decimal
	ShopState          string
	CustomerState      string
}

// ComputeTotals sums item subtotals, applies charges and discount, then GST.
// Tax is IGST when both states are known and differ, otherwise an even CGST/SGST split.
func ComputeTotals(in TotalsInput) (Charges, error) {
	if in.BillingType != BillingGST && in.BillingType != BillingNonGST {
		return Charges{}, fmt.Errorf("billing type %q must be GST or NON_GST: %w", in.BillingType, ErrInvalidInput)
	}
	for name, v := range map[string]decimal.Decimal{
		"installation charge": in.InstallationCharge,
		"transport charge":    in.TransportCharge,
		"discount":            in.Discount,
	} {
		if v.IsNegative() {
			return Charges{}, fmt.Errorf("%s cannot be negative: %w", name, ErrInvalidInput)
		}
	}

	subtotal := decimal.Zero
	for _, item := range in.Items {
		subtotal = subtotal.Add(ItemSubtotal(item))
	}
	subtotal = round2(subtotal)

	base := round2(subtotal.Add(in.InstallationCharge).Add(in.TransportCharge).Sub(in.Discount))
	if base.IsNegative() {
		return Charges{}, fmt.Errorf("discount %s exceeds amount before discount: %w", in.Discount, ErrInvalidInput)
	}

	c := Charges{
		BillingType:        in.BillingType,
		Subtotal:           subtotal,
		InstallationCharge: round2(in.InstallationCharge),
		TransportCharge:    round2(in.TransportCharge),
		Discount:           round2(in.Discount),
		GrandTotal:         base,
	}
	if in.BillingType != BillingGST || in.GSTPercentage == nil {
		return c, nil
	}

	pct := *in.GSTPercentage
	if pct.IsNegative() || pct.GreaterThan(hundred) {
		return Charges{}, fmt.Errorf("gst percentage %s out of range: %w", pct, ErrInvalidInput)
	}
	gst := round2(base.Mul(pct).Div(hundred))
	c.GSTPercentage = &pct
	c.GSTAmount = gst
	if IsInterState(in.ShopState, in.CustomerState) {
		c.IGST = gst
	} else {
		c.CGST = round2(gst.Div(two))
		c.SGST = gst.Sub(c.CGST)
	}
	c.GrandTotal = base.Add(gst)
	return c, nil
}

// IsInterState reports whether a sale crosses state lines. Unknown states count as intra-state.
func IsInterState(shopState, customerState string) bool {
	a := strings.TrimSpace(shopState)
	b := strings.TrimSpace(customerState)
	if a == "" || b == "" {
		return false
	}
	return !strings.EqualFold(a, b)
}

// ItemArea returns the per-piece area in square feet.
// A provided area wins; otherwise it is derived from height and width in the item's size unit.
func ItemArea(item LineItem) decimal.Decimal {
	if item.Area.IsPositive() {
		return item.Area
	}
	raw := item.Height.Mul(item.Width)
	switch strings.ToUpper(item.SizeUnit) {
	case "INCH", "IN":
		raw = raw.Div(sqInchesPerSqFt)
	case "MM":
		raw = raw.Div(sqMMPerSqFt)
	}
	return raw.Round(3)
}

// ItemSubtotal uses the precomputed subtotal when present, else area x quantity x rate.
func ItemSubtotal(item LineItem) decimal.Decimal {
	if !item.Subtotal.IsZero() {
		return round2(item.Subtotal)
	}
	return round2(ItemArea(item).Mul(decimal.NewFromInt(int64(item.Quantity))).Mul(item.RatePerSqft))
}

// NormalizeItems validates lines and fills ItemOrder, Area and Subtotal.
func NormalizeItems(items []LineItem) ([]LineItem, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("at least one item is required: %w", ErrInvalidInput)
	}
	out := make([]LineItem, len(items))
	for i, item := range items {
		if strings.TrimSpace(item.GlassType) == "" {
			return nil, fmt.Errorf("item %d: glass type is required: %w", i+1, ErrInvalidInput)
		}
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("item %d: quantity must be positive: %w", i+1, ErrInvalidInput)
		}
		if item.Height.IsNegative() || item.Width.IsNegative() || item.RatePerSqft.IsNegative() || item.Subtotal.IsNegative() {
			return nil, fmt.Errorf("item %d: dimensions and amounts cannot be negative: %w", i+1, ErrInvalidInput)
		}
		if item.SizeUnit == "" {
			item.SizeUnit = "FEET"
		}
		item.ItemOrder = i + 1
		item.Area = ItemArea(item)
		item.Subtotal = ItemSubtotal(item)
		out[i] = item
	}
	return out, nil
}

// PaymentState is the running balance of an invoice.
type PaymentState struct {
	GrandTotal decimal.Decimal
	Paid       decimal.Decimal
	Due        decimal.Decimal
	Status     PaymentStatus
}

// NewPaymentState is the balance of a freshly created invoice.
func NewPaymentState(grand decimal.Decimal) PaymentState {
	return PaymentState{GrandTotal: grand, Paid: decimal.Zero, Due: grand, Status: PaymentDue}
}

// ApplyPayment returns the balance after receiving amount. Paid + Due always equals GrandTotal.
func ApplyPayment(s PaymentState, amount decimal.Decimal) (PaymentState, error) {
	amount = round2(amount)
	if !amount.IsPositive() {
		return s, fmt.Errorf("payment amount must be positive: %w", ErrInvalidInput)
	}
	if amount.GreaterThan(s.Due) {
		return s, fmt.Errorf("payment %s exceeds due amount %s: %w", amount, s.Due, ErrInvalidInput)
	}

	paid := decimal.Min(round2(s.Paid.Add(amount)), s.GrandTotal)
	next := PaymentState{
		GrandTotal: s.GrandTotal,
		Paid:       paid,
		Due:        round2(s.GrandTotal.Sub(paid)),
		Status:     s.Status,
	}
	switch {
	case !next.Due.IsPositive():
		next.Status = PaymentPaid
	case next.Paid.IsPositive():
		next.Status = PaymentPartial
	}
	return next, nil
}
