package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ── Report types ──────────────────────────────────────────────────────────────

// InvoiceTotals aggregates every invoice of a shop.
type InvoiceTotals struct {
	Count      int             `json:"count"`
	GrandTotal decimal.Decimal `json:"grand_total"`
	Paid       decimal.Decimal `json:"paid"`
	Due        decimal.Decimal `json:"due"`
}

// CollectionLine is the amount received through one payment mode.
type CollectionLine struct {
	Mode   PaymentMode     `json:"mode"`
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// Dashboard is the admin overview of one shop.
type Dashboard struct {
	Quotations          map[QuotationStatus]int `json:"quotations"`
	Invoices            InvoiceTotals           `json:"invoices"`
	InvoicesByStatus    map[PaymentStatus]int   `json:"invoices_by_status"`
	StockQuantity       map[StockStatus]int     `json:"stock_quantity"`
	PendingPriceEntries int                     `json:"pending_price_entries"`
	Collections         []CollectionLine        `json:"collections"`
}

// ── Interface ─────────────────────────────────────────────────────────────────

// ReportingService provides read-only aggregate queries.
type ReportingService interface {
	GetDashboard(ctx context.Context, shopID int) (*Dashboard, error)
}

type reportingService struct {
	pool *pgxpool.Pool
}

func NewReportingService(pool *pgxpool.Pool) ReportingService {
	return &reportingService{pool: pool}
}

func (s *reportingService) GetDashboard(ctx context.Context, shopID int) (*Dashboard, error) {
	d := &Dashboard{
		Quotations: map[QuotationStatus]int{
			QuotationDraft: 0, QuotationConfirmed: 0, QuotationRejected: 0,
		},
		InvoicesByStatus: map[PaymentStatus]int{
			PaymentDue: 0, PaymentPartial: 0, PaymentPaid: 0,
		},
		StockQuantity: map[StockStatus]int{
			StockApproved: 0, StockPending: 0,
		},
		Collections: []CollectionLine{},
	}

	if err := s.countInto(ctx, `
		SELECT status, COUNT(*) FROM quotations WHERE shop_id = $1 GROUP BY status`,
		shopID, func(k string, n int) { d.Quotations[QuotationStatus(k)] = n },
	); err != nil {
		return nil, fmt.Errorf("failed to count quotations: %w", err)
	}
	if err := s.countInto(ctx, `
		SELECT payment_status, COUNT(*) FROM invoices WHERE shop_id = $1 GROUP BY payment_status`,
		shopID, func(k string, n int) { d.InvoicesByStatus[PaymentStatus(k)] = n },
	); err != nil {
		return nil, fmt.Errorf("failed to count invoices: %w", err)
	}
	if err := s.countInto(ctx, `
		SELECT status, COALESCE(SUM(quantity), 0)::int FROM stock WHERE shop_id = $1 GROUP BY status`,
		shopID, func(k string, n int) { d.StockQuantity[StockStatus(k)] = n },
	); err != nil {
		return nil, fmt.Errorf("failed to sum stock: %w", err)
	}

	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(grand_total), 0), COALESCE(SUM(paid_amount), 0), COALESCE(SUM(due_amount), 0)
		FROM invoices
		WHERE shop_id = $1`, shopID,
	).Scan(&d.Invoices.Count, &d.Invoices.GrandTotal, &d.Invoices.Paid, &d.Invoices.Due)
	if err != nil {
		return nil, fmt.Errorf("failed to total invoices: %w", err)
	}

	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM glass_price_master WHERE shop_id = $1 AND is_pending`, shopID,
	).Scan(&d.PendingPriceEntries); err != nil {
		return nil, fmt.Errorf("failed to count pending prices: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT payment_mode, COUNT(*), SUM(amount)
		FROM payments
		WHERE shop_id = $1
		GROUP BY payment_mode
		ORDER BY payment_mode`, shopID)
	if err != nil {
		return nil, fmt.Errorf("failed to query collections: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c CollectionLine
		if err := rows.Scan(&c.Mode, &c.Count, &c.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan collection line: %w", err)
		}
		d.Collections = append(d.Collections, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read collections: %w", err)
	}
	return d, nil
}

func (s *reportingService) countInto(ctx context.Context, sql string, shopID int, set func(string, int)) error {
	rows, err := s.pool.Query(ctx, sql, shopID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			k string
			n int
		)
		if err := rows.Scan(&k, &n); err != nil {
			return err
		}
		set(k, n)
	}
	return rows.Err()
}
