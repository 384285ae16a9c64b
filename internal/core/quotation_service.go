package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type quotationService struct {
	pool       *pgxpool.Pool
	docService DocumentService
	audit      AuditService
}

func NewQuotationService(pool *pgxpool.Pool, docService DocumentService, audit AuditService) QuotationService {
	return &quotationService{pool: pool, docService: docService, audit: audit}
}

const quotationSelect = `
	SELECT q.id, q.shop_id, q.quotation_number, q.customer_id, q.customer_name, q.customer_mobile,
	       q.customer_address, q.customer_gstin, q.customer_state, q.billing_type, q.quotation_date, q.valid_until,
	       q.subtotal, q.installation_charge, q.transport_charge, q.discount, q.gst_percentage,
	       q.cgst, q.sgst, q.igst, q.gst_amount, q.grand_total, q.status, q.confirmed_at, q.confirmed_by,
	       q.rejection_reason, q.notes, q.created_by, q.created_at,
	       EXISTS (SELECT 1 FROM invoices i WHERE i.quotation_id = q.id) AS invoiced
	FROM quotations q`

func scanQuotation(row pgx.Row) (*Quotation, error) {
	q := &Quotation{}
	err := row.Scan(&q.ID, &q.ShopID, &q.QuotationNumber, &q.CustomerID, &q.Name, &q.Mobile,
		&q.Address, &q.GSTIN, &q.State, &q.BillingType, &q.QuotationDate, &q.ValidUntil,
		&q.Subtotal, &q.InstallationCharge, &q.TransportCharge, &q.Discount, &q.GSTPercentage,
		&q.CGST, &q.SGST, &q.IGST, &q.GSTAmount, &q.GrandTotal, &q.Status, &q.ConfirmedAt, &q.ConfirmedBy,
		&q.RejectionReason, &q.Notes, &q.CreatedBy, &q.CreatedAt, &q.Invoiced)
	return q, err
}

// Item tables share one shape; the parent column differs.
type itemTable struct {
	name   string
	parent string
}

var (
	quotationItems = itemTable{name: "quotation_items", parent: "quotation_id"}
	invoiceItems   = itemTable{name: "invoice_items", parent: "invoice_id"}
)

const itemColumns = `item_order, glass_type, thickness, description, height, width, size_unit, quantity,
	area, rate_per_sqft, subtotal, hsn_code, polish_type, polish_top, polish_bottom, polish_left, polish_right, polish_notes`

func insertItemsTx(ctx context.Context, tx pgx.Tx, t itemTable, parentID int, items []LineItem) error {
	sql := `INSERT INTO ` + t.name + ` (` + t.parent + `, ` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	for _, it := range items {
		var (
			polishType  *string
			polishNotes string
			p           PolishSpec
		)
		if it.Polish != nil {
			p = *it.Polish
			pt := p.Type
			polishType = &pt
			polishNotes = p.Notes
		}
		if _, err := tx.Exec(ctx, sql, parentID,
			it.ItemOrder, it.GlassType, it.Thickness, it.Description, it.Height, it.Width, it.SizeUnit, it.Quantity,
			it.Area, it.RatePerSqft, it.Subtotal, it.HSNCode, polishType, p.Top, p.Bottom, p.Left, p.Right, polishNotes,
		); err != nil {
			return fmt.Errorf("failed to insert %s row %d: %w", t.name, it.ItemOrder, err)
		}
	}
	return nil
}

func loadItems(ctx context.Context, q querier, t itemTable, parentID int) ([]LineItem, error) {
	rows, err := q.Query(ctx, `SELECT id, `+itemColumns+` FROM `+t.name+` WHERE `+t.parent+` = $1 ORDER BY item_order`, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", t.name, err)
	}
	defer rows.Close()

	items := []LineItem{}
	for rows.Next() {
		var (
			it         LineItem
			polishType *string
			p          PolishSpec
		)
		if err := rows.Scan(&it.ID, &it.ItemOrder, &it.GlassType, &it.Thickness, &it.Description, &it.Height, &it.Width,
			&it.SizeUnit, &it.Quantity, &it.Area, &it.RatePerSqft, &it.Subtotal, &it.HSNCode,
			&polishType, &p.Top, &p.Bottom, &p.Left, &p.Right, &p.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", t.name, err)
		}
		if polishType != nil {
			p.Type = *polishType
			it.Polish = &p
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func shopStateTx(ctx context.Context, q querier, shopID int) (string, error) {
	var state string
	if err := q.QueryRow(ctx, "SELECT state FROM shops WHERE id = $1", shopID).Scan(&state); err != nil {
		return "", wrapDBError(err, fmt.Sprintf("shop id=%d", shopID))
	}
	return state, nil
}

// CreateQuotation prices the items, freezes the customer's billing identity and numbers the document.
func (s *quotationService) CreateQuotation(ctx context.Context, in CreateQuotationInput) (*Quotation, error) {
	items, err := NormalizeItems(in.Items)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var snap CustomerSnapshot
	if in.CustomerID != nil {
		c, err := getCustomer(ctx, tx, in.ShopID, *in.CustomerID)
		if err != nil {
			return nil, err
		}
		snap = CustomerSnapshot{CustomerID: &c.ID, Name: c.Name, Mobile: c.Mobile, Address: c.Address, GSTIN: c.GSTIN, State: c.State}
	} else {
		if strings.TrimSpace(in.Customer.Name) == "" {
			return nil, fmt.Errorf("customer id or customer name is required: %w", ErrInvalidInput)
		}
		c := in.Customer
		snap = CustomerSnapshot{Name: strings.TrimSpace(c.Name), Mobile: c.Mobile, Address: c.Address, GSTIN: c.GSTIN, State: c.State}
	}

	shopState, err := shopStateTx(ctx, tx, in.ShopID)
	if err != nil {
		return nil, err
	}
	charges, err := ComputeTotals(TotalsInput{
		BillingType:        in.BillingType,
		Items:              items,
		InstallationCharge: in.InstallationCharge,
		TransportCharge:    in.TransportCharge,
		Discount:           in.Discount,
		GSTPercentage:      in.GSTPercentage,
		ShopState:          shopState,
		CustomerState:      snap.State,
	})
	if err != nil {
		return nil, err
	}

	date := time.Now()
	if in.QuotationDate != nil {
		date = *in.QuotationDate
	}
	if in.ValidUntil != nil && in.ValidUntil.Before(date) {
		return nil, fmt.Errorf("valid until precedes quotation date: %w", ErrInvalidInput)
	}
	number, err := s.docService.NextNumberTx(ctx, tx, in.ShopID, DocQuotation, date)
	if err != nil {
		return nil, err
	}

	var id int
	err = tx.QueryRow(ctx, `
		INSERT INTO quotations (
			shop_id, quotation_number, customer_id, customer_name, customer_mobile, customer_address,
			customer_gstin, customer_state, billing_type, quotation_date, valid_until,
			subtotal, installation_charge, transport_charge, discount, gst_percentage,
			cgst, sgst, igst, gst_amount, grand_total, status, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, 'DRAFT', $22, $23)
		RETURNING id`,
		in.ShopID, number, snap.CustomerID, snap.Name, snap.Mobile, snap.Address,
		snap.GSTIN, snap.State, string(charges.BillingType), date, in.ValidUntil,
		charges.Subtotal, charges.InstallationCharge, charges.TransportCharge, charges.Discount, charges.GSTPercentage,
		charges.CGST, charges.SGST, charges.IGST, charges.GSTAmount, charges.GrandTotal, in.Notes, in.CreatedBy,
	).Scan(&id)
	if err != nil {
		return nil, wrapDBError(err, "quotation")
	}
	if err := insertItemsTx(ctx, tx, quotationItems, id, items); err != nil {
		return nil, err
	}
	if err := s.audit.RecordTx(ctx, tx, AuditEntry{
		ShopID: in.ShopID, Username: in.CreatedBy, Action: "CREATE_QUOTATION", EntityType: "QUOTATION", EntityID: &id,
		Details: map[string]any{"number": number, "grand_total": charges.GrandTotal.String(), "items": len(items)},
	}); err != nil {
		return nil, err
	}

	q, err := getQuotation(ctx, tx, in.ShopID, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return q, nil
}

func getQuotation(ctx context.Context, q querier, shopID, id int) (*Quotation, error) {
	quote, err := scanQuotation(q.QueryRow(ctx, quotationSelect+` WHERE q.id = $1 AND q.shop_id = $2`, id, shopID))
	if err != nil {
		return nil, wrapDBError(err, fmt.Sprintf("quotation id=%d", id))
	}
	if quote.Items, err = loadItems(ctx, q, quotationItems, id); err != nil {
		return nil, err
	}
	return quote, nil
}

func (s *quotationService) GetQuotation(ctx context.Context, shopID, id int) (*Quotation, error) {
	return getQuotation(ctx, s.pool, shopID, id)
}

// ListQuotations returns headers only; items are loaded by GetQuotation.
func (s *quotationService) ListQuotations(ctx context.Context, shopID int, status QuotationStatus) ([]Quotation, error) {
	rows, err := s.pool.Query(ctx, quotationSelect+`
		WHERE q.shop_id = $1 AND ($2 = '' OR q.status = $2)
		ORDER BY q.created_at DESC, q.id DESC`,
		shopID, string(status),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query quotations: %w", err)
	}
	defer rows.Close()

	out := []Quotation{}
	for rows.Next() {
		q, err := scanQuotation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quotation: %w", err)
		}
		out = append(out, *q)
	}
	return out, rows.Err()
}

// lockQuotationTx locks the header row and reports whether an invoice already exists for it.
func lockQuotationTx(ctx context.Context, tx pgx.Tx, shopID, id int) (QuotationStatus, bool, error) {
	var (
		status   QuotationStatus
		invoiced bool
	)
	err := tx.QueryRow(ctx, `
		SELECT status, EXISTS (SELECT 1 FROM invoices i WHERE i.quotation_id = q.id)
		FROM quotations q
		WHERE q.id = $1 AND q.shop_id = $2
		FOR UPDATE OF q`,
		id, shopID,
	).Scan(&status, &invoiced)
	if err != nil {
		return "", false, wrapDBError(err, fmt.Sprintf("quotation id=%d", id))
	}
	return status, invoiced, nil
}

func (s *quotationService) ConfirmQuotation(ctx context.Context, shopID, id int, by string) (*Quotation, error) {
	return s.transition(ctx, shopID, id, by, QuotationConfirmed, "")
}

func (s *quotationService) RejectQuotation(ctx context.Context, shopID, id int, reason, by string) (*Quotation, error) {
	return s.transition(ctx, shopID, id, by, QuotationRejected, reason)
}

// transition moves a quotation to CONFIRMED or REJECTED. Repeated calls may flip it back and
// forth until an invoice has been created from it.
func (s *quotationService) transition(ctx context.Context, shopID, id int, by string, to QuotationStatus, reason string) (*Quotation, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, invoiced, err := lockQuotationTx(ctx, tx, shopID, id)
	if err != nil {
		return nil, err
	}
	if invoiced {
		return nil, fmt.Errorf("quotation %d has been invoiced: %w", id, ErrInvalidState)
	}

	if to == QuotationConfirmed {
		_, err = tx.Exec(ctx, `
			UPDATE quotations
			SET status = 'CONFIRMED', confirmed_at = NOW(), confirmed_by = $2, rejection_reason = NULL
			WHERE id = $1`, id, by)
	} else {
		_, err = tx.Exec(ctx, `
			UPDATE quotations
			SET status = 'REJECTED', rejection_reason = $2, confirmed_at = NULL, confirmed_by = NULL
			WHERE id = $1`, id, strings.TrimSpace(reason))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update quotation status: %w", err)
	}

	details := map[string]any{}
	if reason != "" {
		details["reason"] = reason
	}
	if err := s.audit.RecordTx(ctx, tx, AuditEntry{
		ShopID: shopID, Username: by, Action: string(to), EntityType: "QUOTATION", EntityID: &id, Details: details,
	}); err != nil {
		return nil, err
	}

	q, err := getQuotation(ctx, tx, shopID, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return q, nil
}

func (s *quotationService) DeleteQuotation(ctx context.Context, shopID, id int, by string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	status, _, err := lockQuotationTx(ctx, tx, shopID, id)
	if err != nil {
		return err
	}
	if status != QuotationDraft {
		return fmt.Errorf("only DRAFT quotations can be deleted, quotation %d is %s: %w", id, status, ErrInvalidState)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM quotations WHERE id = $1`, id); err != nil {
		return wrapDBError(err, fmt.Sprintf("quotation id=%d", id))
	}
	if err := s.audit.RecordTx(ctx, tx, AuditEntry{
		ShopID: shopID, Username: by, Action: "DELETE_QUOTATION", EntityType: "QUOTATION", EntityID: &id,
	}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
