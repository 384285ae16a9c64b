package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type invoiceService struct {
	pool       *pgxpool.Pool
	docService DocumentService
	audit      AuditService
}

func NewInvoiceService(pool *pgxpool.Pool, docService DocumentService, audit AuditService) InvoiceService {
	return &invoiceService{pool: pool, docService: docService, audit: audit}
}

const invoiceSelect = `
	SELECT id, shop_id, invoice_number, quotation_id, customer_id, customer_name, customer_mobile,
	       customer_address, customer_gstin, customer_state, billing_type, invoice_date,
	       subtotal, installation_charge, transport_charge, discount, gst_percentage,
	       cgst, sgst, igst, gst_amount, grand_total, paid_amount, due_amount, payment_status,
	       notes, created_by, created_at
	FROM invoices`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	inv := &Invoice{}
	err := row.Scan(&inv.ID, &inv.ShopID, &inv.InvoiceNumber, &inv.QuotationID, &inv.CustomerID, &inv.Name, &inv.Mobile,
		&inv.Address, &inv.GSTIN, &inv.State, &inv.BillingType, &inv.InvoiceDate,
		&inv.Subtotal, &inv.InstallationCharge, &inv.TransportCharge, &inv.Discount, &inv.GSTPercentage,
		&inv.CGST, &inv.SGST, &inv.IGST, &inv.GSTAmount, &inv.GrandTotal, &inv.PaidAmount, &inv.DueAmount, &inv.PaymentStatus,
		&inv.Notes, &inv.CreatedBy, &inv.CreatedAt)
	return inv, err
}

const paymentColumns = `id, shop_id, invoice_id, amount, payment_mode, reference_number, bank_name, notes, payment_date, received_by, created_at`

func scanPayment(row pgx.Row) (*Payment, error) {
	p := &Payment{}
	err := row.Scan(&p.ID, &p.ShopID, &p.InvoiceID, &p.Amount, &p.PaymentMode, &p.ReferenceNumber, &p.BankName,
		&p.Notes, &p.PaymentDate, &p.ReceivedBy, &p.CreatedAt)
	return p, err
}

// CreateInvoiceFromQuotation copies a CONFIRMED quotation's financials and items into a new invoice.
func (s *invoiceService) CreateInvoiceFromQuotation(ctx context.Context, shopID, quotationID int, by string) (*Invoice, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	status, invoiced, err := lockQuotationTx(ctx, tx, shopID, quotationID)
	if err != nil {
		return nil, err
	}
	if status != QuotationConfirmed {
		return nil, fmt.Errorf("quotation %d is %s, only CONFIRMED quotations can be invoiced: %w", quotationID, status, ErrInvalidState)
	}
	if invoiced {
		return nil, fmt.Errorf("quotation %d already has an invoice: %w", quotationID, ErrConflict)
	}

	q, err := getQuotation(ctx, tx, shopID, quotationID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	number, err := s.docService.NextNumberTx(ctx, tx, shopID, DocInvoice, now)
	if err != nil {
		return nil, err
	}

	var id int
	err = tx.QueryRow(ctx, `
		INSERT INTO invoices (
			shop_id, invoice_number, quotation_id, customer_id, customer_name, customer_mobile, customer_address,
			customer_gstin, customer_state, billing_type, invoice_date,
			subtotal, installation_charge, transport_charge, discount, gst_percentage,
			cgst, sgst, igst, gst_amount, grand_total, paid_amount, due_amount, payment_status, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, 0, $21, 'DUE', $22, $23)
		RETURNING id`,
		shopID, number, quotationID, q.CustomerID, q.Name, q.Mobile, q.Address,
		q.GSTIN, q.State, string(q.BillingType), now,
		q.Subtotal, q.InstallationCharge, q.TransportCharge, q.Discount, q.GSTPercentage,
		q.CGST, q.SGST, q.IGST, q.GSTAmount, q.GrandTotal, q.Notes, by,
	).Scan(&id)
	if err != nil {
		return nil, wrapDBError(err, fmt.Sprintf("invoice for quotation %d", quotationID))
	}
	if err := insertItemsTx(ctx, tx, invoiceItems, id, q.Items); err != nil {
		return nil, err
	}
	if err := s.audit.RecordTx(ctx, tx, AuditEntry{
		ShopID: shopID, Username: by, Action: "CREATE_INVOICE", EntityType: "INVOICE", EntityID: &id,
		Details: map[string]any{"number": number, "quotation_id": quotationID, "grand_total": q.GrandTotal.String()},
	}); err != nil {
		return nil, err
	}

	inv, err := getInvoice(ctx, tx, shopID, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return inv, nil
}

func getInvoice(ctx context.Context, q querier, shopID, id int) (*Invoice, error) {
	inv, err := scanInvoice(q.QueryRow(ctx, invoiceSelect+` WHERE id = $1 AND shop_id = $2`, id, shopID))
	if err != nil {
		return nil, wrapDBError(err, fmt.Sprintf("invoice id=%d", id))
	}
	if inv.Items, err = loadItems(ctx, q, invoiceItems, id); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, shopID, id int) (*Invoice, error) {
	return getInvoice(ctx, s.pool, shopID, id)
}

func (s *invoiceService) ListInvoices(ctx context.Context, shopID int, status PaymentStatus) ([]Invoice, error) {
	rows, err := s.pool.Query(ctx, invoiceSelect+`
		WHERE shop_id = $1 AND ($2 = '' OR payment_status = $2)
		ORDER BY created_at DESC, id DESC`,
		shopID, string(status),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer rows.Close()

	out := []Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}

// AddPayment records a payment and moves the invoice balance under a row lock.
func (s *invoiceService) AddPayment(ctx context.Context, in AddPaymentInput) (*Invoice, *Payment, error) {
	if !in.PaymentMode.Valid() {
		return nil, nil, fmt.Errorf("payment mode %q is not supported: %w", in.PaymentMode, ErrInvalidInput)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var state PaymentState
	err = tx.QueryRow(ctx, `
		SELECT grand_total, paid_amount, due_amount, payment_status
		FROM invoices
		WHERE id = $1 AND shop_id = $2
		FOR UPDATE`,
		in.InvoiceID, in.ShopID,
	).Scan(&state.GrandTotal, &state.Paid, &state.Due, &state.Status)
	if err != nil {
		return nil, nil, wrapDBError(err, fmt.Sprintf("invoice id=%d", in.InvoiceID))
	}

	next, err := ApplyPayment(state, in.Amount)
	if err != nil {
		return nil, nil, err
	}

	date := time.Now()
	if in.PaymentDate != nil {
		date = *in.PaymentDate
	}
	payment, err := scanPayment(tx.QueryRow(ctx, `
		INSERT INTO payments (shop_id, invoice_id, amount, payment_mode, reference_number, bank_name, notes, payment_date, received_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+paymentColumns,
		in.ShopID, in.InvoiceID, round2(in.Amount), string(in.PaymentMode), in.ReferenceNumber, in.BankName, in.Notes, date, in.ReceivedBy,
	))
	if err != nil {
		return nil, nil, wrapDBError(err, "payment")
	}

	if _, err := tx.Exec(ctx, `
		UPDATE invoices SET paid_amount = $2, due_amount = $3, payment_status = $4
		WHERE id = $1`,
		in.InvoiceID, next.Paid, next.Due, string(next.Status),
	); err != nil {
		return nil, nil, fmt.Errorf("failed to update invoice balance: %w", err)
	}
	if err := s.audit.RecordTx(ctx, tx, AuditEntry{
		ShopID: in.ShopID, Username: in.ReceivedBy, Action: "ADD_PAYMENT", EntityType: "INVOICE", EntityID: &in.InvoiceID,
		Details: map[string]any{
			"payment_id": payment.ID, "amount": payment.Amount.String(), "mode": string(payment.PaymentMode),
			"paid_amount": next.Paid.String(), "due_amount": next.Due.String(), "status": string(next.Status),
		},
	}); err != nil {
		return nil, nil, err
	}

	inv, err := getInvoice(ctx, tx, in.ShopID, in.InvoiceID)
	if err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return inv, payment, nil
}

func (s *invoiceService) ListPayments(ctx context.Context, shopID, invoiceID int) ([]Payment, error) {
	// Resolve first so a foreign invoice reads as not found rather than an empty list.
	var exists bool
	if err := s.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM invoices WHERE id = $1 AND shop_id = $2)", invoiceID, shopID,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to resolve invoice: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("invoice id=%d: %w", invoiceID, ErrNotFound)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE invoice_id = $1 AND shop_id = $2
		ORDER BY payment_date, id`,
		invoiceID, shopID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	out := []Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}
