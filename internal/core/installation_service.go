package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type InstallationStatus string

const (
	InstallationScheduled InstallationStatus = "SCHEDULED"
	InstallationCompleted InstallationStatus = "COMPLETED"
	InstallationCancelled InstallationStatus = "CANCELLED"
)

// Installation is a fitting appointment for an invoiced job.
type Installation struct {
	ID            int                `json:"id"`
	ShopID        int                `json:"shop_id"`
	InvoiceID     int                `json:"invoice_id"`
	InvoiceNumber string             `json:"invoice_number"`
	SiteID        *int               `json:"site_id,omitempty"`
	ScheduledDate time.Time          `json:"scheduled_date"`
	Status        InstallationStatus `json:"status"`
	Notes         string             `json:"notes"`
	CompletedAt   *time.Time         `json:"completed_at,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

type InstallationInput struct {
	InvoiceID     int
	SiteID        *int
	ScheduledDate time.Time
	Notes         string
	ScheduledBy   string
}

type InstallationService interface {
	ScheduleInstallation(ctx context.Context, shopID int, in InstallationInput) (*Installation, error)
	ListInstallations(ctx context.Context, shopID int, status InstallationStatus) ([]Installation, error)
	// UpdateInstallationStatus moves a SCHEDULED installation to COMPLETED or CANCELLED.
	UpdateInstallationStatus(ctx context.Context, shopID, id int, to InstallationStatus, by string) (*Installation, error)
}

type installationService struct {
	pool  *pgxpool.Pool
	audit AuditService
}

func NewInstallationService(pool *pgxpool.Pool, audit AuditService) InstallationService {
	return &installationService{pool: pool, audit: audit}
}

const installationSelect = `
	SELECT n.id, n.shop_id, n.invoice_id, i.invoice_number, n.site_id, n.scheduled_date,
	       n.status, n.notes, n.completed_at, n.created_at
	FROM installations n
	JOIN invoices i ON i.id = n.invoice_id`

func scanInstallation(row pgx.Row) (*Installation, error) {
	n := &Installation{}
	err := row.Scan(&n.ID, &n.ShopID, &n.InvoiceID, &n.InvoiceNumber, &n.SiteID, &n.ScheduledDate,
		&n.Status, &n.Notes, &n.CompletedAt, &n.CreatedAt)
	return n, err
}

func (s *installationService) ScheduleInstallation(ctx context.Context, shopID int, in InstallationInput) (*Installation, error) {
	if in.ScheduledDate.IsZero() {
		return nil, fmt.Errorf("scheduled date is required: %w", ErrInvalidInput)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM invoices WHERE id = $1 AND shop_id = $2)", in.InvoiceID, shopID,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to resolve invoice: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("invoice id=%d: %w", in.InvoiceID, ErrNotFound)
	}
	if in.SiteID != nil {
		if _, err := getSite(ctx, tx, shopID, *in.SiteID); err != nil {
			return nil, err
		}
	}

	var id int
	if err := tx.QueryRow(ctx, `
		INSERT INTO installations (shop_id, invoice_id, site_id, scheduled_date, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		shopID, in.InvoiceID, in.SiteID, in.ScheduledDate, in.Notes,
	).Scan(&id); err != nil {
		return nil, wrapDBError(err, "installation")
	}
	if err := s.audit.RecordTx(ctx, tx, AuditEntry{
		ShopID: shopID, Username: in.ScheduledBy, Action: "SCHEDULE_INSTALLATION", EntityType: "INSTALLATION", EntityID: &id,
		Details: map[string]any{"invoice_id": in.InvoiceID, "scheduled_date": in.ScheduledDate.Format("2006-01-02")},
	}); err != nil {
		return nil, err
	}

	n, err := scanInstallation(tx.QueryRow(ctx, installationSelect+` WHERE n.id = $1`, id))
	if err != nil {
		return nil, wrapDBError(err, "installation")
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return n, nil
}

func (s *installationService) ListInstallations(ctx context.Context, shopID int, status InstallationStatus) ([]Installation, error) {
	rows, err := s.pool.Query(ctx, installationSelect+`
		WHERE n.shop_id = $1 AND ($2 = '' OR n.status = $2)
		ORDER BY n.scheduled_date, n.id`,
		shopID, string(status),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query installations: %w", err)
	}
	defer rows.Close()

	out := []Installation{}
	for rows.Next() {
		n, err := scanInstallation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan installation: %w", err)
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

func (s *installationService) UpdateInstallationStatus(ctx context.Context, shopID, id int, to InstallationStatus, by string) (*Installation, error) {
	if to != InstallationCompleted && to != InstallationCancelled {
		return nil, fmt.Errorf("status %q must be COMPLETED or CANCELLED: %w", to, ErrInvalidInput)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var current InstallationStatus
	if err := tx.QueryRow(ctx,
		"SELECT status FROM installations WHERE id = $1 AND shop_id = $2 FOR UPDATE", id, shopID,
	).Scan(&current); err != nil {
		return nil, wrapDBError(err, fmt.Sprintf("installation id=%d", id))
	}
	if current != InstallationScheduled {
		return nil, fmt.Errorf("installation %d is already %s: %w", id, current, ErrInvalidState)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE installations
		SET status = $2, completed_at = CASE WHEN $2 = 'COMPLETED' THEN NOW() ELSE NULL END
		WHERE id = $1`, id, string(to),
	); err != nil {
		return nil, fmt.Errorf("failed to update installation: %w", err)
	}
	if err := s.audit.RecordTx(ctx, tx, AuditEntry{
		ShopID: shopID, Username: by, Action: string(to), EntityType: "INSTALLATION", EntityID: &id,
	}); err != nil {
		return nil, err
	}

	n, err := scanInstallation(tx.QueryRow(ctx, installationSelect+` WHERE n.id = $1`, id))
	if err != nil {
		return nil, wrapDBError(err, "installation")
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return n, nil
}
