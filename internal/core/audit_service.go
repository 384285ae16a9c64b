package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditLog is an append-only record of a business mutation.
type AuditLog struct {
	ID         int64          `json:"id"`
	ShopID     int            `json:"shop_id"`
	Username   string         `json:"username"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   *int           `json:"entity_id,omitempty"`
	Details    map[string]any `json:"details"`
	CreatedAt  time.Time      `json:"created_at"`
}

type AuditEntry struct {
	ShopID     int
	Username   string
	Action     string
	EntityType string
	EntityID   *int
	Details    map[string]any
}

type AuditFilter struct {
	EntityType string
	Limit      int
}

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

type AuditService interface {
	// RecordTx appends an entry inside the caller's transaction.
	RecordTx(ctx context.Context, tx pgx.Tx, e AuditEntry) error
	ListAuditLogs(ctx context.Context, shopID int, filter AuditFilter) ([]AuditLog, error)
}

type auditService struct {
	pool *pgxpool.Pool
}

func NewAuditService(pool *pgxpool.Pool) AuditService {
	return &auditService{pool: pool}
}

func (s *auditService) RecordTx(ctx context.Context, tx pgx.Tx, e AuditEntry) error {
	details := e.Details
	if details == nil {
		details = map[string]any{}
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO audit_logs (shop_id, username, action, entity_type, entity_id, details)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ShopID, e.Username, e.Action, e.EntityType, e.EntityID, details,
	)
	if err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func (s *auditService) ListAuditLogs(ctx context.Context, shopID int, filter AuditFilter) ([]AuditLog, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, shop_id, username, action, entity_type, entity_id, details, created_at
		FROM audit_logs
		WHERE shop_id = $1 AND ($2 = '' OR entity_type = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3`,
		shopID, filter.EntityType, clampLimit(filter.Limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	logs := []AuditLog{}
	for rows.Next() {
		var l AuditLog
		if err := rows.Scan(&l.ID, &l.ShopID, &l.Username, &l.Action, &l.EntityType, &l.EntityID, &l.Details, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

func intPtr(v int) *int { return &v }
