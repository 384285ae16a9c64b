package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Document type codes used as number prefixes.
const (
	DocQuotation = "QT"
	DocInvoice   = "INV"
)

type DocumentService interface {
	// NextNumber allocates a number in its own transaction. Use for standalone calls.
	NextNumber(ctx context.Context, shopID int, typeCode string, at time.Time) (string, error)
	// NextNumberTx allocates a number inside the caller's transaction so that a rollback
	// of the document insert also releases the number.
	NextNumberTx(ctx context.Context, tx pgx.Tx, shopID int, typeCode string, at time.Time) (string, error)
}

type documentService struct {
	pool *pgxpool.Pool
}

func NewDocumentService(pool *pgxpool.Pool) DocumentService {
	return &documentService{pool: pool}
}

func (s *documentService) NextNumber(ctx context.Context, shopID int, typeCode string, at time.Time) (string, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	num, err := s.NextNumberTx(ctx, tx, shopID, typeCode, at)
	if err != nil {
		return "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}
	return num, nil
}

func (s *documentService) NextNumberTx(ctx context.Context, tx pgx.Tx, shopID int, typeCode string, at time.Time) (string, error) {
	if typeCode != DocQuotation && typeCode != DocInvoice {
		return "", fmt.Errorf("unknown document type %q: %w", typeCode, ErrInvalidInput)
	}
	year := at.Year()

	// Concurrency-safe gapless sequence per (shop, type, year)
	var lastNumber int64
	err := tx.QueryRow(ctx, `
		INSERT INTO document_sequences (shop_id, type_code, year, last_number)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (shop_id, type_code, year)
		DO UPDATE SET last_number = document_sequences.last_number + 1
		RETURNING last_number
	`, shopID, typeCode, year).Scan(&lastNumber)
	if err != nil {
		return "", fmt.Errorf("failed to generate gapless sequence number: %w", err)
	}

	return FormatDocumentNumber(typeCode, year, lastNumber), nil
}

// FormatDocumentNumber renders e.g. QT-2024-00017.
func FormatDocumentNumber(typeCode string, year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%05d", typeCode, year, seq)
}
