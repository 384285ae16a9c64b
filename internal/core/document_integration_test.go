package core_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"glass-shop/internal/core"
)

func TestDocumentService_ConcurrentNumbering(t *testing.T) {
	pool, shops := setupTestDB(t)
	docService := core.NewDocumentService(pool)
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers = make(map[string]bool)
		errCh   = make(chan error, 10)
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			num, err := docService.NextNumber(ctx, shops.A, core.DocInvoice, at)
			if err != nil {
				errCh <- err
				return
			}
			mu.Lock()
			numbers[num] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		t.Errorf("concurrent numbering error: %v", err)
	}
	if len(numbers) != 10 {
		t.Fatalf("expected 10 unique numbers, got %d", len(numbers))
	}
	for i := int64(1); i <= 10; i++ {
		if want := core.FormatDocumentNumber(core.DocInvoice, 2024, i); !numbers[want] {
			t.Errorf("missing number %s, sequence has a gap", want)
		}
	}

	// Sequences are independent per shop.
	num, err := docService.NextNumber(ctx, shops.B, core.DocInvoice, at)
	if err != nil {
		t.Fatalf("NextNumber for shop B: %v", err)
	}
	if num != "INV-2024-00001" {
		t.Errorf("shop B first number = %s, want INV-2024-00001", num)
	}
}

func TestDocumentService_RejectsUnknownType(t *testing.T) {
	pool, shops := setupTestDB(t)
	docService := core.NewDocumentService(pool)
	if _, err := docService.NextNumber(context.Background(), shops.A, "JE", time.Now()); err == nil {
		t.Fatal("expected error for unknown document type")
	}
}
