package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"glass-shop/internal/app"
	"glass-shop/internal/core"

	"github.com/shopspring/decimal"
)

type stubService struct {
	app.ApplicationService
	role string
}

func (s *stubService) ResolveSession(_ context.Context, username string) (*app.Session, error) {
	if username != "owner" {
		return nil, core.ErrUnauthorized
	}
	return &app.Session{UserID: 1, Username: username, Role: s.role, ShopID: 1}, nil
}

func (s *stubService) ListStock(_ context.Context, _ app.Session, f core.StockFilter) ([]core.Stock, error) {
	return []core.Stock{
		{StandNo: 1, GlassType: "Clear", Thickness: decimal.NewFromInt(5), Unit: "MM", Height: decimal.NewFromInt(600), Width: decimal.NewFromInt(900), Quantity: 4, Status: core.StockApproved},
		{StandNo: 2, GlassType: "Clear", Thickness: decimal.NewFromInt(5), Unit: "MM", Height: decimal.NewFromInt(600), Width: decimal.NewFromInt(900), Quantity: 3, Status: core.StockApproved},
	}, nil
}

func (s *stubService) InvoiceDocument(_ context.Context, _ app.Session, id int, kind app.DocumentKind) (*app.Document, error) {
	return &app.Document{Filename: "x.pdf", ContentType: "application/pdf", Content: []byte("%PDF-1.3")}, nil
}

func (s *stubService) GetDashboard(context.Context, app.Session) (*core.Dashboard, error) {
	return &core.Dashboard{Quotations: map[core.QuotationStatus]int{core.QuotationDraft: 2}}, nil
}

func TestRunStock(t *testing.T) {
	var out bytes.Buffer
	if err := Run(context.Background(), &stubService{role: "STAFF"}, "owner", []string{"stock"}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "2 rows, 7 pieces") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestRunPDF(t *testing.T) {
	file := filepath.Join(t.TempDir(), "challan.pdf")
	var out bytes.Buffer
	if err := Run(context.Background(), &stubService{role: "STAFF"}, "owner", []string{"pdf", "challan", "3", file}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Error("file is not a pdf")
	}
}

func TestRunDashboardNeedsAdmin(t *testing.T) {
	var out bytes.Buffer
	err := Run(context.Background(), &stubService{role: "STAFF"}, "owner", []string{"dashboard"}, &out)
	if !errors.Is(err, core.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := Run(context.Background(), &stubService{role: "ADMIN"}, "owner", []string{"dashboard"}, &out); err != nil {
		t.Fatalf("admin: %v", err)
	}
}

func TestRunUsage(t *testing.T) {
	svc := &stubService{role: "ADMIN"}
	for _, args := range [][]string{nil, {"launch"}, {"pdf", "invoice"}, {"pdf", "invoice", "x", "f"}} {
		if err := Run(context.Background(), svc, "owner", args, &bytes.Buffer{}); !errors.Is(err, ErrUsage) {
			t.Errorf("%v: expected ErrUsage, got %v", args, err)
		}
	}
	if err := Run(context.Background(), svc, "ghost", []string{"stock"}, &bytes.Buffer{}); !errors.Is(err, core.ErrUnauthorized) {
		t.Errorf("unknown user: expected ErrUnauthorized, got %v", err)
	}
}
