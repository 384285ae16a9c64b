package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"glass-shop/internal/app"
	"glass-shop/internal/auth"
	"glass-shop/internal/core"

	"go.uber.org/zap"
)

// stubService answers the calls the tests make; anything else panics through the
// embedded nil interface.
type stubService struct {
	app.ApplicationService
	lastStock core.StockUpdateInput
	lastSess  app.Session
}

func (s *stubService) ResolveSession(_ context.Context, username string) (*app.Session, error) {
	switch username {
	case "admin":
		return &app.Session{UserID: 1, Username: "admin", Role: auth.RoleAdmin, ShopID: 1}, nil
	case "staff":
		return &app.Session{UserID: 2, Username: "staff", Role: auth.RoleStaff, ShopID: 1}, nil
	}
	return nil, fmt.Errorf("user %q: %w", username, core.ErrUnauthorized)
}

func (s *stubService) GetShop(_ context.Context, sess app.Session) (*core.Shop, error) {
	return &core.Shop{ID: sess.ShopID, Name: "Sharma Glass House"}, nil
}

func (s *stubService) ListUsers(_ context.Context, sess app.Session) ([]core.User, error) {
	return []core.User{{ID: 1, ShopID: sess.ShopID, Username: "admin", Role: core.RoleAdmin}}, nil
}

func (s *stubService) GetInvoice(_ context.Context, _ app.Session, id int) (*core.Invoice, error) {
	return nil, fmt.Errorf("invoice id=%d: %w", id, core.ErrNotFound)
}

func (s *stubService) UpdateStock(_ context.Context, sess app.Session, in core.StockUpdateInput) (*core.Stock, error) {
	s.lastSess, s.lastStock = sess, in
	return &core.Stock{ID: 7, ShopID: sess.ShopID, GlassType: in.GlassType, StandNo: in.StandNo, Quantity: in.Quantity}, nil
}

func (s *stubService) TransferStock(context.Context, app.Session, core.StockTransferInput) (*core.StockTransferResult, error) {
	return nil, fmt.Errorf("only 1 pieces on stand 3: %w", core.ErrInsufficientStock)
}

func (s *stubService) InvoiceDocument(_ context.Context, _ app.Session, id int, kind app.DocumentKind) (*app.Document, error) {
	return &app.Document{
		Filename:    fmt.Sprintf("%s-INV-2026-%05d.pdf", kind, id),
		ContentType: "application/pdf",
		Content:     []byte("%PDF-1.3 test"),
	}, nil
}

func (s *stubService) GetDashboard(context.Context, app.Session) (*core.Dashboard, error) {
	panic("boom")
}

type testServer struct {
	handler http.Handler
	svc     *stubService
	tokens  *auth.TokenIssuer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	svc := &stubService{}
	tokens := auth.NewTokenIssuer("test-secret", time.Hour, "glass-shop")
	h := NewHandler(svc, tokens, Options{AllowedOrigins: []string{"http://localhost:3000"}, MaxBodyBytes: 512}, zap.NewNop())
	return &testServer{handler: h, svc: svc, tokens: tokens}
}

func (ts *testServer) do(t *testing.T, method, path, user, body string) *httptest.ResponseRecorder {
	t.Helper()
	role := auth.RoleStaff
	if user == "admin" {
		role = auth.RoleAdmin
	}
	return ts.doAs(t, method, path, user, role, body)
}

// doAs sends a request with a token claiming role for user.
func (ts *testServer) doAs(t *testing.T, method, path, user, role, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		token, _, err := ts.tokens.Issue(user, role)
		if err != nil {
			t.Fatalf("issue token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return resp
}

func TestHealthIsPublic(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestRequireAuth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/shop", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/shop", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: status = %d", rec.Code)
	}

	// valid signature but the user no longer resolves
	rec = ts.do(t, http.MethodGet, "/shop", "ghost", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unknown user: status = %d", rec.Code)
	}

	rec = ts.do(t, http.MethodGet, "/shop", "staff", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("staff token: status = %d, body %s", rec.Code, rec.Body)
	}
}

func TestRequireRole(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/users", "staff", "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("staff on admin route: status = %d", rec.Code)
	}
	if got := decodeError(t, rec).Code; got != "FORBIDDEN" {
		t.Errorf("code = %q", got)
	}

	rec = ts.do(t, http.MethodGet, "/users", "admin", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("admin: status = %d", rec.Code)
	}
}

func TestRequireRoleChecksTokenAndStoredRole(t *testing.T) {
	ts := newTestServer(t)

	// staff user holding a token that claims ADMIN
	rec := ts.doAs(t, http.MethodGet, "/users", "staff", auth.RoleAdmin, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("admin claim for staff user: status = %d", rec.Code)
	}

	// admin user holding a token that claims STAFF
	rec = ts.doAs(t, http.MethodGet, "/users", "admin", auth.RoleStaff, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("staff claim for admin user: status = %d", rec.Code)
	}

	rec = ts.doAs(t, http.MethodGet, "/shop", "admin", auth.RoleStaff, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("staff claim on shared route: status = %d", rec.Code)
	}
}

func TestForeignInvoiceIsNotFound(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/invoice/42", "staff", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decodeError(t, rec)
	if resp.Code != "NOT_FOUND" || resp.RequestID == "" {
		t.Errorf("unexpected error body %+v", resp)
	}
}

func TestInvalidPathID(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/invoice/abc", "staff", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestUpdateStockUsesSessionShop(t *testing.T) {
	ts := newTestServer(t)
	body := `{"glass_type":"Clear","thickness":5,"stand_no":3,"height":24,"width":"36","quantity":4,"action":"ADD"}`
	rec := ts.do(t, http.MethodPost, "/stock/update", "staff", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	in := ts.svc.lastStock
	if in.Thickness != "5" || in.StandNo != 3 || in.Quantity != 4 || in.Action != core.StockAdd {
		t.Errorf("decoded input = %+v", in)
	}
	if in.Height.String() != "24" || in.Width.String() != "36" {
		t.Errorf("dimensions = %s x %s", in.Height, in.Width)
	}
	if ts.svc.lastSess.ShopID != 1 || ts.svc.lastSess.Username != "staff" {
		t.Errorf("session = %+v", ts.svc.lastSess)
	}
}

func TestInsufficientStockIsConflict(t *testing.T) {
	ts := newTestServer(t)
	body := `{"glass_type":"Clear","thickness":"5mm","from_stand_no":3,"to_stand_no":4,"height":24,"width":36,"quantity":9}`
	rec := ts.do(t, http.MethodPost, "/stock/transfer", "staff", body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decodeError(t, rec).Code; got != "INSUFFICIENT_STOCK" {
		t.Errorf("code = %q", got)
	}
}

func TestBodyTooLarge(t *testing.T) {
	ts := newTestServer(t)
	body := `{"glass_type":"` + strings.Repeat("x", 1024) + `"}`
	rec := ts.do(t, http.MethodPost, "/stock/update", "staff", body)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestDownloadInvoice(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/invoice/12/download-challan", "staff", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("content type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "challan-INV-2026-00012.pdf") {
		t.Errorf("content disposition = %q", cd)
	}
	if !strings.HasPrefix(rec.Body.String(), "%PDF") {
		t.Error("body is not the document")
	}
}

func TestRecovererHidesPanic(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/reports/dashboard", "admin", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decodeError(t, rec)
	if resp.Error != "internal server error" || strings.Contains(rec.Body.String(), "boom") {
		t.Errorf("panic leaked to client: %+v", resp)
	}
}

func TestCORSPreflightSkipsAuth(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/stock", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	if rec.Code >= 300 {
		t.Fatalf("preflight status = %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("allow origin = %q", got)
	}
}

func TestCORSRejectsUnknownOrigin(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("allow origin = %q, want none", got)
	}
}

func TestStatusForError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("x: %w", core.ErrInvalidInput), http.StatusBadRequest, "BAD_REQUEST"},
		{core.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
		{core.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{fmt.Errorf("x: %w", core.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{core.ErrInsufficientStock, http.StatusConflict, "INSUFFICIENT_STOCK"},
		{core.ErrInvalidState, http.StatusConflict, "INVALID_STATE"},
		{core.ErrConflict, http.StatusConflict, "CONFLICT"},
		{errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, c := range cases {
		status, code := statusForError(c.err)
		if status != c.status || code != c.code {
			t.Errorf("%v: got %d %s, want %d %s", c.err, status, code, c.status, c.code)
		}
	}
}
