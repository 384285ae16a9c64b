package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"glass-shop/internal/auth"
	"glass-shop/internal/core"
	"glass-shop/internal/render"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Services bundles the core services the application layer delegates to.
type Services struct {
	Shops         core.ShopService
	Stock         core.StockService
	Pricing       core.PricingService
	Customers     core.CustomerService
	Quotations    core.QuotationService
	Invoices      core.InvoiceService
	Installations core.InstallationService
	Audit         core.AuditService
	Reports       core.ReportingService
}

// NewCoreServices wires every core service onto one pool.
func NewCoreServices(pool *pgxpool.Pool) Services {
	audit := core.NewAuditService(pool)
	docs := core.NewDocumentService(pool)
	return Services{
		Shops:         core.NewShopService(pool, audit),
		Stock:         core.NewStockService(pool, audit),
		Pricing:       core.NewPricingService(pool, audit),
		Customers:     core.NewCustomerService(pool),
		Quotations:    core.NewQuotationService(pool, docs, audit),
		Invoices:      core.NewInvoiceService(pool, docs, audit),
		Installations: core.NewInstallationService(pool, audit),
		Audit:         audit,
		Reports:       core.NewReportingService(pool),
	}
}

type appService struct {
	svc    Services
	tokens *auth.TokenIssuer
	logger *zap.Logger
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(svc Services, tokens *auth.TokenIssuer, logger *zap.Logger) ApplicationService {
	return &appService{svc: svc, tokens: tokens, logger: logger.Named("app")}
}

var errBadCredentials = fmt.Errorf("invalid username or password: %w", core.ErrUnauthorized)

// ── Auth ──────────────────────────────────────────────────────────────────────

func (s *appService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, fmt.Errorf("username and password are required: %w", core.ErrInvalidInput)
	}

	user, err := s.svc.Shops.GetUserByUsername(ctx, username)
	if errors.Is(err, core.ErrNotFound) {
		s.logger.Warn("login rejected", zap.String("username", username), zap.String("reason", "unknown user"))
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		s.logger.Warn("login rejected", zap.String("username", username), zap.String("reason", "bad password"))
		return nil, errBadCredentials
	}

	shop, err := s.svc.Shops.GetShop(ctx, user.ShopID)
	if err != nil {
		return nil, err
	}
	res, err := s.issue(user, shop)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user logged in", zap.String("username", user.Username), zap.Int("shop_id", user.ShopID))
	return res, nil
}

func (s *appService) RegisterShop(ctx context.Context, req RegisterShopRequest) (*LoginResult, error) {
	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	shop, user, err := s.svc.Shops.RegisterShop(ctx, req.Shop, core.UserInput{
		Username:     strings.TrimSpace(req.Username),
		FullName:     req.FullName,
		PasswordHash: hash,
		Role:         core.RoleAdmin,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("shop registered", zap.Int("shop_id", shop.ID), zap.String("shop", shop.Name), zap.String("admin", user.Username))
	return s.issue(user, shop)
}

func (s *appService) issue(user *core.User, shop *core.Shop) (*LoginResult, error) {
	token, expiresAt, err := s.tokens.Issue(user.Username, string(user.Role))
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user, Shop: shop}, nil
}

func (s *appService) ResolveSession(ctx context.Context, username string) (*Session, error) {
	user, err := s.svc.Shops.GetUserByUsername(ctx, username)
	if errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("user %q is unknown or inactive: %w", username, core.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	return &Session{
		UserID:   user.ID,
		Username: user.Username,
		FullName: user.FullName,
		Role:     string(user.Role),
		ShopID:   user.ShopID,
	}, nil
}

func (s *appService) Me(ctx context.Context, sess Session) (*core.User, error) {
	return s.svc.Shops.GetUser(ctx, sess.ShopID, sess.UserID)
}

func (s *appService) ChangePassword(ctx context.Context, sess Session, req ChangePasswordRequest) error {
	user, err := s.svc.Shops.GetUser(ctx, sess.ShopID, sess.UserID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		return fmt.Errorf("current password is incorrect: %w", core.ErrInvalidInput)
	}
	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.svc.Shops.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return err
	}
	s.logger.Info("password changed", zap.String("username", user.Username))
	return nil
}

func hashPassword(plain string) (string, error) {
	hash, err := auth.HashPassword(plain)
	if errors.Is(err, auth.ErrWeakPassword) {
		return "", fmt.Errorf("%v: %w", err, core.ErrInvalidInput)
	}
	return hash, err
}

// ── Shop and users ────────────────────────────────────────────────────────────

func (s *appService) GetShop(ctx context.Context, sess Session) (*core.Shop, error) {
	return s.svc.Shops.GetShop(ctx, sess.ShopID)
}

func (s *appService) UpdateShop(ctx context.Context, sess Session, in core.ShopInput) (*core.Shop, error) {
	shop, err := s.svc.Shops.UpdateShop(ctx, sess.ShopID, in)
	if err != nil {
		return nil, err
	}
	s.logger.Info("shop updated", zap.Int("shop_id", sess.ShopID), zap.String("by", sess.Username))
	return shop, nil
}

func (s *appService) ListUsers(ctx context.Context, sess Session) ([]core.User, error) {
	return s.svc.Shops.ListUsers(ctx, sess.ShopID)
}

func (s *appService) CreateUser(ctx context.Context, sess Session, req CreateUserRequest) (*core.User, error) {
	role := auth.RoleStaff
	if req.Role != "" {
		role = auth.NormalizeRole(req.Role)
	}
	if !auth.ValidRole(role) {
		return nil, fmt.Errorf("role %q is not supported: %w", req.Role, core.ErrInvalidInput)
	}
	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user, err := s.svc.Shops.CreateUser(ctx, sess.ShopID, core.UserInput{
		Username:     strings.TrimSpace(req.Username),
		FullName:     req.FullName,
		PasswordHash: hash,
		Role:         core.Role(role),
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("user created", zap.Int("shop_id", sess.ShopID), zap.String("username", user.Username),
		zap.String("role", role), zap.String("by", sess.Username))
	return user, nil
}

func (s *appService) SetUserActive(ctx context.Context, sess Session, userID int, active bool) (*core.User, error) {
	if userID == sess.UserID && !active {
		return nil, fmt.Errorf("you cannot deactivate your own account: %w", core.ErrInvalidInput)
	}
	return s.svc.Shops.SetUserActive(ctx, sess.ShopID, userID, active)
}

// ── Stock and pricing ─────────────────────────────────────────────────────────

func (s *appService) ListGlass(ctx context.Context) ([]core.Glass, error) {
	return s.svc.Stock.ListGlass(ctx)
}

func (s *appService) ListStock(ctx context.Context, sess Session, filter core.StockFilter) ([]core.Stock, error) {
	return s.svc.Stock.ListStock(ctx, sess.ShopID, filter)
}

func (s *appService) UpdateStock(ctx context.Context, sess Session, in core.StockUpdateInput) (*core.Stock, error) {
	in.ShopID, in.PerformedBy = sess.ShopID, sess.Username
	st, err := s.svc.Stock.UpdateStock(ctx, in)
	if err != nil {
		return nil, err
	}
	s.logger.Info("stock updated",
		zap.Int("shop_id", sess.ShopID), zap.String("action", string(in.Action)),
		zap.String("glass_type", st.GlassType), zap.Int("stand_no", st.StandNo),
		zap.Int("quantity", in.Quantity), zap.Int("on_hand", st.Quantity))
	return st, nil
}

func (s *appService) TransferStock(ctx context.Context, sess Session, in core.StockTransferInput) (*core.StockTransferResult, error) {
	in.ShopID, in.PerformedBy = sess.ShopID, sess.Username
	res, err := s.svc.Stock.TransferStock(ctx, in)
	if err != nil {
		return nil, err
	}
	s.logger.Info("stock transferred",
		zap.Int("shop_id", sess.ShopID), zap.Int("from_stand", in.FromStandNo), zap.Int("to_stand", in.ToStandNo),
		zap.Int("quantity", in.Quantity))
	return res, nil
}

func (s *appService) GetStockHistory(ctx context.Context, sess Session, limit int) ([]core.StockHistory, error) {
	return s.svc.Stock.GetStockHistory(ctx, sess.ShopID, limit)
}

func (s *appService) ListPriceMaster(ctx context.Context, sess Session, pendingOnly bool) ([]core.PriceMaster, error) {
	return s.svc.Pricing.ListPriceMaster(ctx, sess.ShopID, pendingOnly)
}

func (s *appService) CreatePriceMaster(ctx context.Context, sess Session, in core.PriceMasterInput) (*core.PriceMaster, error) {
	in.PerformedBy = sess.Username
	return s.svc.Pricing.CreatePriceMaster(ctx, sess.ShopID, in)
}

func (s *appService) UpdatePriceMaster(ctx context.Context, sess Session, id int, in core.PriceMasterInput) (*core.PriceMaster, error) {
	in.PerformedBy = sess.Username
	return s.svc.Pricing.UpdatePriceMaster(ctx, sess.ShopID, id, in)
}

func (s *appService) DeletePriceMaster(ctx context.Context, sess Session, id int) error {
	return s.svc.Pricing.DeletePendingPriceMaster(ctx, sess.ShopID, id, sess.Username)
}

// ── Customers and sites ───────────────────────────────────────────────────────

func (s *appService) ListCustomers(ctx context.Context, sess Session, search string) ([]core.Customer, error) {
	return s.svc.Customers.ListCustomers(ctx, sess.ShopID, search)
}

func (s *appService) CreateCustomer(ctx context.Context, sess Session, in core.CustomerInput) (*core.Customer, error) {
	return s.svc.Customers.CreateCustomer(ctx, sess.ShopID, in)
}

func (s *appService) GetCustomer(ctx context.Context, sess Session, id int) (*core.Customer, error) {
	return s.svc.Customers.GetCustomer(ctx, sess.ShopID, id)
}

func (s *appService) UpdateCustomer(ctx context.Context, sess Session, id int, in core.CustomerInput) (*core.Customer, error) {
	return s.svc.Customers.UpdateCustomer(ctx, sess.ShopID, id, in)
}

func (s *appService) DeleteCustomer(ctx context.Context, sess Session, id int) error {
	if err := s.svc.Customers.DeleteCustomer(ctx, sess.ShopID, id); err != nil {
		return err
	}
	s.logger.Info("customer deleted", zap.Int("shop_id", sess.ShopID), zap.Int("customer_id", id), zap.String("by", sess.Username))
	return nil
}

func (s *appService) ListSites(ctx context.Context, sess Session, customerID *int) ([]core.Site, error) {
	return s.svc.Customers.ListSites(ctx, sess.ShopID, customerID)
}

func (s *appService) CreateSite(ctx context.Context, sess Session, in core.SiteInput) (*core.Site, error) {
	return s.svc.Customers.CreateSite(ctx, sess.ShopID, in)
}

func (s *appService) GetSite(ctx context.Context, sess Session, id int) (*core.Site, error) {
	return s.svc.Customers.GetSite(ctx, sess.ShopID, id)
}

// ── Quotations and invoices ───────────────────────────────────────────────────

func (s *appService) ListQuotations(ctx context.Context, sess Session, status core.QuotationStatus) ([]core.Quotation, error) {
	return s.svc.Quotations.ListQuotations(ctx, sess.ShopID, status)
}

func (s *appService) CreateQuotation(ctx context.Context, sess Session, in core.CreateQuotationInput) (*core.Quotation, error) {
	in.ShopID, in.CreatedBy = sess.ShopID, sess.Username
	q, err := s.svc.Quotations.CreateQuotation(ctx, in)
	if err != nil {
		return nil, err
	}
	s.logger.Info("quotation created",
		zap.Int("shop_id", sess.ShopID), zap.String("number", q.QuotationNumber),
		zap.Int("items", len(q.Items)), zap.String("grand_total", q.GrandTotal.String()))
	return q, nil
}

func (s *appService) GetQuotation(ctx context.Context, sess Session, id int) (*core.Quotation, error) {
	return s.svc.Quotations.GetQuotation(ctx, sess.ShopID, id)
}

func (s *appService) ConfirmQuotation(ctx context.Context, sess Session, id int) (*core.Quotation, error) {
	q, err := s.svc.Quotations.ConfirmQuotation(ctx, sess.ShopID, id, sess.Username)
	if err != nil {
		return nil, err
	}
	s.logger.Info("quotation confirmed", zap.Int("shop_id", sess.ShopID), zap.String("number", q.QuotationNumber))
	return q, nil
}

func (s *appService) RejectQuotation(ctx context.Context, sess Session, id int, reason string) (*core.Quotation, error) {
	q, err := s.svc.Quotations.RejectQuotation(ctx, sess.ShopID, id, reason, sess.Username)
	if err != nil {
		return nil, err
	}
	s.logger.Info("quotation rejected", zap.Int("shop_id", sess.ShopID), zap.String("number", q.QuotationNumber))
	return q, nil
}

func (s *appService) DeleteQuotation(ctx context.Context, sess Session, id int) error {
	return s.svc.Quotations.DeleteQuotation(ctx, sess.ShopID, id, sess.Username)
}

func (s *appService) CreateInvoiceFromQuotation(ctx context.Context, sess Session, quotationID int) (*core.Invoice, error) {
	inv, err := s.svc.Invoices.CreateInvoiceFromQuotation(ctx, sess.ShopID, quotationID, sess.Username)
	if err != nil {
		return nil, err
	}
	s.logger.Info("invoice created",
		zap.Int("shop_id", sess.ShopID), zap.String("number", inv.InvoiceNumber),
		zap.Int("quotation_id", quotationID), zap.String("grand_total", inv.GrandTotal.String()))
	return inv, nil
}

func (s *appService) ListInvoices(ctx context.Context, sess Session, status core.PaymentStatus) ([]core.Invoice, error) {
	return s.svc.Invoices.ListInvoices(ctx, sess.ShopID, status)
}

func (s *appService) GetInvoice(ctx context.Context, sess Session, id int) (*core.Invoice, error) {
	return s.svc.Invoices.GetInvoice(ctx, sess.ShopID, id)
}

func (s *appService) AddPayment(ctx context.Context, sess Session, in core.AddPaymentInput) (*PaymentResult, error) {
	in.ShopID, in.ReceivedBy = sess.ShopID, sess.Username
	inv, p, err := s.svc.Invoices.AddPayment(ctx, in)
	if err != nil {
		return nil, err
	}
	s.logger.Info("payment recorded",
		zap.Int("shop_id", sess.ShopID), zap.String("invoice", inv.InvoiceNumber),
		zap.String("amount", p.Amount.String()), zap.String("status", string(inv.PaymentStatus)))
	return &PaymentResult{Invoice: inv, Payment: p}, nil
}

func (s *appService) ListPayments(ctx context.Context, sess Session, invoiceID int) ([]core.Payment, error) {
	return s.svc.Invoices.ListPayments(ctx, sess.ShopID, invoiceID)
}

// ── Documents ─────────────────────────────────────────────────────────────────

func (s *appService) QuotationDocument(ctx context.Context, sess Session, id int) (*Document, error) {
	q, err := s.svc.Quotations.GetQuotation(ctx, sess.ShopID, id)
	if err != nil {
		return nil, err
	}
	shop, err := s.svc.Shops.GetShop(ctx, sess.ShopID)
	if err != nil {
		return nil, err
	}
	content, err := render.QuotationPDF(shop, q)
	if err != nil {
		return nil, err
	}
	return pdfDocument("quotation-"+q.QuotationNumber, content), nil
}

func (s *appService) InvoiceDocument(ctx context.Context, sess Session, id int, kind DocumentKind) (*Document, error) {
	switch kind {
	case DocumentInvoice, DocumentBasicInvoice, DocumentChallan:
	default:
		return nil, fmt.Errorf("document kind %q is not supported: %w", kind, core.ErrInvalidInput)
	}

	inv, err := s.svc.Invoices.GetInvoice(ctx, sess.ShopID, id)
	if err != nil {
		return nil, err
	}
	shop, err := s.svc.Shops.GetShop(ctx, sess.ShopID)
	if err != nil {
		return nil, err
	}

	var content []byte
	switch kind {
	case DocumentInvoice:
		content, err = render.InvoicePDF(shop, inv)
	case DocumentBasicInvoice:
		content, err = render.BasicInvoicePDF(inv)
	case DocumentChallan:
		content, err = render.ChallanPDF(shop, inv)
	}
	if err != nil {
		return nil, err
	}
	return pdfDocument(string(kind)+"-"+inv.InvoiceNumber, content), nil
}

func pdfDocument(name string, content []byte) *Document {
	return &Document{Filename: name + ".pdf", ContentType: "application/pdf", Content: content}
}

// ── Installations, audit, reports ─────────────────────────────────────────────

func (s *appService) ListInstallations(ctx context.Context, sess Session, status core.InstallationStatus) ([]core.Installation, error) {
	return s.svc.Installations.ListInstallations(ctx, sess.ShopID, status)
}

func (s *appService) ScheduleInstallation(ctx context.Context, sess Session, in core.InstallationInput) (*core.Installation, error) {
	in.ScheduledBy = sess.Username
	return s.svc.Installations.ScheduleInstallation(ctx, sess.ShopID, in)
}

func (s *appService) UpdateInstallationStatus(ctx context.Context, sess Session, id int, to core.InstallationStatus) (*core.Installation, error) {
	return s.svc.Installations.UpdateInstallationStatus(ctx, sess.ShopID, id, to, sess.Username)
}

func (s *appService) ListAuditLogs(ctx context.Context, sess Session, filter core.AuditFilter) ([]core.AuditLog, error) {
	return s.svc.Audit.ListAuditLogs(ctx, sess.ShopID, filter)
}

func (s *appService) GetDashboard(ctx context.Context, sess Session) (*core.Dashboard, error) {
	return s.svc.Reports.GetDashboard(ctx, sess.ShopID)
}
