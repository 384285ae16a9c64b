package app

import (
	"context"

	"glass-shop/internal/core"
)

// Session is the authenticated caller, resolved from the bearer token subject.
// Every shop-scoped call takes the session and uses its ShopID.
type Session struct {
	UserID   int
	Username string
	FullName string
	Role     string
	ShopID   int
}

// ApplicationService is the single interface the HTTP adapter calls.
// It decouples transport from business logic: no status codes, no JSON, no headers.
type ApplicationService interface {
	// Login verifies credentials and issues a bearer token.
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)

	// RegisterShop creates a tenant with its first ADMIN user and logs that user in.
	RegisterShop(ctx context.Context, req RegisterShopRequest) (*LoginResult, error)

	// ResolveSession maps a token subject to an active user and their shop.
	ResolveSession(ctx context.Context, username string) (*Session, error)

	// Me returns the profile of the session user.
	Me(ctx context.Context, s Session) (*core.User, error)

	// ChangePassword replaces the caller's password after checking the current one.
	ChangePassword(ctx context.Context, s Session, req ChangePasswordRequest) error

	GetShop(ctx context.Context, s Session) (*core.Shop, error)
	UpdateShop(ctx context.Context, s Session, in core.ShopInput) (*core.Shop, error)

	ListUsers(ctx context.Context, s Session) ([]core.User, error)
	CreateUser(ctx context.Context, s Session, req CreateUserRequest) (*core.User, error)
	// SetUserActive enables or disables a user of the caller's shop. Callers cannot disable themselves.
	SetUserActive(ctx context.Context, s Session, userID int, active bool) (*core.User, error)

	ListGlass(ctx context.Context) ([]core.Glass, error)
	ListStock(ctx context.Context, s Session, filter core.StockFilter) ([]core.Stock, error)
	// UpdateStock adds to or removes from one stand position, creating glass, price and stock rows on demand.
	UpdateStock(ctx context.Context, s Session, in core.StockUpdateInput) (*core.Stock, error)
	// TransferStock moves pieces between two stands atomically.
	TransferStock(ctx context.Context, s Session, in core.StockTransferInput) (*core.StockTransferResult, error)
	GetStockHistory(ctx context.Context, s Session, limit int) ([]core.StockHistory, error)

	ListPriceMaster(ctx context.Context, s Session, pendingOnly bool) ([]core.PriceMaster, error)
	CreatePriceMaster(ctx context.Context, s Session, in core.PriceMasterInput) (*core.PriceMaster, error)
	UpdatePriceMaster(ctx context.Context, s Session, id int, in core.PriceMasterInput) (*core.PriceMaster, error)
	DeletePriceMaster(ctx context.Context, s Session, id int) error

	ListCustomers(ctx context.Context, s Session, search string) ([]core.Customer, error)
	CreateCustomer(ctx context.Context, s Session, in core.CustomerInput) (*core.Customer, error)
	GetCustomer(ctx context.Context, s Session, id int) (*core.Customer, error)
	UpdateCustomer(ctx context.Context, s Session, id int, in core.CustomerInput) (*core.Customer, error)
	DeleteCustomer(ctx context.Context, s Session, id int) error

	ListSites(ctx context.Context, s Session, customerID *int) ([]core.Site, error)
	CreateSite(ctx context.Context, s Session, in core.SiteInput) (*core.Site, error)
	GetSite(ctx context.Context, s Session, id int) (*core.Site, error)

	ListQuotations(ctx context.Context, s Session, status core.QuotationStatus) ([]core.Quotation, error)
	CreateQuotation(ctx context.Context, s Session, in core.CreateQuotationInput) (*core.Quotation, error)
	GetQuotation(ctx context.Context, s Session, id int) (*core.Quotation, error)
	ConfirmQuotation(ctx context.Context, s Session, id int) (*core.Quotation, error)
	RejectQuotation(ctx context.Context, s Session, id int, reason string) (*core.Quotation, error)
	DeleteQuotation(ctx context.Context, s Session, id int) error

	// CreateInvoiceFromQuotation turns a CONFIRMED quotation into an invoice with a fresh number.
	CreateInvoiceFromQuotation(ctx context.Context, s Session, quotationID int) (*core.Invoice, error)
	ListInvoices(ctx context.Context, s Session, status core.PaymentStatus) ([]core.Invoice, error)
	GetInvoice(ctx context.Context, s Session, id int) (*core.Invoice, error)
	AddPayment(ctx context.Context, s Session, in core.AddPaymentInput) (*PaymentResult, error)
	ListPayments(ctx context.Context, s Session, invoiceID int) ([]core.Payment, error)

	// QuotationDocument renders the quotation cutting pad.
	QuotationDocument(ctx context.Context, s Session, id int) (*Document, error)
	// InvoiceDocument renders an invoice as a full invoice, a basic invoice or a delivery challan.
	InvoiceDocument(ctx context.Context, s Session, id int, kind DocumentKind) (*Document, error)

	ListInstallations(ctx context.Context, s Session, status core.InstallationStatus) ([]core.Installation, error)
	ScheduleInstallation(ctx context.Context, s Session, in core.InstallationInput) (*core.Installation, error)
	UpdateInstallationStatus(ctx context.Context, s Session, id int, to core.InstallationStatus) (*core.Installation, error)

	ListAuditLogs(ctx context.Context, s Session, filter core.AuditFilter) ([]core.AuditLog, error)
	GetDashboard(ctx context.Context, s Session) (*core.Dashboard, error)
}
