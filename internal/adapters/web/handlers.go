package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"glass-shop/internal/app"
	"glass-shop/internal/auth"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Options carries the transport settings of the HTTP adapter.
type Options struct {
	AllowedOrigins []string
	MaxBodyBytes   int64
}

// Handler holds the ApplicationService, the token verifier and the chi router.
type Handler struct {
	svc    app.ApplicationService
	tokens *auth.TokenIssuer
	logger *zap.Logger
	router chi.Router
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, tokens *auth.TokenIssuer, opts Options, logger *zap.Logger) http.Handler {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	h := &Handler{
		svc:    svc,
		tokens: tokens,
		logger: logger.Named("http"),
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(middleware.RealIP)
	r.Use(Logger(h.logger))
	r.Use(Recoverer(h.logger))
	r.Use(CORS(opts.AllowedOrigins))
	r.Use(RequestBodyLimit(opts.MaxBodyBytes))

	// ── Public ────────────────────────────────────────────────────────────────
	r.Get("/health", h.health)
	r.Post("/auth/login", h.login)
	r.Post("/auth/register-shop", h.registerShop)

	// ── Protected (bearer token → shop) ───────────────────────────────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Use(h.LoadShop)

		// Staff and admin
		r.Group(func(r chi.Router) {
			r.Use(RequireRole(auth.RoleAdmin, auth.RoleStaff))

			r.Get("/auth/me", h.me)
			r.Put("/auth/password", h.changePassword)
			r.Get("/shop", h.getShop)

			r.Get("/glass", h.listGlass)
			r.Get("/stock", h.listStock)
			r.Post("/stock/update", h.updateStock)
			r.Post("/stock/transfer", h.transferStock)
			r.Get("/stock/history", h.stockHistory)
			r.Get("/price-master", h.listPriceMaster)

			r.Get("/customers", h.listCustomers)
			r.Post("/customers", h.createCustomer)
			r.Get("/customers/{id}", h.getCustomer)
			r.Put("/customers/{id}", h.updateCustomer)
			r.Get("/sites", h.listSites)
			r.Post("/sites", h.createSite)
			r.Get("/sites/{id}", h.getSite)

			r.Get("/quotation", h.listQuotations)
			r.Post("/quotation", h.createQuotation)
			r.Get("/quotation/{id}", h.getQuotation)
			r.Put("/quotation/{id}/confirm", h.confirmQuotation)
			r.Put("/quotation/{id}/reject", h.rejectQuotation)
			r.Get("/quotation/{id}/download", h.downloadQuotation)

			r.Post("/invoice/from-quotation", h.createInvoice)
			r.Get("/invoice", h.listInvoices)
			r.Get("/invoice/{id}", h.getInvoice)
			r.Get("/invoice/{id}/payments", h.listPayments)
			r.Post("/invoice/{id}/payments", h.addPayment)
			r.Get("/invoice/{id}/download-invoice", h.downloadInvoice(app.DocumentInvoice))
			r.Get("/invoice/{id}/download-basic-invoice", h.downloadInvoice(app.DocumentBasicInvoice))
			r.Get("/invoice/{id}/download-challan", h.downloadInvoice(app.DocumentChallan))

			r.Get("/installations", h.listInstallations)
			r.Post("/installations", h.scheduleInstallation)
			r.Put("/installations/{id}/status", h.updateInstallationStatus)
		})

		// Admin only
		r.Group(func(r chi.Router) {
			r.Use(RequireRole(auth.RoleAdmin))

			r.Put("/shop", h.updateShop)
			r.Get("/users", h.listUsers)
			r.Post("/users", h.createUser)
			r.Put("/users/{id}/active", h.setUserActive)

			r.Post("/price-master", h.createPriceMaster)
			r.Put("/price-master/{id}", h.updatePriceMaster)
			r.Delete("/price-master/{id}", h.deletePriceMaster)

			r.Delete("/customers/{id}", h.deleteCustomer)
			r.Delete("/quotation/{id}", h.deleteQuotation)

			r.Get("/audit-logs", h.listAuditLogs)
			r.Get("/reports/dashboard", h.dashboard)
		})
	})

	h.router = r
	return r
}

// health returns service status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

// pathID parses a positive integer URL parameter, writing 400 when it is malformed.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		writeError(w, r, "invalid "+name, "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// queryInt parses an optional integer query parameter. A missing value yields nil.
func queryInt(w http.ResponseWriter, r *http.Request, name string) (*int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, r, "invalid "+name+" query parameter", "BAD_REQUEST", http.StatusBadRequest)
		return nil, false
	}
	return &n, true
}

// session returns the caller resolved by LoadShop.
func session(r *http.Request) app.Session {
	s, _ := sessionFromContext(r.Context())
	return s
}
