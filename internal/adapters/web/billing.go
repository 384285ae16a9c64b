package web

import (
	"fmt"
	"net/http"
	"strconv"

	"glass-shop/internal/app"
	"glass-shop/internal/core"

	"github.com/shopspring/decimal"
)

type itemBody struct {
	GlassType   string           `json:"glass_type"`
	Thickness   flexString       `json:"thickness"`
	Description string           `json:"description"`
	Height      decimal.Decimal  `json:"height"`
	Width       decimal.Decimal  `json:"width"`
	SizeUnit    string           `json:"size_unit"`
	Quantity    int              `json:"quantity"`
	RatePerSqft decimal.Decimal  `json:"rate_per_sqft"`
	Subtotal    decimal.Decimal  `json:"subtotal"`
	HSNCode     string           `json:"hsn_code"`
	Polish      *core.PolishSpec `json:"polish"`
}

type quotationBody struct {
	CustomerID         *int             `json:"customer_id"`
	CustomerName       string           `json:"customer_name"`
	CustomerMobile     string           `json:"customer_mobile"`
	CustomerAddress    string           `json:"customer_address"`
	CustomerGSTIN      string           `json:"customer_gstin"`
	CustomerState      string           `json:"customer_state"`
	BillingType        string           `json:"billing_type"`
	QuotationDate      *dateValue       `json:"quotation_date"`
	ValidUntil         *dateValue       `json:"valid_until"`
	InstallationCharge decimal.Decimal  `json:"installation_charge"`
	TransportCharge    decimal.Decimal  `json:"transport_charge"`
	Discount           decimal.Decimal  `json:"discount"`
	GSTPercentage      *decimal.Decimal `json:"gst_percentage"`
	Notes              string           `json:"notes"`
	Items              []itemBody       `json:"items"`
}

func (b quotationBody) input() core.CreateQuotationInput {
	in := core.CreateQuotationInput{
		CustomerID: b.CustomerID,
		Customer: core.CustomerInput{
			Name:    b.CustomerName,
			Mobile:  b.CustomerMobile,
			Address: b.CustomerAddress,
			GSTIN:   b.CustomerGSTIN,
			State:   b.CustomerState,
		},
		BillingType:        core.BillingType(b.BillingType),
		QuotationDate:      b.QuotationDate.ptr(),
		ValidUntil:         b.ValidUntil.ptr(),
		InstallationCharge: b.InstallationCharge,
		TransportCharge:    b.TransportCharge,
		Discount:           b.Discount,
		GSTPercentage:      b.GSTPercentage,
		Notes:              b.Notes,
	}
	for _, it := range b.Items {
		in.Items = append(in.Items, core.LineItem{
			GlassType:   it.GlassType,
			Thickness:   string(it.Thickness),
			Description: it.Description,
			Height:      it.Height,
			Width:       it.Width,
			SizeUnit:    it.SizeUnit,
			Quantity:    it.Quantity,
			RatePerSqft: it.RatePerSqft,
			Subtotal:    it.Subtotal,
			HSNCode:     it.HSNCode,
			Polish:      it.Polish,
		})
	}
	return in
}

// ── Quotations ────────────────────────────────────────────────────────────────

// listQuotations handles GET /quotation?status=.
func (h *Handler) listQuotations(w http.ResponseWriter, r *http.Request) {
	status := core.QuotationStatus(r.URL.Query().Get("status"))
	quotations, err := h.svc.ListQuotations(r.Context(), session(r), status)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, quotations)
}

// createQuotation handles POST /quotation.
func (h *Handler) createQuotation(w http.ResponseWriter, r *http.Request) {
	var body quotationBody
	if !decodeJSON(w, r, &body) {
		return
	}
	q, err := h.svc.CreateQuotation(r.Context(), session(r), body.input())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, q)
}

// getQuotation handles GET /quotation/{id}.
func (h *Handler) getQuotation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	q, err := h.svc.GetQuotation(r.Context(), session(r), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, q)
}

// confirmQuotation handles PUT /quotation/{id}/confirm.
func (h *Handler) confirmQuotation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	q, err := h.svc.ConfirmQuotation(r.Context(), session(r), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, q)
}

// rejectQuotation handles PUT /quotation/{id}/reject. The body with a reason is optional.
func (h *Handler) rejectQuotation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if r.ContentLength != 0 && !decodeJSON(w, r, &body) {
		return
	}
	q, err := h.svc.RejectQuotation(r.Context(), session(r), id, body.Reason)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, q)
}

// deleteQuotation handles DELETE /quotation/{id}. Only drafts can be deleted.
func (h *Handler) deleteQuotation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteQuotation(r.Context(), session(r), id); err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// downloadQuotation handles GET /quotation/{id}/download.
func (h *Handler) downloadQuotation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	doc, err := h.svc.QuotationDocument(r.Context(), session(r), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeDocument(w, doc)
}

// ── Invoices ──────────────────────────────────────────────────────────────────

// createInvoice handles POST /invoice/from-quotation.
func (h *Handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	var body struct {
		QuotationID int `json:"quotation_id"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.QuotationID <= 0 {
		writeError(w, r, "quotation_id is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	inv, err := h.svc.CreateInvoiceFromQuotation(r.Context(), session(r), body.QuotationID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, inv)
}

// listInvoices handles GET /invoice?payment_status=.
func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	status := core.PaymentStatus(r.URL.Query().Get("payment_status"))
	invoices, err := h.svc.ListInvoices(r.Context(), session(r), status)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, invoices)
}

// getInvoice handles GET /invoice/{id}.
func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	inv, err := h.svc.GetInvoice(r.Context(), session(r), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, inv)
}

// addPayment handles POST /invoice/{id}/payments.
func (h *Handler) addPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Amount          decimal.Decimal `json:"amount"`
		PaymentMode     string          `json:"payment_mode"`
		ReferenceNumber string          `json:"reference_number"`
		BankName        string          `json:"bank_name"`
		Notes           string          `json:"notes"`
		PaymentDate     *dateValue      `json:"payment_date"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	res, err := h.svc.AddPayment(r.Context(), session(r), core.AddPaymentInput{
		InvoiceID:       id,
		Amount:          body.Amount,
		PaymentMode:     core.PaymentMode(body.PaymentMode),
		ReferenceNumber: body.ReferenceNumber,
		BankName:        body.BankName,
		Notes:           body.Notes,
		PaymentDate:     body.PaymentDate.ptr(),
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, map[string]any{
		"invoice": res.Invoice,
		"payment": res.Payment,
	})
}

// listPayments handles GET /invoice/{id}/payments.
func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	payments, err := h.svc.ListPayments(r.Context(), session(r), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, payments)
}

// downloadInvoice serves one of the invoice renderings as a PDF attachment.
func (h *Handler) downloadInvoice(kind app.DocumentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		doc, err := h.svc.InvoiceDocument(r.Context(), session(r), id, kind)
		if err != nil {
			h.handleError(w, r, err)
			return
		}
		writeDocument(w, doc)
	}
}

func writeDocument(w http.ResponseWriter, doc *app.Document) {
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Content)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Content)
}
