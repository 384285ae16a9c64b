package web

import (
	"net/http"
	"time"

	"glass-shop/internal/core"
)

// listInstallations handles GET /installations?status=.
func (h *Handler) listInstallations(w http.ResponseWriter, r *http.Request) {
	status := core.InstallationStatus(r.URL.Query().Get("status"))
	list, err := h.svc.ListInstallations(r.Context(), session(r), status)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, list)
}

// scheduleInstallation handles POST /installations.
func (h *Handler) scheduleInstallation(w http.ResponseWriter, r *http.Request) {
	var body struct {
		InvoiceID     int        `json:"invoice_id"`
		SiteID        *int       `json:"site_id"`
		ScheduledDate *dateValue `json:"scheduled_date"`
		Notes         string     `json:"notes"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	date := time.Now()
	if d := body.ScheduledDate.ptr(); d != nil {
		date = *d
	}
	inst, err := h.svc.ScheduleInstallation(r.Context(), session(r), core.InstallationInput{
		InvoiceID:     body.InvoiceID,
		SiteID:        body.SiteID,
		ScheduledDate: date,
		Notes:         body.Notes,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, inst)
}

// updateInstallationStatus handles PUT /installations/{id}/status.
func (h *Handler) updateInstallationStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	inst, err := h.svc.UpdateInstallationStatus(r.Context(), session(r), id, core.InstallationStatus(body.Status))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, inst)
}

// listAuditLogs handles GET /audit-logs?entity_type=&limit=.
func (h *Handler) listAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	filter := core.AuditFilter{EntityType: r.URL.Query().Get("entity_type")}
	if limit != nil {
		filter.Limit = *limit
	}
	logs, err := h.svc.ListAuditLogs(r.Context(), session(r), filter)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, logs)
}

// dashboard handles GET /reports/dashboard.
func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.GetDashboard(r.Context(), session(r))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, d)
}
