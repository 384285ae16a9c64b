package web

import (
	"net/http"

	"glass-shop/internal/core"
)

type customerBody struct {
	Name    string `json:"name"`
	Mobile  string `json:"mobile"`
	Email   string `json:"email"`
	Address string `json:"address"`
	GSTIN   string `json:"gstin"`
	State   string `json:"state"`
}

func (b customerBody) input() core.CustomerInput {
	return core.CustomerInput(b)
}

// listCustomers handles GET /customers?search=.
func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.svc.ListCustomers(r.Context(), session(r), r.URL.Query().Get("search"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, customers)
}

// createCustomer handles POST /customers.
func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var body customerBody
	if !decodeJSON(w, r, &body) {
		return
	}
	c, err := h.svc.CreateCustomer(r.Context(), session(r), body.input())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, c)
}

// getCustomer handles GET /customers/{id}.
func (h *Handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	c, err := h.svc.GetCustomer(r.Context(), session(r), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, c)
}

// updateCustomer handles PUT /customers/{id}.
func (h *Handler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body customerBody
	if !decodeJSON(w, r, &body) {
		return
	}
	c, err := h.svc.UpdateCustomer(r.Context(), session(r), id, body.input())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, c)
}

// deleteCustomer handles DELETE /customers/{id}.
func (h *Handler) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteCustomer(r.Context(), session(r), id); err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listSites handles GET /sites?customer_id=.
func (h *Handler) listSites(w http.ResponseWriter, r *http.Request) {
	customerID, ok := queryInt(w, r, "customer_id")
	if !ok {
		return
	}
	sites, err := h.svc.ListSites(r.Context(), session(r), customerID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, sites)
}

// createSite handles POST /sites.
func (h *Handler) createSite(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CustomerID    *int   `json:"customer_id"`
		Name          string `json:"name"`
		Address       string `json:"address"`
		ContactPerson string `json:"contact_person"`
		Mobile        string `json:"mobile"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	site, err := h.svc.CreateSite(r.Context(), session(r), core.SiteInput{
		CustomerID:    body.CustomerID,
		Name:          body.Name,
		Address:       body.Address,
		ContactPerson: body.ContactPerson,
		Mobile:        body.Mobile,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, site)
}

// getSite handles GET /sites/{id}.
func (h *Handler) getSite(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	site, err := h.svc.GetSite(r.Context(), session(r), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, site)
}
