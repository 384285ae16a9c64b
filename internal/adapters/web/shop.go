package web

import (
	"net/http"

	"glass-shop/internal/app"
	"glass-shop/internal/core"
)

type shopBody struct {
	ShopName    string `json:"shop_name"`
	OwnerName   string `json:"owner_name"`
	Mobile      string `json:"mobile"`
	Email       string `json:"email"`
	Address     string `json:"address"`
	GSTIN       string `json:"gstin"`
	State       string `json:"state"`
	StateCode   string `json:"state_code"`
	BankDetails string `json:"bank_details"`
}

func (b shopBody) input() core.ShopInput {
	return core.ShopInput{
		Name:        b.ShopName,
		OwnerName:   b.OwnerName,
		Mobile:      b.Mobile,
		Email:       b.Email,
		Address:     b.Address,
		GSTIN:       b.GSTIN,
		State:       b.State,
		StateCode:   b.StateCode,
		BankDetails: b.BankDetails,
	}
}

// getShop handles GET /shop.
func (h *Handler) getShop(w http.ResponseWriter, r *http.Request) {
	shop, err := h.svc.GetShop(r.Context(), session(r))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, shop)
}

// updateShop handles PUT /shop.
func (h *Handler) updateShop(w http.ResponseWriter, r *http.Request) {
	var body shopBody
	if !decodeJSON(w, r, &body) {
		return
	}
	shop, err := h.svc.UpdateShop(r.Context(), session(r), body.input())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, shop)
}

// listUsers handles GET /users.
func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context(), session(r))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, users)
}

// createUser handles POST /users.
func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		FullName string `json:"full_name"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	user, err := h.svc.CreateUser(r.Context(), session(r), app.CreateUserRequest{
		Username: body.Username,
		FullName: body.FullName,
		Password: body.Password,
		Role:     body.Role,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, user)
}

// setUserActive handles PUT /users/{id}/active.
func (h *Handler) setUserActive(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Active *bool `json:"active"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Active == nil {
		writeError(w, r, "active is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	user, err := h.svc.SetUserActive(r.Context(), session(r), id, *body.Active)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, user)
}
