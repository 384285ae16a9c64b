package web

import (
	"net/http"
	"strconv"

	"glass-shop/internal/core"

	"github.com/shopspring/decimal"
)

type stockBody struct {
	GlassType string          `json:"glass_type"`
	Thickness flexString      `json:"thickness"`
	Unit      string          `json:"unit"`
	Height    decimal.Decimal `json:"height"`
	Width     decimal.Decimal `json:"width"`
	Quantity  int             `json:"quantity"`
}

// listGlass handles GET /glass.
func (h *Handler) listGlass(w http.ResponseWriter, r *http.Request) {
	glass, err := h.svc.ListGlass(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, glass)
}

// listStock handles GET /stock?glass_type=&stand_no=&status=.
func (h *Handler) listStock(w http.ResponseWriter, r *http.Request) {
	standNo, ok := queryInt(w, r, "stand_no")
	if !ok {
		return
	}
	q := r.URL.Query()
	stock, err := h.svc.ListStock(r.Context(), session(r), core.StockFilter{
		GlassType: q.Get("glass_type"),
		StandNo:   standNo,
		Status:    core.StockStatus(q.Get("status")),
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, stock)
}

// updateStock handles POST /stock/update.
func (h *Handler) updateStock(w http.ResponseWriter, r *http.Request) {
	var body struct {
		stockBody
		StandNo int    `json:"stand_no"`
		Action  string `json:"action"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	st, err := h.svc.UpdateStock(r.Context(), session(r), core.StockUpdateInput{
		GlassType: body.GlassType,
		Thickness: string(body.Thickness),
		Unit:      body.Unit,
		StandNo:   body.StandNo,
		Height:    body.Height,
		Width:     body.Width,
		Quantity:  body.Quantity,
		Action:    core.StockAction(body.Action),
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, st)
}

// transferStock handles POST /stock/transfer.
func (h *Handler) transferStock(w http.ResponseWriter, r *http.Request) {
	var body struct {
		stockBody
		FromStandNo int `json:"from_stand_no"`
		ToStandNo   int `json:"to_stand_no"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	res, err := h.svc.TransferStock(r.Context(), session(r), core.StockTransferInput{
		GlassType:   body.GlassType,
		Thickness:   string(body.Thickness),
		Unit:        body.Unit,
		FromStandNo: body.FromStandNo,
		ToStandNo:   body.ToStandNo,
		Height:      body.Height,
		Width:       body.Width,
		Quantity:    body.Quantity,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, res)
}

// stockHistory handles GET /stock/history?limit=.
func (h *Handler) stockHistory(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	n := 0
	if limit != nil {
		n = *limit
	}
	history, err := h.svc.GetStockHistory(r.Context(), session(r), n)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, history)
}

type priceMasterBody struct {
	GlassType     string           `json:"glass_type"`
	Thickness     flexString       `json:"thickness"`
	PurchasePrice *decimal.Decimal `json:"purchase_price"`
	SellingPrice  *decimal.Decimal `json:"selling_price"`
}

func (b priceMasterBody) input() core.PriceMasterInput {
	return core.PriceMasterInput{
		GlassType:     b.GlassType,
		Thickness:     string(b.Thickness),
		PurchasePrice: b.PurchasePrice,
		SellingPrice:  b.SellingPrice,
	}
}

// listPriceMaster handles GET /price-master?pending=true.
func (h *Handler) listPriceMaster(w http.ResponseWriter, r *http.Request) {
	pendingOnly, _ := strconv.ParseBool(r.URL.Query().Get("pending"))
	entries, err := h.svc.ListPriceMaster(r.Context(), session(r), pendingOnly)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, entries)
}

// createPriceMaster handles POST /price-master.
func (h *Handler) createPriceMaster(w http.ResponseWriter, r *http.Request) {
	var body priceMasterBody
	if !decodeJSON(w, r, &body) {
		return
	}
	pm, err := h.svc.CreatePriceMaster(r.Context(), session(r), body.input())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, pm)
}

// updatePriceMaster handles PUT /price-master/{id}.
func (h *Handler) updatePriceMaster(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body priceMasterBody
	if !decodeJSON(w, r, &body) {
		return
	}
	pm, err := h.svc.UpdatePriceMaster(r.Context(), session(r), id, body.input())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, pm)
}

// deletePriceMaster handles DELETE /price-master/{id}. Only pending entries can be deleted.
func (h *Handler) deletePriceMaster(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeletePriceMaster(r.Context(), session(r), id); err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
