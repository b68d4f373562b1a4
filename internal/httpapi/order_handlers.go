package httpapi

import (
	"net/http"
	"strings"

	"sauda.org/internal/audit"
	"sauda.org/internal/exchange"
)

type orderItemRequest struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type createOrderRequest struct {
	SupplierID string             `json:"supplier_id"`
	Items      []orderItemRequest `json:"items"`
}

func (a *API) handleOrdersCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createOrder(w, r)
	case http.MethodGet:
		a.listOrders(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleOrderResource(w http.ResponseWriter, r *http.Request) {
	id, rest, ok := splitResource(r.URL.Path, "/v1/orders/")
	if !ok {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch rest {
	case "":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.getOrder(w, r, id)
	case "status":
		if r.Method != http.MethodPatch {
			methodNotAllowed(w, r, http.MethodPatch)
			return
		}
		a.transition(w, r, exchange.EntityOrder, id)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) createOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req createOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	supplierID := strings.TrimSpace(req.SupplierID)
	if supplierID == "" {
		writeError(w, r, http.StatusBadRequest, "supplier_id is required")
		return
	}
	items := make([]exchange.OrderItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, exchange.OrderItemInput{
			ProductID: strings.TrimSpace(item.ProductID),
			Qty:       item.Qty,
		})
	}
	order, err := a.exchange.CreateOrder(r.Context(), actor, supplierID, items)
	if err != nil {
		handleExchangeError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "order.create", map[string]any{
		"order_id":    order.ID,
		"supplier_id": order.SupplierID,
		"total_kzt":   order.TotalKZT,
	})
	w.Header().Set("Location", "/v1/orders/"+order.ID)
	writeJSON(w, http.StatusCreated, order)
}

func (a *API) getOrder(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	order, err := a.exchange.GetOrder(r.Context(), actor, id)
	if err != nil {
		concealedError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (a *API) listOrders(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	page, err := parsePage(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	items, total, err := a.exchange.ListOrders(r.Context(), actor, page)
	if err != nil {
		handleExchangeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: items, Page: page.Number, Size: page.Size, Total: total})
}
