package httpapi

import (
	"net/http"
	"strings"

	"sauda.org/internal/audit"
	"sauda.org/internal/auth"
	"sauda.org/internal/exchange"
)

type productRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceKZT    int64  `json:"price_kzt"`
	SKU         string `json:"sku"`
	StockQty    int    `json:"stock_qty"`
	Active      bool   `json:"is_active"`
}

type addStaffRequest struct {
	UserID    string `json:"user_id"`
	StaffRole string `json:"staff_role"`
}

func (pr productRequest) input() exchange.ProductInput {
	return exchange.ProductInput{
		Name:        pr.Name,
		Description: pr.Description,
		PriceKZT:    pr.PriceKZT,
		SKU:         pr.SKU,
		StockQty:    pr.StockQty,
		Active:      pr.Active,
	}
}

func (a *API) handleProductsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createProduct(w, r)
	case http.MethodGet:
		a.listProducts(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleProductResource(w http.ResponseWriter, r *http.Request) {
	id, rest, ok := splitResource(r.URL.Path, "/v1/products/")
	if !ok || rest != "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodPut:
		a.updateProduct(w, r, id)
	case http.MethodDelete:
		a.deleteProduct(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) createProduct(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req productRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	product, err := a.exchange.CreateProduct(r.Context(), actor, req.input())
	if err != nil {
		handleExchangeError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "product.create", map[string]any{
		"product_id":  product.ID,
		"supplier_id": product.SupplierID,
	})
	w.Header().Set("Location", "/v1/products/"+product.ID)
	writeJSON(w, http.StatusCreated, product)
}

func (a *API) updateProduct(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req productRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	product, err := a.exchange.UpdateProduct(r.Context(), actor, id, req.input())
	if err != nil {
		handleExchangeError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "product.update", map[string]any{
		"product_id": product.ID,
	})
	writeJSON(w, http.StatusOK, product)
}

func (a *API) deleteProduct(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if err := a.exchange.DeleteProduct(r.Context(), actor, id); err != nil {
		handleExchangeError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "product.delete", map[string]any{
		"product_id": id,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listProducts(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	supplierID := strings.TrimSpace(r.URL.Query().Get("supplier_id"))
	if supplierID == "" {
		writeError(w, r, http.StatusBadRequest, "supplier_id query parameter is required")
		return
	}
	page, err := parsePage(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	items, total, err := a.exchange.ListProducts(r.Context(), actor, supplierID, page)
	if err != nil {
		handleExchangeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: items, Page: page.Number, Size: page.Size, Total: total})
}

func (a *API) handleStaff(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req addStaffRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		writeError(w, r, http.StatusBadRequest, "user_id is required")
		return
	}
	role, err := auth.ParseRole(req.StaffRole)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	staff, err := a.exchange.AddStaff(r.Context(), actor, userID, role)
	if err != nil {
		handleExchangeError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "supplier.staff.add", map[string]any{
		"staff_id":    staff.ID,
		"user_id":     staff.UserID,
		"supplier_id": staff.SupplierID,
		"staff_role":  string(staff.StaffRole),
	})
	writeJSON(w, http.StatusCreated, staff)
}
