package httpapi

import (
	"net/http"
	"strings"

	"sauda.org/internal/audit"
	"sauda.org/internal/exchange"
)

type createComplaintRequest struct {
	OrderID     string `json:"order_id"`
	SalesRepID  string `json:"sales_rep_id"`
	ManagerID   string `json:"manager_id"`
	Description string `json:"description"`
}

func (a *API) handleComplaintsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createComplaint(w, r)
	case http.MethodGet:
		a.listComplaints(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleComplaintResource(w http.ResponseWriter, r *http.Request) {
	id, rest, ok := splitResource(r.URL.Path, "/v1/complaints/")
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
		a.getComplaint(w, r, id)
	case "status":
		if r.Method != http.MethodPatch {
			methodNotAllowed(w, r, http.MethodPatch)
			return
		}
		a.transition(w, r, exchange.EntityComplaint, id)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) createComplaint(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req createComplaintRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	complaint, err := a.exchange.CreateComplaint(r.Context(), actor, exchange.ComplaintInput{
		OrderID:     strings.TrimSpace(req.OrderID),
		SalesRepID:  strings.TrimSpace(req.SalesRepID),
		ManagerID:   strings.TrimSpace(req.ManagerID),
		Description: req.Description,
	})
	if err != nil {
		handleExchangeError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "complaint.create", map[string]any{
		"complaint_id": complaint.ID,
		"order_id":     complaint.OrderID,
	})
	w.Header().Set("Location", "/v1/complaints/"+complaint.ID)
	writeJSON(w, http.StatusCreated, complaint)
}

func (a *API) getComplaint(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	complaint, err := a.exchange.GetComplaint(r.Context(), actor, id)
	if err != nil {
		handleExchangeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, complaint)
}

func (a *API) listComplaints(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	page, err := parsePage(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	items, total, err := a.exchange.ListComplaints(r.Context(), actor, page)
	if err != nil {
		handleExchangeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: items, Page: page.Number, Size: page.Size, Total: total})
}
