package httpapi

import (
	"net/http"
	"strings"

	"sauda.org/internal/audit"
	"sauda.org/internal/exchange"
	"sauda.org/internal/lifecycle"
)

type createLinkRequest struct {
	SupplierID string `json:"supplier_id"`
}

type statusRequest struct {
	Status     string `json:"status"`
	Resolution string `json:"resolution,omitempty"`
}

func (a *API) handleLinksCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createLink(w, r)
	case http.MethodGet:
		a.listLinks(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleLinkResource(w http.ResponseWriter, r *http.Request) {
	id, rest, ok := splitResource(r.URL.Path, "/v1/links/")
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
		a.getLink(w, r, id)
	case "status":
		if r.Method != http.MethodPatch {
			methodNotAllowed(w, r, http.MethodPatch)
			return
		}
		a.transition(w, r, exchange.EntityLink, id)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) createLink(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req createLinkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	supplierID := strings.TrimSpace(req.SupplierID)
	if supplierID == "" {
		writeError(w, r, http.StatusBadRequest, "supplier_id is required")
		return
	}
	link, err := a.exchange.CreateLink(r.Context(), actor, supplierID)
	if err != nil {
		handleExchangeError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "link.create", map[string]any{
		"link_id":     link.ID,
		"supplier_id": link.SupplierID,
	})
	w.Header().Set("Location", "/v1/links/"+link.ID)
	writeJSON(w, http.StatusCreated, link)
}

func (a *API) getLink(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	link, err := a.exchange.GetLink(r.Context(), actor, id)
	if err != nil {
		concealedError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}

func (a *API) listLinks(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	page, err := parsePage(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	items, total, err := a.exchange.ListLinks(r.Context(), actor, page)
	if err != nil {
		handleExchangeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: items, Page: page.Number, Size: page.Size, Total: total})
}

// transition is the single entry point for all status changes.
func (a *API) transition(w http.ResponseWriter, r *http.Request, kind exchange.EntityKind, id string) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	status := strings.TrimSpace(req.Status)
	if status == "" {
		writeError(w, r, http.StatusBadRequest, "status is required")
		return
	}
	updated, err := a.lifecycle.TransitionAs(r.Context(), actor, lifecycle.TransitionRequest{
		Kind:            kind,
		ID:              id,
		RequestedStatus: status,
		Resolution:      req.Resolution,
	})
	if err != nil {
		if kind == exchange.EntityComplaint {
			handleExchangeError(w, r, err)
			return
		}
		concealedError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// splitResource parses "/v1/<coll>/{id}[/rest]" into id and the remainder.
func splitResource(path, prefix string) (id, rest string, ok bool) {
	path = strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if path == "" {
		return "", "", false
	}
	parts := strings.SplitN(path, "/", 2)
	id = parts[0]
	if len(parts) == 2 {
		rest = parts[1]
	}
	return id, rest, true
}
