package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"sauda.org/internal/auth"
	"sauda.org/internal/exchange"
	"sauda.org/internal/lifecycle"
	"sauda.org/internal/obs"
)

// ReadyProbe pings the database for the readiness endpoint.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer over the exchange services.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	identity  *auth.Service
	exchange  *exchange.Service
	lifecycle *lifecycle.Coordinator
}

func New(rp ReadyProbe, version string, identity *auth.Service, svc *exchange.Service, coordinator *lifecycle.Coordinator) *API {
	a := &API{
		mux:        http.NewServeMux(),
		readyProbe: rp,
		version:    version,
		identity:   identity,
		exchange:   svc,
		lifecycle:  coordinator,
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// auth
	a.mux.HandleFunc("/v1/auth/signup", a.handleSignup)
	a.mux.HandleFunc("/v1/auth/login", a.handleLogin)
	a.mux.HandleFunc("/v1/auth/refresh", a.handleRefresh)
	a.mux.HandleFunc("/v1/users/me", a.handleMe)

	// exchange
	a.mux.HandleFunc("/v1/links", a.handleLinksCollection)
	a.mux.HandleFunc("/v1/links/", a.handleLinkResource)
	a.mux.HandleFunc("/v1/orders", a.handleOrdersCollection)
	a.mux.HandleFunc("/v1/orders/", a.handleOrderResource)
	a.mux.HandleFunc("/v1/complaints", a.handleComplaintsCollection)
	a.mux.HandleFunc("/v1/complaints/", a.handleComplaintResource)
	a.mux.HandleFunc("/v1/products", a.handleProductsCollection)
	a.mux.HandleFunc("/v1/products/", a.handleProductResource)
	a.mux.HandleFunc("/v1/staff", a.handleStaff)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wrapped http.Handler for the server.
func (a *API) Handler() http.Handler {
	return obs.Instrument(a.withAuth(a.mux))
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "sauda-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "sauda-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// --- helpers ---

type listResponse struct {
	Items any `json:"items"`
	Page  int `json:"page"`
	Size  int `json:"size"`
	Total int `json:"total"`
}

func parsePage(r *http.Request) (exchange.Page, error) {
	page := exchange.Page{Number: 1, Size: 20}
	if raw := strings.TrimSpace(r.URL.Query().Get("page")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return exchange.Page{}, errors.New("page must be a positive integer")
		}
		page.Number = v
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("size")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 100 {
			return exchange.Page{}, errors.New("size must be between 1 and 100")
		}
		page.Size = v
	}
	return page, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// handleExchangeError maps the service error taxonomy onto HTTP statuses.
func handleExchangeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, exchange.ErrInvalidInput), errors.Is(err, exchange.ErrMissingResolution):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, exchange.ErrForbidden), errors.Is(err, auth.ErrInactive):
		obs.CountDenial("forbidden")
		writeError(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, exchange.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, exchange.ErrAlreadyExists), errors.Is(err, exchange.ErrInvalidTransition):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrUnauthenticated), errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenExpired), errors.Is(err, auth.ErrWrongTokenKind),
		errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrAccountNotFound):
		obs.CountDenial("unauthenticated")
		writeError(w, r, http.StatusUnauthorized, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

// concealedError is handleExchangeError with resource existence hidden:
// not-found and forbidden collapse into one uniform 403 response, so a caller
// outside a link's or order's parties cannot tell a foreign id from a missing
// one. Links and orders route their read and transition errors through here.
func concealedError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, exchange.ErrNotFound) || errors.Is(err, exchange.ErrForbidden) {
		obs.CountDenial("forbidden")
		writeError(w, r, http.StatusForbidden, "forbidden")
		return
	}
	handleExchangeError(w, r, err)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}
