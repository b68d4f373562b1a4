package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"sauda.org/internal/auth"
	"sauda.org/internal/exchange"
	"sauda.org/internal/lifecycle"
	"sauda.org/internal/store/mem"
)

type apiClient struct {
	baseURL string
	client  *http.Client
	store   *mem.Store
	t       *testing.T
}

func newTestAPI(t *testing.T) *apiClient {
	t.Helper()

	store := mem.NewStore()
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	svc, err := exchange.NewService(store, hasher)
	if err != nil {
		t.Fatalf("exchange.NewService: %v", err)
	}
	tokens, err := auth.NewTokenService("test-secret", 15*time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	identity, err := auth.NewService(store, tokens, hasher)
	if err != nil {
		t.Fatalf("auth.NewService: %v", err)
	}
	coordinator, err := lifecycle.NewCoordinator(identity, svc)
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}

	api := New(ReadyProbe{}, "test", identity, svc, coordinator)
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	return &apiClient{
		baseURL: srv.URL,
		client:  srv.Client(),
		store:   store,
		t:       t,
	}
}

func (c *apiClient) do(method, path string, body any, token string) *http.Response {
	c.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("do request: %v", err)
	}
	return resp
}

func (c *apiClient) post(path string, body any, token string) *http.Response {
	return c.do(http.MethodPost, path, body, token)
}

func (c *apiClient) patch(path string, body any, token string) *http.Response {
	return c.do(http.MethodPatch, path, body, token)
}

func (c *apiClient) get(path string, params url.Values, token string) *http.Response {
	c.t.Helper()
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		c.t.Fatalf("parse url: %v", err)
	}
	if params != nil {
		u.RawQuery = params.Encode()
	}
	req, err := http.NewRequest(http.MethodGet, u.String(), nil)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("get request: %v", err)
	}
	return resp
}

// signup registers a user and returns its id plus a usable access token.
func (c *apiClient) signup(email, role, org string) (string, string) {
	c.t.Helper()
	resp := c.post("/v1/auth/signup", map[string]any{
		"email":             email,
		"password":          "secret-password",
		"role":              role,
		"organization_name": org,
	}, "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		c.t.Fatalf("signup %s: status %d", email, resp.StatusCode)
	}
	var payload signupResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.t.Fatalf("decode signup response: %v", err)
	}
	if payload.Tokens.AccessToken == "" {
		c.t.Fatalf("signup issued empty access token")
	}
	return payload.User.ID, payload.Tokens.AccessToken
}

func decode[T any](t *testing.T, r *http.Response) T {
	t.Helper()
	defer r.Body.Close()
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestAPIExchangeFlow(t *testing.T) {
	c := newTestAPI(t)

	_, consumerToken := c.signup("buyer@altyn.kz", "consumer", "Altyn Retail")
	_, ownerToken := c.signup("owner@dala.kz", "supplier_owner", "Dala Distribution")
	managerID, managerToken := c.signup("manager@dala.kz", "supplier_manager", "")
	salesID, salesToken := c.signup("sales@dala.kz", "supplier_sales", "")

	for _, staff := range []struct {
		userID, role string
	}{
		{managerID, "supplier_manager"},
		{salesID, "supplier_sales"},
	} {
		resp := c.post("/v1/staff", map[string]any{
			"user_id":    staff.userID,
			"staff_role": staff.role,
		}, ownerToken)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("add staff %s: status %d", staff.userID, resp.StatusCode)
		}
		resp.Body.Close()
	}

	resp := c.post("/v1/products", map[string]any{
		"name":      "Flour 50kg",
		"sku":       "FL-50",
		"price_kzt": 1200000,
		"stock_qty": 40,
		"is_active": true,
	}, ownerToken)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create product: status %d", resp.StatusCode)
	}
	product := decode[exchange.Product](t, resp)
	supplierID := product.SupplierID

	// Consumer requests a link; the owner accepts it.
	resp = c.post("/v1/links", map[string]any{"supplier_id": supplierID}, consumerToken)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create link: status %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc == "" {
		t.Fatalf("link create missing Location header")
	}
	link := decode[exchange.Link](t, resp)
	if link.Status != exchange.LinkPending {
		t.Fatalf("new link status: %s", link.Status)
	}

	// Ordering before the link is accepted is forbidden.
	resp = c.post("/v1/orders", map[string]any{
		"supplier_id": supplierID,
		"items":       []map[string]any{{"product_id": product.ID, "qty": 3}},
	}, consumerToken)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("order without accepted link: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = c.patch("/v1/links/"+link.ID+"/status", map[string]any{"status": "accepted"}, ownerToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("accept link: status %d", resp.StatusCode)
	}
	accepted := decode[exchange.Link](t, resp)
	if accepted.Status != exchange.LinkAccepted {
		t.Fatalf("accepted link status: %s", accepted.Status)
	}

	// Accepting twice conflicts.
	resp = c.patch("/v1/links/"+link.ID+"/status", map[string]any{"status": "accepted"}, ownerToken)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("double accept: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = c.post("/v1/orders", map[string]any{
		"supplier_id": supplierID,
		"items":       []map[string]any{{"product_id": product.ID, "qty": 3}},
	}, consumerToken)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create order: status %d", resp.StatusCode)
	}
	order := decode[exchange.Order](t, resp)
	if order.TotalKZT != 3600000 {
		t.Fatalf("order total: %d", order.TotalKZT)
	}

	for _, status := range []string{"accepted", "in_progress", "completed"} {
		resp = c.patch("/v1/orders/"+order.ID+"/status", map[string]any{"status": status}, managerToken)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("order to %s: status %d", status, resp.StatusCode)
		}
		resp.Body.Close()
	}

	resp = c.post("/v1/complaints", map[string]any{
		"order_id":     order.ID,
		"sales_rep_id": salesID,
		"manager_id":   managerID,
		"description":  "two bags arrived torn",
	}, consumerToken)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create complaint: status %d", resp.StatusCode)
	}
	complaint := decode[exchange.Complaint](t, resp)

	resp = c.patch("/v1/complaints/"+complaint.ID+"/status", map[string]any{"status": "escalated"}, salesToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("escalate complaint: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Resolution is required and the sales rep may not resolve at all.
	resp = c.patch("/v1/complaints/"+complaint.ID+"/status", map[string]any{"status": "resolved", "resolution": "refund"}, salesToken)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("sales resolve: status %d", resp.StatusCode)
	}
	resp.Body.Close()
	resp = c.patch("/v1/complaints/"+complaint.ID+"/status", map[string]any{"status": "resolved"}, managerToken)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("resolve without resolution: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = c.patch("/v1/complaints/"+complaint.ID+"/status", map[string]any{"status": "resolved", "resolution": "replacement bags shipped"}, managerToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("resolve complaint: status %d", resp.StatusCode)
	}
	resolved := decode[exchange.Complaint](t, resp)
	if resolved.Status != exchange.ComplaintResolved || resolved.Resolution != "replacement bags shipped" {
		t.Fatalf("unexpected resolved complaint: %+v", resolved)
	}
}

func TestAPIAuthLoginAndRefresh(t *testing.T) {
	c := newTestAPI(t)
	c.signup("buyer@altyn.kz", "consumer", "Altyn Retail")

	resp := c.post("/v1/auth/login", map[string]any{
		"email":    "buyer@altyn.kz",
		"password": "secret-password",
	}, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: status %d", resp.StatusCode)
	}
	pair := decode[tokenPairResponse](t, resp)

	resp = c.post("/v1/auth/login", map[string]any{
		"email":    "buyer@altyn.kz",
		"password": "wrong-password",
	}, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad login: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = c.post("/v1/auth/refresh", map[string]any{"refresh_token": pair.RefreshToken}, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("refresh: status %d", resp.StatusCode)
	}
	refreshed := decode[tokenPairResponse](t, resp)
	if refreshed.AccessToken == "" {
		t.Fatalf("refresh issued empty access token")
	}

	// An access token is not a refresh token.
	resp = c.post("/v1/auth/refresh", map[string]any{"refresh_token": pair.AccessToken}, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("refresh with access token: status %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestAPIRequiresToken(t *testing.T) {
	c := newTestAPI(t)

	resp := c.get("/v1/links", nil, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no token: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = c.get("/v1/links", nil, "not-a-jwt")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("garbage token: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Health endpoints stay public.
	resp = c.get("/healthz", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz: status %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestAPIDeactivatedAccountKeepsProfileOnly(t *testing.T) {
	c := newTestAPI(t)
	userID, token := c.signup("buyer@altyn.kz", "consumer", "Altyn Retail")

	c.store.SetActive(userID, false)

	resp := c.get("/v1/links", nil, token)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("deactivated list links: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = c.get("/v1/users/me", nil, token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("deactivated /v1/users/me: status %d", resp.StatusCode)
	}
	me := decode[map[string]any](t, resp)
	if active, _ := me["is_active"].(bool); active {
		t.Fatalf("profile should report is_active=false: %v", me)
	}
}

func TestAPIForeignAndMissingResourcesLookAlike(t *testing.T) {
	c := newTestAPI(t)
	ctx := context.Background()

	_, consumerToken := c.signup("buyer@altyn.kz", "consumer", "Altyn Retail")
	_, strangerToken := c.signup("other@omir.kz", "consumer", "Omir Retail")
	ownerID, _ := c.signup("owner@dala.kz", "supplier_owner", "Dala Distribution")

	supplierID, err := c.store.Suppliers(ctx).SupplierForUser(ctx, ownerID)
	if err != nil || supplierID == "" {
		t.Fatalf("supplier profile missing: %v", err)
	}
	resp := c.post("/v1/links", map[string]any{"supplier_id": supplierID}, consumerToken)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create link: status %d", resp.StatusCode)
	}
	link := decode[exchange.Link](t, resp)

	// A stranger must get the same answer for another party's link and for an
	// id that does not exist.
	foreign := c.get("/v1/links/"+link.ID, nil, strangerToken)
	missing := c.get("/v1/links/no-such-link", nil, strangerToken)
	if foreign.StatusCode != http.StatusForbidden || missing.StatusCode != foreign.StatusCode {
		t.Fatalf("link statuses differ: foreign=%d missing=%d", foreign.StatusCode, missing.StatusCode)
	}
	foreignBody := decode[map[string]any](t, foreign)
	missingBody := decode[map[string]any](t, missing)
	if foreignBody["error"] != missingBody["error"] {
		t.Fatalf("link bodies differ: foreign=%v missing=%v", foreignBody["error"], missingBody["error"])
	}

	// Same for transitions.
	foreign = c.patch("/v1/links/"+link.ID+"/status", map[string]any{"status": "accepted"}, strangerToken)
	missing = c.patch("/v1/links/no-such-link/status", map[string]any{"status": "accepted"}, strangerToken)
	if foreign.StatusCode != http.StatusForbidden || missing.StatusCode != foreign.StatusCode {
		t.Fatalf("transition statuses differ: foreign=%d missing=%d", foreign.StatusCode, missing.StatusCode)
	}
	foreignBody = decode[map[string]any](t, foreign)
	missingBody = decode[map[string]any](t, missing)
	if foreignBody["error"] != missingBody["error"] {
		t.Fatalf("transition bodies differ: foreign=%v missing=%v", foreignBody["error"], missingBody["error"])
	}

	// And for orders.
	foreignOrder := c.get("/v1/orders/no-such-order", nil, strangerToken)
	if foreignOrder.StatusCode != http.StatusForbidden {
		t.Fatalf("missing order: status %d", foreignOrder.StatusCode)
	}
	foreignOrder.Body.Close()
}

func TestAPIListPagination(t *testing.T) {
	c := newTestAPI(t)
	_, token := c.signup("buyer@altyn.kz", "consumer", "Altyn Retail")

	resp := c.get("/v1/links", url.Values{"page": {"0"}}, token)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("page=0: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = c.get("/v1/links", url.Values{"size": {"500"}}, token)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("size=500: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = c.get("/v1/links", nil, token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list links: status %d", resp.StatusCode)
	}
	list := decode[listResponse](t, resp)
	if list.Page != 1 || list.Size != 20 || list.Total != 0 {
		t.Fatalf("unexpected empty page: %+v", list)
	}
}

func TestAPIRejectsUnknownFields(t *testing.T) {
	c := newTestAPI(t)
	_, token := c.signup("buyer@altyn.kz", "consumer", "Altyn Retail")

	resp := c.post("/v1/links", map[string]any{"supplier_id": "s1", "bogus": true}, token)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown field: status %d", resp.StatusCode)
	}
	resp.Body.Close()
}
