package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/cashdesk/cashdesk/internal/auth"
	"github.com/cashdesk/cashdesk/internal/clock"
	"github.com/cashdesk/cashdesk/internal/heldsale"
	"github.com/cashdesk/cashdesk/internal/http/router"
	"github.com/cashdesk/cashdesk/internal/store/memory"
	"github.com/cashdesk/cashdesk/internal/tenant"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	repo := memory.New()
	clk := clock.System()

	h, err := router.New(router.Deps{
		Repo:      repo,
		Tenants:   tenant.NewService(repo, clk),
		HeldSales: heldsale.NewService(repo, clk, heldsale.DefaultRetention),
		Issuer:    auth.NewIssuer("test-secret", "cashdesk", time.Hour),
		Registry:  prometheus.NewRegistry(),
	})
	require.NoError(t, err)

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()

	var out map[string]any
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp, out
}

func provision(t *testing.T, base, name, ownerEmail string) (tenantID, token string) {
	t.Helper()
	resp, out := doJSON(t, http.MethodPost, base+"/v1/tenants", "", map[string]any{
		"tenant": map[string]any{"name": name, "email": "contacto@" + ownerEmail},
		"owner": map[string]any{
			"first_name": "Ana", "last_name": "García",
			"email": ownerEmail, "password": "s3cret-pass",
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	tn := out["tenant"].(map[string]any)
	tok, _ := out["access_token"].(string)
	require.NotEmpty(t, tok)
	return tn["id"].(string), tok
}

func TestProvisioningFlow(t *testing.T) {
	srv := newTestServer(t)

	resp, out := doJSON(t, http.MethodPost, srv.URL+"/v1/tenants", "", map[string]any{
		"tenant": map[string]any{"name": "Mi Tienda", "email": "contacto@mitienda.com"},
		"owner": map[string]any{
			"first_name": "Ana", "last_name": "García",
			"email": "ana@mitienda.com", "password": "s3cret-pass",
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	tn := out["tenant"].(map[string]any)
	require.Equal(t, "mi-tienda", tn["slug"])

	// El password (ni su hash) jamás sale por la API.
	owner := out["owner"].(map[string]any)
	_, hasHash := owner["password_hash"]
	require.False(t, hasHash)
	require.NotContains(t, owner, "password")

	// Mismo nombre: slug con sufijo secuencial.
	resp, out = doJSON(t, http.MethodPost, srv.URL+"/v1/tenants", "", map[string]any{
		"tenant": map[string]any{"name": "Mi Tienda", "email": "contacto@mitienda.com"},
		"owner": map[string]any{
			"first_name": "Bob", "last_name": "Pérez",
			"email": "bob@otra.com", "password": "s3cret-pass",
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, "mi-tienda-1", out["tenant"].(map[string]any)["slug"])

	// Owner duplicado: conflicto.
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/v1/tenants", "", map[string]any{
		"tenant": map[string]any{"name": "Tercera", "email": "x@x.com"},
		"owner": map[string]any{
			"first_name": "Ana", "last_name": "García",
			"email": "ana@mitienda.com", "password": "s3cret-pass",
		},
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	// Body inválido.
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/v1/tenants", "", map[string]any{
		"tenant": map[string]any{"name": ""},
		"owner":  map[string]any{},
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHeldSalesFlow(t *testing.T) {
	srv := newTestServer(t)
	_, token := provision(t, srv.URL, "Mi Tienda", "ana@mitienda.com")

	// 1) Sin token no hay held sales.
	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/v1/held-sales?shop_id=shop-1", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// 2) Hold
	resp, out := doJSON(t, http.MethodPost, srv.URL+"/v1/held-sales", token, map[string]any{
		"shop_id": "shop-1",
		"items":   []map[string]any{{"sku": "A", "qty": 2}},
		"notes":   "gift wrap",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	saleID := out["id"].(string)
	require.NotEmpty(t, saleID)

	// 3) List + count
	resp, out = doJSON(t, http.MethodGet, srv.URL+"/v1/held-sales?shop_id=shop-1", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, out["held_sales"].([]any), 1)

	resp, out = doJSON(t, http.MethodGet, srv.URL+"/v1/held-sales/count?shop_id=shop-1", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.EqualValues(t, 1, out["count"])

	// 4) Retrieve, una sola vez
	resp, out = doJSON(t, http.MethodPost, srv.URL+"/v1/held-sales/"+saleID+"/retrieve", token, map[string]any{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, out["retrieved_at"])

	resp, out = doJSON(t, http.MethodPost, srv.URL+"/v1/held-sales/"+saleID+"/retrieve", token, map[string]any{})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Equal(t, "already_retrieved", out["error"])

	// 5) La recuperada ya no cuenta como activa.
	resp, out = doJSON(t, http.MethodGet, srv.URL+"/v1/held-sales/count?shop_id=shop-1", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.EqualValues(t, 0, out["count"])

	// 6) Delete
	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/v1/held-sales/"+saleID, token, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/v1/held-sales/"+saleID, token, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTenantIsolation(t *testing.T) {
	srv := newTestServer(t)
	_, tokenA := provision(t, srv.URL, "Tienda A", "a@a.com")
	_, tokenB := provision(t, srv.URL, "Tienda B", "b@b.com")

	resp, out := doJSON(t, http.MethodPost, srv.URL+"/v1/held-sales", tokenA, map[string]any{
		"shop_id": "shop-1",
		"items":   []map[string]any{{"sku": "A", "qty": 1}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	saleID := out["id"].(string)

	// El tenant B no ve ni puede tocar la venta de A.
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/v1/held-sales/"+saleID, tokenB, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/v1/held-sales/"+saleID+"/retrieve", tokenB, map[string]any{})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/v1/held-sales/"+saleID, tokenB, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, out = doJSON(t, http.MethodGet, srv.URL+"/v1/held-sales?shop_id=shop-1", tokenB, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Empty(t, out["held_sales"])
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp, out := doJSON(t, http.MethodGet, srv.URL+"/healthz", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", out["status"])

	resp, out = doJSON(t, http.MethodGet, srv.URL+"/readyz", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ready", out["status"])
}
