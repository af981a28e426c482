// Package router arma el árbol de rutas v1 y su chain de middlewares.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cashdesk/cashdesk/internal/auth"
	"github.com/cashdesk/cashdesk/internal/heldsale"
	httpx "github.com/cashdesk/cashdesk/internal/http"
	"github.com/cashdesk/cashdesk/internal/http/handlers"
	"github.com/cashdesk/cashdesk/internal/observability/logger"
	"github.com/cashdesk/cashdesk/internal/store/core"
	"github.com/cashdesk/cashdesk/internal/tenant"
)

type Deps struct {
	Repo        core.Repository
	Tenants     *tenant.Service
	HeldSales   *heldsale.Service
	Issuer      *auth.Issuer
	CORSOrigins []string
	Registry    prometheus.Registerer // nil => DefaultRegisterer
}

// New construye el handler raíz. El orden del chain importa: request-id
// primero (todo lo demás loguea con él), recover afuera de todo lo que
// pueda explotar.
func New(d Deps) (http.Handler, error) {
	r := chi.NewRouter()

	r.Use(httpx.WithRequestID)
	r.Use(httpx.WithRecover)
	r.Use(httpx.WithMetrics)
	r.Use(httpx.WithAccessLog)

	metricsHandler, err := httpx.RegisterMetrics(d.Registry)
	if err != nil {
		return nil, err
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	(&handlers.HealthHandler{Repo: d.Repo}).Register(r)

	// Alta de tenants: pública, sin auth (todavía no existe nadie que
	// pueda autenticarse contra el tenant).
	(&handlers.TenantsHandler{Svc: d.Tenants, Issuer: d.Issuer}).Register(r)

	// Todo lo tenant-scoped va detrás del bearer.
	r.Group(func(r chi.Router) {
		r.Use(httpx.RequireAuth(d.Issuer))
		(&handlers.HeldSalesHandler{Svc: d.HeldSales}).Register(r)
	})

	var h http.Handler = r
	if len(d.CORSOrigins) > 0 {
		h = httpx.WithCORS(h, d.CORSOrigins)
	}

	logger.L().Debug("router ready")
	return h, nil
}
