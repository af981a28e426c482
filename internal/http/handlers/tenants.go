// Package handlers expone la superficie HTTP v1 del servicio.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/cashdesk/cashdesk/internal/auth"
	httpx "github.com/cashdesk/cashdesk/internal/http"
	"github.com/cashdesk/cashdesk/internal/observability/logger"
	"github.com/cashdesk/cashdesk/internal/store/core"
	"github.com/cashdesk/cashdesk/internal/tenant"
)

type TenantsHandler struct {
	Svc    *tenant.Service
	Issuer *auth.Issuer
}

func (h *TenantsHandler) Register(r chi.Router) {
	r.Post("/v1/tenants", h.create)
}

type createTenantIn struct {
	Tenant tenant.TenantInput `json:"tenant"`
	Owner  tenant.OwnerInput  `json:"owner"`
}

type createTenantOut struct {
	Tenant      *core.Tenant `json:"tenant"`
	Owner       *core.User   `json:"owner"`
	AccessToken string       `json:"access_token,omitempty"`
	ExpiresAt   *time.Time   `json:"expires_at,omitempty"`
}

// create da de alta tenant + owner. El password del owner viaja en el body
// y muere acá: no se loguea ni aparece en la respuesta.
func (h *TenantsHandler) create(w http.ResponseWriter, r *http.Request) {
	var in createTenantIn
	if !httpx.ReadJSON(w, r, &in) {
		return
	}

	t, u, err := h.Svc.CreateTenant(r.Context(), in.Tenant, in.Owner)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := createTenantOut{Tenant: t, Owner: u}
	if h.Issuer != nil {
		// Token inicial para que el owner entre sin pasar por login.
		tok, exp, terr := h.Issuer.Issue(u.ID, t.ID)
		if terr != nil {
			logger.From(r.Context()).Warn("issue owner token failed", zap.Error(terr))
		} else {
			out.AccessToken = tok
			out.ExpiresAt = &exp
		}
	}
	httpx.WriteJSON(w, http.StatusCreated, out)
}

// writeDomainError mapea los sentinels del core a la respuesta HTTP.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrInvalid):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), 1100)
	case errors.Is(err, core.ErrAlreadyRetrieved):
		httpx.WriteError(w, http.StatusConflict, "already_retrieved", "la venta ya fue recuperada", 1201)
	case errors.Is(err, core.ErrConflict):
		httpx.WriteError(w, http.StatusConflict, "conflict", err.Error(), 1109)
	case errors.Is(err, core.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "recurso inexistente", 1104)
	default:
		logger.From(r.Context()).Error("unhandled domain error", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "error interno", 1500)
	}
}
