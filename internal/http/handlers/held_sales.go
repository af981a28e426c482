package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cashdesk/cashdesk/internal/heldsale"
	httpx "github.com/cashdesk/cashdesk/internal/http"
	"github.com/cashdesk/cashdesk/internal/session"
	"github.com/cashdesk/cashdesk/internal/store/core"
)

type HeldSalesHandler struct {
	Svc *heldsale.Service
}

// Register cuelga las rutas; el middleware de auth ya dejó la sesión en
// context, acá solo se consume.
func (h *HeldSalesHandler) Register(r chi.Router) {
	r.Route("/v1/held-sales", func(r chi.Router) {
		r.Post("/", h.hold)
		r.Get("/", h.list)
		r.Get("/count", h.count)
		r.Get("/{id}", h.get)
		r.Post("/{id}/retrieve", h.retrieve)
		r.Delete("/{id}", h.delete)
	})
}

func sessionOr401(w http.ResponseWriter, r *http.Request) (session.Session, bool) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "sesión ausente", 1401)
		return session.Session{}, false
	}
	return sess, true
}

func (h *HeldSalesHandler) hold(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOr401(w, r)
	if !ok {
		return
	}
	var in heldsale.HoldInput
	if !httpx.ReadJSON(w, r, &in) {
		return
	}
	hs, err := h.Svc.Hold(r.Context(), sess, in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, hs)
}

func (h *HeldSalesHandler) list(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOr401(w, r)
	if !ok {
		return
	}
	shopID := strings.TrimSpace(r.URL.Query().Get("shop_id"))
	if shopID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "shop_id requerido", 1100)
		return
	}
	sales, err := h.Svc.Active(r.Context(), sess, shopID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if sales == nil {
		sales = []core.HeldSale{}
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"held_sales": sales})
}

func (h *HeldSalesHandler) count(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOr401(w, r)
	if !ok {
		return
	}
	shopID := strings.TrimSpace(r.URL.Query().Get("shop_id"))
	if shopID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "shop_id requerido", 1100)
		return
	}
	n, err := h.Svc.ActiveCount(r.Context(), sess, shopID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]int64{"count": n})
}

func (h *HeldSalesHandler) get(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOr401(w, r)
	if !ok {
		return
	}
	hs, err := h.Svc.Get(r.Context(), sess, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, hs)
}

func (h *HeldSalesHandler) retrieve(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOr401(w, r)
	if !ok {
		return
	}
	hs, err := h.Svc.Retrieve(r.Context(), sess, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, hs)
}

func (h *HeldSalesHandler) delete(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOr401(w, r)
	if !ok {
		return
	}
	ok, err := h.Svc.Delete(r.Context(), sess, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if !ok {
		httpx.WriteError(w, http.StatusNotFound, "not_found", "recurso inexistente", 1104)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
