// Package heldsale implementa el ciclo de vida de las ventas en espera:
// hold, retrieve (una sola vez), delete, listados activos y purga por
// expiración. Todas las operaciones llevan el scoping del tenant de la
// sesión; el tenant nunca viene del caller.
package heldsale

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cashdesk/cashdesk/internal/cache"
	"github.com/cashdesk/cashdesk/internal/clock"
	"github.com/cashdesk/cashdesk/internal/observability/logger"
	"github.com/cashdesk/cashdesk/internal/session"
	"github.com/cashdesk/cashdesk/internal/store/core"
)

// DefaultRetention es el horizonte de expiración por defecto: una venta
// en espera creada hace más de esto deja de ser activa y es purgable.
const DefaultRetention = 24 * time.Hour

// countTTL acota la vida del contador cacheado; la invalidación explícita
// en cada mutación hace el resto.
const countTTL = 30 * time.Second

type HoldInput struct {
	ShopID     string          `json:"shop_id"`
	Items      json.RawMessage `json:"items"`
	CustomerID *string         `json:"customer_id,omitempty"`
	Notes      *string         `json:"notes,omitempty"`
}

type Service struct {
	repo      core.Repository
	clk       clock.Clock
	retention time.Duration
	counts    cache.Client // opcional; nil desactiva el cache de contadores
}

func NewService(repo core.Repository, clk clock.Clock, retention time.Duration) *Service {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Service{repo: repo, clk: clk, retention: retention}
}

// WithCountCache habilita el cache del contador de activas por shop.
func (s *Service) WithCountCache(c cache.Client) *Service {
	s.counts = c
	return s
}

// Retention expone el horizonte configurado (lo usa el cleaner).
func (s *Service) Retention() time.Duration { return s.retention }

// Hold estaciona una venta. Items se persiste tal cual llega: la
// validación del contenido es responsabilidad del caller (POS frontend),
// no de este layer.
func (s *Service) Hold(ctx context.Context, sess session.Session, in HoldInput) (*core.HeldSale, error) {
	if err := sess.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.ShopID) == "" {
		return nil, fmt.Errorf("%w: shop_id required", core.ErrInvalid)
	}
	items := in.Items
	if len(items) == 0 {
		items = json.RawMessage("[]")
	}

	h := &core.HeldSale{
		TenantID:   sess.TenantID,
		ShopID:     strings.TrimSpace(in.ShopID),
		CustomerID: in.CustomerID,
		Items:      items,
		Notes:      in.Notes,
		HeldBy:     sess.UserID,
		CreatedAt:  s.clk.Now(),
	}
	if err := s.repo.CreateHeldSale(ctx, h); err != nil {
		return nil, err
	}
	s.dropCount(ctx, sess.TenantID, h.ShopID)

	logger.From(ctx).Info("sale held",
		logger.HeldSale(h.ID), logger.ShopID(h.ShopID), logger.TenantID(h.TenantID))
	return h, nil
}

// Retrieve recupera una venta en espera. La transición es irreversible y
// única: el store la aplica como UPDATE condicional, así dos retrieves
// concurrentes no pueden pasar los dos.
func (s *Service) Retrieve(ctx context.Context, sess session.Session, id string) (*core.HeldSale, error) {
	if err := sess.Validate(); err != nil {
		return nil, err
	}
	h, err := s.repo.RetrieveHeldSale(ctx, sess.TenantID, id, sess.UserID, s.clk.Now())
	if err != nil {
		return nil, err
	}
	s.dropCount(ctx, sess.TenantID, h.ShopID)

	logger.From(ctx).Info("held sale retrieved",
		logger.HeldSale(h.ID), logger.UserID(sess.UserID))
	return h, nil
}

// Delete borra sin restricción de estado (una venta recuperada también se
// puede borrar). Devuelve si había fila.
func (s *Service) Delete(ctx context.Context, sess session.Session, id string) (bool, error) {
	if err := sess.Validate(); err != nil {
		return false, err
	}
	// Necesitamos el shop para invalidar el contador; best-effort.
	var shopID string
	if h, err := s.repo.GetHeldSale(ctx, sess.TenantID, id); err == nil {
		shopID = h.ShopID
	}
	ok, err := s.repo.DeleteHeldSale(ctx, sess.TenantID, id)
	if err != nil {
		return false, err
	}
	if ok && shopID != "" {
		s.dropCount(ctx, sess.TenantID, shopID)
	}
	return ok, nil
}

// Active lista las ventas activas (no recuperadas, no expiradas) de un
// shop, más nuevas primero, con customer y holder adjuntos.
func (s *Service) Active(ctx context.Context, sess session.Session, shopID string) ([]core.HeldSale, error) {
	if err := sess.Validate(); err != nil {
		return nil, err
	}
	return s.repo.ActiveHeldSales(ctx, sess.TenantID, shopID, s.expiryCutoff())
}

// ActiveCount cuenta las activas de un shop; pasa por el cache si está
// habilitado.
func (s *Service) ActiveCount(ctx context.Context, sess session.Session, shopID string) (int64, error) {
	if err := sess.Validate(); err != nil {
		return 0, err
	}
	key := countKey(sess.TenantID, shopID)
	if s.counts != nil {
		if v, err := s.counts.Get(ctx, key); err == nil {
			if n, perr := strconv.ParseInt(v, 10, 64); perr == nil {
				return n, nil
			}
		}
	}
	n, err := s.repo.ActiveHeldSaleCount(ctx, sess.TenantID, shopID, s.expiryCutoff())
	if err != nil {
		return 0, err
	}
	if s.counts != nil {
		if cerr := s.counts.Set(ctx, key, strconv.FormatInt(n, 10), countTTL); cerr != nil {
			logger.From(ctx).Warn("count cache set failed", zap.Error(cerr))
		}
	}
	return n, nil
}

// Get busca por id en cualquier estado. Ausente y cross-tenant son el
// mismo ErrNotFound: no se puede sondear la existencia de otros tenants.
func (s *Service) Get(ctx context.Context, sess session.Session, id string) (*core.HeldSale, error) {
	if err := sess.Validate(); err != nil {
		return nil, err
	}
	return s.repo.GetHeldSale(ctx, sess.TenantID, id)
}

// CleanupExpired purga, para todos los tenants, lo creado antes del
// horizonte de retención. Pensado para el cleaner periódico; correrlo dos
// veces seguidas borra cero la segunda.
func (s *Service) CleanupExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpiredHeldSales(ctx, s.expiryCutoff())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.From(ctx).Info("expired held sales purged", zap.Int64("deleted", n))
	}
	return n, nil
}

func (s *Service) expiryCutoff() time.Time {
	return s.clk.Now().Add(-s.retention)
}

func (s *Service) dropCount(ctx context.Context, tenantID, shopID string) {
	if s.counts == nil {
		return
	}
	if err := s.counts.Delete(ctx, countKey(tenantID, shopID)); err != nil {
		logger.From(ctx).Warn("count cache invalidation failed", zap.Error(err))
	}
}

func countKey(tenantID, shopID string) string {
	return "heldsales:active:" + tenantID + ":" + shopID
}
