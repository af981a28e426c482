// Package memory implementa core.Repository en memoria. Se usa en tests
// de services y como backend de desarrollo sin Postgres; replica la
// semántica del driver pg (uniques, update condicional, scoping).
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cashdesk/cashdesk/internal/store/core"
)

type Store struct {
	mu        sync.Mutex
	tenants   map[string]*core.Tenant   // by id
	users     map[string]*core.User     // by id
	heldSales map[string]*core.HeldSale // by id
	customers map[string]string         // id -> name

	now func() time.Time
}

func New() *Store {
	return &Store{
		tenants:   make(map[string]*core.Tenant),
		users:     make(map[string]*core.User),
		heldSales: make(map[string]*core.HeldSale),
		customers: make(map[string]string),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close()                     {}

// SeedCustomer registra un customer para que los listados lo adjunten.
func (s *Store) SeedCustomer(id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[id] = name
}

// ------- Tenants -------

func (s *Store) CreateTenantWithOwner(_ context.Context, t *core.Tenant, owner *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ex := range s.tenants {
		if ex.Slug == t.Slug {
			return core.ErrConflict
		}
	}
	for _, ex := range s.users {
		if strings.EqualFold(ex.Email, owner.Email) {
			return core.ErrConflict
		}
	}

	// Ambos checks pasaron: recién acá se materializa algo, igual que la
	// transacción del driver pg.
	t.ID = uuid.NewString()
	t.CreatedAt = s.now()
	tc := *t
	s.tenants[t.ID] = &tc

	owner.ID = uuid.NewString()
	owner.TenantID = t.ID
	owner.CreatedAt = s.now()
	oc := *owner
	s.users[owner.ID] = &oc
	return nil
}

func (s *Store) SlugExists(_ context.Context, slug string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tenants {
		if t.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) GetTenantBySlug(_ context.Context, slug string) (*core.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tenants {
		if t.Slug == slug {
			tc := *t
			return &tc, nil
		}
	}
	return nil, core.ErrNotFound
}

func (s *Store) ListTenants(_ context.Context) ([]core.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Tenant, 0, len(s.tenants))
	for _, t := range s.tenants {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ------- Held sales -------

func (s *Store) CreateHeldSale(_ context.Context, h *core.HeldSale) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h.ID = uuid.NewString()
	if h.CreatedAt.IsZero() {
		h.CreatedAt = s.now()
	}
	hc := *h
	s.heldSales[h.ID] = &hc
	return nil
}

func (s *Store) RetrieveHeldSale(_ context.Context, tenantID, id, userID string, at time.Time) (*core.HeldSale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.heldSales[id]
	if !ok || h.TenantID != tenantID {
		return nil, core.ErrNotFound
	}
	if h.RetrievedAt != nil {
		return nil, core.ErrAlreadyRetrieved
	}
	atc := at
	h.RetrievedAt = &atc
	h.RetrievedBy = &userID
	return s.attachLocked(h), nil
}

func (s *Store) DeleteHeldSale(_ context.Context, tenantID, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.heldSales[id]
	if !ok || h.TenantID != tenantID {
		return false, nil
	}
	delete(s.heldSales, id)
	return true, nil
}

func (s *Store) ActiveHeldSales(_ context.Context, tenantID, shopID string, expiredBefore time.Time) ([]core.HeldSale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.HeldSale
	for _, h := range s.heldSales {
		if h.TenantID != tenantID || h.ShopID != shopID {
			continue
		}
		if h.RetrievedAt != nil || !h.CreatedAt.After(expiredBefore) {
			continue
		}
		out = append(out, *s.attachLocked(h))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ActiveHeldSaleCount(ctx context.Context, tenantID, shopID string, expiredBefore time.Time) (int64, error) {
	list, err := s.ActiveHeldSales(ctx, tenantID, shopID, expiredBefore)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

func (s *Store) GetHeldSale(_ context.Context, tenantID, id string) (*core.HeldSale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.heldSales[id]
	if !ok || h.TenantID != tenantID {
		return nil, core.ErrNotFound
	}
	return s.attachLocked(h), nil
}

func (s *Store) DeleteExpiredHeldSales(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, h := range s.heldSales {
		if h.CreatedAt.Before(before) {
			delete(s.heldSales, id)
			n++
		}
	}
	return n, nil
}

// attachLocked clona y adjunta customer + holder; requiere mu tomado.
func (s *Store) attachLocked(h *core.HeldSale) *core.HeldSale {
	hc := *h
	if h.CustomerID != nil {
		if name, ok := s.customers[*h.CustomerID]; ok {
			hc.Customer = &core.CustomerRef{ID: *h.CustomerID, Name: name}
		}
	}
	if u, ok := s.users[h.HeldBy]; ok {
		hc.Holder = &core.UserRef{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email}
	}
	return &hc
}
