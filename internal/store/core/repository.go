package core

import (
	"context"
	"time"
)

// Repository es el contrato de persistencia del core.
// Todas las operaciones de held sales reciben el tenantID explícito:
// el scoping multi-tenant se decide arriba (session), nunca acá.
type Repository interface {
	Ping(ctx context.Context) error
	Close()

	// ------- Tenants -------

	// CreateTenantWithOwner inserta tenant + owner en una transacción.
	// Cualquier fallo (email duplicado, slug duplicado) revierte ambos
	// inserts; los conflictos de unicidad se reportan como ErrConflict.
	CreateTenantWithOwner(ctx context.Context, t *Tenant, owner *User) error
	SlugExists(ctx context.Context, slug string) (bool, error)
	GetTenantBySlug(ctx context.Context, slug string) (*Tenant, error)
	ListTenants(ctx context.Context) ([]Tenant, error)

	// ------- Held sales -------

	CreateHeldSale(ctx context.Context, h *HeldSale) error

	// RetrieveHeldSale marca la venta como recuperada en un único UPDATE
	// condicional (retrieved_at IS NULL). Devuelve ErrAlreadyRetrieved si
	// la fila existe pero ya fue recuperada, ErrNotFound si no existe o
	// pertenece a otro tenant.
	RetrieveHeldSale(ctx context.Context, tenantID, id, userID string, at time.Time) (*HeldSale, error)

	// DeleteHeldSale borra sin mirar estado; reporta si afectó una fila.
	DeleteHeldSale(ctx context.Context, tenantID, id string) (bool, error)

	// ActiveHeldSales lista las ventas no recuperadas creadas después de
	// expiredBefore, con customer y holder adjuntos, más nuevas primero.
	ActiveHeldSales(ctx context.Context, tenantID, shopID string, expiredBefore time.Time) ([]HeldSale, error)
	ActiveHeldSaleCount(ctx context.Context, tenantID, shopID string, expiredBefore time.Time) (int64, error)

	// GetHeldSale busca por id en cualquier estado, scoped al tenant.
	GetHeldSale(ctx context.Context, tenantID, id string) (*HeldSale, error)

	// DeleteExpiredHeldSales purga, cross-tenant, todo lo creado antes del
	// corte. Idempotente: una segunda corrida no encuentra nada.
	DeleteExpiredHeldSales(ctx context.Context, before time.Time) (int64, error)
}
