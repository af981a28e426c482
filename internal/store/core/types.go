package core

import (
	"encoding/json"
	"time"
)

type Tenant struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	Address     string    `json:"address,omitempty"`
	IsActive    bool      `json:"is_active"`
	MaxUsers    int       `json:"max_users"`
	TrialEndsAt time.Time `json:"trial_ends_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// RoleOwner es el rol sentinel del usuario dueño del tenant.
const RoleOwner = "owner"

type User struct {
	ID            string    `json:"id"`
	TenantID      string    `json:"tenant_id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	Role          string    `json:"role"`
	IsTenantOwner bool      `json:"is_tenant_owner"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

// HeldSale es una venta estacionada para completar más tarde.
// Items se guarda tal cual llega (jsonb); este core no lo interpreta.
type HeldSale struct {
	ID          string          `json:"id"`
	TenantID    string          `json:"tenant_id"`
	ShopID      string          `json:"shop_id"`
	CustomerID  *string         `json:"customer_id,omitempty"`
	Items       json.RawMessage `json:"items"`
	Notes       *string         `json:"notes,omitempty"`
	HeldBy      string          `json:"held_by"`
	CreatedAt   time.Time       `json:"created_at"`
	RetrievedAt *time.Time      `json:"retrieved_at,omitempty"`
	RetrievedBy *string         `json:"retrieved_by,omitempty"`

	// Asociaciones (eager en listados; lifecycle ajeno a este core).
	Customer *CustomerRef `json:"customer,omitempty"`
	Holder   *UserRef     `json:"holder,omitempty"`
}

// Retrieved reporta si la venta ya fue recuperada.
func (h *HeldSale) Retrieved() bool { return h.RetrievedAt != nil }

// UserRef es la proyección mínima de un usuario para adjuntar en listados.
type UserRef struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// CustomerRef referencia a un customer externo (no-owning).
type CustomerRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
