// Package session define el contexto de identidad que acompaña cada
// operación del core: quién llama y a qué tenant pertenece.
//
// Es un parámetro explícito, no un global: los services reciben la
// Session y derivan de ella el tenant scoping. Un caller sin tenant no
// puede leer nada.
package session

import (
	"context"
	"strings"

	"github.com/cashdesk/cashdesk/internal/store/core"
)

type Session struct {
	UserID   string
	TenantID string
}

// Validate verifica que la sesión esté completa.
func (s Session) Validate() error {
	if strings.TrimSpace(s.UserID) == "" || strings.TrimSpace(s.TenantID) == "" {
		return core.ErrInvalid
	}
	return nil
}

type ctxKey struct{}

// ToContext inyecta la sesión en el contexto (la usa el middleware HTTP).
func ToContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext extrae la sesión; ok=false si el middleware no corrió.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok
}
