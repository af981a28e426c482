// Package tenant implementa el aprovisionamiento de tenants: alta del
// tenant más su primer usuario administrador, como unidad atómica.
package tenant

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cashdesk/cashdesk/internal/clock"
	"github.com/cashdesk/cashdesk/internal/observability/logger"
	"github.com/cashdesk/cashdesk/internal/security/password"
	"github.com/cashdesk/cashdesk/internal/store/core"
)

const (
	// DefaultMaxUsers aplica cuando el alta no especifica cupo.
	DefaultMaxUsers = 10

	// TrialPeriod es la ventana de prueba desde el aprovisionamiento.
	TrialPeriod = 50 * 24 * time.Hour

	// maxSlugProbes acota el probe secuencial base, base-1, base-2, ...
	// Pasado el tope se intenta una sola vez con sufijo aleatorio y después
	// se reporta conflicto.
	maxSlugProbes = 50
)

type TenantInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	MaxUsers int    `json:"max_users"`
}

type OwnerInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// Welcomer notifica al owner recién creado. La implementación real manda
// un mail; el fallo nunca afecta el alta (ya commiteada).
type Welcomer interface {
	WelcomeOwner(ctx context.Context, t *core.Tenant, owner *core.User) error
}

type Service struct {
	repo    core.Repository
	clk     clock.Clock
	hasher  password.Params
	welcome Welcomer
}

func NewService(repo core.Repository, clk clock.Clock) *Service {
	return &Service{repo: repo, clk: clk, hasher: password.Default}
}

// WithWelcomer habilita la notificación post-alta.
func (s *Service) WithWelcomer(w Welcomer) *Service {
	s.welcome = w
	return s
}

// CreateTenant crea el tenant y su owner en una transacción. Cualquier
// fallo del store (email del owner duplicado incluido) deja cero filas:
// nunca queda un tenant sin owner observable.
func (s *Service) CreateTenant(ctx context.Context, in TenantInput, owner OwnerInput) (*core.Tenant, *core.User, error) {
	if err := validateInputs(in, owner); err != nil {
		return nil, nil, err
	}

	slug, err := s.resolveSlug(ctx, in.Name)
	if err != nil {
		return nil, nil, err
	}

	phc, err := password.Hash(s.hasher, owner.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("hash owner password: %w", err)
	}

	maxUsers := in.MaxUsers
	if maxUsers <= 0 {
		maxUsers = DefaultMaxUsers
	}

	now := s.clk.Now()
	t := &core.Tenant{
		Name:        strings.TrimSpace(in.Name),
		Slug:        slug,
		Email:       normalizeEmail(in.Email),
		Phone:       strings.TrimSpace(in.Phone),
		Address:     strings.TrimSpace(in.Address),
		IsActive:    true,
		MaxUsers:    maxUsers,
		TrialEndsAt: now.Add(TrialPeriod),
	}
	u := &core.User{
		FirstName:     strings.TrimSpace(owner.FirstName),
		LastName:      strings.TrimSpace(owner.LastName),
		Email:         normalizeEmail(owner.Email),
		PasswordHash:  phc,
		Role:          core.RoleOwner,
		IsTenantOwner: true,
		IsActive:      true,
	}

	if err := s.repo.CreateTenantWithOwner(ctx, t, u); err != nil {
		if !errors.Is(err, core.ErrConflict) {
			return nil, nil, err
		}
		// El pre-chequeo de slug es best-effort: un alta concurrente con el
		// mismo nombre puede chocar igual contra el unique de slug. Un solo
		// reintento con sufijo aleatorio; si vuelve a fallar (o el conflicto
		// era el email del owner) se reporta tal cual.
		t.Slug = slug + "-" + randomSuffix()
		if err := s.repo.CreateTenantWithOwner(ctx, t, u); err != nil {
			return nil, nil, err
		}
	}

	if s.welcome != nil {
		tc, uc := *t, *u
		go func() {
			if err := s.welcome.WelcomeOwner(context.Background(), &tc, &uc); err != nil {
				logger.L().Warn("welcome mail failed",
					zap.String("tenant_id", tc.ID), zap.Error(err))
			}
		}()
	}

	logger.From(ctx).Info("tenant provisioned",
		zap.String("tenant_id", t.ID),
		zap.String("slug", t.Slug),
		zap.String("owner_id", u.ID))
	return t, u, nil
}

// GetBySlug expone la lectura por slug (admin / smoke tests).
func (s *Service) GetBySlug(ctx context.Context, slug string) (*core.Tenant, error) {
	return s.repo.GetTenantBySlug(ctx, slug)
}

func (s *Service) List(ctx context.Context) ([]core.Tenant, error) {
	return s.repo.ListTenants(ctx)
}

// resolveSlug calcula el slug base y resuelve colisiones con un probe
// secuencial acotado. El unique del store sigue siendo la guarda real.
func (s *Service) resolveSlug(ctx context.Context, name string) (string, error) {
	base := Slugify(name)
	if base == "" {
		return "", fmt.Errorf("%w: name yields empty slug", core.ErrInvalid)
	}
	candidate := base
	for i := 1; ; i++ {
		exists, err := s.repo.SlugExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		if i > maxSlugProbes {
			// Nombre patológicamente repetido: sufijo aleatorio y listo.
			return base + "-" + randomSuffix(), nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

func validateInputs(in TenantInput, owner OwnerInput) error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return fmt.Errorf("%w: tenant name required", core.ErrInvalid)
	case strings.TrimSpace(in.Email) == "":
		return fmt.Errorf("%w: tenant email required", core.ErrInvalid)
	case strings.TrimSpace(owner.FirstName) == "":
		return fmt.Errorf("%w: owner first_name required", core.ErrInvalid)
	case strings.TrimSpace(owner.LastName) == "":
		return fmt.Errorf("%w: owner last_name required", core.ErrInvalid)
	case strings.TrimSpace(owner.Email) == "":
		return fmt.Errorf("%w: owner email required", core.ErrInvalid)
	case owner.Password == "":
		return fmt.Errorf("%w: owner password required", core.ErrInvalid)
	}
	return nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func randomSuffix() string {
	var b [2]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
