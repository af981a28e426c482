package tenant_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cashdesk/cashdesk/internal/clock"
	"github.com/cashdesk/cashdesk/internal/security/password"
	"github.com/cashdesk/cashdesk/internal/store/core"
	"github.com/cashdesk/cashdesk/internal/store/memory"
	"github.com/cashdesk/cashdesk/internal/tenant"
)

func fixedClock() *clock.Fixed {
	return &clock.Fixed{T: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
}

func validInputs(name, ownerEmail string) (tenant.TenantInput, tenant.OwnerInput) {
	return tenant.TenantInput{
			Name:  name,
			Email: "contacto@" + ownerEmail,
		}, tenant.OwnerInput{
			FirstName: "Ana",
			LastName:  "García",
			Email:     ownerEmail,
			Password:  "s3cret-pass",
		}
}

func TestCreateTenant_Defaults(t *testing.T) {
	repo := memory.New()
	clk := fixedClock()
	svc := tenant.NewService(repo, clk)

	in, owner := validInputs("Mi Tienda", "ana@mitienda.com")
	tn, u, err := svc.CreateTenant(context.Background(), in, owner)
	require.NoError(t, err)

	require.NotEmpty(t, tn.ID)
	require.Equal(t, "mi-tienda", tn.Slug)
	require.True(t, tn.IsActive)
	require.Equal(t, 10, tn.MaxUsers)
	require.Equal(t, clk.T.Add(50*24*time.Hour), tn.TrialEndsAt)

	require.Equal(t, tn.ID, u.TenantID)
	require.Equal(t, core.RoleOwner, u.Role)
	require.True(t, u.IsTenantOwner)
	require.True(t, u.IsActive)
	require.Equal(t, "ana@mitienda.com", u.Email)

	// El hash nunca es el plaintext y verifica.
	require.NotEqual(t, owner.Password, u.PasswordHash)
	require.True(t, password.Verify(owner.Password, u.PasswordHash))
}

func TestCreateTenant_SlugSequence(t *testing.T) {
	repo := memory.New()
	svc := tenant.NewService(repo, fixedClock())
	ctx := context.Background()

	for i, want := range []string{"mi-tienda", "mi-tienda-1", "mi-tienda-2"} {
		in, owner := validInputs("Mi Tienda", "owner"+want+"@x.com")
		tn, _, err := svc.CreateTenant(ctx, in, owner)
		require.NoError(t, err, "alta %d", i)
		require.Equal(t, want, tn.Slug)
	}
}

func TestCreateTenant_AtomicOnOwnerEmailConflict(t *testing.T) {
	repo := memory.New()
	svc := tenant.NewService(repo, fixedClock())
	ctx := context.Background()

	in, owner := validInputs("Tienda Uno", "dup@x.com")
	_, _, err := svc.CreateTenant(ctx, in, owner)
	require.NoError(t, err)

	// Mismo email de owner, otro tenant: falla y no queda el tenant nuevo.
	in2, owner2 := validInputs("Tienda Dos", "dup@x.com")
	_, _, err = svc.CreateTenant(ctx, in2, owner2)
	require.ErrorIs(t, err, core.ErrConflict)

	_, err = svc.GetBySlug(ctx, "tienda-dos")
	require.ErrorIs(t, err, core.ErrNotFound)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestCreateTenant_Validation(t *testing.T) {
	svc := tenant.NewService(memory.New(), fixedClock())
	ctx := context.Background()

	in, owner := validInputs("Mi Tienda", "ana@x.com")

	for name, mutate := range map[string]func(*tenant.TenantInput, *tenant.OwnerInput){
		"sin nombre":       func(i *tenant.TenantInput, o *tenant.OwnerInput) { i.Name = "  " },
		"sin email tenant": func(i *tenant.TenantInput, o *tenant.OwnerInput) { i.Email = "" },
		"sin first name":   func(i *tenant.TenantInput, o *tenant.OwnerInput) { o.FirstName = "" },
		"sin last name":    func(i *tenant.TenantInput, o *tenant.OwnerInput) { o.LastName = "" },
		"sin email owner":  func(i *tenant.TenantInput, o *tenant.OwnerInput) { o.Email = "" },
		"sin password":     func(i *tenant.TenantInput, o *tenant.OwnerInput) { o.Password = "" },
		"nombre sin slug":  func(i *tenant.TenantInput, o *tenant.OwnerInput) { i.Name = "!!!" },
	} {
		i2, o2 := in, owner
		mutate(&i2, &o2)
		_, _, err := svc.CreateTenant(ctx, i2, o2)
		require.ErrorIs(t, err, core.ErrInvalid, name)
	}
}

func TestCreateTenant_EmailNormalized(t *testing.T) {
	svc := tenant.NewService(memory.New(), fixedClock())

	in, owner := validInputs("Mi Tienda", "ana@x.com")
	owner.Email = "  Ana@X.COM "
	_, u, err := svc.CreateTenant(context.Background(), in, owner)
	require.NoError(t, err)
	require.Equal(t, "ana@x.com", u.Email)
}

type welcomeSpy struct {
	ch chan string
}

func (w *welcomeSpy) WelcomeOwner(_ context.Context, tn *core.Tenant, _ *core.User) error {
	w.ch <- tn.Slug
	return nil
}

func TestCreateTenant_WelcomeIsAsync(t *testing.T) {
	spy := &welcomeSpy{ch: make(chan string, 1)}
	svc := tenant.NewService(memory.New(), fixedClock()).WithWelcomer(spy)

	in, owner := validInputs("Mi Tienda", "ana@x.com")
	_, _, err := svc.CreateTenant(context.Background(), in, owner)
	require.NoError(t, err)

	select {
	case slug := <-spy.ch:
		require.Equal(t, "mi-tienda", slug)
	case <-time.After(2 * time.Second):
		t.Fatal("welcome nunca corrió")
	}
}

func TestCreateTenant_SlugProbeBound(t *testing.T) {
	repo := memory.New()
	svc := tenant.NewService(repo, fixedClock())
	ctx := context.Background()

	// x, x-1 ... x-50: se agota el probe secuencial.
	for i := 0; i <= 50; i++ {
		in, owner := validInputs("x", fmt.Sprintf("owner%d@x.com", i))
		_, _, err := svc.CreateTenant(ctx, in, owner)
		require.NoError(t, err)
	}

	in, owner := validInputs("x", "overflow@x.com")
	tn, _, err := svc.CreateTenant(ctx, in, owner)
	require.NoError(t, err)
	require.Regexp(t, `^x-[0-9a-f]{4}$`, tn.Slug)
}

func TestCreateTenant_ConflictRetryUsesRandomSuffix(t *testing.T) {
	repo := &racingRepo{Store: memory.New()}
	svc := tenant.NewService(repo, fixedClock())

	in, owner := validInputs("Mi Tienda", "ana@x.com")
	tn, _, err := svc.CreateTenant(context.Background(), in, owner)
	require.NoError(t, err)
	// El primer intento chocó: el slug final lleva sufijo.
	require.Regexp(t, `^mi-tienda-[0-9a-f]{4}$`, tn.Slug)
}

// racingRepo simula un alta concurrente que gana el slug entre el
// pre-chequeo y el insert.
type racingRepo struct {
	*memory.Store
	raced bool
}

func (r *racingRepo) CreateTenantWithOwner(ctx context.Context, tn *core.Tenant, owner *core.User) error {
	if !r.raced {
		r.raced = true
		return core.ErrConflict
	}
	return r.Store.CreateTenantWithOwner(ctx, tn, owner)
}
