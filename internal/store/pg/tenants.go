package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/cashdesk/cashdesk/internal/observability/logger"
	"github.com/cashdesk/cashdesk/internal/store/core"
)

// CreateTenantWithOwner inserta tenant + owner en una transacción. Los
// uniques (slug del tenant, email del usuario) mapean a ErrConflict y
// revierten ambos inserts: nunca queda un tenant sin owner.
func (s *Store) CreateTenantWithOwner(ctx context.Context, t *core.Tenant, owner *core.User) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO tenant (id, name, slug, email, phone, address, is_active, max_users, trial_ends_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`, t.Name, t.Slug, t.Email, t.Phone, t.Address, t.IsActive, t.MaxUsers, t.TrialEndsAt).
		Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return core.ErrConflict
		}
		logger.From(ctx).Error("pg create tenant failed", zap.String("slug", t.Slug), zap.Error(err))
		return err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO app_user (id, tenant_id, first_name, last_name, email, password_hash, role, is_tenant_owner, is_active)
		VALUES (gen_random_uuid(), $1, $2, $3, LOWER($4), $5, $6, $7, $8)
		RETURNING id, created_at
	`, t.ID, owner.FirstName, owner.LastName, owner.Email, owner.PasswordHash,
		owner.Role, owner.IsTenantOwner, owner.IsActive).
		Scan(&owner.ID, &owner.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return core.ErrConflict
		}
		logger.From(ctx).Error("pg create owner failed", zap.String("email", owner.Email), zap.Error(err))
		return err
	}
	owner.TenantID = t.ID

	return tx.Commit(ctx)
}

func (s *Store) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tenant WHERE slug = $1)`, slug).Scan(&exists)
	return exists, err
}

func (s *Store) GetTenantBySlug(ctx context.Context, slug string) (*core.Tenant, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, slug, email, phone, address, is_active, max_users, trial_ends_at, created_at
		FROM tenant WHERE slug = $1 LIMIT 1
	`, slug)

	var t core.Tenant
	if err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.Email, &t.Phone, &t.Address,
		&t.IsActive, &t.MaxUsers, &t.TrialEndsAt, &t.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (s *Store) ListTenants(ctx context.Context) ([]core.Tenant, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, slug, email, phone, address, is_active, max_users, trial_ends_at, created_at
		FROM tenant ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Tenant
	for rows.Next() {
		var t core.Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.Email, &t.Phone, &t.Address,
			&t.IsActive, &t.MaxUsers, &t.TrialEndsAt, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
