package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cashdesk/cashdesk/internal/store/core"
)

// heldSaleCols son las columnas propias + las proyecciones del customer y
// del holder (LEFT JOIN: el customer es opcional).
const heldSaleCols = `
	h.id, h.tenant_id, h.shop_id, h.customer_id, h.items, h.notes,
	h.held_by, h.created_at, h.retrieved_at, h.retrieved_by,
	c.id, c.name,
	u.id, u.first_name, u.last_name, u.email`

const heldSaleFrom = `
	FROM held_sale h
	LEFT JOIN customer c ON c.id = h.customer_id
	JOIN app_user u ON u.id = h.held_by`

func scanHeldSale(row pgx.Row) (*core.HeldSale, error) {
	var h core.HeldSale
	var custID, custName *string
	var uID, uFirst, uLast, uEmail *string

	err := row.Scan(
		&h.ID, &h.TenantID, &h.ShopID, &h.CustomerID, &h.Items, &h.Notes,
		&h.HeldBy, &h.CreatedAt, &h.RetrievedAt, &h.RetrievedBy,
		&custID, &custName,
		&uID, &uFirst, &uLast, &uEmail,
	)
	if err != nil {
		return nil, err
	}
	if custID != nil {
		h.Customer = &core.CustomerRef{ID: *custID, Name: deref(custName)}
	}
	if uID != nil {
		h.Holder = &core.UserRef{ID: *uID, FirstName: deref(uFirst), LastName: deref(uLast), Email: deref(uEmail)}
	}
	return &h, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (s *Store) CreateHeldSale(ctx context.Context, h *core.HeldSale) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO held_sale (id, tenant_id, shop_id, customer_id, items, notes, held_by, created_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, h.TenantID, h.ShopID, h.CustomerID, h.Items, h.Notes, h.HeldBy, h.CreatedAt).
		Scan(&h.ID)
}

// RetrieveHeldSale aplica la transición held→retrieved como un único
// UPDATE condicional: el predicado retrieved_at IS NULL hace que solo un
// caller concurrente pueda ganarla. Con cero filas afectadas se
// distingue después si era inexistente o ya recuperada.
func (s *Store) RetrieveHeldSale(ctx context.Context, tenantID, id, userID string, at time.Time) (*core.HeldSale, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE held_sale
		SET retrieved_at = $1, retrieved_by = $2
		WHERE id = $3 AND tenant_id = $4 AND retrieved_at IS NULL
	`, at, userID, id, tenantID)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM held_sale WHERE id = $1 AND tenant_id = $2)`,
			id, tenantID).Scan(&exists); err != nil {
			return nil, err
		}
		if exists {
			return nil, core.ErrAlreadyRetrieved
		}
		return nil, core.ErrNotFound
	}
	return s.GetHeldSale(ctx, tenantID, id)
}

func (s *Store) DeleteHeldSale(ctx context.Context, tenantID, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM held_sale WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) ActiveHeldSales(ctx context.Context, tenantID, shopID string, expiredBefore time.Time) ([]core.HeldSale, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+heldSaleCols+heldSaleFrom+`
		WHERE h.tenant_id = $1 AND h.shop_id = $2
		  AND h.retrieved_at IS NULL AND h.created_at > $3
		ORDER BY h.created_at DESC
	`, tenantID, shopID, expiredBefore)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.HeldSale
	for rows.Next() {
		h, err := scanHeldSale(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *h)
	}
	return out, rows.Err()
}

func (s *Store) ActiveHeldSaleCount(ctx context.Context, tenantID, shopID string, expiredBefore time.Time) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM held_sale
		WHERE tenant_id = $1 AND shop_id = $2
		  AND retrieved_at IS NULL AND created_at > $3
	`, tenantID, shopID, expiredBefore).Scan(&n)
	return n, err
}

func (s *Store) GetHeldSale(ctx context.Context, tenantID, id string) (*core.HeldSale, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+heldSaleCols+heldSaleFrom+`
		WHERE h.id = $1 AND h.tenant_id = $2
		LIMIT 1
	`, id, tenantID)

	h, err := scanHeldSale(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return h, nil
}

// DeleteExpiredHeldSales es la purga cross-tenant del cleaner.
func (s *Store) DeleteExpiredHeldSales(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM held_sale WHERE created_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
