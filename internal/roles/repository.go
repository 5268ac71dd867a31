package roles

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/coursepilot/coursepilot/internal/platform/db"
	"github.com/coursepilot/coursepilot/internal/rbac"
	"github.com/coursepilot/coursepilot/internal/shared"
)

// Repository is the role store.
type Repository interface {
	List(ctx context.Context, filters shared.ListFilters, orderBy string) ([]Role, int, error)
	ListAll(ctx context.Context) ([]Role, error)
	Get(ctx context.Context, id int64) (Role, error)
	Create(ctx context.Context, rec Record) (Role, error)
	Update(ctx context.Context, id int64, rec Record, replacePermissions bool) (Role, error)
	Delete(ctx context.Context, id int64) error
	InUse(ctx context.Context, id int64) (bool, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a Postgres backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const roleColumns = `id, name, is_super_admin, created_at, updated_at`

func scanRole(row pgx.Row) (Role, error) {
	var r Role
	err := row.Scan(&r.ID, &r.Name, &r.IsSuperAdmin, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func collectRoles(rows pgx.Rows) ([]Role, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Role, error) {
		return scanRole(row)
	})
}

// List excludes the system role.
func (r *repository) List(ctx context.Context, filters shared.ListFilters, orderBy string) ([]Role, int, error) {
	where := `WHERE name <> $1 AND ($2 = '' OR name ILIKE $3)`
	args := []any{rbac.SystemRoleName, filters.Search, shared.ContainsPattern(filters.Search)}

	var (
		total int
		items []Role
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.pool.QueryRow(gctx, `SELECT COUNT(*) FROM roles `+where, args...).Scan(&total)
	})
	g.Go(func() error {
		rows, err := r.pool.Query(gctx,
			`SELECT `+roleColumns+` FROM roles `+where+` ORDER BY `+orderBy+` LIMIT $4 OFFSET $5`,
			append(args, filters.Limit, filters.Offset())...)
		if err != nil {
			return err
		}
		items, err = collectRoles(rows)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, fmt.Errorf("roles: list: %w", err)
	}
	if err := r.attachPermissions(ctx, items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repository) ListAll(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+roleColumns+` FROM roles ORDER BY lower(name) ASC`)
	if err != nil {
		return nil, fmt.Errorf("roles: list all: %w", err)
	}
	items, err := collectRoles(rows)
	if err != nil {
		return nil, fmt.Errorf("roles: list all: %w", err)
	}
	if err := r.attachPermissions(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Role, error) {
	return r.get(ctx, r.pool, id)
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *repository) get(ctx context.Context, q querier, id int64) (Role, error) {
	role, err := scanRole(q.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id))
	if err != nil {
		if db.IsNoRows(err) {
			return Role{}, shared.NotFound(msgNotFound)
		}
		return Role{}, fmt.Errorf("roles: get: %w", err)
	}
	items := []Role{role}
	if err := attachPermissions(ctx, q, items); err != nil {
		return Role{}, err
	}
	return items[0], nil
}

func (r *repository) Create(ctx context.Context, rec Record) (Role, error) {
	var created Role
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var id int64
		if err := tx.QueryRow(ctx,
			`INSERT INTO roles (name, is_super_admin) VALUES ($1, $2) RETURNING id`,
			rec.Name, rec.IsSuperAdmin).Scan(&id); err != nil {
			return err
		}
		if err := replacePermissions(ctx, tx, id, rec.PermissionIDs); err != nil {
			return err
		}
		var err error
		created, err = r.get(ctx, tx, id)
		return err
	})
	if err != nil {
		return Role{}, translate("create", err)
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, id int64, rec Record, replace bool) (Role, error) {
	var updated Role
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE roles SET name = $2, is_super_admin = $3, updated_at = now() WHERE id = $1`,
			id, rec.Name, rec.IsSuperAdmin)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.NotFound(msgNotFound)
		}
		if replace {
			if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, id); err != nil {
				return err
			}
			if err := replacePermissions(ctx, tx, id, rec.PermissionIDs); err != nil {
				return err
			}
		}
		updated, err = r.get(ctx, tx, id)
		return err
	})
	if err != nil {
		return Role{}, translate("update", err)
	}
	return updated, nil
}

// Delete removes a role. The foreign key on users closes the race between the
// in-use check and the delete.
func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return shared.Conflict(msgInUse)
		}
		return fmt.Errorf("roles: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound(msgNotFound)
	}
	return nil
}

func (r *repository) InUse(ctx context.Context, id int64) (bool, error) {
	var used bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE role_id = $1)`, id).Scan(&used); err != nil {
		return false, fmt.Errorf("roles: in use: %w", err)
	}
	return used, nil
}

func (r *repository) attachPermissions(ctx context.Context, items []Role) error {
	return attachPermissions(ctx, r.pool, items)
}

func attachPermissions(ctx context.Context, q querier, items []Role) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]int64, len(items))
	index := make(map[int64]int, len(items))
	for i, role := range items {
		ids[i] = role.ID
		index[role.ID] = i
		items[i].Permissions = []PermissionRef{}
	}
	rows, err := q.Query(ctx, `
		SELECT rp.role_id, p.id, p.key, p.description
		FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = ANY($1)
		ORDER BY p.key`, ids)
	if err != nil {
		return fmt.Errorf("roles: load permissions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			roleID int64
			ref    PermissionRef
		)
		if err := rows.Scan(&roleID, &ref.ID, &ref.Key, &ref.Description); err != nil {
			return fmt.Errorf("roles: scan permission: %w", err)
		}
		i := index[roleID]
		items[i].Permissions = append(items[i].Permissions, ref)
	}
	return rows.Err()
}

func replacePermissions(ctx context.Context, tx pgx.Tx, roleID int64, permissionIDs []int64) error {
	if len(permissionIDs) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO role_permissions (role_id, permission_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT DO NOTHING`, roleID, permissionIDs)
	return err
}

func translate(op string, err error) error {
	switch {
	case db.IsUniqueViolation(err):
		return shared.Conflict(msgExists)
	case db.IsForeignKeyViolation(err):
		return shared.Invalid(msgUnknownPermission)
	}
	var appErr *shared.Error
	if errors.As(err, &appErr) {
		return err
	}
	return fmt.Errorf("roles: %s: %w", op, err)
}
