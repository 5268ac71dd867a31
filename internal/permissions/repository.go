package permissions

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/coursepilot/coursepilot/internal/platform/db"
	"github.com/coursepilot/coursepilot/internal/rbac"
	"github.com/coursepilot/coursepilot/internal/shared"
)

// Repository is the permission store.
type Repository interface {
	Upsert(ctx context.Context, key rbac.Key, description string) (bool, error)
	Create(ctx context.Context, key rbac.Key, description string) (Permission, error)
	Get(ctx context.Context, id int64) (Permission, error)
	GetByKey(ctx context.Context, key rbac.Key) (Permission, error)
	List(ctx context.Context, filters shared.ListFilters, orderBy string) ([]Permission, int, error)
	ListAll(ctx context.Context) ([]Permission, error)
	Update(ctx context.Context, id int64, key rbac.Key, description string) (Permission, error)
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

const permissionColumns = `id, key, description, created_at, updated_at`

func scanPermission(row pgx.Row) (Permission, error) {
	var p Permission
	err := row.Scan(&p.ID, &p.Key, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// Upsert inserts the key unless it already exists and reports whether a row was created.
func (r *repository) Upsert(ctx context.Context, key rbac.Key, description string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO permissions (key, description) VALUES ($1, $2) ON CONFLICT (key) DO NOTHING`,
		key.String(), description)
	if err != nil {
		return false, fmt.Errorf("permissions: upsert %s: %w", key, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *repository) Create(ctx context.Context, key rbac.Key, description string) (Permission, error) {
	p, err := scanPermission(r.pool.QueryRow(ctx,
		`INSERT INTO permissions (key, description) VALUES ($1, $2) RETURNING `+permissionColumns,
		key.String(), description))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Permission{}, shared.Conflict("Permission already exists")
		}
		return Permission{}, fmt.Errorf("permissions: create: %w", err)
	}
	return p, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Permission, error) {
	p, err := scanPermission(r.pool.QueryRow(ctx, `SELECT `+permissionColumns+` FROM permissions WHERE id = $1`, id))
	if err != nil {
		if db.IsNoRows(err) {
			return Permission{}, shared.NotFound("Permission not found")
		}
		return Permission{}, fmt.Errorf("permissions: get: %w", err)
	}
	return p, nil
}

func (r *repository) GetByKey(ctx context.Context, key rbac.Key) (Permission, error) {
	p, err := scanPermission(r.pool.QueryRow(ctx, `SELECT `+permissionColumns+` FROM permissions WHERE key = $1`, key.String()))
	if err != nil {
		if db.IsNoRows(err) {
			return Permission{}, shared.NotFound("Permission not found")
		}
		return Permission{}, fmt.Errorf("permissions: get by key: %w", err)
	}
	return p, nil
}

// List runs the count and the page query concurrently.
func (r *repository) List(ctx context.Context, filters shared.ListFilters, orderBy string) ([]Permission, int, error) {
	where := `WHERE ($1 = '' OR key ILIKE $2)`
	pattern := shared.ContainsPattern(filters.Search)

	var (
		total int
		items []Permission
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.pool.QueryRow(gctx, `SELECT COUNT(*) FROM permissions `+where, filters.Search, pattern).Scan(&total)
	})
	g.Go(func() error {
		rows, err := r.pool.Query(gctx,
			`SELECT `+permissionColumns+` FROM permissions `+where+` ORDER BY `+orderBy+` LIMIT $3 OFFSET $4`,
			filters.Search, pattern, filters.Limit, filters.Offset())
		if err != nil {
			return err
		}
		items, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (Permission, error) {
			return scanPermission(row)
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, fmt.Errorf("permissions: list: %w", err)
	}
	return items, total, nil
}

func (r *repository) ListAll(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+permissionColumns+` FROM permissions ORDER BY key ASC`)
	if err != nil {
		return nil, fmt.Errorf("permissions: list all: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Permission, error) {
		return scanPermission(row)
	})
	if err != nil {
		return nil, fmt.Errorf("permissions: list all: %w", err)
	}
	return items, nil
}

func (r *repository) Update(ctx context.Context, id int64, key rbac.Key, description string) (Permission, error) {
	p, err := scanPermission(r.pool.QueryRow(ctx,
		`UPDATE permissions SET key = $2, description = $3, updated_at = now() WHERE id = $1 RETURNING `+permissionColumns,
		id, key.String(), description))
	if err != nil {
		switch {
		case db.IsNoRows(err):
			return Permission{}, shared.NotFound("Permission not found")
		case db.IsUniqueViolation(err):
			return Permission{}, shared.Conflict("Permission already exists")
		}
		return Permission{}, fmt.Errorf("permissions: update: %w", err)
	}
	return p, nil
}

// Delete removes a permission. The foreign key on role_permissions closes the
// race between the in-use check and the delete.
func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM permissions WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return shared.Conflict(ErrInUseMessage)
		}
		return fmt.Errorf("permissions: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("Permission not found")
	}
	return nil
}

func (r *repository) InUse(ctx context.Context, id int64) (bool, error) {
	var used bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM role_permissions WHERE permission_id = $1)`, id).Scan(&used)
	if err != nil {
		return false, fmt.Errorf("permissions: in use: %w", err)
	}
	return used, nil
}
