package users

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/coursepilot/coursepilot/internal/platform/db"
	"github.com/coursepilot/coursepilot/internal/rbac"
	"github.com/coursepilot/coursepilot/internal/shared"
)

// Repository is the user store.
type Repository interface {
	List(ctx context.Context, filters ListFilters, orderBy string) ([]User, int, error)
	ListActive(ctx context.Context) ([]User, error)
	Get(ctx context.Context, id int64) (User, error)
	Create(ctx context.Context, rec Record) (User, error)
	Update(ctx context.Context, id int64, rec Record) (User, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a Postgres backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const userSelect = `
	SELECT u.id, u.username, u.password_hash, u.fullname, u.email, u.phone, u.is_active,
	       u.created_at, u.updated_at, r.id, r.name, r.is_super_admin
	FROM users u
	JOIN roles r ON r.id = u.role_id`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Fullname, &u.Email, &u.Phone, &u.IsActive,
		&u.CreatedAt, &u.UpdatedAt, &u.Role.ID, &u.Role.Name, &u.Role.IsSuperAdmin)
	return u, err
}

func collectUsers(rows pgx.Rows) ([]User, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (User, error) {
		return scanUser(row)
	})
}

// listWhere builds the filter clause. The system user is never listed.
func listWhere(filters ListFilters) (string, []any) {
	where := `WHERE u.username <> $1`
	args := []any{rbac.SystemUsername}
	if filters.Search != "" {
		args = append(args, shared.ContainsPattern(filters.Search))
		n := strconv.Itoa(len(args))
		where += ` AND (u.username ILIKE $` + n + ` OR u.fullname ILIKE $` + n + ` OR u.email ILIKE $` + n + `)`
	}
	if filters.RoleID > 0 {
		args = append(args, filters.RoleID)
		where += ` AND u.role_id = $` + strconv.Itoa(len(args))
	}
	if filters.IsActive != nil {
		args = append(args, *filters.IsActive)
		where += ` AND u.is_active = $` + strconv.Itoa(len(args))
	}
	return where, args
}

func (r *repository) List(ctx context.Context, filters ListFilters, orderBy string) ([]User, int, error) {
	where, args := listWhere(filters)
	n := len(args)

	var (
		total int
		items []User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.pool.QueryRow(gctx, `SELECT COUNT(*) FROM users u `+where, args...).Scan(&total)
	})
	g.Go(func() error {
		query := userSelect + ` ` + where + ` ORDER BY ` + orderBy +
			` LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)
		rows, err := r.pool.Query(gctx, query, append(args, filters.Limit, filters.Offset())...)
		if err != nil {
			return err
		}
		items, err = collectUsers(rows)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, fmt.Errorf("users: list: %w", err)
	}
	return items, total, nil
}

// ListActive returns every active user ordered by username, for pickers.
func (r *repository) ListActive(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, userSelect+` WHERE u.is_active ORDER BY lower(u.username) ASC`)
	if err != nil {
		return nil, fmt.Errorf("users: list active: %w", err)
	}
	items, err := collectUsers(rows)
	if err != nil {
		return nil, fmt.Errorf("users: list active: %w", err)
	}
	return items, nil
}

func (r *repository) Get(ctx context.Context, id int64) (User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, userSelect+` WHERE u.id = $1`, id))
	if err != nil {
		if db.IsNoRows(err) {
			return User{}, shared.NotFound(msgNotFound)
		}
		return User{}, fmt.Errorf("users: get: %w", err)
	}
	return u, nil
}

func (r *repository) Create(ctx context.Context, rec Record) (User, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (username, password_hash, fullname, email, phone, role_id, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		rec.Username, rec.PasswordHash, rec.Fullname, rec.Email, rec.Phone, rec.RoleID, rec.IsActive).Scan(&id)
	if err != nil {
		return User{}, translate("create", err)
	}
	return r.Get(ctx, id)
}

func (r *repository) Update(ctx context.Context, id int64, rec Record) (User, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET password_hash = $2, fullname = $3, email = $4, phone = $5, role_id = $6, is_active = $7, updated_at = now()
		WHERE id = $1`,
		id, rec.PasswordHash, rec.Fullname, rec.Email, rec.Phone, rec.RoleID, rec.IsActive)
	if err != nil {
		return User{}, translate("update", err)
	}
	if tag.RowsAffected() == 0 {
		return User{}, shared.NotFound(msgNotFound)
	}
	return r.Get(ctx, id)
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("users: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound(msgNotFound)
	}
	return nil
}

func translate(op string, err error) error {
	switch {
	case db.IsUniqueViolation(err):
		return shared.Conflict(msgTaken)
	case db.IsForeignKeyViolation(err):
		return shared.Invalid(msgUnknownRole)
	}
	var appErr *shared.Error
	if errors.As(err, &appErr) {
		return err
	}
	return fmt.Errorf("users: %s: %w", op, err)
}
