package categories

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/coursepilot/coursepilot/internal/platform/db"
	"github.com/coursepilot/coursepilot/internal/shared"
)

// Repository is the category store.
type Repository interface {
	List(ctx context.Context, filters ListFilters, orderBy string) ([]Category, int, error)
	ListActive(ctx context.Context) ([]Category, error)
	Get(ctx context.Context, id int64) (Category, error)
	SlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error)
	Create(ctx context.Context, rec Record) (Category, error)
	Update(ctx context.Context, id int64, rec Record) (Category, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a Postgres backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const categoryColumns = `id, name, slug, description, is_active, created_at, updated_at`

func scanCategory(row pgx.Row) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func collectCategories(rows pgx.Rows) ([]Category, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Category, error) {
		return scanCategory(row)
	})
}

func (r *repository) List(ctx context.Context, filters ListFilters, orderBy string) ([]Category, int, error) {
	where := `WHERE TRUE`
	args := []any{}
	if filters.Search != "" {
		args = append(args, shared.ContainsPattern(filters.Search))
		where += ` AND name ILIKE $` + strconv.Itoa(len(args))
	}
	if filters.IsActive != nil {
		args = append(args, *filters.IsActive)
		where += ` AND is_active = $` + strconv.Itoa(len(args))
	}
	n := len(args)

	var (
		total int
		items []Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.pool.QueryRow(gctx, `SELECT COUNT(*) FROM categories `+where, args...).Scan(&total)
	})
	g.Go(func() error {
		query := `SELECT ` + categoryColumns + ` FROM categories ` + where + ` ORDER BY ` + orderBy +
			` LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)
		rows, err := r.pool.Query(gctx, query, append(args, filters.Limit, filters.Offset())...)
		if err != nil {
			return err
		}
		items, err = collectCategories(rows)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, fmt.Errorf("categories: list: %w", err)
	}
	return items, total, nil
}

func (r *repository) ListActive(ctx context.Context) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+categoryColumns+` FROM categories WHERE is_active ORDER BY lower(name) ASC`)
	if err != nil {
		return nil, fmt.Errorf("categories: list active: %w", err)
	}
	items, err := collectCategories(rows)
	if err != nil {
		return nil, fmt.Errorf("categories: list active: %w", err)
	}
	return items, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Category, error) {
	c, err := scanCategory(r.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
	if err != nil {
		if db.IsNoRows(err) {
			return Category{}, shared.NotFound(msgNotFound)
		}
		return Category{}, fmt.Errorf("categories: get: %w", err)
	}
	return c, nil
}

func (r *repository) SlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var taken bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM categories WHERE slug = $1 AND id <> $2)`, slug, excludeID).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("categories: slug taken: %w", err)
	}
	return taken, nil
}

func (r *repository) Create(ctx context.Context, rec Record) (Category, error) {
	c, err := scanCategory(r.pool.QueryRow(ctx, `
		INSERT INTO categories (name, slug, description, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING `+categoryColumns,
		rec.Name, rec.Slug, rec.Description, rec.IsActive))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Category{}, shared.Conflict(msgSlugTaken)
		}
		return Category{}, fmt.Errorf("categories: create: %w", err)
	}
	return c, nil
}

func (r *repository) Update(ctx context.Context, id int64, rec Record) (Category, error) {
	c, err := scanCategory(r.pool.QueryRow(ctx, `
		UPDATE categories
		SET name = $2, slug = $3, description = $4, is_active = $5, updated_at = now()
		WHERE id = $1
		RETURNING `+categoryColumns,
		id, rec.Name, rec.Slug, rec.Description, rec.IsActive))
	if err != nil {
		switch {
		case db.IsNoRows(err):
			return Category{}, shared.NotFound(msgNotFound)
		case db.IsUniqueViolation(err):
			return Category{}, shared.Conflict(msgSlugTaken)
		}
		return Category{}, fmt.Errorf("categories: update: %w", err)
	}
	return c, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("categories: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound(msgNotFound)
	}
	return nil
}
