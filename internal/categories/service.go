package categories

import (
	"context"
	"strconv"
	"strings"

	"github.com/coursepilot/coursepilot/internal/shared"
)

// maxSlugAttempts bounds the numeric suffix search.
const maxSlugAttempts = 100

// Service handles category business logic.
type Service struct {
	repo Repository
}

// NewService builds Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create adds a category with a unique slug derived from its name.
func (s *Service) Create(ctx context.Context, input CreateInput) (Category, error) {
	name := strings.TrimSpace(input.Name)
	slug, err := s.uniqueSlug(ctx, name, 0)
	if err != nil {
		return Category{}, err
	}
	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}
	return s.repo.Create(ctx, Record{Name: name, Slug: slug, Description: strings.TrimSpace(input.Description), IsActive: active})
}

// List returns one page of categories, or every active category ordered by
// name when filters.All is set.
func (s *Service) List(ctx context.Context, filters ListFilters) (shared.Page[Category], error) {
	if filters.All {
		items, err := s.repo.ListActive(ctx)
		if err != nil {
			return shared.Page[Category]{}, err
		}
		return shared.NewPage(items, nil, nil), nil
	}
	orderBy, sort := SortSpec.Resolve(filters.SortBy, filters.SortDir)
	items, total, err := s.repo.List(ctx, filters, orderBy)
	if err != nil {
		return shared.Page[Category]{}, err
	}
	pagination := shared.NewPagination(filters.Page, filters.Limit, total)
	return shared.NewPage(items, &pagination, &sort), nil
}

// Get returns one category.
func (s *Service) Get(ctx context.Context, id int64) (Category, error) {
	return s.repo.Get(ctx, id)
}

// Update edits a category.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (Category, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Category{}, err
	}
	rec := Record{Name: current.Name, Slug: current.Slug, Description: current.Description, IsActive: current.IsActive}
	if input.Name != nil {
		rec.Name = strings.TrimSpace(*input.Name)
		if rec.Name != current.Name {
			if rec.Slug, err = s.uniqueSlug(ctx, rec.Name, id); err != nil {
				return Category{}, err
			}
		}
	}
	if input.Description != nil {
		rec.Description = strings.TrimSpace(*input.Description)
	}
	if input.IsActive != nil {
		rec.IsActive = *input.IsActive
	}
	return s.repo.Update(ctx, id, rec)
}

// Delete removes a category.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// uniqueSlug appends -2, -3, ... to the slug of name until it is free.
func (s *Service) uniqueSlug(ctx context.Context, name string, excludeID int64) (string, error) {
	base := Slugify(name)
	slug := base
	for n := 2; n <= maxSlugAttempts+1; n++ {
		taken, err := s.repo.SlugTaken(ctx, slug, excludeID)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
		slug = base + "-" + strconv.Itoa(n)
	}
	return "", shared.Conflict(msgSlugTaken)
}
