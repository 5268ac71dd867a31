package permissions

import (
	"context"
	"strings"

	"github.com/coursepilot/coursepilot/internal/rbac"
	"github.com/coursepilot/coursepilot/internal/shared"
)

// ErrInUseMessage is returned when a role still references the permission.
const ErrInUseMessage = "Cannot delete permission: it is assigned to one or more roles"

// Service handles permission business logic.
type Service struct {
	repo Repository
}

// NewService builds Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GenerateCRUD upserts resource:create|read|update|delete. Existing keys are
// left untouched, so repeated or concurrent calls are safe.
func (s *Service) GenerateCRUD(ctx context.Context, resource, descriptionPrefix string) (GenerateResult, error) {
	resource, err := rbac.ValidateResource(resource)
	if err != nil {
		return GenerateResult{}, shared.Invalid(err.Error())
	}
	prefix := strings.TrimSpace(descriptionPrefix)
	if prefix == "" {
		prefix = resource
	}

	result := GenerateResult{Success: true, Generated: true, Resource: resource}
	for _, key := range rbac.CrudKeys(resource) {
		created, err := s.repo.Upsert(ctx, key, prefix+" "+key.Action())
		if err != nil {
			return GenerateResult{}, err
		}
		if created {
			result.Created++
		}
		result.Keys = append(result.Keys, key.String())
	}
	return result, nil
}

// Create adds exactly one fully qualified key.
func (s *Service) Create(ctx context.Context, input CreateInput) (Permission, error) {
	key, err := rbac.ParseKey(input.Key)
	if err != nil {
		return Permission{}, shared.Invalid(err.Error())
	}
	return s.repo.Create(ctx, key, strings.TrimSpace(input.Description))
}

// CreateOrGenerate dispatches on the separator: a bare resource is expanded,
// a qualified key is created as is.
func (s *Service) CreateOrGenerate(ctx context.Context, input CreateInput) (any, error) {
	if !rbac.IsQualified(input.Key) {
		return s.GenerateCRUD(ctx, input.Key, input.Description)
	}
	return s.Create(ctx, input)
}

// List returns one page, or every permission ordered by key when filters.All is set.
func (s *Service) List(ctx context.Context, filters shared.ListFilters) (shared.Page[Permission], error) {
	if filters.All {
		items, err := s.repo.ListAll(ctx)
		if err != nil {
			return shared.Page[Permission]{}, err
		}
		return shared.NewPage(items, nil, nil), nil
	}
	orderBy, sort := SortSpec.Resolve(filters.SortBy, filters.SortDir)
	items, total, err := s.repo.List(ctx, filters, orderBy)
	if err != nil {
		return shared.Page[Permission]{}, err
	}
	pagination := shared.NewPagination(filters.Page, filters.Limit, total)
	return shared.NewPage(items, &pagination, &sort), nil
}

// Get returns a permission by id.
func (s *Service) Get(ctx context.Context, id int64) (Permission, error) {
	return s.repo.Get(ctx, id)
}

// GetByKey returns a permission by key.
func (s *Service) GetByKey(ctx context.Context, raw string) (Permission, error) {
	key, err := rbac.ParseKey(raw)
	if err != nil {
		return Permission{}, shared.Invalid(err.Error())
	}
	return s.repo.GetByKey(ctx, key)
}

// Update changes key and/or description.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (Permission, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Permission{}, err
	}
	key := rbac.Key(current.Key)
	if input.Key != nil {
		if key, err = rbac.ParseKey(*input.Key); err != nil {
			return Permission{}, shared.Invalid(err.Error())
		}
	}
	description := current.Description
	if input.Description != nil {
		description = strings.TrimSpace(*input.Description)
	}
	return s.repo.Update(ctx, id, key, description)
}

// Delete removes a permission no role references.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	used, err := s.repo.InUse(ctx, id)
	if err != nil {
		return err
	}
	if used {
		return shared.Conflict(ErrInUseMessage)
	}
	return s.repo.Delete(ctx, id)
}
