package roles

import (
	"context"
	"slices"
	"strings"

	"github.com/coursepilot/coursepilot/internal/rbac"
	"github.com/coursepilot/coursepilot/internal/shared"
)

// Service handles role business logic.
type Service struct {
	repo Repository
}

// NewService builds Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create adds a role. Duplicate permission ids collapse.
func (s *Service) Create(ctx context.Context, actor rbac.Actor, input CreateInput) (Role, error) {
	name := strings.TrimSpace(input.Name)
	if strings.EqualFold(name, rbac.SystemRoleName) {
		return Role{}, shared.Invalid(msgReservedName)
	}
	if input.IsSuperAdmin && !actor.Role.IsSuperAdmin {
		return Role{}, shared.Forbidden(msgGrantSuperAdmin)
	}
	return s.repo.Create(ctx, Record{Name: name, IsSuperAdmin: input.IsSuperAdmin, PermissionIDs: uniqueIDs(input.PermissionIDs)})
}

// List returns one page of roles without the system role, or every role
// ordered by name when filters.All is set.
func (s *Service) List(ctx context.Context, filters shared.ListFilters) (shared.Page[Role], error) {
	if filters.All {
		items, err := s.repo.ListAll(ctx)
		if err != nil {
			return shared.Page[Role]{}, err
		}
		return shared.NewPage(items, nil, nil), nil
	}
	orderBy, sort := SortSpec.Resolve(filters.SortBy, filters.SortDir)
	items, total, err := s.repo.List(ctx, filters, orderBy)
	if err != nil {
		return shared.Page[Role]{}, err
	}
	pagination := shared.NewPagination(filters.Page, filters.Limit, total)
	return shared.NewPage(items, &pagination, &sort), nil
}

// Get returns a role with its permissions.
func (s *Service) Get(ctx context.Context, id int64) (Role, error) {
	return s.repo.Get(ctx, id)
}

// Resolve loads the flattened snapshot of a role.
func (s *Service) Resolve(ctx context.Context, id int64) (rbac.ResolvedRole, error) {
	role, err := s.repo.Get(ctx, id)
	if err != nil {
		return rbac.ResolvedRole{}, err
	}
	return role.Resolved(), nil
}

// Update edits a role. The caller's own role and the system role are refused.
func (s *Service) Update(ctx context.Context, actor rbac.Actor, id int64, input UpdateInput) (Role, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Role{}, err
	}
	if err := rbac.CheckRoleMutation(actor, current.Target(), false); err != nil {
		return Role{}, err
	}

	rec := Record{Name: current.Name, IsSuperAdmin: current.IsSuperAdmin}
	if input.Name != nil {
		rec.Name = strings.TrimSpace(*input.Name)
		if strings.EqualFold(rec.Name, rbac.SystemRoleName) {
			return Role{}, shared.Invalid(msgReservedName)
		}
	}
	if input.IsSuperAdmin != nil {
		if *input.IsSuperAdmin && !current.IsSuperAdmin && !actor.Role.IsSuperAdmin {
			return Role{}, shared.Forbidden(msgGrantSuperAdmin)
		}
		rec.IsSuperAdmin = *input.IsSuperAdmin
	}
	replace := input.PermissionIDs != nil
	if replace {
		rec.PermissionIDs = uniqueIDs(*input.PermissionIDs)
	}
	return s.repo.Update(ctx, id, rec, replace)
}

// Delete removes a role no user references.
func (s *Service) Delete(ctx context.Context, actor rbac.Actor, id int64) error {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := rbac.CheckRoleMutation(actor, current.Target(), true); err != nil {
		return err
	}
	used, err := s.repo.InUse(ctx, id)
	if err != nil {
		return err
	}
	if used {
		return shared.Conflict(msgInUse)
	}
	return s.repo.Delete(ctx, id)
}

func uniqueIDs(ids []int64) []int64 {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}
