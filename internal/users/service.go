package users

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/coursepilot/coursepilot/internal/rbac"
	"github.com/coursepilot/coursepilot/internal/shared"
)

// Service handles user administration.
type Service struct {
	repo Repository
	cost int
}

// NewService builds Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, cost: BcryptCost}
}

// Create adds an account. New accounts are active unless stated otherwise.
func (s *Service) Create(ctx context.Context, input CreateInput) (User, error) {
	hash, err := s.hash(input.Password)
	if err != nil {
		return User{}, err
	}
	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}
	return s.repo.Create(ctx, Record{
		Username:     strings.TrimSpace(input.Username),
		PasswordHash: hash,
		Fullname:     strings.TrimSpace(input.Fullname),
		Email:        strings.TrimSpace(input.Email),
		Phone:        strings.TrimSpace(input.Phone),
		RoleID:       input.RoleID,
		IsActive:     active,
	})
}

// List returns one page of users without the system user, or every active
// user ordered by username when filters.All is set.
func (s *Service) List(ctx context.Context, filters ListFilters) (shared.Page[User], error) {
	if filters.All {
		items, err := s.repo.ListActive(ctx)
		if err != nil {
			return shared.Page[User]{}, err
		}
		return shared.NewPage(items, nil, nil), nil
	}
	orderBy, sort := SortSpec.Resolve(filters.SortBy, filters.SortDir)
	items, total, err := s.repo.List(ctx, filters, orderBy)
	if err != nil {
		return shared.Page[User]{}, err
	}
	pagination := shared.NewPagination(filters.Page, filters.Limit, total)
	return shared.NewPage(items, &pagination, &sort), nil
}

// Get returns one user.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.repo.Get(ctx, id)
}

// Update edits an account. The system user is immutable and actors cannot
// change their own role or deactivate themselves.
func (s *Service) Update(ctx context.Context, actor rbac.Actor, id int64, input UpdateInput) (User, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	if err := rbac.CheckUserUpdate(actor, current.Target(), rbac.UserChange{RoleID: input.RoleID, IsActive: input.IsActive}); err != nil {
		return User{}, err
	}

	rec := Record{
		Username:     current.Username,
		PasswordHash: current.PasswordHash,
		Fullname:     current.Fullname,
		Email:        current.Email,
		Phone:        current.Phone,
		RoleID:       current.Role.ID,
		IsActive:     current.IsActive,
	}
	if input.Fullname != nil {
		rec.Fullname = strings.TrimSpace(*input.Fullname)
	}
	if input.Email != nil {
		rec.Email = strings.TrimSpace(*input.Email)
	}
	if input.Phone != nil {
		rec.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.RoleID != nil {
		rec.RoleID = *input.RoleID
	}
	if input.IsActive != nil {
		rec.IsActive = *input.IsActive
	}
	if input.Password != nil {
		if rec.PasswordHash, err = s.hash(*input.Password); err != nil {
			return User{}, err
		}
	}
	return s.repo.Update(ctx, id, rec)
}

// Delete removes an account other than the caller's and the system user.
func (s *Service) Delete(ctx context.Context, actor rbac.Actor, id int64) error {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := rbac.CheckUserDelete(actor, current.Target()); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("users: hash password: %w", err)
	}
	return string(hash), nil
}
