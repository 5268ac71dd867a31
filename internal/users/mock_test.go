package users

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/coursepilot/coursepilot/internal/rbac"
	"github.com/coursepilot/coursepilot/internal/shared"
)

type mockRepository struct {
	nextID int64
	users  map[int64]User
	roles  map[int64]RoleSummary
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		users: make(map[int64]User),
		roles: map[int64]RoleSummary{
			1: {ID: 1, Name: rbac.SystemRoleName, IsSuperAdmin: true},
			2: {ID: 2, Name: "admin"},
			3: {ID: 3, Name: "editor"},
		},
	}
}

func (m *mockRepository) sorted() []User {
	items := make([]User, 0, len(m.users))
	for _, u := range m.users {
		items = append(items, u)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

func (m *mockRepository) List(_ context.Context, filters ListFilters, _ string) ([]User, int, error) {
	var items []User
	for _, u := range m.sorted() {
		if u.Username == rbac.SystemUsername {
			continue
		}
		if filters.RoleID > 0 && u.Role.ID != filters.RoleID {
			continue
		}
		if filters.IsActive != nil && u.IsActive != *filters.IsActive {
			continue
		}
		if s := strings.ToLower(filters.Search); s != "" &&
			!strings.Contains(strings.ToLower(u.Username), s) &&
			!strings.Contains(strings.ToLower(u.Fullname), s) &&
			!strings.Contains(strings.ToLower(u.Email), s) {
			continue
		}
		items = append(items, u)
	}
	total := len(items)
	start := min(filters.Offset(), total)
	end := min(start+filters.Limit, total)
	return items[start:end], total, nil
}

func (m *mockRepository) ListActive(context.Context) ([]User, error) {
	var items []User
	for _, u := range m.sorted() {
		if u.IsActive {
			items = append(items, u)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Username < items[j].Username })
	return items, nil
}

func (m *mockRepository) Get(_ context.Context, id int64) (User, error) {
	u, ok := m.users[id]
	if !ok {
		return User{}, shared.NotFound(msgNotFound)
	}
	return u, nil
}

func (m *mockRepository) apply(u User, rec Record) (User, error) {
	role, ok := m.roles[rec.RoleID]
	if !ok {
		return User{}, shared.Invalid(msgUnknownRole)
	}
	u.Username, u.PasswordHash, u.Fullname = rec.Username, rec.PasswordHash, rec.Fullname
	u.Email, u.Phone, u.IsActive, u.Role = rec.Email, rec.Phone, rec.IsActive, role
	u.UpdatedAt = time.Now()
	return u, nil
}

func (m *mockRepository) Create(_ context.Context, rec Record) (User, error) {
	for _, u := range m.users {
		if u.Username == rec.Username {
			return User{}, shared.Conflict(msgTaken)
		}
	}
	m.nextID++
	u, err := m.apply(User{ID: m.nextID, CreatedAt: time.Now()}, rec)
	if err != nil {
		m.nextID--
		return User{}, err
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *mockRepository) Update(_ context.Context, id int64, rec Record) (User, error) {
	u, ok := m.users[id]
	if !ok {
		return User{}, shared.NotFound(msgNotFound)
	}
	u, err := m.apply(u, rec)
	if err != nil {
		return User{}, err
	}
	m.users[id] = u
	return u, nil
}

func (m *mockRepository) Delete(_ context.Context, id int64) error {
	if _, ok := m.users[id]; !ok {
		return shared.NotFound(msgNotFound)
	}
	delete(m.users, id)
	return nil
}
