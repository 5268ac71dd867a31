package roles

import (
	"context"
	"sort"
	"time"

	"github.com/coursepilot/coursepilot/internal/rbac"
	"github.com/coursepilot/coursepilot/internal/shared"
)

type mockRepository struct {
	nextID      int64
	roles       map[int64]Role
	permissions map[int64]PermissionRef
	usersByRole map[int64]int
}

func newMockRepository() *mockRepository {
	m := &mockRepository{
		roles:       make(map[int64]Role),
		permissions: make(map[int64]PermissionRef),
		usersByRole: make(map[int64]int),
	}
	for i, key := range []string{"course:read", "course:update", "role:read"} {
		id := int64(i + 1)
		m.permissions[id] = PermissionRef{ID: id, Key: key}
	}
	return m
}

func (m *mockRepository) seed(name string, superAdmin bool, permIDs ...int64) Role {
	role, err := m.Create(context.Background(), Record{Name: name, IsSuperAdmin: superAdmin, PermissionIDs: permIDs})
	if err != nil {
		panic(err)
	}
	return role
}

func (m *mockRepository) refs(ids []int64) ([]PermissionRef, error) {
	refs := []PermissionRef{}
	for _, id := range ids {
		ref, ok := m.permissions[id]
		if !ok {
			return nil, shared.Invalid(msgUnknownPermission)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func (m *mockRepository) List(_ context.Context, filters shared.ListFilters, _ string) ([]Role, int, error) {
	var items []Role
	for _, r := range m.sorted() {
		if r.Name != rbac.SystemRoleName {
			items = append(items, r)
		}
	}
	total := len(items)
	start := min(filters.Offset(), total)
	end := min(start+filters.Limit, total)
	return items[start:end], total, nil
}

func (m *mockRepository) ListAll(context.Context) ([]Role, error) {
	return m.sorted(), nil
}

func (m *mockRepository) sorted() []Role {
	items := make([]Role, 0, len(m.roles))
	for _, r := range m.roles {
		items = append(items, r)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

func (m *mockRepository) Get(_ context.Context, id int64) (Role, error) {
	r, ok := m.roles[id]
	if !ok {
		return Role{}, shared.NotFound(msgNotFound)
	}
	return r, nil
}

func (m *mockRepository) Create(_ context.Context, rec Record) (Role, error) {
	for _, r := range m.roles {
		if r.Name == rec.Name {
			return Role{}, shared.Conflict(msgExists)
		}
	}
	refs, err := m.refs(rec.PermissionIDs)
	if err != nil {
		return Role{}, err
	}
	m.nextID++
	now := time.Now()
	r := Role{ID: m.nextID, Name: rec.Name, IsSuperAdmin: rec.IsSuperAdmin, Permissions: refs, CreatedAt: now, UpdatedAt: now}
	m.roles[r.ID] = r
	return r, nil
}

func (m *mockRepository) Update(_ context.Context, id int64, rec Record, replace bool) (Role, error) {
	r, ok := m.roles[id]
	if !ok {
		return Role{}, shared.NotFound(msgNotFound)
	}
	for _, other := range m.roles {
		if other.ID != id && other.Name == rec.Name {
			return Role{}, shared.Conflict(msgExists)
		}
	}
	if replace {
		refs, err := m.refs(rec.PermissionIDs)
		if err != nil {
			return Role{}, err
		}
		r.Permissions = refs
	}
	r.Name, r.IsSuperAdmin, r.UpdatedAt = rec.Name, rec.IsSuperAdmin, time.Now()
	m.roles[id] = r
	return r, nil
}

func (m *mockRepository) Delete(_ context.Context, id int64) error {
	if _, ok := m.roles[id]; !ok {
		return shared.NotFound(msgNotFound)
	}
	delete(m.roles, id)
	return nil
}

func (m *mockRepository) InUse(_ context.Context, id int64) (bool, error) {
	return m.usersByRole[id] > 0, nil
}
