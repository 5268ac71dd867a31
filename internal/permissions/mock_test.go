package permissions

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/coursepilot/coursepilot/internal/rbac"
	"github.com/coursepilot/coursepilot/internal/shared"
)

type mockRepository struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]Permission
	inUse  map[int64]bool
}

func newMockRepository() *mockRepository {
	return &mockRepository{byID: make(map[int64]Permission), inUse: make(map[int64]bool)}
}

func (m *mockRepository) findKey(key string) (Permission, bool) {
	for _, p := range m.byID {
		if p.Key == key {
			return p, true
		}
	}
	return Permission{}, false
}

func (m *mockRepository) insert(key, description string) Permission {
	m.nextID++
	now := time.Now()
	p := Permission{ID: m.nextID, Key: key, Description: description, CreatedAt: now, UpdatedAt: now}
	m.byID[p.ID] = p
	return p
}

func (m *mockRepository) Upsert(_ context.Context, key rbac.Key, description string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.findKey(key.String()); ok {
		return false, nil
	}
	m.insert(key.String(), description)
	return true, nil
}

func (m *mockRepository) Create(_ context.Context, key rbac.Key, description string) (Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.findKey(key.String()); ok {
		return Permission{}, shared.Conflict("Permission already exists")
	}
	return m.insert(key.String(), description), nil
}

func (m *mockRepository) Get(_ context.Context, id int64) (Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return Permission{}, shared.NotFound("Permission not found")
	}
	return p, nil
}

func (m *mockRepository) GetByKey(_ context.Context, key rbac.Key) (Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.findKey(key.String())
	if !ok {
		return Permission{}, shared.NotFound("Permission not found")
	}
	return p, nil
}

func (m *mockRepository) List(_ context.Context, filters shared.ListFilters, _ string) ([]Permission, int, error) {
	all, _ := m.ListAll(context.Background())
	var matched []Permission
	for _, p := range all {
		if filters.Search == "" || strings.Contains(p.Key, strings.ToLower(filters.Search)) {
			matched = append(matched, p)
		}
	}
	total := len(matched)
	start := min(filters.Offset(), total)
	end := min(start+filters.Limit, total)
	return matched[start:end], total, nil
}

func (m *mockRepository) ListAll(_ context.Context) ([]Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]Permission, 0, len(m.byID))
	for _, p := range m.byID {
		items = append(items, p)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })
	return items, nil
}

func (m *mockRepository) Update(_ context.Context, id int64, key rbac.Key, description string) (Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return Permission{}, shared.NotFound("Permission not found")
	}
	if other, exists := m.findKey(key.String()); exists && other.ID != id {
		return Permission{}, shared.Conflict("Permission already exists")
	}
	p.Key, p.Description, p.UpdatedAt = key.String(), description, time.Now()
	m.byID[id] = p
	return p, nil
}

func (m *mockRepository) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return shared.NotFound("Permission not found")
	}
	delete(m.byID, id)
	return nil
}

func (m *mockRepository) InUse(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inUse[id], nil
}
