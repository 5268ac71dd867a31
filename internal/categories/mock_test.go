package categories

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/coursepilot/coursepilot/internal/shared"
)

type mockRepository struct {
	nextID     int64
	categories map[int64]Category
}

func newMockRepository() *mockRepository {
	return &mockRepository{categories: make(map[int64]Category)}
}

func (m *mockRepository) sorted() []Category {
	items := make([]Category, 0, len(m.categories))
	for _, c := range m.categories {
		items = append(items, c)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

func (m *mockRepository) List(_ context.Context, filters ListFilters, _ string) ([]Category, int, error) {
	var items []Category
	for _, c := range m.sorted() {
		if filters.IsActive != nil && c.IsActive != *filters.IsActive {
			continue
		}
		if filters.Search != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(filters.Search)) {
			continue
		}
		items = append(items, c)
	}
	total := len(items)
	start := min(filters.Offset(), total)
	end := min(start+filters.Limit, total)
	return items[start:end], total, nil
}

func (m *mockRepository) ListActive(context.Context) ([]Category, error) {
	var items []Category
	for _, c := range m.sorted() {
		if c.IsActive {
			items = append(items, c)
		}
	}
	return items, nil
}

func (m *mockRepository) Get(_ context.Context, id int64) (Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return Category{}, shared.NotFound(msgNotFound)
	}
	return c, nil
}

func (m *mockRepository) SlugTaken(_ context.Context, slug string, excludeID int64) (bool, error) {
	for _, c := range m.categories {
		if c.Slug == slug && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepository) Create(ctx context.Context, rec Record) (Category, error) {
	if taken, _ := m.SlugTaken(ctx, rec.Slug, 0); taken {
		return Category{}, shared.Conflict(msgSlugTaken)
	}
	m.nextID++
	now := time.Now()
	c := Category{ID: m.nextID, Name: rec.Name, Slug: rec.Slug, Description: rec.Description, IsActive: rec.IsActive, CreatedAt: now, UpdatedAt: now}
	m.categories[c.ID] = c
	return c, nil
}

func (m *mockRepository) Update(ctx context.Context, id int64, rec Record) (Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return Category{}, shared.NotFound(msgNotFound)
	}
	if taken, _ := m.SlugTaken(ctx, rec.Slug, id); taken {
		return Category{}, shared.Conflict(msgSlugTaken)
	}
	c.Name, c.Slug, c.Description, c.IsActive, c.UpdatedAt = rec.Name, rec.Slug, rec.Description, rec.IsActive, time.Now()
	m.categories[id] = c
	return c, nil
}

func (m *mockRepository) Delete(_ context.Context, id int64) error {
	if _, ok := m.categories[id]; !ok {
		return shared.NotFound(msgNotFound)
	}
	delete(m.categories, id)
	return nil
}
