package categories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursepilot/coursepilot/internal/shared"
)

func TestCreateAssignsUniqueSlugs(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()

	first, err := svc.Create(ctx, CreateInput{Name: "Web Development"})
	require.NoError(t, err)
	assert.Equal(t, "web-development", first.Slug)
	assert.True(t, first.IsActive)

	second, err := svc.Create(ctx, CreateInput{Name: "web  development!"})
	require.NoError(t, err)
	assert.Equal(t, "web-development-2", second.Slug)

	third, err := svc.Create(ctx, CreateInput{Name: "Web-Development"})
	require.NoError(t, err)
	assert.Equal(t, "web-development-3", third.Slug)
}

func TestUpdateRegeneratesSlugOnRename(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()
	design, err := svc.Create(ctx, CreateInput{Name: "Design"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{Name: "Marketing"})
	require.NoError(t, err)

	desc := "Visual craft"
	same, err := svc.Update(ctx, design.ID, UpdateInput{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "design", same.Slug)
	assert.Equal(t, "Visual craft", same.Description)

	name := "Marketing"
	renamed, err := svc.Update(ctx, design.ID, UpdateInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "marketing-2", renamed.Slug)

	_, err = svc.Update(ctx, 99, UpdateInput{Name: &name})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestListFiltersByActive(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()
	off := false
	_, err := svc.Create(ctx, CreateInput{Name: "Live"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{Name: "Archived", IsActive: &off})
	require.NoError(t, err)

	page, err := svc.List(ctx, ListFilters{ListFilters: shared.ListFilters{Page: 1, Limit: 10}, IsActive: &off})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Archived", page.Data[0].Name)
	assert.Equal(t, 1, page.Pagination.TotalPages)

	all, err := svc.List(ctx, ListFilters{ListFilters: shared.ListFilters{All: true}})
	require.NoError(t, err)
	require.Len(t, all.Data, 1)
	assert.Equal(t, "Live", all.Data[0].Name)
}

func TestDeleteCategory(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()
	c, err := svc.Create(ctx, CreateInput{Name: "Temp"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, c.ID))
	assert.ErrorIs(t, svc.Delete(ctx, c.ID), shared.ErrNotFound)
}
