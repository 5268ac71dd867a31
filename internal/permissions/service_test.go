package permissions

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursepilot/coursepilot/internal/shared"
)

func TestGenerateCRUDIsIdempotent(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	ctx := context.Background()

	first, err := svc.GenerateCRUD(ctx, "widget", "")
	require.NoError(t, err)
	assert.Equal(t, 4, first.Created)

	second, err := svc.GenerateCRUD(ctx, "widget", "")
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, []string{"widget:create", "widget:read", "widget:update", "widget:delete"}, second.Keys)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	keys := make([]string, 0, len(all))
	for _, p := range all {
		keys = append(keys, p.Key)
	}
	assert.ElementsMatch(t, []string{"widget:create", "widget:read", "widget:update", "widget:delete"}, keys)
}

func TestGenerateCRUDConcurrent(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.GenerateCRUD(context.Background(), "course", "Course")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	all, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestGenerateCRUDDescription(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()

	_, err := svc.GenerateCRUD(ctx, "lesson", "Lesson")
	require.NoError(t, err)

	p, err := svc.GetByKey(ctx, "lesson:read")
	require.NoError(t, err)
	assert.Equal(t, "lesson:read", p.Key)
	assert.Equal(t, "Lesson read", p.Description)

	_, err = svc.GenerateCRUD(ctx, "seo", "")
	require.NoError(t, err)
	p, err = svc.GetByKey(ctx, "seo:delete")
	require.NoError(t, err)
	assert.Equal(t, "seo delete", p.Description)
}

func TestGenerateCRUDRejectsMalformedResource(t *testing.T) {
	_, err := NewService(newMockRepository()).GenerateCRUD(context.Background(), "bad resource", "")
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateSingleKey(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateInput{Key: "Course:Publish", Description: " Publish courses "})
	require.NoError(t, err)
	assert.Equal(t, "course:publish", p.Key)
	assert.Equal(t, "Publish courses", p.Description)

	_, err = svc.Create(ctx, CreateInput{Key: "course:publish"})
	assert.ErrorIs(t, err, shared.ErrConflict)
	assert.Equal(t, "Permission already exists", shared.UserSafeMessage(err))

	_, err = svc.Create(ctx, CreateInput{Key: "course:publish:now"})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateOrGenerateDispatch(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()

	out, err := svc.CreateOrGenerate(ctx, CreateInput{Key: "user"})
	require.NoError(t, err)
	result, ok := out.(GenerateResult)
	require.True(t, ok)
	assert.True(t, result.Generated)
	assert.Equal(t, "user", result.Resource)

	out, err = svc.CreateOrGenerate(ctx, CreateInput{Key: "user:export"})
	require.NoError(t, err)
	_, ok = out.(Permission)
	assert.True(t, ok)
}

func TestDeleteBlockedWhileAssigned(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateInput{Key: "course:read"})
	require.NoError(t, err)
	repo.inUse[p.ID] = true

	err = svc.Delete(ctx, p.ID)
	assert.ErrorIs(t, err, shared.ErrConflict)
	assert.Equal(t, ErrInUseMessage, shared.UserSafeMessage(err))

	repo.inUse[p.ID] = false
	require.NoError(t, svc.Delete(ctx, p.ID))

	err = svc.Delete(ctx, p.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUpdate(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()

	a, err := svc.Create(ctx, CreateInput{Key: "course:read"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{Key: "course:update"})
	require.NoError(t, err)

	desc := "Read courses"
	updated, err := svc.Update(ctx, a.ID, UpdateInput{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "course:read", updated.Key)
	assert.Equal(t, "Read courses", updated.Description)

	taken := "course:update"
	_, err = svc.Update(ctx, a.ID, UpdateInput{Key: &taken})
	assert.ErrorIs(t, err, shared.ErrConflict)

	_, err = svc.Update(ctx, 999, UpdateInput{Description: &desc})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestListPaginatesAndSorts(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()
	for _, resource := range []string{"course", "lesson", "category"} {
		_, err := svc.GenerateCRUD(ctx, resource, "")
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, shared.ListFilters{Page: 2, Limit: 5, SortBy: "bogus", SortDir: "sideways"})
	require.NoError(t, err)
	assert.Len(t, page.Data, 5)
	assert.Equal(t, shared.Pagination{Page: 2, Limit: 5, Total: 12, TotalPages: 3}, *page.Pagination)
	assert.Equal(t, shared.SortInfo{By: "createdAt", Dir: "desc"}, *page.Sort)

	all, err := svc.List(ctx, shared.ListFilters{All: true})
	require.NoError(t, err)
	assert.Len(t, all.Data, 12)
	assert.Nil(t, all.Pagination)
	assert.Equal(t, "category:create", all.Data[0].Key)
}
