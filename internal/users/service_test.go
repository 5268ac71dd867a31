package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/coursepilot/coursepilot/internal/rbac"
	"github.com/coursepilot/coursepilot/internal/shared"
)

type fixture struct {
	repo  *mockRepository
	svc   *Service
	root  User
	alice User
	bob   User
	actor rbac.Actor
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	repo := newMockRepository()
	svc := NewService(repo)
	svc.cost = bcrypt.MinCost
	f := fixture{repo: repo, svc: svc}

	create := func(username string, roleID int64) User {
		u, err := svc.Create(context.Background(), CreateInput{Username: username, Password: "secret1", RoleID: roleID})
		require.NoError(t, err)
		return u
	}
	f.root = create(rbac.SystemUsername, 1)
	f.alice = create("alice", 2)
	f.bob = create("bob", 3)
	f.actor = rbac.Actor{ID: f.alice.ID, Username: "alice", Role: rbac.NewResolvedRole(2, "admin", false,
		[]string{rbac.PermUserRead, rbac.PermUserUpdate, rbac.PermUserDelete})}
	return f
}

func TestCreateUser(t *testing.T) {
	f := newFixture(t)

	inactive := false
	u, err := f.svc.Create(context.Background(), CreateInput{
		Username: " carol ", Password: "hunter22", Fullname: "Carol", Email: "carol@example.com", RoleID: 3, IsActive: &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "carol", u.Username)
	assert.False(t, u.IsActive)
	assert.Equal(t, "editor", u.Role.Name)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("hunter22")))
	assert.True(t, f.bob.IsActive, "accounts default to active")

	_, err = f.svc.Create(context.Background(), CreateInput{Username: "carol", Password: "hunter22", RoleID: 3})
	assert.ErrorIs(t, err, shared.ErrConflict)
	assert.Equal(t, "Username already taken", shared.UserSafeMessage(err))

	_, err = f.svc.Create(context.Background(), CreateInput{Username: "dave", Password: "hunter22", RoleID: 42})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestSelfUpdateGuards(t *testing.T) {
	f := newFixture(t)

	otherRole := int64(3)
	_, err := f.svc.Update(context.Background(), f.actor, f.alice.ID, UpdateInput{RoleID: &otherRole})
	assert.ErrorIs(t, err, shared.ErrForbidden)
	assert.Equal(t, "You cannot change your own role", shared.UserSafeMessage(err))

	off := false
	_, err = f.svc.Update(context.Background(), f.actor, f.alice.ID, UpdateInput{IsActive: &off})
	assert.Equal(t, "You cannot deactivate your own account", shared.UserSafeMessage(err))

	sameRole := int64(2)
	name := "Alice A."
	u, err := f.svc.Update(context.Background(), f.actor, f.alice.ID, UpdateInput{RoleID: &sameRole, Fullname: &name})
	require.NoError(t, err)
	assert.Equal(t, "Alice A.", u.Fullname)

	stored, _ := f.repo.Get(context.Background(), f.alice.ID)
	assert.Equal(t, int64(2), stored.Role.ID)
	assert.True(t, stored.IsActive)
}

func TestSystemUserIsImmutable(t *testing.T) {
	f := newFixture(t)
	name := "Root"

	_, err := f.svc.Update(context.Background(), f.actor, f.root.ID, UpdateInput{Fullname: &name})
	assert.ErrorIs(t, err, shared.ErrForbidden)
	assert.Equal(t, "System user cannot be modified", shared.UserSafeMessage(err))

	err = f.svc.Delete(context.Background(), f.actor, f.root.ID)
	assert.Equal(t, "System user cannot be deleted", shared.UserSafeMessage(err))

	self := rbac.Actor{ID: f.root.ID, Username: rbac.SystemUsername, Role: rbac.NewResolvedRole(1, rbac.SystemRoleName, true, nil)}
	err = f.svc.Delete(context.Background(), self, f.root.ID)
	assert.Equal(t, "You cannot delete your own account", shared.UserSafeMessage(err))

	_, err = f.repo.Get(context.Background(), f.root.ID)
	assert.NoError(t, err)
}

func TestUpdateOtherUser(t *testing.T) {
	f := newFixture(t)

	role := int64(2)
	off := false
	password := "changed1"
	u, err := f.svc.Update(context.Background(), f.actor, f.bob.ID, UpdateInput{RoleID: &role, IsActive: &off, Password: &password})
	require.NoError(t, err)
	assert.Equal(t, "admin", u.Role.Name)
	assert.False(t, u.IsActive)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("changed1")))

	_, err = f.svc.Update(context.Background(), f.actor, 404, UpdateInput{IsActive: &off})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDeleteUser(t *testing.T) {
	f := newFixture(t)

	err := f.svc.Delete(context.Background(), f.actor, f.alice.ID)
	assert.ErrorIs(t, err, shared.ErrForbidden)

	require.NoError(t, f.svc.Delete(context.Background(), f.actor, f.bob.ID))
	_, err = f.svc.Get(context.Background(), f.bob.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestListUsers(t *testing.T) {
	f := newFixture(t)

	page, err := f.svc.List(context.Background(), ListFilters{ListFilters: shared.ListFilters{Page: 1, Limit: 10}})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Pagination.Total)
	for _, u := range page.Data {
		assert.NotEqual(t, rbac.SystemUsername, u.Username)
	}
	assert.Equal(t, "createdAt", page.Sort.By)

	page, err = f.svc.List(context.Background(), ListFilters{ListFilters: shared.ListFilters{Page: 1, Limit: 10}, RoleID: 3})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "bob", page.Data[0].Username)

	all, err := f.svc.List(context.Background(), ListFilters{ListFilters: shared.ListFilters{All: true}})
	require.NoError(t, err)
	assert.Nil(t, all.Pagination)
	assert.Len(t, all.Data, 3)
}
