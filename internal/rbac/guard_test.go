package rbac_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursepilot/coursepilot/internal/rbac"
	"github.com/coursepilot/coursepilot/internal/shared"
)

type decisionLog struct {
	entries []string
}

func (d *decisionLog) RecordDecision(layer, outcome string) {
	d.entries = append(d.entries, layer+"/"+outcome)
}

func newGuard(t *testing.T) (*rbac.Guard, *rbac.TokenManager, *decisionLog) {
	t.Helper()
	tokens := rbac.NewTokenManager("secret", time.Hour)
	log := &decisionLog{}
	return &rbac.Guard{Resolver: rbac.NewResolver(tokens), Recorder: log}, tokens, log
}

func bearerRequest(t *testing.T, tokens *rbac.TokenManager, actor rbac.Actor) *http.Request {
	t.Helper()
	raw, _, err := tokens.Issue(actor)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodDelete, "/api/admin/courses/1", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	return req
}

func TestRequirePermissionForbidden(t *testing.T) {
	guard, tokens, log := newGuard(t)

	_, err := guard.RequirePermission(bearerRequest(t, tokens, editor()), "course:delete")
	assert.ErrorIs(t, err, shared.ErrForbidden)
	assert.Equal(t, []string{"guard/forbidden"}, log.entries)
}

func TestRequirePermissionAnyAlternative(t *testing.T) {
	guard, tokens, _ := newGuard(t)

	actor, err := guard.RequirePermission(bearerRequest(t, tokens, editor()), "course:update", "course:delete")
	require.NoError(t, err)
	assert.Equal(t, int64(7), actor.ID)
}

func TestRequirePermissionUnauthenticated(t *testing.T) {
	guard, _, log := newGuard(t)

	_, err := guard.RequirePermission(httptest.NewRequest(http.MethodGet, "/api/admin/users", nil), "user:read")
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
	assert.NotErrorIs(t, err, shared.ErrForbidden)
	assert.Equal(t, []string{"guard/unauthorized"}, log.entries)
}

func TestRequirePermissionInvalidTokenIsUnauthorized(t *testing.T) {
	guard, _, log := newGuard(t)
	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	req.Header.Set("Authorization", "Bearer forged")

	_, err := guard.RequirePermission(req, "user:read")
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
	assert.Equal(t, []string{"guard/invalid_credential"}, log.entries)
}

func TestRequirePermissionSuperAdmin(t *testing.T) {
	guard, tokens, _ := newGuard(t)
	root := rbac.Actor{ID: 1, Username: "superadmin", Role: rbac.NewResolvedRole(1, "superadmin", true, nil)}

	actor, err := guard.RequirePermission(bearerRequest(t, tokens, root), "anything:delete")
	require.NoError(t, err)
	assert.True(t, actor.Role.IsSuperAdmin)
}

func TestMiddlewareRequireAny(t *testing.T) {
	guard, tokens, _ := newGuard(t)
	mw := rbac.Middleware{Guard: guard}

	var seen *rbac.Actor
	handler := mw.RequireAny("course:read")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = rbac.ActorFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, bearerRequest(t, tokens, editor()))
	assert.Equal(t, http.StatusOK, res.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "editor", seen.Username)

	res = httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/api/admin/courses", nil))
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, res.Body.String())

	denied := mw.RequireAny("course:delete")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	res = httptest.NewRecorder()
	denied.ServeHTTP(res, bearerRequest(t, tokens, editor()))
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.JSONEq(t, `{"error":"Forbidden"}`, res.Body.String())
}
