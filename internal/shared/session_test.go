package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "sid", time.Hour, false), mr
}

func requestWithCookie(c *http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if c != nil {
		r.AddCookie(c)
	}
	return r
}

func TestSessionRoundTrip(t *testing.T) {
	sm, mr := newTestManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, requestWithCookie(nil))
	require.NoError(t, err)
	sess.Set("k", "v")
	sess.AddFlash(FlashMessage{Kind: "success", Message: "saved"})

	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, sess))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, mr.Exists("coursepilot:session:"+sess.ID))

	loaded, err := sm.Load(ctx, requestWithCookie(cookies[0]))
	require.NoError(t, err)
	assert.Equal(t, sess.ID, loaded.ID)
	assert.Equal(t, "v", loaded.Get("k"))
	flash := loaded.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "saved", flash.Message)
	assert.Nil(t, loaded.PopFlash())
}

func TestUntouchedNewSessionIsNotStored(t *testing.T) {
	sm, mr := newTestManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, requestWithCookie(nil))
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, sess))

	assert.Empty(t, rec.Result().Cookies())
	assert.Empty(t, mr.Keys())
}

func TestUnknownCookieGetsFreshID(t *testing.T) {
	sm, _ := newTestManager(t)

	sess, err := sm.Load(context.Background(), requestWithCookie(&http.Cookie{Name: "sid", Value: "forged"}))
	require.NoError(t, err)
	assert.NotEqual(t, "forged", sess.ID)
}

func TestRenewDropsPreviousID(t *testing.T) {
	sm, mr := newTestManager(t)
	ctx := context.Background()

	sess, _ := sm.Load(ctx, requestWithCookie(nil))
	sess.Set("k", "v")
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), sess))
	oldID := sess.ID

	sm.Renew(sess)
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), sess))

	assert.NotEqual(t, oldID, sess.ID)
	assert.False(t, mr.Exists("coursepilot:session:"+oldID))
	assert.True(t, mr.Exists("coursepilot:session:"+sess.ID))
}

func TestDestroyExpiresCookie(t *testing.T) {
	sm, mr := newTestManager(t)
	ctx := context.Background()

	sess, _ := sm.Load(ctx, requestWithCookie(nil))
	sess.Set("k", "v")
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), sess))

	sm.Destroy(sess)
	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, sess))

	assert.Empty(t, mr.Keys())
	require.Len(t, rec.Result().Cookies(), 1)
	assert.Equal(t, -1, rec.Result().Cookies()[0].MaxAge)
}

func TestCSRFTokenLifecycle(t *testing.T) {
	m := NewCSRFManager("secret")
	sess := &Session{ID: "s1"}

	token, err := m.EnsureToken(sess)
	require.NoError(t, err)
	again, _ := m.EnsureToken(sess)
	assert.Equal(t, token, again)

	assert.NoError(t, m.VerifyToken(sess, token))
	assert.ErrorIs(t, m.VerifyToken(sess, "nope"), ErrCSRFTokenMismatch)
	assert.ErrorIs(t, m.VerifyToken(sess, ""), ErrCSRFTokenMissing)
	assert.ErrorIs(t, m.VerifyToken(&Session{ID: "s2"}, token), ErrCSRFTokenMissing)
}
