package rbac

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testActor() Actor {
	return Actor{ID: 7, Username: "editor", Role: NewResolvedRole(3, "editor", false, []string{"course:read", "course:update"})}
}

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	raw, expiresAt, err := tm.Issue(testActor())
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	actor, err := tm.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, int64(7), actor.ID)
	assert.Equal(t, "editor", actor.Username)
	assert.True(t, actor.Can("course:update"))
	assert.False(t, actor.Can("course:delete"))
}

func TestTokenExpired(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	tm.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	raw, _, err := tm.Issue(testActor())
	require.NoError(t, err)

	_, err = tm.Verify(raw)
	require.Error(t, err)
}

func TestTokenWrongSecret(t *testing.T) {
	raw, _, err := NewTokenManager("secret", time.Hour).Issue(testActor())
	require.NoError(t, err)

	_, err = NewTokenManager("other", time.Hour).Verify(raw)
	require.Error(t, err)
}

func TestTokenRejectsUnexpectedAlgorithm(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "7", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		Username:         "editor",
	}
	role := testActor().Role
	claims.Role = &role
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewTokenManager("secret", time.Hour).Verify(raw)
	require.Error(t, err)
}

func TestTokenSchemaValidation(t *testing.T) {
	sign := func(claims jwt.Claims) string {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		require.NoError(t, err)
		return raw
	}
	exp := jwt.NewNumericDate(time.Now().Add(time.Hour))
	role := testActor().Role
	tm := NewTokenManager("secret", time.Hour)

	cases := map[string]struct {
		token string
		want  error
	}{
		"non numeric subject": {sign(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "abc", ExpiresAt: exp}, Username: "u", Role: &role}), ErrTokenSubject},
		"missing username":    {sign(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "7", ExpiresAt: exp}, Role: &role}), ErrTokenUsername},
		"missing role":        {sign(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "7", ExpiresAt: exp}, Username: "u"}), ErrTokenRole},
		"missing expiry":      {sign(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "7"}, Username: "u", Role: &role}), ErrTokenExpiry},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := tm.Verify(tc.token)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	t.Run("blank permission", func(t *testing.T) {
		payload := `{"sub":"7","username":"u","exp":` + strings.TrimSpace(jsonNumber(exp)) + `,"role":{"id":1,"name":"r","isSuperAdmin":false,"permissions":[""]}}`
		raw := sign(jwt.MapClaims{})
		parts := strings.Split(raw, ".")
		parts[1] = base64.RawURLEncoding.EncodeToString([]byte(payload))
		unsigned := parts[0] + "." + parts[1]
		sig, err := jwt.SigningMethodHS256.Sign(unsigned, []byte("secret"))
		require.NoError(t, err)

		_, err = tm.Verify(unsigned + "." + sig)
		require.Error(t, err)
	})
}

func jsonNumber(d *jwt.NumericDate) string {
	b, _ := d.MarshalJSON()
	return string(b)
}
