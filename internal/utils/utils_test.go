package utils

import (
	"net/url"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLinkTokenIsURLSafe(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		raw, hash, err := NewLinkToken()
		require.NoError(t, err)
		assert.Len(t, raw, 43)
		assert.Equal(t, raw, url.PathEscape(raw))
		assert.NotContains(t, raw, "=")
		assert.Len(t, hash, 64)
		assert.Equal(t, HashToken(raw), hash)
		assert.False(t, seen[raw])
		seen[raw] = true
	}
}

func TestNewAccessToken(t *testing.T) {
	tok, err := NewAccessToken("secret", 7, RoleOwner, 15)
	require.NoError(t, err)

	parsed, err := jwt.Parse(tok.Token, func(*jwt.Token) (interface{}, error) { return []byte("secret"), nil })
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, float64(7), claims["sub"])
	assert.Equal(t, RoleOwner, claims["role"])
}
