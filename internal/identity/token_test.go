package identity

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeToken builds a structurally valid but unsigned JWT for parsing tests.
func makeToken(t *testing.T, claims map[string]any) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	payload, err := json.Marshal(claims)
	require.NoError(t, err)
	body := base64.RawURLEncoding.EncodeToString(payload)
	sig := base64.RawURLEncoding.EncodeToString([]byte("unsigned"))
	return header + "." + body + "." + sig
}

func TestParseAccessToken(t *testing.T) {
	exp := time.Now().Add(1 * time.Hour).Unix()
	token := makeToken(t, map[string]any{
		"sub":   "user-42",
		"email": "user@example.com",
		"exp":   exp,
	})

	claims, err := ParseAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.Subject)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, exp, claims.ExpiresAt.Unix())
}

func TestParseAccessTokenWithoutEmail(t *testing.T) {
	claims, err := ParseAccessToken(makeToken(t, map[string]any{"sub": "user-42"}))
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.Subject)
	assert.Empty(t, claims.Email)
	assert.True(t, claims.ExpiresAt.IsZero())
}

func TestParseAccessTokenGarbage(t *testing.T) {
	_, err := ParseAccessToken("not-a-jwt")
	assert.Error(t, err)
}
