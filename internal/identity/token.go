package identity

import (
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Claims are the fields of interest inside a provider access token.
type Claims struct {
	Subject   string
	Email     string
	ExpiresAt time.Time
}

// ParseAccessToken inspects a provider-issued access token without verifying
// its signature. The provider remains the authority on token validity; the
// claims are only used to derive the server-side session TTL and as a
// fallback identity hint when the user endpoint is unavailable.
func ParseAccessToken(accessToken string) (*Claims, error) {
	tok, err := jwt.Parse([]byte(accessToken), jwt.WithVerify(false), jwt.WithValidate(false))
	if err != nil {
		return nil, fmt.Errorf("parsing access token: %w", err)
	}

	claims := &Claims{
		Subject:   tok.Subject(),
		ExpiresAt: tok.Expiration(),
	}
	if email, ok := tok.Get("email"); ok {
		if s, ok := email.(string); ok {
			claims.Email = s
		}
	}

	return claims, nil
}
