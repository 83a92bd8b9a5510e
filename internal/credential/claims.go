package credential

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is what the CLI shows about a stored token.
type Claims struct {
	Subject   string
	Email     string
	Name      string
	Role      string
	ExpiresAt time.Time
}

// Expired reports whether the token's expiry has passed at now. Tokens
// without an expiry never expire.
func (c *Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

type tokenClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Inspect decodes the claims of a JWT without verifying its signature.
// The server is the authority on validity; this is for display only.
func Inspect(token string) (*Claims, error) {
	var tc tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &tc); err != nil {
		return nil, fmt.Errorf("credential is not a readable JWT: %w", err)
	}

	c := &Claims{
		Subject: tc.Subject,
		Email:   tc.Email,
		Name:    tc.Name,
		Role:    tc.Role,
	}
	if tc.ExpiresAt != nil {
		c.ExpiresAt = tc.ExpiresAt.Time
	}
	return c, nil
}
