package erp

import (
	"context"
	"errors"
	"net/http"
)

// User is the account returned by Login.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Session is the result of a credential exchange.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Login exchanges email and password for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	body := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{email, password}

	var out Session
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, errors.New("login response did not include a token")
	}
	return &out, nil
}
