package client

import (
	"context"
	"net/http"
)

// User is the signed-in admin.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Login exchanges credentials for a session cookie held by the client.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	var out struct {
		User User `json:"user"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", nil, body, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Logout clears the session cookie.
func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/api/auth/logout", nil, nil, nil)
}

// Me returns the user behind the current session.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
