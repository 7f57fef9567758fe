package nocobase

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/lvillar/pdfgen"
)

// Session is the result of a successful sign-in.
type Session struct {
	Token string `json:"token"`
	User  struct {
		ID       any    `json:"id"`
		Nickname string `json:"nickname"`
		Email    string `json:"email,omitempty"`
	} `json:"user"`
}

// SignIn checks an account (email or username) and password with the basic
// authenticator of the store. Rejected credentials are reported as
// pdfgen.ErrUnauthorized.
func (c *Client) SignIn(ctx context.Context, account, password string) (*Session, error) {
	if account == "" || password == "" {
		return nil, fmt.Errorf("nocobase: missing credentials: %w", pdfgen.ErrUnauthorized)
	}
	body, err := json.Marshal(map[string]string{"account": account, "password": password})
	if err != nil {
		return nil, fmt.Errorf("nocobase: %w", err)
	}
	env, err := c.do(ctx, request{
		method:      http.MethodPost,
		action:      "auth:signIn",
		body:        body,
		contentType: "application/json",
		header:      http.Header{"X-Authenticator": {"basic"}},
		anonymous:   true,
	})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode < 500 && !errors.Is(err, pdfgen.ErrUnauthorized) {
			return nil, fmt.Errorf("%w: %w", pdfgen.ErrUnauthorized, err)
		}
		return nil, err
	}
	var s Session
	if err := decodeData(env, &s); err != nil {
		return nil, fmt.Errorf("nocobase: auth:signIn: %w", err)
	}
	if s.User.ID == nil {
		return nil, fmt.Errorf("nocobase: auth:signIn: no user in response: %w", pdfgen.ErrUnauthorized)
	}
	return &s, nil
}
