package backend

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/vladislavdragonenkov/abasta/internal/domain"
)

// Login обменивает учётные данные на токен.
func (c *Client) Login(ctx context.Context, email, password string) (domain.AuthSession, error) {
	var out loginDTO
	err := c.do(ctx, call{
		operation: "login",
		method:    http.MethodPost,
		path:      "/api/auth/login",
		body:      loginRequest{Email: email, Password: password},
	}, &out)
	if err != nil {
		return domain.AuthSession{}, err
	}
	if out.Token == "" {
		return domain.AuthSession{}, &domain.RequestError{Err: errors.New("login response has no token")}
	}
	return domain.AuthSession{
		Token:    out.Token,
		UserID:   out.User.UUID,
		Email:    out.User.Email,
		Name:     out.User.Name,
		Role:     out.User.Role,
		IssuedAt: time.Now().UTC(),
	}, nil
}

// Logout инвалидирует токен на стороне backend.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, call{
		operation: "logout",
		method:    http.MethodPost,
		path:      "/api/auth/logout",
		token:     token,
	}, nil)
}

var _ domain.AuthAPI = (*Client)(nil)
