package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dukerupert/berrybridge/internal/model"
)

var (
	accessTokenPaths  = []string{"access_token", "token", "accessToken", "data.access_token", "data.token", "data.accessToken"}
	refreshTokenPaths = []string{"refresh_token", "refreshToken", "data.refresh_token", "data.refreshToken"}
)

func tokenPair(body []byte) (model.TokenPair, error) {
	pair := model.TokenPair{
		AccessToken:  firstString(body, accessTokenPaths...),
		RefreshToken: firstString(body, refreshTokenPaths...),
	}
	if pair.AccessToken == "" {
		return model.TokenPair{}, fmt.Errorf("no access token in response: %w", ErrBadPayload)
	}
	return pair, nil
}

func (c *Client) Login(ctx context.Context, req model.LoginRequest) (model.TokenPair, error) {
	body, err := c.send(ctx, http.MethodPost, "/api/auth/login", req)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("login: %w", err)
	}
	return tokenPair(body)
}

func (c *Client) Register(ctx context.Context, req model.RegisterRequest) (model.TokenPair, error) {
	body, err := c.send(ctx, http.MethodPost, "/api/auth/register", req)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("register: %w", err)
	}
	return tokenPair(body)
}

// Logout invalidates the token on ctx.
func (c *Client) Logout(ctx context.Context) error {
	if _, err := c.send(ctx, http.MethodPost, "/api/auth/logout", nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Refresh exchanges a refresh token for a new pair. The old refresh token is
// kept when the backend does not rotate it.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	in := map[string]string{"refresh_token": refreshToken}
	body, err := c.send(ctx, http.MethodPost, "/api/auth/refresh", in)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("refresh: %w", err)
	}
	pair, err := tokenPair(body)
	if err != nil {
		return model.TokenPair{}, err
	}
	if pair.RefreshToken == "" {
		pair.RefreshToken = refreshToken
	}
	return pair, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]model.BackendUser, error) {
	body, err := c.get(ctx, "/users")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return decodeList[model.BackendUser](body, "users")
}
