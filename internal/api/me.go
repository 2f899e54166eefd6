package api

import (
	"context"
	"net/http"

	"github.com/damoang/angple-realtime/internal/domain"
)

// Me returns the logged-in user with the friend list
func (c *Client) Me(ctx context.Context) (domain.Me, error) {
	var resp domain.MeResponse
	if err := c.do(ctx, http.MethodGet, "/me", nil, &resp); err != nil {
		return domain.Me{}, err
	}
	return resp.User, nil
}

// Login exchanges a username for a session token on the dev server
func (c *Client) Login(ctx context.Context, username string) (domain.LoginResponse, error) {
	var resp domain.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", domain.LoginRequest{Username: username}, &resp); err != nil {
		return domain.LoginResponse{}, err
	}
	return resp, nil
}
