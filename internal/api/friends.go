package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/damoang/angple-realtime/internal/domain"
)

// Friends returns the connected users
func (c *Client) Friends(ctx context.Context) ([]domain.User, error) {
	var resp domain.FriendsResponse
	if err := c.do(ctx, http.MethodGet, "/friends", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Friends, nil
}

// SentRequests returns the outgoing pending requests
func (c *Client) SentRequests(ctx context.Context) ([]domain.SentRequest, error) {
	var resp domain.SentRequestsResponse
	if err := c.do(ctx, http.MethodGet, "/requestSent", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Requests, nil
}

// PendingRequests returns the users who sent the current user a request
func (c *Client) PendingRequests(ctx context.Context) ([]domain.User, error) {
	var resp domain.PendingRequestsResponse
	if err := c.do(ctx, http.MethodGet, "/pendingRequests", nil, &resp); err != nil {
		return nil, err
	}
	return resp.PendingRequests, nil
}

// SendRequest sends a friend request. 409 maps to common.ErrConflict.
func (c *Client) SendRequest(ctx context.Context, username string) (domain.SentRequest, error) {
	var resp domain.SendRequestResponse
	if err := c.do(ctx, http.MethodPost, "/sendRequest/"+url.PathEscape(username), nil, &resp); err != nil {
		return domain.SentRequest{}, err
	}
	return resp.Data, nil
}

// CancelRequest withdraws an outgoing request
func (c *Client) CancelRequest(ctx context.Context, username string) error {
	return c.do(ctx, http.MethodDelete, "/cancelRequest/"+url.PathEscape(username), nil, nil)
}

// AcceptRequest accepts an incoming request and returns the new friend
func (c *Client) AcceptRequest(ctx context.Context, username string) (domain.User, error) {
	var resp domain.AcceptRequestResponse
	if err := c.do(ctx, http.MethodPut, "/acceptRequest/"+url.PathEscape(username), nil, &resp); err != nil {
		return domain.User{}, err
	}
	return resp.Data, nil
}

// RemoveFriend ends a friendship
func (c *Client) RemoveFriend(ctx context.Context, username string) error {
	return c.do(ctx, http.MethodDelete, "/removeFriend/"+url.PathEscape(username), nil, nil)
}
