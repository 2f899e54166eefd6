package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/damoang/angple-realtime/internal/common"
	"github.com/damoang/angple-realtime/internal/domain"
)

// Likes returns the authoritative like list of a post. A deleted post has no likes.
func (c *Client) Likes(ctx context.Context, postID string) (domain.LikesResponse, error) {
	var resp domain.LikesResponse
	err := c.do(ctx, http.MethodGet, "/likes/"+url.PathEscape(postID), nil, &resp)
	if errors.Is(err, common.ErrNotFound) {
		return domain.LikesResponse{}, nil
	}
	return resp, err
}

// ToggleLike likes the post, or unlikes it if already liked
func (c *Client) ToggleLike(ctx context.Context, postID string) error {
	return c.do(ctx, http.MethodPost, "/like/"+url.PathEscape(postID), nil, nil)
}
