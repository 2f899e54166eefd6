package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/damoang/angple-realtime/internal/common"
	"github.com/damoang/angple-realtime/internal/domain"
)

// Comments returns the comments of a post. A deleted post has none.
func (c *Client) Comments(ctx context.Context, postID string) (domain.CommentsResponse, error) {
	var resp domain.CommentsResponse
	err := c.do(ctx, http.MethodGet, "/comments/"+url.PathEscape(postID), nil, &resp)
	if errors.Is(err, common.ErrNotFound) {
		return domain.CommentsResponse{}, nil
	}
	return resp, err
}

// CreateComment persists a comment and returns the stored record
func (c *Client) CreateComment(ctx context.Context, postID, text string) (domain.CommentRecord, error) {
	if strings.TrimSpace(text) == "" {
		return domain.CommentRecord{}, common.Validation("comment text is empty")
	}
	var resp domain.CommentResponse
	err := c.do(ctx, http.MethodPost, "/createComment",
		domain.CreateCommentRequest{PostID: postID, Text: text}, &resp)
	if err != nil {
		return domain.CommentRecord{}, err
	}
	return resp.Comment, nil
}

// DeleteComment removes one of the current user's comments
func (c *Client) DeleteComment(ctx context.Context, commentID, postID string) error {
	return c.do(ctx, http.MethodDelete, "/comments",
		domain.DeleteCommentRequest{ID: commentID, PostID: postID}, nil)
}
