package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/damoang/angple-realtime/internal/common"
	"github.com/damoang/angple-realtime/internal/domain"
)

// History returns up to limit messages exchanged with counterpartID, newest-first.
// With before set, only messages strictly older than it are returned.
// A missing conversation is an empty page.
func (c *Client) History(ctx context.Context, counterpartID string, limit int, before *time.Time) ([]domain.Message, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if before != nil {
		q.Set("beforeTimestamp", before.UTC().Format(time.RFC3339Nano))
	}

	var resp domain.HistoryResponse
	err := c.do(ctx, http.MethodGet, "/history/"+url.PathEscape(counterpartID)+"?"+q.Encode(), nil, &resp)
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// SendMessage persists a message and returns it with the server-assigned id and timestamp
func (c *Client) SendMessage(ctx context.Context, counterpartID, body string) (domain.Message, error) {
	if strings.TrimSpace(body) == "" {
		return domain.Message{}, common.Validation("message body is empty")
	}
	var resp domain.MessageResponse
	err := c.do(ctx, http.MethodPost, "/message/"+url.PathEscape(counterpartID),
		domain.SendMessageRequest{Message: body}, &resp)
	if err != nil {
		return domain.Message{}, err
	}
	return resp.Message, nil
}
