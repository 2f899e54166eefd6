package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/damoang/angple-realtime/internal/chat"
	"github.com/damoang/angple-realtime/internal/domain"
	"github.com/damoang/angple-realtime/internal/optimistic"
	"github.com/stretchr/testify/assert"
)

func TestPromptConfirmer(t *testing.T) {
	t.Cleanup(func() { assumeYes = false })

	var out bytes.Buffer
	assert.True(t, promptConfirmer(strings.NewReader("y\n"), &out).Confirm(context.Background(), "Remove bob?"))
	assert.Contains(t, out.String(), "Remove bob? [y/N]")

	assert.False(t, promptConfirmer(strings.NewReader("\n"), &out).Confirm(context.Background(), "Remove bob?"))
	assert.False(t, promptConfirmer(strings.NewReader(""), &out).Confirm(context.Background(), "Remove bob?"))
	assert.True(t, promptConfirmer(strings.NewReader("YES"), &out).Confirm(context.Background(), "Remove bob?"))

	assumeYes = true
	assert.True(t, promptConfirmer(strings.NewReader(""), &out).Confirm(context.Background(), "Remove bob?"))
}

func TestPrintEntries(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	entries := []chat.Entry{
		{Message: domain.Message{ID: "m1", SenderID: "b", ReceiverID: "me", Body: "hey", Timestamp: ts}, State: chat.StateSent},
		{Message: domain.Message{SenderID: "me", ReceiverID: "b", Body: "yo", Timestamp: ts}, State: chat.StateFailed},
	}

	var out bytes.Buffer
	printEntries(&out, entries, "me", "bob")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "bob: hey")
	assert.Contains(t, lines[1], "me: yo (failed)")
}

func TestPrintLikes(t *testing.T) {
	var out bytes.Buffer
	printLikes(&out, "p1", optimistic.LikeState{
		Likes: []domain.LikeRecord{{UserID: "u1"}},
		Liked: true,
		Tag:   optimistic.TagConfirmed,
	})
	assert.Equal(t, "p1: 1 likes, liked (confirmed)\n", out.String())
}
