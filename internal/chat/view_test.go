package chat

import (
	"testing"

	"github.com/damoang/angple-realtime/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestView_MergeSkipsDuplicatesAndSorts(t *testing.T) {
	v := NewView()
	assert.Equal(t, 3, v.merge(msgs(30, 10, 20)))
	assert.Equal(t, 1, v.merge(msgs(20, 5)))

	var ids []string
	for _, m := range v.Messages() {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"m005", "m010", "m020", "m030"}, ids)
}

func TestView_TiesBrokenByID(t *testing.T) {
	a := msg(1)
	b := msg(1)
	a.ID, b.ID = "b", "a"

	v := NewView()
	v.merge([]domain.Message{a, b})
	assert.Equal(t, "a", v.Messages()[0].ID)
}

func TestView_PendingStaysAfterPersisted(t *testing.T) {
	v := NewView()
	v.merge(msgs(10))
	local := Entry{Message: domain.Message{ID: "local-1", Timestamp: ts(1)}, LocalID: "local-1", State: StatePending}
	v.addLocal(local)
	v.merge(msgs(20))

	entries := v.Entries()
	assert.Equal(t, "local-1", entries[2].LocalID)

	persisted := msg(30)
	assert.True(t, v.confirm("local-1", persisted))
	entries = v.Entries()
	assert.Equal(t, "m030", entries[2].Message.ID)
	assert.Equal(t, "local-1", entries[2].LocalID)
	assert.True(t, entries[2].Confirmed())
}

func TestView_ConfirmAfterEcho(t *testing.T) {
	v := NewView()
	v.addLocal(Entry{Message: domain.Message{ID: "local-1"}, LocalID: "local-1", State: StatePending})
	v.merge(msgs(5))

	assert.True(t, v.confirm("local-1", msg(5)))
	assert.Equal(t, 1, v.Len())
}

func TestView_BehindCursor(t *testing.T) {
	v := NewView()
	v.merge(msgs(20, 30))
	assert.True(t, v.behindCursor(msg(10)))
	assert.False(t, v.behindCursor(msg(25)))

	v.hasMore = false
	assert.False(t, v.behindCursor(msg(10)))
}

func TestListViewport_ClampsOffset(t *testing.T) {
	vp := NewListViewport(100)
	vp.Render(nil)
	vp.SetScrollTop(50)
	assert.Equal(t, 0, vp.ScrollTop())

	var entries []Entry
	for i := 0; i < 10; i++ {
		entries = append(entries, Entry{Message: msg(i), State: StateSent})
	}
	vp.Render(entries)
	vp.SetScrollTop(10_000)
	assert.Equal(t, vp.ScrollHeight()-vp.ClientHeight(), vp.ScrollTop())
	assert.True(t, atBottom(vp))
}
