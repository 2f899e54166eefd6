package session

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/damoang/angple-realtime/internal/api"
	"github.com/damoang/angple-realtime/internal/chat"
	"github.com/damoang/angple-realtime/internal/domain"
	"github.com/damoang/angple-realtime/internal/optimistic"
	"github.com/damoang/angple-realtime/internal/repository"
	"github.com/damoang/angple-realtime/internal/routes"
	"github.com/damoang/angple-realtime/internal/service"
	"github.com/damoang/angple-realtime/pkg/jwt"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	waitFor = 3 * time.Second
	tick    = 10 * time.Millisecond
)

type testServer struct {
	url string
	app *routes.App
}

func startServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, repository.AutoMigrate(db))

	app := routes.NewApp(gin.New(), routes.Deps{DB: db, JWT: jwt.NewManager("test-secret", time.Hour)})
	srv := httptest.NewServer(app.Engine)
	t.Cleanup(func() {
		srv.Close()
		app.Close()
	})
	return &testServer{url: srv.URL, app: app}
}

func (s *testServer) open(t *testing.T, username string) *Session {
	t.Helper()
	ctx := context.Background()

	login, err := api.New(api.Options{BaseURL: s.url + "/api/v1"}).Login(ctx, username)
	require.NoError(t, err)

	sess, err := Open(ctx, Config{
		APIURL:           s.url + "/api/v1",
		WSURL:            "ws" + strings.TrimPrefix(s.url, "http") + "/ws",
		Token:            login.Token,
		ReconnectInitial: 10 * time.Millisecond,
		ReconnectMax:     50 * time.Millisecond,
		Logger:           zerolog.Nop(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { sess.Close() })

	require.Eventually(t, func() bool { return s.app.Hub.RoomSize(login.User.ID) == 1 }, waitFor, tick)
	return sess
}

func TestSession_FriendshipAndMessaging(t *testing.T) {
	srv := startServer(t)
	ctx := context.Background()

	alice := srv.open(t, "alice")
	bob := srv.open(t, "bob")
	aliceUser, bobUser := alice.Me().User, bob.Me().User

	// request reaches bob through friends_changed
	require.NoError(t, alice.Graph().SendRequest(ctx, bobUser))
	assert.Equal(t, domain.StatusPendingOutgoing, alice.Graph().Status(bobUser.ID))
	require.Eventually(t, func() bool { return bob.Graph().Incoming(aliceUser.ID) }, waitFor, tick)

	require.NoError(t, bob.Graph().AcceptRequest(ctx, aliceUser))
	assert.Equal(t, domain.StatusConnected, bob.Graph().Status(aliceUser.ID))
	require.Eventually(t, func() bool {
		return alice.Graph().Status(bobUser.ID) == domain.StatusConnected
	}, waitFor, tick)

	// message from a friend raises an alert on the other side
	conv, err := alice.OpenConversation(ctx, bobUser.ID)
	require.NoError(t, err)
	entry, err := conv.Send(ctx, "hi bob")
	require.NoError(t, err)
	assert.True(t, entry.Confirmed())

	require.Eventually(t, func() bool {
		for _, toast := range bob.Toaster().Active() {
			if toast.Event != nil && toast.Event.Sender.ID == aliceUser.ID {
				return true
			}
		}
		return false
	}, waitFor, tick)

	// the echo does not duplicate the sender's copy
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, conv.View().Len())

	// clicking the alert opens the conversation with alice
	for _, toast := range bob.Toaster().Active() {
		bob.Toaster().Click(toast.ID)
	}
	require.Eventually(t, func() bool {
		p := bob.Conversation()
		return p != nil && p.Counterpart() == aliceUser.ID && p.View().Len() == 1
	}, waitFor, tick)
}

func TestSession_LikesAndComments(t *testing.T) {
	srv := startServer(t)
	ctx := context.Background()

	alice := srv.open(t, "alice")
	require.NoError(t, alice.Comments().Load(ctx, "post-1"))

	state, err := alice.Likes().Toggle(ctx, "post-1")
	require.NoError(t, err)
	assert.Equal(t, optimistic.TagConfirmed, state.Tag)
	assert.True(t, state.Liked)
	assert.Len(t, state.Likes, 1)

	state, err = alice.Likes().Toggle(ctx, "post-1")
	require.NoError(t, err)
	assert.False(t, state.Liked)
	assert.Empty(t, state.Likes)

	comment, err := alice.Comments().Create(ctx, "post-1", "first")
	require.NoError(t, err)
	assert.Equal(t, 1, alice.Comments().State("post-1").Count)

	require.NoError(t, alice.Comments().Delete(ctx, "post-1", comment.ID))
	assert.Equal(t, 0, alice.Comments().State("post-1").Count)
}

func TestSession_OpenRejectsBadToken(t *testing.T) {
	srv := startServer(t)

	_, err := Open(context.Background(), Config{
		APIURL: srv.url + "/api/v1",
		WSURL:  "ws" + strings.TrimPrefix(srv.url, "http") + "/ws",
		Token:  "garbage",
		Logger: zerolog.Nop(),
	})
	assert.Error(t, err)
}

func befriend(t *testing.T, a, b *Session) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, a.Graph().SendRequest(ctx, b.Me().User))
	require.Eventually(t, func() bool { return b.Graph().Incoming(a.Me().ID) }, waitFor, tick)
	require.NoError(t, b.Graph().AcceptRequest(ctx, a.Me().User))
	require.Eventually(t, func() bool {
		return a.Graph().Status(b.Me().ID) == domain.StatusConnected
	}, waitFor, tick)
}

func TestSession_AlertForOpenConversationKeepsUnsentMessage(t *testing.T) {
	srv := startServer(t)
	ctx := context.Background()

	alice := srv.open(t, "alice")
	bob := srv.open(t, "bob")
	befriend(t, alice, bob)
	aliceUser, bobUser := alice.Me().User, bob.Me().User

	conv, err := bob.OpenConversation(ctx, aliceUser.ID)
	require.NoError(t, err)
	failed, err := conv.Send(ctx, strings.Repeat("x", service.MaxMessageLength+1))
	require.Error(t, err)
	require.Equal(t, chat.StateFailed, failed.State)

	aliceConv, err := alice.OpenConversation(ctx, bobUser.ID)
	require.NoError(t, err)
	_, err = aliceConv.Send(ctx, "are you there?")
	require.NoError(t, err)

	var toastID string
	require.Eventually(t, func() bool {
		for _, toast := range bob.Toaster().Active() {
			if toast.Event != nil && toast.Event.Sender.ID == aliceUser.ID {
				toastID = toast.ID
				return true
			}
		}
		return false
	}, waitFor, tick)
	require.True(t, bob.Toaster().Click(toastID))

	require.Eventually(t, func() bool {
		return bob.Conversation() == conv && conv.View().Len() == 2
	}, waitFor, tick)
	entries := conv.View().Entries()
	assert.Equal(t, failed.LocalID, entries[1].LocalID)
	assert.Equal(t, chat.StateFailed, entries[1].State)
	assert.NoError(t, conv.Discard(failed.LocalID))
}
