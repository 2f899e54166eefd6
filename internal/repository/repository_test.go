package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/damoang/angple-realtime/internal/common"
	"github.com/damoang/angple-realtime/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1) // every :memory: connection is a separate database
	require.NoError(t, AutoMigrate(db))
	return db
}

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestUserRepository(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))

	require.NoError(t, repo.Create(&domain.User{ID: "u1", Username: "alice"}))
	require.NoError(t, repo.Create(&domain.User{ID: "u2", Username: "bob"}))

	err := repo.Create(&domain.User{ID: "u3", Username: "alice"})
	assert.ErrorIs(t, err, common.ErrConflict)

	u, err := repo.FindByUsername("bob")
	require.NoError(t, err)
	assert.Equal(t, "u2", u.ID)

	_, err = repo.FindByID("nope")
	assert.ErrorIs(t, err, common.ErrNotFound)

	users, err := repo.FindByIDs([]string{"u2", "u1"})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)

	users, err = repo.FindByIDs(nil)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestMessageRepository_FindPage(t *testing.T) {
	repo := NewMessageRepository(setupTestDB(t))

	for i := 1; i <= 25; i++ {
		from, to := "a", "b"
		if i%2 == 0 {
			from, to = "b", "a"
		}
		require.NoError(t, repo.Create(&domain.Message{
			ID:         fmt.Sprintf("m%03d", i),
			SenderID:   from,
			ReceiverID: to,
			Body:       "hi",
			Timestamp:  base.Add(time.Duration(i) * time.Second),
		}))
	}
	// another conversation must not leak in
	require.NoError(t, repo.Create(&domain.Message{ID: "x1", SenderID: "a", ReceiverID: "c", Timestamp: base}))

	page, err := repo.FindPage("b", "a", nil, 10)
	require.NoError(t, err)
	require.Len(t, page, 10)
	assert.Equal(t, "m025", page[0].ID)
	assert.Equal(t, "m016", page[9].ID)

	before := page[9].Timestamp
	page, err = repo.FindPage("a", "b", &before, 10)
	require.NoError(t, err)
	require.Len(t, page, 10)
	assert.Equal(t, "m015", page[0].ID)

	before = page[9].Timestamp
	page, err = repo.FindPage("a", "b", &before, 10)
	require.NoError(t, err)
	assert.Len(t, page, 5)

	count, err := repo.CountConversation("a", "b")
	require.NoError(t, err)
	assert.EqualValues(t, 25, count)
}

func TestLikeRepository_Toggle(t *testing.T) {
	repo := NewLikeRepository(setupTestDB(t))

	liked, err := repo.Toggle("p1", "u1")
	require.NoError(t, err)
	assert.True(t, liked)

	_, err = repo.Toggle("p1", "u2")
	require.NoError(t, err)

	likes, err := repo.FindByPost("p1")
	require.NoError(t, err)
	assert.Len(t, likes, 2)

	liked, err = repo.Toggle("p1", "u1")
	require.NoError(t, err)
	assert.False(t, liked)

	likes, err = repo.FindByPost("p1")
	require.NoError(t, err)
	require.Len(t, likes, 1)
	assert.Equal(t, "u2", likes[0].UserID)
}

func TestCommentRepository(t *testing.T) {
	repo := NewCommentRepository(setupTestDB(t))

	require.NoError(t, repo.Create(&domain.CommentRecord{ID: "c2", PostID: "p1", UserID: "u1", Text: "second", Timestamp: base.Add(time.Second)}))
	require.NoError(t, repo.Create(&domain.CommentRecord{ID: "c1", PostID: "p1", UserID: "u1", Text: "first", Timestamp: base}))

	comments, err := repo.FindByPost("p1")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "c1", comments[0].ID)

	require.NoError(t, repo.Delete("c1"))
	assert.ErrorIs(t, repo.Delete("c1"), common.ErrNotFound)

	_, err = repo.FindByID("c1")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestRelationRepository(t *testing.T) {
	repo := NewRelationRepository(setupTestDB(t))

	rel := &domain.Relation{SenderID: "a", ReceiverID: "b"}
	require.NoError(t, repo.Create(rel))
	assert.Equal(t, "a:b", rel.PairKey)

	// one row per unordered pair
	assert.Error(t, repo.Create(&domain.Relation{SenderID: "b", ReceiverID: "a"}))

	found, err := repo.FindBetween("b", "a")
	require.NoError(t, err)
	assert.Equal(t, rel.ID, found.ID)

	out, err := repo.Outgoing("a")
	require.NoError(t, err)
	assert.Len(t, out, 1)
	in, err := repo.Incoming("b")
	require.NoError(t, err)
	assert.Len(t, in, 1)

	require.NoError(t, repo.Accept(rel.ID))
	assert.ErrorIs(t, repo.Accept(rel.ID), common.ErrNotFound)

	ids, err := repo.FriendIDs("b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids)

	out, err = repo.Outgoing("a")
	require.NoError(t, err)
	assert.Empty(t, out)

	require.NoError(t, repo.Delete(rel.ID))
	_, err = repo.FindBetween("a", "b")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
