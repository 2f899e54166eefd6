package optimistic

import (
	"context"
	"testing"
	"time"

	"github.com/damoang/angple-realtime/internal/common"
	"github.com/damoang/angple-realtime/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	timeout = time.Second
	tick    = time.Millisecond
)

// --- Mock CommentsAPI ---

type mockCommentsAPI struct {
	mock.Mock
}

func (m *mockCommentsAPI) Comments(ctx context.Context, postID string) (domain.CommentsResponse, error) {
	args := m.Called(ctx, postID)
	return args.Get(0).(domain.CommentsResponse), args.Error(1)
}

func (m *mockCommentsAPI) CreateComment(ctx context.Context, postID, text string) (domain.CommentRecord, error) {
	args := m.Called(ctx, postID, text)
	return args.Get(0).(domain.CommentRecord), args.Error(1)
}

func (m *mockCommentsAPI) DeleteComment(ctx context.Context, commentID, postID string) error {
	return m.Called(ctx, commentID, postID).Error(0)
}

func TestComments_CreateAppendsAndCounts(t *testing.T) {
	ctx := context.Background()
	api := new(mockCommentsAPI)
	comments := NewComments(api, nil, zerolog.Nop())

	api.On("Comments", mock.Anything, "p1").Return(domain.CommentsResponse{
		Comments:     []domain.CommentRecord{{ID: "c1", PostID: "p1", Text: "first"}},
		CommentCount: 1,
	}, nil).Once()
	require.NoError(t, comments.Load(ctx, "p1"))

	var during CommentState
	stored := domain.CommentRecord{ID: "c2", PostID: "p1", UserID: self, Text: "second"}
	api.On("CreateComment", mock.Anything, "p1", "second").
		Run(func(mock.Arguments) { during = comments.State("p1") }).
		Return(stored, nil).Once()

	got, err := comments.Create(ctx, "p1", "second")
	require.NoError(t, err)
	assert.Equal(t, stored, got)

	// nothing is shown before the server answers
	assert.Equal(t, 1, during.Count)
	assert.Len(t, during.Comments, 1)

	state := comments.State("p1")
	assert.Equal(t, 2, state.Count)
	assert.Equal(t, []string{"c1", "c2"}, []string{state.Comments[0].ID, state.Comments[1].ID})
}

func TestComments_EmptyTextRejectedLocally(t *testing.T) {
	api := new(mockCommentsAPI)
	comments := NewComments(api, nil, zerolog.Nop())

	_, err := comments.Create(context.Background(), "p1", " ")
	assert.ErrorIs(t, err, common.ErrValidation)
	api.AssertNotCalled(t, "CreateComment", mock.Anything, mock.Anything, mock.Anything)
}

func TestComments_CreateFailureLeavesStateAndNotifies(t *testing.T) {
	ctx := context.Background()
	api := new(mockCommentsAPI)
	notifier := &recordingNotifier{}
	comments := NewComments(api, notifier, zerolog.Nop())

	api.On("CreateComment", mock.Anything, "p1", "hi").Return(domain.CommentRecord{}, common.ErrTransport).Once()
	_, err := comments.Create(ctx, "p1", "hi")
	assert.ErrorIs(t, err, common.ErrTransport)
	assert.Equal(t, 0, comments.State("p1").Count)
	assert.Equal(t, 1, notifier.count())
}

func TestComments_DeleteFloorsCounter(t *testing.T) {
	ctx := context.Background()
	api := new(mockCommentsAPI)
	comments := NewComments(api, nil, zerolog.Nop())

	api.On("Comments", mock.Anything, "p1").Return(domain.CommentsResponse{
		Comments:     []domain.CommentRecord{{ID: "c1", PostID: "p1"}},
		CommentCount: 1,
	}, nil).Once()
	require.NoError(t, comments.Load(ctx, "p1"))

	api.On("DeleteComment", mock.Anything, "c1", "p1").Return(nil).Twice()
	require.NoError(t, comments.Delete(ctx, "p1", "c1"))
	require.NoError(t, comments.Delete(ctx, "p1", "c1"))

	state := comments.State("p1")
	assert.Equal(t, 0, state.Count)
	assert.Empty(t, state.Comments)
}

func TestComments_LoadFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	api := new(mockCommentsAPI)
	notifier := &recordingNotifier{}
	comments := NewComments(api, notifier, zerolog.Nop())

	api.On("Comments", mock.Anything, "p1").Return(domain.CommentsResponse{
		Comments:     []domain.CommentRecord{{ID: "c1"}},
		CommentCount: 1,
	}, nil).Once()
	require.NoError(t, comments.Load(ctx, "p1"))

	api.On("Comments", mock.Anything, "p1").Return(domain.CommentsResponse{}, common.ErrTransport).Once()
	assert.ErrorIs(t, comments.Load(ctx, "p1"), common.ErrTransport)
	assert.Equal(t, 1, comments.State("p1").Count)
	require.Equal(t, 1, notifier.count())
	assert.NotNil(t, notifier.retries[0])
}

func TestComments_CreateOnUnloadedPostLeavesCountToLoad(t *testing.T) {
	ctx := context.Background()
	api := new(mockCommentsAPI)
	comments := NewComments(api, nil, zerolog.Nop())

	stored := domain.CommentRecord{ID: "c9", PostID: "p1", UserID: self, Text: "late"}
	api.On("CreateComment", mock.Anything, "p1", "late").Return(stored, nil).Once()
	_, err := comments.Create(ctx, "p1", "late")
	require.NoError(t, err)
	assert.Equal(t, 0, comments.State("p1").Count)
	assert.Empty(t, comments.State("p1").Comments)

	api.On("Comments", mock.Anything, "p1").Return(domain.CommentsResponse{
		Comments:     []domain.CommentRecord{{ID: "c1", PostID: "p1"}, stored},
		CommentCount: 8,
	}, nil).Once()
	require.NoError(t, comments.Load(ctx, "p1"))
	assert.Equal(t, 8, comments.State("p1").Count)
	assert.Len(t, comments.State("p1").Comments, 2)
}
