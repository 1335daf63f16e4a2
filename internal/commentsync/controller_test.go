package commentsync

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yemun/blog/internal/commentservice"
	"github.com/yemun/blog/internal/common"
)

func testComments(n int) []commentservice.Comment {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	comments := make([]commentservice.Comment, n)
	for i := range comments {
		comments[i] = commentservice.Comment{
			ID:          fmt.Sprintf("c%d", i+1),
			PostSlug:    "hello",
			AuthorName:  "tester",
			AuthorEmail: "a@x.com",
			Content:     fmt.Sprintf("comment %d", i+1),
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
	}
	return comments
}

func validDraft() Draft {
	return Draft{AuthorName: "Bob", AuthorEmail: "b@x.com", Content: "new comment"}
}

func TestMountWithSnapshot(t *testing.T) {
	store := new(MockStore)
	c := NewController(store, nil)

	err := c.Mount(context.Background(), "hello", testComments(3))
	require.NoError(t, err)

	assert.Len(t, c.Comments(), 3)
	assert.Equal(t, StateReady, c.State())
	store.AssertNotCalled(t, "ListComments", mock.Anything)
}

func TestMountEmptySnapshotFetches(t *testing.T) {
	store := new(MockStore)
	store.On("ListComments", "hello").Return(testComments(2), nil).Once()

	c := NewController(store, nil)
	require.NoError(t, c.Mount(context.Background(), "hello", nil))

	assert.Len(t, c.Comments(), 2)
	store.AssertExpectations(t)
}

func TestMountIsOneShotPerSlug(t *testing.T) {
	store := new(MockStore)
	store.On("ListComments", "hello").Return([]commentservice.Comment{}, nil).Once()
	store.On("ListComments", "other").Return(testComments(1), nil).Once()

	c := NewController(store, nil)
	ctx := context.Background()

	require.NoError(t, c.Mount(ctx, "hello", nil))
	require.NoError(t, c.Mount(ctx, "hello", nil))
	require.NoError(t, c.Mount(ctx, "hello", nil))
	store.AssertNumberOfCalls(t, "ListComments", 1)

	require.NoError(t, c.Mount(ctx, "other", nil))
	assert.Equal(t, "other", c.Slug())
	assert.Len(t, c.Comments(), 1)
	store.AssertExpectations(t)
}

func TestSubmitAppendsWithoutFetch(t *testing.T) {
	created := &commentservice.Comment{ID: "c4", PostSlug: "hello", AuthorName: "Bob", Content: "new comment", CreatedAt: time.Now()}

	store := new(MockStore)
	store.On("CreateComment", mock.MatchedBy(func(req *commentservice.CreateCommentRequest) bool {
		return req.PostSlug == "hello" && req.AuthorEmail == "b@x.com"
	})).Return(created, nil).Once()

	c := NewController(store, nil)
	require.NoError(t, c.Mount(context.Background(), "hello", testComments(3)))

	sub, err := c.Submit(context.Background(), validDraft())
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, sub.Status)
	assert.Equal(t, created, sub.Comment)

	comments := c.Comments()
	require.Len(t, comments, 4)
	assert.Equal(t, "c4", comments[3].ID)

	store.AssertNotCalled(t, "ListComments", mock.Anything)
	store.AssertExpectations(t)
}

func TestSubmitAppearsOnce(t *testing.T) {
	existing := testComments(2)
	created := existing[1]

	store := new(MockStore)
	store.On("CreateComment", mock.Anything).Return(&created, nil).Once()

	c := NewController(store, nil)
	require.NoError(t, c.Mount(context.Background(), "hello", existing))

	_, err := c.Submit(context.Background(), validDraft())
	require.NoError(t, err)

	comments := c.Comments()
	require.Len(t, comments, 2)
	assert.Equal(t, created.ID, comments[1].ID)
}

func TestSubmitValidation(t *testing.T) {
	testCases := []struct {
		name        string
		draft       Draft
		expectedErr error
	}{
		{
			name:        "empty content",
			draft:       Draft{AuthorName: "Bob", AuthorEmail: "b@x.com", Content: "  "},
			expectedErr: common.ValidationError{Errors: map[string]string{"content": "must be provided"}},
		},
		{
			name:        "empty name",
			draft:       Draft{AuthorEmail: "b@x.com", Content: "hi"},
			expectedErr: common.ValidationError{Errors: map[string]string{"author_name": "must be provided"}},
		},
		{
			name:        "bad email",
			draft:       Draft{AuthorName: "Bob", AuthorEmail: "bob", Content: "hi"},
			expectedErr: common.ValidationError{Errors: map[string]string{"author_email": "must be a valid email address"}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := new(MockStore)
			c := NewController(store, nil)
			require.NoError(t, c.Mount(context.Background(), "hello", testComments(1)))

			sub, err := c.Submit(context.Background(), tc.draft)
			assert.Equal(t, tc.expectedErr, err)
			assert.Equal(t, StatusDraft, sub.Status)

			assert.Empty(t, store.Calls)
		})
	}
}

func TestSubmitFailureRefetches(t *testing.T) {
	store := new(MockStore)
	store.On("CreateComment", mock.Anything).Return(nil, commentservice.ErrStoreUnavailable).Once()
	store.On("ListComments", "hello").Return(testComments(4), nil).Once()

	c := NewController(store, nil)
	require.NoError(t, c.Mount(context.Background(), "hello", testComments(3)))

	sub, err := c.Submit(context.Background(), validDraft())
	assert.ErrorIs(t, err, commentservice.ErrStoreUnavailable)
	assert.Equal(t, StatusRejected, sub.Status)

	assert.Len(t, c.Comments(), 4)
	store.AssertExpectations(t)
}

func TestSubmitFailureKeepsSubmitError(t *testing.T) {
	listErr := errors.New("list failed")

	testCases := []struct {
		name          string
		listErr       error
		expectedState State
	}{
		{
			name:          "reconcile succeeds",
			expectedState: StateReady,
		},
		{
			name:          "reconcile fails",
			listErr:       listErr,
			expectedState: StateError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := new(MockStore)
			store.On("CreateComment", mock.Anything).Return(nil, commentservice.ErrStoreTimeout).Once()
			store.On("ListComments", "hello").Return(testComments(3), tc.listErr).Once()

			c := NewController(store, nil)
			require.NoError(t, c.Mount(context.Background(), "hello", testComments(3)))

			sub, err := c.Submit(context.Background(), validDraft())
			assert.ErrorIs(t, err, commentservice.ErrStoreTimeout)
			assert.NotErrorIs(t, err, listErr)
			assert.Equal(t, StatusRejected, sub.Status)
			assert.Equal(t, tc.expectedState, c.State())
			assert.Equal(t, tc.listErr, c.Err())
			store.AssertExpectations(t)
		})
	}
}

func TestSubmitBeforeMount(t *testing.T) {
	c := NewController(new(MockStore), nil)

	_, err := c.Submit(context.Background(), validDraft())
	assert.ErrorIs(t, err, ErrNotMounted)
}

func TestEditAndDeleteAuthorization(t *testing.T) {
	content := "edited"

	testCases := []struct {
		name   string
		action func(c *Controller) error
	}{
		{
			name: "edit",
			action: func(c *Controller) error {
				return c.Edit(context.Background(), "c1", "b@x.com", commentservice.UpdateCommentRequest{Content: &content})
			},
		},
		{
			name: "delete",
			action: func(c *Controller) error {
				return c.Delete(context.Background(), "c1", "b@x.com")
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := new(MockStore)
			c := NewController(store, nil)
			require.NoError(t, c.Mount(context.Background(), "hello", testComments(2)))

			err := tc.action(c)
			assert.ErrorIs(t, err, commentservice.ErrEmailMismatch)
			assert.Empty(t, store.Calls)
		})
	}
}

func TestEditRefetches(t *testing.T) {
	content := "edited"
	updated := testComments(2)
	updated[0].Content = content

	store := new(MockStore)
	store.On("UpdateComment", "c1", "A@x.com", mock.Anything).Return(&updated[0], nil).Once()
	store.On("ListComments", "hello").Return(updated, nil).Once()

	c := NewController(store, nil)
	require.NoError(t, c.Mount(context.Background(), "hello", testComments(2)))

	err := c.Edit(context.Background(), "c1", "A@x.com", commentservice.UpdateCommentRequest{Content: &content})
	require.NoError(t, err)

	assert.Equal(t, content, c.Comments()[0].Content)
	store.AssertExpectations(t)
}

func TestDeleteRefetches(t *testing.T) {
	store := new(MockStore)
	store.On("DeleteComment", "c2", "a@x.com").Return(nil).Once()
	store.On("ListComments", "hello").Return(testComments(1), nil).Once()

	c := NewController(store, nil)
	require.NoError(t, c.Mount(context.Background(), "hello", testComments(2)))

	require.NoError(t, c.Delete(context.Background(), "c2", "a@x.com"))
	assert.Len(t, c.Comments(), 1)
	store.AssertExpectations(t)
}

func TestEditUnknownComment(t *testing.T) {
	store := new(MockStore)
	c := NewController(store, nil)
	require.NoError(t, c.Mount(context.Background(), "hello", testComments(1)))

	err := c.Delete(context.Background(), "missing", "a@x.com")
	assert.ErrorIs(t, err, ErrCommentNotFound)
	assert.Empty(t, store.Calls)
}

func TestSubmittedCommentEmailIsRemembered(t *testing.T) {
	// comments that come back over HTTP carry no email
	created := &commentservice.Comment{ID: "c9", PostSlug: "hello", Content: "mine"}

	store := new(MockStore)
	store.On("CreateComment", mock.Anything).Return(created, nil).Once()

	c := NewController(store, nil)
	require.NoError(t, c.Mount(context.Background(), "hello", testComments(1)))

	_, err := c.Submit(context.Background(), validDraft())
	require.NoError(t, err)

	err = c.Delete(context.Background(), "c9", "someone@else.com")
	assert.ErrorIs(t, err, commentservice.ErrEmailMismatch)
	store.AssertNotCalled(t, "DeleteComment", mock.Anything, mock.Anything)
}

func TestFetchErrorAndRetry(t *testing.T) {
	store := new(MockStore)
	store.On("ListComments", "hello").Return(nil, commentservice.ErrStoreTimeout).Once()
	store.On("ListComments", "hello").Return(testComments(2), nil).Once()

	c := NewController(store, nil)

	err := c.Mount(context.Background(), "hello", nil)
	assert.ErrorIs(t, err, commentservice.ErrStoreTimeout)
	assert.Equal(t, StateError, c.State())
	assert.ErrorIs(t, c.Err(), commentservice.ErrStoreTimeout)
	assert.Empty(t, c.Comments())

	require.NoError(t, c.Retry(context.Background()))
	assert.Equal(t, StateReady, c.State())
	assert.NoError(t, c.Err())
	assert.Len(t, c.Comments(), 2)
	store.AssertExpectations(t)
}

func TestRetryBeforeMount(t *testing.T) {
	c := NewController(new(MockStore), nil)
	assert.True(t, errors.Is(c.Retry(context.Background()), ErrNotMounted))
}

func TestCommentsReturnsCopy(t *testing.T) {
	c := NewController(new(MockStore), nil)
	require.NoError(t, c.Mount(context.Background(), "hello", testComments(1)))

	got := c.Comments()
	got[0].Content = "changed"

	assert.Equal(t, "comment 1", c.Comments()[0].Content)
}
