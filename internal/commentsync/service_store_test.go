package commentsync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yemun/blog/internal/commentservice"
	"github.com/yemun/blog/internal/common"
)

func TestControllerWithServiceStore(t *testing.T) {
	db := common.TestDB("file://../../migrations", t)
	svc := commentservice.NewCommentService(db, common.NewCache(time.Minute, time.Minute), nil, nil, 5*time.Second)

	c := NewController(NewServiceStore(svc), nil)
	ctx := context.Background()

	require.NoError(t, c.Mount(ctx, "hello", nil))
	assert.Empty(t, c.Comments())

	sub, err := c.Submit(ctx, Draft{AuthorName: "A", AuthorEmail: "a@x.com", Content: "first"})
	require.NoError(t, err)
	require.Equal(t, StatusConfirmed, sub.Status)

	id := sub.Comment.ID

	content := "edited"
	require.NoError(t, c.Edit(ctx, id, "a@x.com", commentservice.UpdateCommentRequest{Content: &content}))
	assert.Equal(t, "edited", c.Comments()[0].Content)

	assert.ErrorIs(t, c.Delete(ctx, id, "b@x.com"), commentservice.ErrEmailMismatch)

	require.NoError(t, c.Delete(ctx, id, "a@x.com"))
	assert.Empty(t, c.Comments())
}

func TestServiceStoreRejectsMismatch(t *testing.T) {
	db := common.TestDB("file://../../migrations", t)
	svc := commentservice.NewCommentService(db, nil, nil, nil, 5*time.Second)
	st := NewServiceStore(svc)
	ctx := context.Background()

	created, err := svc.CreateComment(ctx, &commentservice.CreateCommentRequest{PostSlug: "hello", AuthorName: "A", AuthorEmail: "a@x.com", Content: "hi"})
	require.NoError(t, err)

	content := "hijacked"
	_, err = st.UpdateComment(ctx, created.ID, "b@x.com", &commentservice.UpdateCommentRequest{Content: &content})
	assert.ErrorIs(t, err, commentservice.ErrEmailMismatch)

	comments, err := st.ListComments(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hi", comments[0].Content)
}
