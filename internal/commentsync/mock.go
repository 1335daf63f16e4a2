package commentsync

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/yemun/blog/internal/commentservice"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) ListComments(ctx context.Context, postSlug string) ([]commentservice.Comment, error) {
	args := m.Called(postSlug)
	comments, _ := args.Get(0).([]commentservice.Comment)
	return comments, args.Error(1)
}

func (m *MockStore) CreateComment(ctx context.Context, req *commentservice.CreateCommentRequest) (*commentservice.Comment, error) {
	args := m.Called(req)
	comment, _ := args.Get(0).(*commentservice.Comment)
	return comment, args.Error(1)
}

func (m *MockStore) UpdateComment(ctx context.Context, id, email string, req *commentservice.UpdateCommentRequest) (*commentservice.Comment, error) {
	args := m.Called(id, email, req)
	comment, _ := args.Get(0).(*commentservice.Comment)
	return comment, args.Error(1)
}

func (m *MockStore) DeleteComment(ctx context.Context, id, email string) error {
	args := m.Called(id, email)
	return args.Error(0)
}
