package commentsync

import (
	"context"

	"github.com/yemun/blog/internal/commentservice"
)

// ServiceStore runs the controller in process against a CommentService.
type ServiceStore struct {
	s *commentservice.CommentService
}

func NewServiceStore(s *commentservice.CommentService) *ServiceStore {
	return &ServiceStore{s: s}
}

func (st *ServiceStore) ListComments(ctx context.Context, postSlug string) ([]commentservice.Comment, error) {
	return st.s.FetchComments(ctx, postSlug)
}

func (st *ServiceStore) CreateComment(ctx context.Context, req *commentservice.CreateCommentRequest) (*commentservice.Comment, error) {
	return st.s.CreateComment(ctx, req)
}

func (st *ServiceStore) UpdateComment(ctx context.Context, id, email string, req *commentservice.UpdateCommentRequest) (*commentservice.Comment, error) {
	if _, err := st.s.AuthorizeComment(ctx, id, email); err != nil {
		return nil, err
	}
	return st.s.UpdateComment(ctx, id, req)
}

func (st *ServiceStore) DeleteComment(ctx context.Context, id, email string) error {
	if _, err := st.s.AuthorizeComment(ctx, id, email); err != nil {
		return err
	}
	_, err := st.s.DeleteComment(ctx, id)
	return err
}

var _ Store = (*ServiceStore)(nil)
