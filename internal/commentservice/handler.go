package commentservice

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/yemun/blog/internal/common"
)

const DefaultTimeout = 5 * time.Second

// NewCommentService builds the comment store adapter. A nil db yields a service whose every call
// fails with ErrNotConfigured. cache and mb are optional.
func NewCommentService(db *sql.DB, cache common.Cacher, mb common.MessageProducer, logger *slog.Logger, timeout time.Duration) *CommentService {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &CommentService{
		m:       newCommentModel(db),
		c:       cache,
		mb:      mb,
		logger:  logger,
		timeout: timeout,
	}
}

// Configured reports whether a database was supplied.
func (s *CommentService) Configured() bool {
	return s.m != nil
}

// ListComments returns the thread for postSlug oldest first. Errors are logged and yield an empty list.
func (s *CommentService) ListComments(ctx context.Context, postSlug string) []Comment {
	comments, err := s.FetchComments(ctx, postSlug)
	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, ErrNotConfigured) {
			level = slog.LevelInfo
		}
		s.logger.Log(ctx, level, "could not list comments", slog.String("slug", postSlug), slog.Any("error", err))
		return []Comment{}
	}

	return comments
}

// FetchComments is ListComments without the soft failure.
func (s *CommentService) FetchComments(ctx context.Context, postSlug string) ([]Comment, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}

	if comments, ok := s.cachedComments(ctx, postSlug); ok {
		return comments, nil
	}

	gen := s.generation(postSlug)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	comments, err := s.m.getCommentsByPostSlug(ctx, postSlug)
	if err != nil {
		return nil, storeError(ctx, err)
	}

	sortComments(comments)
	s.cacheComments(ctx, postSlug, gen, comments)

	return comments, nil
}

// CreateComment validates, sanitizes and stores a new comment. Validation failures are returned as
// common.ValidationError before the store is touched.
func (s *CommentService) CreateComment(ctx context.Context, req *CreateCommentRequest) (*Comment, error) {
	req.normalize()

	v := common.NewValidator()
	req.validate(v)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if !s.Configured() {
		return nil, ErrNotConfigured
	}

	comment := &Comment{
		ID:          uuid.NewString(),
		PostSlug:    req.PostSlug,
		AuthorName:  req.AuthorName,
		AuthorEmail: req.AuthorEmail,
		Content:     req.Content,
	}

	tctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.m.insert(tctx, comment); err != nil {
		return nil, storeError(tctx, err)
	}

	s.invalidate(ctx, comment.PostSlug)
	s.publishCreated(ctx, comment)

	return comment, nil
}

// GetComment returns a single comment including its author email.
func (s *CommentService) GetComment(ctx context.Context, id string) (*Comment, error) {
	v := common.NewValidator()
	validateID(v, id)
	if !v.Valid() {
		return nil, ErrRecordNotFound
	}

	if !s.Configured() {
		return nil, ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	c, err := s.m.getCommentByID(ctx, id)
	if err != nil {
		return nil, storeError(ctx, err)
	}

	return c, nil
}

// AuthorizeComment loads the comment and checks that email is the one it was created with.
func (s *CommentService) AuthorizeComment(ctx context.Context, id, email string) (*Comment, error) {
	c, err := s.GetComment(ctx, id)
	if err != nil {
		return nil, err
	}

	if !EmailMatches(c.AuthorEmail, email) {
		return nil, ErrEmailMismatch
	}

	return c, nil
}

// UpdateComment applies a partial update. It does not check authorship; see AuthorizeComment.
func (s *CommentService) UpdateComment(ctx context.Context, id string, req *UpdateCommentRequest) (*Comment, error) {
	req.normalize()

	v := common.NewValidator()
	validateID(v, id)
	req.validate(v)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if !s.Configured() {
		return nil, ErrNotConfigured
	}

	tctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	c, err := s.m.update(tctx, id, req.Content, req.AuthorName, req.AuthorEmail)
	if err != nil {
		return nil, storeError(tctx, err)
	}

	s.invalidate(ctx, c.PostSlug)

	return c, nil
}

// DeleteComment removes a comment. It reports false on any failure.
func (s *CommentService) DeleteComment(ctx context.Context, id string) (bool, error) {
	v := common.NewValidator()
	validateID(v, id)
	if !v.Valid() {
		return false, ErrRecordNotFound
	}

	if !s.Configured() {
		return false, ErrNotConfigured
	}

	tctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	postSlug, err := s.m.delete(tctx, id)
	if err != nil {
		return false, storeError(tctx, err)
	}

	s.invalidate(ctx, postSlug)

	return true, nil
}

// cachedComment keeps the author email, which Comment hides from JSON.
type cachedComment struct {
	Comment
	AuthorEmail string `json:"author_email"`
}

func (s *CommentService) cachedComments(ctx context.Context, postSlug string) ([]Comment, bool) {
	if s.c == nil {
		return nil, false
	}

	data, err := s.c.Get(ctx, common.CacheKeyComments(postSlug))
	if err != nil {
		if !errors.Is(err, common.ErrCacheMiss) {
			s.logger.Warn("comment cache read failed", slog.String("slug", postSlug), slog.Any("error", err))
		}
		return nil, false
	}

	var entries []cachedComment
	if err := json.Unmarshal(data, &entries); err != nil {
		s.logger.Warn("comment cache entry is corrupt", slog.String("slug", postSlug), slog.Any("error", err))
		return nil, false
	}

	comments := make([]Comment, len(entries))
	for i, e := range entries {
		comments[i] = e.Comment
		comments[i].AuthorEmail = e.AuthorEmail
	}

	return comments, true
}

func (s *CommentService) slugGeneration(postSlug string) *atomic.Uint64 {
	g, _ := s.gens.LoadOrStore(postSlug, new(atomic.Uint64))
	return g.(*atomic.Uint64)
}

// generation changes whenever postSlug's cached thread is invalidated, directly or through InvalidateAll.
func (s *CommentService) generation(postSlug string) uint64 {
	return s.epoch.Load() + s.slugGeneration(postSlug).Load()
}

// cacheComments stores a thread read at generation gen. A read that raced with a mutation is not
// cached, so an invalidation can never be undone by an older snapshot.
func (s *CommentService) cacheComments(ctx context.Context, postSlug string, gen uint64, comments []Comment) {
	if s.c == nil || s.generation(postSlug) != gen {
		return
	}

	entries := make([]cachedComment, len(comments))
	for i, c := range comments {
		entries[i] = cachedComment{Comment: c, AuthorEmail: c.AuthorEmail}
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return
	}

	key := common.CacheKeyComments(postSlug)
	if err := s.c.Set(ctx, key, data); err != nil {
		s.logger.Warn("comment cache write failed", slog.String("slug", postSlug), slog.Any("error", err))
		return
	}

	// an invalidation landed between the check and the write
	if s.generation(postSlug) != gen {
		s.c.Delete(ctx, key)
	}
}

func (s *CommentService) invalidate(ctx context.Context, postSlug string) {
	if s.c == nil {
		return
	}

	s.slugGeneration(postSlug).Add(1)

	if err := s.c.Delete(ctx, common.CacheKeyComments(postSlug)); err != nil {
		s.logger.Warn("comment cache invalidation failed", slog.String("slug", postSlug), slog.Any("error", err))
	}
}

// InvalidateAll drops every cached comment thread.
func (s *CommentService) InvalidateAll(ctx context.Context) error {
	if s.c == nil {
		return nil
	}

	s.epoch.Add(1)
	return s.c.DeleteByPrefix(ctx, common.CacheKeyCommentsPrefix)
}

// publishCreated announces the new comment. A broker failure never fails the create.
func (s *CommentService) publishCreated(ctx context.Context, c *Comment) {
	if s.mb == nil {
		return
	}

	msg, err := json.Marshal(CommentCreatedMessage{
		ID:         c.ID,
		PostSlug:   c.PostSlug,
		AuthorName: c.AuthorName,
		Content:    c.Content,
		CreatedAt:  c.CreatedAt,
	})
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.mb.Publish(ctx, msg, common.CommentCreatedKey, common.CommentExchange); err != nil {
		s.logger.Error("could not publish comment event", slog.String("id", c.ID), slog.Any("error", err))
	}
}

func sortComments(comments []Comment) {
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
}
