package contentservice

import (
	"context"
	"log/slog"
	"time"

	"github.com/yemun/blog/internal/commentservice"
)

const defaultCommentTimeout = 5 * time.Second

// NewContentService wires the repository to an optional comment source.
func NewContentService(r *Repository, comments CommentLister, logger *slog.Logger) *ContentService {
	if logger == nil {
		logger = slog.Default()
	}

	return &ContentService{
		r:              r,
		comments:       comments,
		logger:         logger,
		commentTimeout: defaultCommentTimeout,
	}
}

// SetCommentTimeout bounds how long ResolvePost waits for comments.
func (s *ContentService) SetCommentTimeout(d time.Duration) {
	if d > 0 {
		s.commentTimeout = d
	}
}

// ResolvePost finds the post, its neighbours in the same locale and its comments.
// A missing post yields a PostDetails with a nil Post, not an error.
func (s *ContentService) ResolvePost(ctx context.Context, slug string, locale Locale) *PostDetails {
	all := s.r.ListDocuments("")

	post := findDocument(all, slug, locale)
	if post == nil {
		return &PostDetails{Comments: []commentservice.Comment{}}
	}

	scoped := make([]Document, 0, len(all))
	for _, d := range all {
		if d.Locale == post.Locale {
			scoped = append(scoped, d)
		}
	}
	sortDocuments(scoped)

	details := &PostDetails{
		Post:          post,
		AdjacentPosts: adjacentPosts(scoped, post.Slug),
		Comments:      s.listComments(ctx, post.Slug),
	}

	return details
}

// findDocument prefers the requested locale and otherwise takes the newest edition in any locale.
func findDocument(docs []Document, slug string, locale Locale) *Document {
	for i := range docs {
		if docs[i].Slug == slug && docs[i].Locale == locale {
			d := docs[i]
			return &d
		}
	}

	for i := range docs {
		if docs[i].Slug == slug {
			d := docs[i]
			return &d
		}
	}

	return nil
}

// adjacentPosts expects docs sorted newest first.
func adjacentPosts(docs []Document, slug string) AdjacentPosts {
	var adj AdjacentPosts

	for i := range docs {
		if docs[i].Slug != slug {
			continue
		}

		if i > 0 {
			prev := docs[i-1]
			adj.Previous = &prev
		}
		if i+1 < len(docs) {
			next := docs[i+1]
			adj.Next = &next
		}
		break
	}

	return adj
}

func (s *ContentService) listComments(ctx context.Context, slug string) []commentservice.Comment {
	if s.comments == nil {
		return []commentservice.Comment{}
	}

	ctx, cancel := context.WithTimeout(ctx, s.commentTimeout)
	defer cancel()

	comments := s.comments.ListComments(ctx, slug)
	if comments == nil {
		return []commentservice.Comment{}
	}

	return comments
}

// ListPosts returns the summaries for locale, newest first.
func (s *ContentService) ListPosts(locale Locale) []PostSummary {
	docs := s.r.ListDocuments(locale)
	sortDocuments(docs)

	posts := make([]PostSummary, len(docs))
	for i := range docs {
		posts[i] = docs[i].summary()
	}

	return posts
}

// HasPost reports whether any edition of slug exists.
func (s *ContentService) HasPost(slug string) bool {
	return findDocument(s.r.ListDocuments(""), slug, "") != nil
}

func (s *ContentService) Search(query string, locale Locale, limit int) ([]SearchResult, error) {
	return s.r.Search(query, locale, limit)
}

func (s *ContentService) Profile(locale Locale) *Profile {
	return s.r.Profile(locale)
}

func (s *ContentService) Reload() error {
	return s.r.Reload()
}

func (s *ContentService) Count() int {
	return s.r.Count()
}

func (s *ContentService) LoadedAt() time.Time {
	return s.r.LoadedAt()
}
