package contentservice

import (
	"context"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yemun/blog/internal/commentservice"
)

type fakeLister struct {
	mu       sync.Mutex
	calls    []string
	comments []commentservice.Comment
	// block makes ListComments wait for ctx like a store that never answers.
	block bool
}

func (f *fakeLister) ListComments(ctx context.Context, postSlug string) []commentservice.Comment {
	f.mu.Lock()
	f.calls = append(f.calls, postSlug)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return []commentservice.Comment{}
	}

	return f.comments
}

func (f *fakeLister) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func setupTestService(t *testing.T, lister CommentLister) *ContentService {
	t.Helper()

	r := NewRepository(testFS(), nil)
	require.NoError(t, r.Load())

	return NewContentService(r, lister, nil)
}

func TestResolvePostAdjacency(t *testing.T) {
	s := setupTestService(t, &fakeLister{})

	testCases := []struct {
		name     string
		slug     string
		previous string
		next     string
	}{
		{
			name:     "middle post",
			slug:     "p2",
			previous: "p3",
			next:     "p1",
		},
		{
			name:     "newest post",
			slug:     "p3",
			previous: "",
			next:     "p2",
		},
		{
			name:     "oldest post",
			slug:     "ko-only",
			previous: "p1",
			next:     "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			details := s.ResolvePost(context.Background(), tc.slug, LocaleKo)
			require.NotNil(t, details.Post)
			assert.Equal(t, tc.slug, details.Post.Slug)

			if tc.previous == "" {
				assert.Nil(t, details.AdjacentPosts.Previous)
			} else {
				require.NotNil(t, details.AdjacentPosts.Previous)
				assert.Equal(t, tc.previous, details.AdjacentPosts.Previous.Slug)
			}

			if tc.next == "" {
				assert.Nil(t, details.AdjacentPosts.Next)
			} else {
				require.NotNil(t, details.AdjacentPosts.Next)
				assert.Equal(t, tc.next, details.AdjacentPosts.Next.Slug)
			}
		})
	}
}

func TestResolvePostNotFound(t *testing.T) {
	lister := &fakeLister{}
	s := setupTestService(t, lister)

	details := s.ResolvePost(context.Background(), "missing", LocaleKo)
	assert.Nil(t, details.Post)
	assert.Nil(t, details.AdjacentPosts.Previous)
	assert.Nil(t, details.AdjacentPosts.Next)
	assert.NotNil(t, details.Comments)
	assert.Empty(t, details.Comments)
	assert.Empty(t, lister.Calls())
}

func TestResolvePostLocale(t *testing.T) {
	s := setupTestService(t, &fakeLister{})

	testCases := []struct {
		name           string
		slug           string
		locale         Locale
		expectedLocale Locale
		expectedTitle  string
	}{
		{
			name:           "requested locale exists",
			slug:           "p1",
			locale:         LocaleEn,
			expectedLocale: LocaleEn,
			expectedTitle:  "P1 english",
		},
		{
			name:           "falls back to another locale",
			slug:           "p2",
			locale:         LocaleEn,
			expectedLocale: LocaleKo,
			expectedTitle:  "P2",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			details := s.ResolvePost(context.Background(), tc.slug, tc.locale)
			require.NotNil(t, details.Post)
			assert.Equal(t, tc.expectedLocale, details.Post.Locale)
			assert.Equal(t, tc.expectedTitle, details.Post.Title)
		})
	}

	// the english edition of p1 has no english neighbours
	details := s.ResolvePost(context.Background(), "p1", LocaleEn)
	assert.Nil(t, details.AdjacentPosts.Previous)
	assert.Nil(t, details.AdjacentPosts.Next)

	// the fallback is scoped to the locale it was found in
	details = s.ResolvePost(context.Background(), "p2", LocaleEn)
	require.NotNil(t, details.AdjacentPosts.Previous)
	assert.Equal(t, "p3", details.AdjacentPosts.Previous.Slug)
}

func TestResolvePostComments(t *testing.T) {
	lister := &fakeLister{comments: []commentservice.Comment{
		{ID: "1", PostSlug: "p1", Content: "first"},
		{ID: "2", PostSlug: "p1", Content: "second"},
	}}
	s := setupTestService(t, lister)

	ko := s.ResolvePost(context.Background(), "p1", LocaleKo)
	en := s.ResolvePost(context.Background(), "p1", LocaleEn)

	assert.Len(t, ko.Comments, 2)
	assert.Equal(t, ko.Comments, en.Comments)
	// one store round trip per resolution, keyed by the shared slug
	assert.Equal(t, []string{"p1", "p1"}, lister.Calls())
}

func TestResolvePostCommentTimeout(t *testing.T) {
	lister := &fakeLister{block: true}
	s := setupTestService(t, lister)
	s.SetCommentTimeout(50 * time.Millisecond)

	start := time.Now()
	details := s.ResolvePost(context.Background(), "p2", LocaleKo)

	require.NotNil(t, details.Post)
	assert.Equal(t, "P2", details.Post.Title)
	assert.NotNil(t, details.Comments)
	assert.Empty(t, details.Comments)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestResolvePostWithoutCommentStore(t *testing.T) {
	s := setupTestService(t, nil)

	details := s.ResolvePost(context.Background(), "p2", LocaleKo)
	require.NotNil(t, details.Post)
	assert.NotNil(t, details.Comments)
	assert.Empty(t, details.Comments)
}

func TestResolvePostIdempotent(t *testing.T) {
	s := setupTestService(t, &fakeLister{})

	first := s.ResolvePost(context.Background(), "p2", LocaleKo)
	second := s.ResolvePost(context.Background(), "p2", LocaleKo)

	assert.Equal(t, first.Post, second.Post)
	assert.Equal(t, first.AdjacentPosts, second.AdjacentPosts)
}

func TestAdjacencyHasNoDocumentInBetween(t *testing.T) {
	fsys := fstest.MapFS{}
	dates := []string{"2024-01-05", "2024-01-01", "2024-01-03", "2024-01-02", "2024-01-04"}
	for i, d := range dates {
		fsys["posts/post-"+string(rune('a'+i))+".md"] = post("post "+d, d)
	}

	r := NewRepository(fsys, nil)
	require.NoError(t, r.Load())
	s := NewContentService(r, nil, nil)

	docs := r.ListDocuments(LocaleKo)
	for _, d := range docs {
		details := s.ResolvePost(context.Background(), d.Slug, LocaleKo)
		if prev := details.AdjacentPosts.Previous; prev != nil {
			assert.True(t, prev.PublishedAt.After(d.PublishedAt))
			for _, other := range docs {
				between := other.PublishedAt.After(d.PublishedAt) && other.PublishedAt.Before(prev.PublishedAt)
				assert.False(t, between, "%s lies between %s and %s", other.Slug, d.Slug, prev.Slug)
			}
		}
		if next := details.AdjacentPosts.Next; next != nil {
			assert.True(t, next.PublishedAt.Before(d.PublishedAt))
		}
	}
}

func TestListPosts(t *testing.T) {
	s := setupTestService(t, nil)

	posts := s.ListPosts(LocaleKo)
	require.Len(t, posts, 4)
	assert.Equal(t, "p3", posts[0].Slug)
	assert.Equal(t, "ko-only", posts[3].Slug)

	assert.True(t, s.HasPost("p1"))
	assert.False(t, s.HasPost("nope"))
}
