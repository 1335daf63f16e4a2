package contentservice

import (
	"context"
	"io/fs"
	"log/slog"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/yemun/blog/internal/commentservice"
)

type Locale string

const (
	LocaleKo Locale = "ko"
	LocaleEn Locale = "en"

	DefaultLocale = LocaleKo
)

var SupportedLocales = []Locale{LocaleKo, LocaleEn}

// ParseLocale accepts only the supported locales.
func ParseLocale(s string) (Locale, bool) {
	for _, l := range SupportedLocales {
		if string(l) == s {
			return l, true
		}
	}
	return "", false
}

// Document is a single post edition. Documents are never modified after load.
type Document struct {
	// Slug is shared by every language edition of the same post.
	Slug            string    `json:"slug"`
	OriginalSlug    string    `json:"original_slug"`
	Locale          Locale    `json:"locale"`
	Title           string    `json:"title"`
	RawContent      string    `json:"-"`
	CompiledContent string    `json:"content"`
	PublishedAt     time.Time `json:"published_at"`
	Description     string    `json:"description,omitempty"`
	Tags            []string  `json:"tags,omitempty"`
}

type PostSummary struct {
	Slug        string    `json:"slug"`
	Locale      Locale    `json:"locale"`
	Title       string    `json:"title"`
	PublishedAt time.Time `json:"published_at"`
	Description string    `json:"description,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
}

type AdjacentPosts struct {
	// Previous is one position newer, Next one position older.
	Previous *Document `json:"previous"`
	Next     *Document `json:"next"`
}

type PostDetails struct {
	Post          *Document                `json:"post"`
	AdjacentPosts AdjacentPosts            `json:"adjacent_posts"`
	Comments      []commentservice.Comment `json:"comments"`
}

type SearchResult struct {
	Slug   string  `json:"slug"`
	Locale Locale  `json:"locale"`
	Title  string  `json:"title"`
	Score  float64 `json:"score"`
}

// CommentLister is the soft comment read used while resolving a post.
type CommentLister interface {
	ListComments(ctx context.Context, postSlug string) []commentservice.Comment
}

// snapshot is an immutable view of the content directory.
type snapshot struct {
	docs     []Document // newest first
	index    bleve.Index
	profiles map[Locale]*Profile
	loadedAt time.Time

	// readers counts searches still using index. The index is closed once it drops to zero after a swap.
	readers sync.WaitGroup
}

type Repository struct {
	mu     sync.RWMutex
	snap   *snapshot
	fsys   fs.FS
	logger *slog.Logger
}

type ContentService struct {
	r              *Repository
	comments       CommentLister
	logger         *slog.Logger
	commentTimeout time.Duration
}
