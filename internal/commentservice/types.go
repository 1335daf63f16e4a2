package commentservice

import (
	"database/sql"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yemun/blog/internal/common"
)

type Comment struct {
	ID         string `json:"id"`
	PostSlug   string `json:"post_slug"`
	AuthorName string `json:"author_name"`
	// AuthorEmail is the only proof of authorship and never leaves the server.
	AuthorEmail string    `json:"-"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CreateCommentRequest struct {
	PostSlug    string `json:"post_slug"`
	AuthorName  string `json:"author_name"`
	AuthorEmail string `json:"author_email"`
	Content     string `json:"content"`
}

// UpdateCommentRequest is a partial update. Nil fields are left unchanged.
type UpdateCommentRequest struct {
	Content     *string `json:"content,omitempty"`
	AuthorName  *string `json:"author_name,omitempty"`
	AuthorEmail *string `json:"author_email,omitempty"`
}

// CommentCreatedMessage is published on common.CommentCreatedKey after a successful insert.
type CommentCreatedMessage struct {
	ID         string    `json:"id"`
	PostSlug   string    `json:"post_slug"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

type CommentModel struct {
	db *sql.DB
}

type CommentService struct {
	m       *CommentModel
	c       common.Cacher
	mb      common.MessageProducer
	logger  *slog.Logger
	timeout time.Duration

	// gens holds a *atomic.Uint64 per slug, bumped by every invalidation of that slug.
	// epoch is bumped by InvalidateAll. A list read is only cached if neither moved meanwhile.
	gens  sync.Map
	epoch atomic.Uint64
}
