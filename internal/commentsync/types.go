package commentsync

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/yemun/blog/internal/commentservice"
)

var (
	ErrNotMounted      = errors.New("controller is not mounted on a post")
	ErrCommentNotFound = errors.New("comment is not in the current list")
)

// Store is the strict comment API the controller talks to. Update and delete carry the
// caller's email so the store can refuse a mismatch before mutating anything.
type Store interface {
	ListComments(ctx context.Context, postSlug string) ([]commentservice.Comment, error)
	CreateComment(ctx context.Context, req *commentservice.CreateCommentRequest) (*commentservice.Comment, error)
	UpdateComment(ctx context.Context, id, email string, req *commentservice.UpdateCommentRequest) (*commentservice.Comment, error)
	DeleteComment(ctx context.Context, id, email string) error
}

type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return "idle"
	}
}

type SubmissionStatus int

const (
	StatusDraft SubmissionStatus = iota
	StatusSubmitted
	StatusConfirmed
	StatusRejected
)

func (s SubmissionStatus) String() string {
	switch s {
	case StatusSubmitted:
		return "submitted"
	case StatusConfirmed:
		return "confirmed"
	case StatusRejected:
		return "rejected"
	default:
		return "draft"
	}
}

type Draft struct {
	AuthorName  string
	AuthorEmail string
	Content     string
}

type Submission struct {
	Draft   Draft
	Status  SubmissionStatus
	Comment *commentservice.Comment
	Err     error
}

// Controller keeps one view's comment list in step with the store.
type Controller struct {
	mu     sync.Mutex
	store  Store
	logger *slog.Logger

	slug     string
	mounted  bool
	comments []commentservice.Comment
	state    State
	err      error
	// emails remembers the author email of comments submitted through this controller,
	// since stores reached over HTTP do not return it.
	emails map[string]string
}
