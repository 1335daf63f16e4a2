package commentsync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yemun/blog/internal/commentservice"
	"github.com/yemun/blog/internal/common"
)

const DefaultHTTPTimeout = 10 * time.Second

// HTTPStore is a Store backed by the blog's JSON API.
type HTTPStore struct {
	baseURL string
	client  *http.Client
}

func NewHTTPStore(baseURL string, timeout time.Duration) *HTTPStore {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}

	return &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// commentsPath escapes each slug segment so nested slugs keep their slashes.
func (s *HTTPStore) commentsPath(postSlug string) string {
	segments := strings.Split(postSlug, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.baseURL + "/v1/posts/" + strings.Join(segments, "/") + "/comments"
}

func (s *HTTPStore) commentPath(id string) string {
	return s.baseURL + "/v1/comments/" + url.PathEscape(id)
}

type errorBody struct {
	Error json.RawMessage `json:"error"`
}

// do sends body as JSON and decodes a 2xx response into dst.
func (s *HTTPStore) do(ctx context.Context, method, u string, body, dst any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, r)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return fmt.Errorf("%w: %w", commentservice.ErrStoreTimeout, err)
		}
		return fmt.Errorf("%w: %w", commentservice.ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: %w", commentservice.ErrStoreUnavailable, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if dst == nil {
			return nil
		}
		return json.Unmarshal(data, dst)
	}

	return responseError(resp.StatusCode, data)
}

// responseError maps an API error response onto the comment service errors.
func responseError(status int, data []byte) error {
	var body errorBody
	json.Unmarshal(data, &body)

	var message string
	var fields map[string]string
	if err := json.Unmarshal(body.Error, &message); err != nil {
		json.Unmarshal(body.Error, &fields)
	}

	switch status {
	case http.StatusNotFound:
		return commentservice.ErrRecordNotFound
	case http.StatusForbidden:
		return commentservice.ErrEmailMismatch
	case http.StatusUnprocessableEntity:
		if fields == nil {
			fields = map[string]string{"body": message}
		}
		return common.ValidationError{Errors: fields}
	case http.StatusGatewayTimeout:
		return fmt.Errorf("%w: %s", commentservice.ErrStoreTimeout, message)
	default:
		if message == "" {
			message = http.StatusText(status)
		}
		return fmt.Errorf("%w: %d %s", commentservice.ErrStoreUnavailable, status, message)
	}
}

func (s *HTTPStore) ListComments(ctx context.Context, postSlug string) ([]commentservice.Comment, error) {
	var resp struct {
		Comments []commentservice.Comment `json:"comments"`
	}

	if err := s.do(ctx, http.MethodGet, s.commentsPath(postSlug), nil, &resp); err != nil {
		return nil, err
	}

	if resp.Comments == nil {
		resp.Comments = []commentservice.Comment{}
	}

	return resp.Comments, nil
}

func (s *HTTPStore) CreateComment(ctx context.Context, req *commentservice.CreateCommentRequest) (*commentservice.Comment, error) {
	body := struct {
		AuthorName  string `json:"author_name"`
		AuthorEmail string `json:"author_email"`
		Content     string `json:"content"`
	}{req.AuthorName, req.AuthorEmail, req.Content}

	var resp struct {
		Comment *commentservice.Comment `json:"comment"`
	}

	if err := s.do(ctx, http.MethodPost, s.commentsPath(req.PostSlug), body, &resp); err != nil {
		return nil, err
	}

	return resp.Comment, nil
}

type mutateCommentRequest struct {
	Email string `json:"email"`
	commentservice.UpdateCommentRequest
}

func (s *HTTPStore) UpdateComment(ctx context.Context, id, email string, req *commentservice.UpdateCommentRequest) (*commentservice.Comment, error) {
	body := mutateCommentRequest{Email: email, UpdateCommentRequest: *req}

	var resp struct {
		Comment *commentservice.Comment `json:"comment"`
	}

	if err := s.do(ctx, http.MethodPut, s.commentPath(id), body, &resp); err != nil {
		return nil, err
	}

	return resp.Comment, nil
}

func (s *HTTPStore) DeleteComment(ctx context.Context, id, email string) error {
	return s.do(ctx, http.MethodDelete, s.commentPath(id), mutateCommentRequest{Email: email}, nil)
}

var _ Store = (*HTTPStore)(nil)
