package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yemun/blog/internal/commentservice"
	"github.com/yemun/blog/internal/common"
	"github.com/yemun/blog/internal/contentservice"
)

const testRevalidateToken = "s3cret"

type testServer struct {
	*httptest.Server
}

func newTestServer(t *testing.T, h http.Handler) *testServer {
	ts := httptest.NewServer(h)

	t.Cleanup(ts.Close)

	return &testServer{ts}
}

func readResponse(t *testing.T, res *http.Response) (int, http.Header, envelope) {
	defer res.Body.Close()

	responseBody, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}

	var envelope envelope
	err = json.Unmarshal(responseBody, &envelope)
	if err != nil {
		t.Fatalf("decode %q: %v", responseBody, err)
	}

	return res.StatusCode, res.Header, envelope
}

func testPost(title, date string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(fmt.Sprintf("---\ntitle: %s\npublishedAt: %s\n---\n# %s\n\nbody of %s\n", title, date, title, title))}
}

func testContent() fstest.MapFS {
	return fstest.MapFS{
		"posts/first.md":          testPost("First", "2024-01-01"),
		"posts/second.md":         testPost("Second", "2024-02-01"),
		"posts/third.md":          testPost("Third", "2024-03-01"),
		"posts/first-en.md":       testPost("First in English", "2024-01-01"),
		"posts/go/generics.md":    testPost("Generics", "2023-06-01"),
		"profile/profile.yaml":    {Data: []byte("title: 개발자\nbiography: 안녕하세요\ncontact: 연락처는 비공개입니다\n")},
		"profile/profile-en.yaml": {Data: []byte("title: Developer\nbiography: hello\ncontact:\n  email: me@example.com\n")},
	}
}

func testConfig() *Config {
	return &Config{
		Environment:     "testing",
		Version:         "1.0.0",
		TrustedOrigins:  []string{"http://localhost:3000"},
		RevalidateToken: testRevalidateToken,
	}
}

// newTestApplication builds an application over fsys. A nil db leaves the comment store unconfigured.
func newTestApplication(t *testing.T, fsys fstest.MapFS, db *sql.DB) *application {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	repo := contentservice.NewRepository(fsys, logger)
	require.NoError(t, repo.Load())

	mb := new(commentservice.MockMessageProducer)
	mb.On("Publish", common.CommentCreatedKey, common.CommentExchange).Return(nil)

	comments := commentservice.NewCommentService(db, common.NewCache(time.Minute, time.Minute), mb, logger, 5*time.Second)

	return &application{
		config:         testConfig(),
		logger:         logger,
		contentService: contentservice.NewContentService(repo, comments, logger),
		commentService: comments,
	}
}

func (ts *testServer) do(t *testing.T, method, path string, payload any, header http.Header) (int, http.Header, envelope) {
	var body io.Reader
	if payload != nil {
		jsonPayload, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		body = bytes.NewReader(jsonPayload)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatal(err)
	}

	req.Header.Set("Content-Type", "application/json")
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	res, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}

	return readResponse(t, res)
}

func (ts *testServer) get(t *testing.T, path string) (int, http.Header, envelope) {
	return ts.do(t, http.MethodGet, path, nil, nil)
}

func (ts *testServer) post(t *testing.T, path string, payload any) (int, http.Header, envelope) {
	return ts.do(t, http.MethodPost, path, payload, nil)
}

func (ts *testServer) put(t *testing.T, path string, payload any) (int, http.Header, envelope) {
	return ts.do(t, http.MethodPut, path, payload, nil)
}

func (ts *testServer) delete(t *testing.T, path string, payload any) (int, http.Header, envelope) {
	return ts.do(t, http.MethodDelete, path, payload, nil)
}
