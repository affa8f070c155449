package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/taskgram/service/internal/auth"
	"github.com/taskgram/service/internal/post"
	"github.com/taskgram/service/internal/ratelimit"
	"github.com/taskgram/service/internal/task"
	"github.com/taskgram/service/internal/upload"
	"github.com/taskgram/service/internal/user"
)

const routesSecret = "routes-secret"

type countingCounter struct{ n int64 }

func (c *countingCounter) Incr(context.Context, string, time.Duration) (int64, error) {
	c.n++
	return c.n, nil
}

// testRouter builds the real route table. Handlers are backed by nil stores,
// so only requests rejected by middleware may be sent through it.
func testRouter(t *testing.T, postLimit int64) http.Handler {
	t.Helper()
	return newRouter(routeDeps{
		jwtSecret: routesSecret,
		posts:     post.NewHandler(post.NewService(nil, nil, nil, nil), true),
		tasks:     task.NewHandler(task.NewService(nil)),
		users:     user.NewHandler(user.NewService(nil)),
		stager:    upload.NewStager(t.TempDir()),
		limiter:   ratelimit.New(&countingCounter{}, "posts", postLimit, time.Hour),
	})
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter(t, 1).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestMetricsExposed(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter(t, 1).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAPIRequiresToken(t *testing.T) {
	router := testRouter(t, 1)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/posts"},
		{http.MethodPost, "/api/v1/posts"},
		{http.MethodGet, "/api/v1/posts/user/user-1"},
		{http.MethodDelete, "/api/v1/posts/post-1"},
		{http.MethodGet, "/api/v1/tasks"},
		{http.MethodGet, "/api/v1/users/me"},
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401, got %d", tc.method, tc.path, rec.Code)
		}
	}
}

func TestCreatePostIsRateLimited(t *testing.T) {
	router := testRouter(t, 0)
	token, err := auth.IssueToken(routesSecret, "user-1", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/posts", strings.NewReader(""))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}
