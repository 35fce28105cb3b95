package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"blogger/domain"
	"blogger/poststore"
	"blogger/storage/memory"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingStorage struct {
	*memory.MemoryStorage
	fail bool
}

func (f *failingStorage) Set(ctx context.Context, key string, value []byte) error {
	if f.fail {
		return errors.New("write failed")
	}
	return f.MemoryStorage.Set(ctx, key, value)
}

func newTestServer(t *testing.T) (*echo.Echo, *failingStorage, *poststore.Store) {
	t.Helper()
	kv := &failingStorage{MemoryStorage: memory.New()}
	clock := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	store := poststore.Open(context.Background(), kv, poststore.WithClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}))
	return NewRouter(&Handler{Store: store}, zap.NewNop()), kv, store
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func listPosts(t *testing.T, e *echo.Echo) []domain.Post {
	t.Helper()
	rec := do(e, http.MethodGet, "/posts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var posts []domain.Post
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &posts))
	return posts
}

func TestGetPostsEmpty(t *testing.T) {
	e, _, _ := newTestServer(t)

	rec := do(e, http.MethodGet, "/posts", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCreateListDelete(t *testing.T) {
	e, _, _ := newTestServer(t)

	rec := do(e, http.MethodPost, "/posts", `{"title":"A","content":"B"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Post saved", rec.Body.String())
	assert.Equal(t, "/posts/1", rec.Header().Get(echo.HeaderLocation))

	posts := listPosts(t, e)
	require.Len(t, posts, 1)
	assert.Equal(t, "A", posts[0].Title)
	assert.Equal(t, "B", posts[0].Content)
	assert.False(t, posts[0].CreatedAt.IsZero())

	rec = do(e, http.MethodDelete, "/posts/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Post deleted", rec.Body.String())

	assert.Empty(t, listPosts(t, e))
}

func TestCreatePostErrors(t *testing.T) {
	e, kv, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"malformed json", `{"title":`, http.StatusBadRequest},
		{"wrong type", `{"title":5,"content":"x"}`, http.StatusBadRequest},
		{"missing content", `{"title":"A"}`, http.StatusBadRequest},
		{"trailing garbage", `{"title":"A","content":"B"} this is not json`, http.StatusBadRequest},
		{"second document", `{"title":"A","content":"B"}{"title":"C","content":"D"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(e, http.MethodPost, "/posts", tt.body)
			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, "Error saving post", rec.Body.String())
		})
	}

	t.Run("storage failure", func(t *testing.T) {
		kv.fail = true
		defer func() { kv.fail = false }()

		rec := do(e, http.MethodPost, "/posts", `{"title":"A","content":"B"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Error saving post", rec.Body.String())
	})

	assert.Empty(t, listPosts(t, e))
}

func TestEditPost(t *testing.T) {
	e, kv, _ := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/posts", `{"title":"A","content":"B"}`).Code)
	original := listPosts(t, e)[0]

	t.Run("partial update", func(t *testing.T) {
		rec := do(e, http.MethodPut, "/posts/1", `{"content":"edited"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Post updated", rec.Body.String())

		got := listPosts(t, e)[0]
		assert.Equal(t, "A", got.Title)
		assert.Equal(t, "edited", got.Content)
	})

	t.Run("id and createdAt are immutable", func(t *testing.T) {
		rec := do(e, http.MethodPut, "/posts/1", `{"id":77,"createdAt":"1999-01-01T00:00:00Z","title":"T"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		got := listPosts(t, e)[0]
		assert.Equal(t, original.ID, got.ID)
		assert.Equal(t, original.CreatedAt, got.CreatedAt)
		assert.Equal(t, "T", got.Title)
	})

	t.Run("unknown id", func(t *testing.T) {
		before := listPosts(t, e)
		rec := do(e, http.MethodPut, "/posts/9", `{"title":"x"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Post not found", rec.Body.String())
		assert.Equal(t, before, listPosts(t, e))
	})

	t.Run("non numeric id", func(t *testing.T) {
		rec := do(e, http.MethodPut, "/posts/abc", `{"title":"x"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := do(e, http.MethodPut, "/posts/1", `{`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("trailing data after body", func(t *testing.T) {
		rec := do(e, http.MethodPut, "/posts/1", `{"title":"X"}{`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Error updating post", rec.Body.String())
		assert.Equal(t, "T", listPosts(t, e)[0].Title)
	})

	t.Run("trailing whitespace is fine", func(t *testing.T) {
		rec := do(e, http.MethodPut, "/posts/1", "{\"content\":\"ws\"}\n  ")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ws", listPosts(t, e)[0].Content)
	})

	t.Run("storage failure", func(t *testing.T) {
		kv.fail = true
		defer func() { kv.fail = false }()

		rec := do(e, http.MethodPut, "/posts/1", `{"title":"never"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Error updating post", rec.Body.String())
		assert.Equal(t, "T", listPosts(t, e)[0].Title)
	})
}

func TestDeletePostErrors(t *testing.T) {
	e, kv, _ := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/posts", `{"title":"A","content":"B"}`).Code)

	rec := do(e, http.MethodDelete, "/posts/2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Post not found", rec.Body.String())
	assert.Len(t, listPosts(t, e), 1)

	kv.fail = true
	rec = do(e, http.MethodDelete, "/posts/1", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Error deleting post", rec.Body.String())
	assert.Len(t, listPosts(t, e), 1)
}

func TestGetByID(t *testing.T) {
	e, _, _ := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/posts", `{"title":"A","content":"B"}`).Code)

	rec := do(e, http.MethodGet, "/posts/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var p domain.Post
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, int64(1), p.ID)

	assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/posts/5", "").Code)
}

func TestGetPostHTML(t *testing.T) {
	e, _, _ := newTestServer(t)
	body := `{"title":"Fish & Chips","content":"# Heading\n\nSome **bold** text <script>alert(1)</script>"}`
	require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/posts", body).Code)

	rec := do(e, http.MethodGet, "/posts/1/html", "")
	require.Equal(t, http.StatusOK, rec.Code)
	out := rec.Body.String()
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.Contains(t, out, "Fish &amp; Chips")
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "2025-06-01")

	assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/posts/2/html", "").Code)

	t.Run("markup in title is stripped", func(t *testing.T) {
		body := `{"title":"<b>Loud</b> <img src=x onerror=alert(1)>news","content":"plain"}`
		require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/posts", body).Code)

		rec := do(e, http.MethodGet, "/posts/2/html", "")
		require.Equal(t, http.StatusOK, rec.Code)
		out := rec.Body.String()
		assert.Contains(t, out, "Loud news")
		assert.NotContains(t, out, "<b>")
		assert.NotContains(t, out, "onerror")
		assert.NotContains(t, out, "&lt;b&gt;")
	})
}

func TestUnknownRoute(t *testing.T) {
	e, _, _ := newTestServer(t)

	rec := do(e, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", rec.Body.String())
}

func TestHealthAndMetrics(t *testing.T) {
	e, _, _ := newTestServer(t)

	rec := do(e, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/posts", `{"title":"A","content":"B"}`).Code)
	rec = do(e, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "blogger_store_mutations_total")
}

func TestCORS(t *testing.T) {
	e, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/posts", nil)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:5173")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}
