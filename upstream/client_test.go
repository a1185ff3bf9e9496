package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/seoedge/cache"
)

func newServer(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func TestNewRejectsRelativeURL(t *testing.T) {
	_, err := New("/api")
	assert.Error(t, err)
}

func TestPostsDecodes(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/posts", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Write([]byte(`[{"id":1,"title":"A","slug":"a","published_at":"2024-01-01T00:00:00Z"}]`))
	})
	c, err := New(srv.URL)
	require.NoError(t, err)

	posts, err := c.Posts(context.Background(), 5, time.Second)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "a", posts[0].Slug)
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)
	c, err := New(srv.URL)
	require.NoError(t, err)

	start := time.Now()
	_, err = c.PostMeta(context.Background(), "slow", 50*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, "timeout", Kind(err))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestHTTPErrorAndNotFound(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/posts/missing/meta" {
			http.Error(w, `{"error":"post not found"}`, http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"category":{"name":"Machine Learning","slug":"ml"},"posts":[]}`))
	})
	c, err := New(srv.URL)
	require.NoError(t, err)

	_, err = c.PostMeta(context.Background(), "missing", time.Second)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "not_found", Kind(err))

	_, err = c.CategoryPosts(context.Background(), "ml", time.Second)
	var he *HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, http.StatusInternalServerError, he.Status)
	assert.Contains(t, string(he.Body), "Machine Learning")
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "http_error", Kind(err))
}

func TestParseError(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>oops</html>`))
	})
	c, err := New(srv.URL)
	require.NoError(t, err)
	_, err = c.Categories(context.Background(), time.Second)
	assert.ErrorIs(t, err, ErrParse)
	assert.Equal(t, "parse_error", Kind(err))
}

func TestNoRetryByDefault(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})
	c, err := New(srv.URL)
	require.NoError(t, err)
	_, err = c.Posts(context.Background(), 0, time.Second)
	assert.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestBoundedRetry(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[]`))
	})
	c, err := New(srv.URL, WithRetry(2, time.Millisecond))
	require.NoError(t, err)
	posts, err := c.Posts(context.Background(), 0, time.Second)
	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.Equal(t, int32(3), hits.Load())
}

func TestRetrySkipsClientErrors(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})
	c, err := New(srv.URL, WithRetry(3, time.Millisecond))
	require.NoError(t, err)
	_, err = c.Post(context.Background(), "x", time.Second)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int32(1), hits.Load())
}

func TestDataCacheAbsorbsRepeatedFetches(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`[{"name":"AI","slug":"ai","post_count":3}]`))
	})
	store := cache.NewMemory(0)
	defer store.Close()
	writer := cache.NewWriter(store, 8, 1)

	var dataHits, dataMisses atomic.Int32
	c, err := New(srv.URL,
		WithDataCache(store, writer, time.Minute),
		WithDataObserver(func(hit bool) {
			if hit {
				dataHits.Add(1)
			} else {
				dataMisses.Add(1)
			}
		}))
	require.NoError(t, err)

	cats, err := c.Categories(context.Background(), time.Second)
	require.NoError(t, err)
	require.Len(t, cats, 1)

	require.Eventually(t, func() bool {
		_, ok, _ := store.Get(context.Background(), cache.DataKey("categories", "all"))
		return ok
	}, time.Second, 5*time.Millisecond)

	cats, err = c.Categories(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, 3, cats[0].PostCount)
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, int32(1), dataHits.Load())
	assert.Equal(t, int32(1), dataMisses.Load())
	require.NoError(t, writer.Close())
}

func TestObserverLabels(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	var endpoints []string
	c, err := New(srv.URL, WithObserver(func(endpoint string, _ time.Duration, _ error) {
		endpoints = append(endpoints, endpoint)
	}))
	require.NoError(t, err)
	ctx := context.Background()
	_, _ = c.PostMeta(ctx, "a", time.Second)
	_, _ = c.Post(ctx, "a", time.Second)
	_, _ = c.CategoryPosts(ctx, "ai", time.Second)
	assert.Equal(t, []string{"post_meta", "post", "posts_category"}, endpoints)
}

func TestFetchJSONBypassesDataCache(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/api/categories", r.URL.Path)
		w.Write([]byte(`[{"name":"Go","slug":"go"}]`))
	})
	store := cache.NewMemory(0)
	defer store.Close()
	writer := cache.NewWriter(store, 8, 1)
	defer writer.Close()
	c, err := New(srv.URL, WithDataCache(store, writer, time.Minute))
	require.NoError(t, err)

	for range 2 {
		var out []map[string]string
		require.NoError(t, c.FetchJSON(context.Background(), "/api/categories", time.Second, &out))
		assert.Equal(t, "go", out[0]["slug"])
	}
	assert.Equal(t, int32(2), hits.Load())

	var bad struct{ N int }
	err = c.FetchJSON(context.Background(), "/api/categories", time.Second, &bad)
	assert.ErrorIs(t, err, ErrParse)
}
