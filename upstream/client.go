// Package upstream is the edge's client for the Content API.
//
// Every call makes a single GET bounded by a caller-supplied timeout.
// Failures are classified as ErrTimeout, *HTTPError or ErrParse; callers
// own the deterministic fallback. Successful bodies can be kept in the
// data namespace of a cache.Store to absorb backend latency.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/eringen/seoedge/cache"
	"github.com/eringen/seoedge/content"
)

const (
	defaultTimeout      = 5 * time.Second
	maxResponseBody     = 8 << 20
	defaultRetryBackoff = 100 * time.Millisecond
)

// Client fetches JSON from the Content API.
type Client struct {
	base       *url.URL
	httpClient *http.Client
	userAgent  string

	data    cache.Store
	writer  *cache.Writer
	dataTTL time.Duration

	maxRetries   int
	retryBackoff time.Duration

	observe     func(endpoint string, elapsed time.Duration, err error)
	observeData func(hit bool)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithUserAgent sets the User-Agent sent upstream.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithDataCache keeps successful bodies in store for ttl. Writes go
// through w so they never delay the caller.
func WithDataCache(store cache.Store, w *cache.Writer, ttl time.Duration) Option {
	return func(c *Client) {
		c.data = store
		c.writer = w
		c.dataTTL = ttl
	}
}

// WithRetry enables up to n extra attempts for timeouts and 5xx
// responses, backing off exponentially from initial.
func WithRetry(n int, initial time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = max(n, 0)
		if initial > 0 {
			c.retryBackoff = initial
		}
	}
}

// WithObserver registers a callback invoked after every network fetch.
func WithObserver(fn func(endpoint string, elapsed time.Duration, err error)) Option {
	return func(c *Client) {
		c.observe = fn
	}
}

// WithDataObserver registers a callback invoked on every data-cache lookup.
func WithDataObserver(fn func(hit bool)) Option {
	return func(c *Client) {
		c.observeData = fn
	}
}

// New creates a Client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("upstream: parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("upstream: base url %q must be absolute", baseURL)
	}
	c := &Client{
		base:         u,
		httpClient:   &http.Client{},
		userAgent:    "seoedge/1.0",
		retryBackoff: defaultRetryBackoff,
		observe:      func(string, time.Duration, error) {},
		observeData:  func(bool) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Posts returns the most recent posts; limit <= 0 asks for all of them.
func (c *Client) Posts(ctx context.Context, limit int, timeout time.Duration) ([]content.Post, error) {
	path := "/api/posts"
	id := "all"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
		id = strconv.Itoa(limit)
	}
	var posts []content.Post
	err := c.cachedFetch(ctx, cache.DataKey("posts", id), path, timeout, &posts)
	return posts, err
}

// Categories returns every category.
func (c *Client) Categories(ctx context.Context, timeout time.Duration) ([]content.Category, error) {
	var cats []content.Category
	err := c.cachedFetch(ctx, cache.DataKey("categories", "all"), "/api/categories", timeout, &cats)
	return cats, err
}

// CategoryPosts returns a category and its posts.
func (c *Client) CategoryPosts(ctx context.Context, slug string, timeout time.Duration) (content.CategoryPosts, error) {
	var out content.CategoryPosts
	err := c.cachedFetch(ctx, cache.DataKey("posts_category", slug),
		"/api/posts/category/"+url.PathEscape(slug), timeout, &out)
	return out, err
}

// PostMeta returns a post without its body.
func (c *Client) PostMeta(ctx context.Context, slug string, timeout time.Duration) (content.Post, error) {
	var p content.Post
	err := c.cachedFetch(ctx, cache.DataKey("post_meta", slug),
		"/api/posts/"+url.PathEscape(slug)+"/meta", timeout, &p)
	return p, err
}

// Post returns a post including its body.
func (c *Client) Post(ctx context.Context, slug string, timeout time.Duration) (content.Post, error) {
	var p content.Post
	err := c.cachedFetch(ctx, cache.DataKey("post", slug),
		"/api/posts/"+url.PathEscape(slug), timeout, &p)
	return p, err
}

func (c *Client) cachedFetch(ctx context.Context, key, path string, timeout time.Duration, out any) error {
	if c.data != nil {
		if e, ok, err := c.data.Get(ctx, key); err == nil && ok {
			if json.Unmarshal(e.Body, out) == nil {
				c.observeData(true)
				return nil
			}
		}
		c.observeData(false)
	}
	body, err := c.fetchWithRetry(ctx, path, timeout)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrParse, path, err)
	}
	if c.data != nil && c.writer != nil && c.dataTTL > 0 {
		c.writer.Enqueue(key, cache.Entry{
			Key:      key,
			Status:   http.StatusOK,
			Body:     body,
			StoredAt: time.Now().UTC(),
		}, c.dataTTL)
	}
	return nil
}

// FetchJSON performs one uncached GET of path and decodes it into out.
func (c *Client) FetchJSON(ctx context.Context, path string, timeout time.Duration, out any) error {
	body, err := c.fetchWithRetry(ctx, path, timeout)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrParse, path, err)
	}
	return nil
}

func (c *Client) fetchWithRetry(ctx context.Context, path string, timeout time.Duration) ([]byte, error) {
	delay := c.retryBackoff
	for attempt := 0; ; attempt++ {
		body, err := c.fetch(ctx, path, timeout)
		if err == nil || attempt >= c.maxRetries || !retryable(err) {
			return body, err
		}
		select {
		case <-ctx.Done():
			return nil, err
		case <-time.After(delay):
		}
		delay *= 2
	}
}

// fetch issues a single GET. The inbound request's cancellation is not
// propagated: only the timeout abandons an in-flight call.
func (c *Client) fetch(parent context.Context, path string, timeout time.Duration) ([]byte, error) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), timeout)
	defer cancel()

	target := c.base.String() + path
	start := time.Now()
	body, err := c.do(ctx, target)
	if err != nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)) {
		err = fmt.Errorf("%w after %s: %s", ErrTimeout, timeout, target)
	}
	c.observe(endpointLabel(path), time.Since(start), err)
	return body, err
}

func (c *Client) do(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, &HTTPError{Status: resp.StatusCode, URL: target, Body: bytes.Clone(body)}
	}
	return body, nil
}

// endpointLabel collapses slugs so metrics stay low-cardinality.
func endpointLabel(path string) string {
	p, _, _ := strings.Cut(path, "?")
	switch {
	case p == "/api/posts":
		return "posts"
	case p == "/api/categories":
		return "categories"
	case strings.HasPrefix(p, "/api/posts/category/"):
		return "posts_category"
	case strings.HasSuffix(p, "/meta"):
		return "post_meta"
	case strings.HasPrefix(p, "/api/posts/"):
		return "post"
	default:
		return "other"
	}
}
