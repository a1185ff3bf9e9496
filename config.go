package seoedge

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/eringen/seoedge/botdetect"
	"github.com/eringen/seoedge/cache"
	"github.com/eringen/seoedge/content"
	"github.com/eringen/seoedge/crawlerlog"
	"github.com/eringen/seoedge/upstream"
	"github.com/eringen/seoedge/views"
)

// SiteConfig holds all configuration for an SSR edge.
type SiteConfig struct {
	Name          string // Site name (default "Tech Blog")
	URL           string // Required: canonical site origin
	Description   string // Site description for meta tags and RSS
	Author        string // Author name for JSON-LD
	Locale        string // og:locale (default "en_US")
	Language      string // <html lang> (default "en")
	DefaultImage  string // og:image fallback, absolute or site-relative
	TwitterHandle string // twitter:site
	FallbackTitle string // og:title when a post cannot be loaded

	Addr        string // Listen address (default ":3000")
	UpstreamURL string // Required: Content API base URL
	StaticDir   string // Built SPA bundle (default "public")

	// ClientRedirect sends humans on /ssr/* routes a meta-refresh page
	// instead of a 302.
	ClientRedirect bool

	HomeTimeout     time.Duration // default 5s
	CategoryTimeout time.Duration // default 8s
	PostTimeout     time.Duration // default 3s
	UpstreamRetries int           // extra attempts on timeout or 5xx (default 0)
	RetryBackoff    time.Duration // first retry delay (default 100ms)

	HomeTTL     time.Duration // page cache TTL for home (default 30m)
	CategoryTTL time.Duration // default 60m
	PostTTL     time.Duration // default 120m
	DataTTL     time.Duration // data cache TTL (default 5m)

	HomeLimit int // posts on the home page (default 10)
	RSSLimit  int // posts in the feed (default 20)

	CacheQueueSize int // pending background cache writes (default 256)
	CacheWorkers   int // default 2

	CSP CSPConfig

	CrawlerLogPath      string // sqlite path; empty disables the crawler log
	CrawlerRetention    int    // days (default 90)
	CrawlerLogPerMinute int    // visits logged per IP per minute (default 120)

	AdminPassword string // empty disables the admin routes
	SessionSecret string // required when AdminPassword is set
	CookieSecure  bool   // Set true for HTTPS
}

// CSPConfig lists the extra origins allowed per directive, on top of 'self'.
type CSPConfig struct {
	ScriptSrc  []string
	StyleSrc   []string
	ImgSrc     []string
	FontSrc    []string
	ConnectSrc []string
	FrameSrc   []string
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Tech Blog"
	}
	if c.Locale == "" {
		c.Locale = "en_US"
	}
	if c.Language == "" {
		c.Language = "en"
	}
	if c.FallbackTitle == "" {
		c.FallbackTitle = c.Name + " Article"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.StaticDir == "" {
		c.StaticDir = "public"
	}
	setDuration(&c.HomeTimeout, 5*time.Second)
	setDuration(&c.CategoryTimeout, 8*time.Second)
	setDuration(&c.PostTimeout, 3*time.Second)
	setDuration(&c.RetryBackoff, 100*time.Millisecond)
	setDuration(&c.HomeTTL, 30*time.Minute)
	setDuration(&c.CategoryTTL, 60*time.Minute)
	setDuration(&c.PostTTL, 120*time.Minute)
	setDuration(&c.DataTTL, 5*time.Minute)
	setInt(&c.HomeLimit, 10)
	setInt(&c.RSSLimit, 20)
	setInt(&c.CacheQueueSize, 256)
	setInt(&c.CacheWorkers, 2)
	setInt(&c.CrawlerRetention, 90)
	setInt(&c.CrawlerLogPerMinute, 120)
}

func setDuration(d *time.Duration, def time.Duration) {
	if *d <= 0 {
		*d = def
	}
}

func setInt(n *int, def int) {
	if *n <= 0 {
		*n = def
	}
}

// Validate reports configuration that cannot serve traffic.
func (c SiteConfig) Validate() error {
	var errs []error
	if err := absoluteURL("URL", c.URL); err != nil {
		errs = append(errs, err)
	}
	if err := absoluteURL("UpstreamURL", c.UpstreamURL); err != nil {
		errs = append(errs, err)
	}
	if c.AdminPassword != "" && c.SessionSecret == "" {
		errs = append(errs, errors.New("SessionSecret is required when AdminPassword is set"))
	}
	if c.UpstreamRetries < 0 {
		errs = append(errs, errors.New("UpstreamRetries must not be negative"))
	}
	return errors.Join(errs...)
}

func absoluteURL(field, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", field)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s %q must be an absolute URL", field, raw)
	}
	return nil
}

// View returns the subset of the configuration templates render with.
func (c SiteConfig) View() views.SiteConfig {
	return views.SiteConfig{
		Name:          c.Name,
		URL:           c.URL,
		Description:   c.Description,
		Author:        c.Author,
		Locale:        c.Locale,
		Language:      c.Language,
		DefaultImage:  c.DefaultImage,
		TwitterHandle: c.TwitterHandle,
		FallbackTitle: c.FallbackTitle,
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithLogger sets the logger (default zap.NewNop).
func WithLogger(l *zap.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.Logger = l
		}
	}
}

// WithCache sets the response cache (default an in-memory store).
func WithCache(s cache.Store) Option {
	return func(a *App) {
		a.Cache = s
	}
}

// WithUpstream replaces the Content API client built from UpstreamURL.
func WithUpstream(c *upstream.Client) Option {
	return func(a *App) {
		a.Upstream = c
	}
}

// WithClassifier replaces the default bot classifier.
func WithClassifier(c *botdetect.Classifier) Option {
	return func(a *App) {
		a.classifier = c
	}
}

// WithCrawlerLog records crawler visits in store instead of opening
// CrawlerLogPath.
func WithCrawlerLog(store *crawlerlog.Store) Option {
	return func(a *App) {
		a.crawlers = store
	}
}

// WithContentAPI mounts the Content API under /api on the same server.
func WithContentAPI(r content.Reader) Option {
	return func(a *App) {
		a.contentAPI = r
	}
}

// WithCustomRoutes registers additional routes on the Echo instance.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithShell overrides the application shell served to humans.
func WithShell(html []byte) Option {
	return func(a *App) {
		a.shell = html
	}
}
