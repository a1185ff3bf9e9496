// Package seoedge serves a client-rendered blog to humans and
// server-rendered HTML to crawlers.
//
// Requests for the home page, category pages and posts are classified by
// user agent. Humans get the application shell. Search engines, link
// unfurlers and AI crawlers get HTML rendered from the Content API, cached
// per route and rendering variant. Upstream failures always degrade to a
// valid 200 document; crawlers never see a 5xx.
package seoedge

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/eringen/seoedge/botdetect"
	"github.com/eringen/seoedge/cache"
	"github.com/eringen/seoedge/content"
	"github.com/eringen/seoedge/crawlerlog"
	"github.com/eringen/seoedge/metrics"
	"github.com/eringen/seoedge/upstream"
	"github.com/eringen/seoedge/views"
)

// App wires the classifier, cache, upstream client, renderers, middleware
// and routes together.
type App struct {
	Config   SiteConfig
	Echo     *echo.Echo
	Cache    cache.Store
	Upstream *upstream.Client
	Logger   *zap.Logger

	view         views.SiteConfig
	classifier   *botdetect.Classifier
	writer       *cache.Writer
	crawlers     *crawlerlog.Store
	recorder     *crawlerlog.Recorder
	contentAPI   content.Reader
	loginLimiter *LoginLimiter
	registry     *prometheus.Registry
	shell        []byte
	csp          string
	customRoutes []func(*App)
	closers      []func() error
}

// New builds an App ready to serve. Nothing listens until Start.
func New(cfg SiteConfig, opts ...Option) (*App, error) {
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("seoedge: invalid config: %w", err)
	}

	a := &App{
		Config:   cfg,
		Echo:     echo.New(),
		Logger:   zap.NewNop(),
		registry: prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true
	a.view = cfg.View()
	a.csp = cfg.CSP.String()
	metrics.Init()

	if a.classifier == nil {
		a.classifier = botdetect.Default()
	}
	if a.Cache == nil {
		mem := cache.NewMemory(time.Minute)
		a.Cache = mem
		a.closers = append(a.closers, mem.Close)
	}
	a.writer = cache.NewWriter(a.Cache, cfg.CacheQueueSize, cfg.CacheWorkers,
		cache.WithLogger(a.Logger),
		cache.WithObserver(metrics.ObserveCacheWrite))

	if a.Upstream == nil {
		client, err := upstream.New(cfg.UpstreamURL,
			upstream.WithDataCache(a.Cache, a.writer, cfg.DataTTL),
			upstream.WithRetry(cfg.UpstreamRetries, cfg.RetryBackoff),
			upstream.WithObserver(func(endpoint string, elapsed time.Duration, err error) {
				metrics.ObserveUpstream(endpoint, upstream.Kind(err), elapsed)
			}),
			upstream.WithDataObserver(func(hit bool) {
				metrics.ObserveCacheLookup(cache.NamespaceData, lookupResult(hit))
			}))
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("seoedge: %w", err)
		}
		a.Upstream = client
	}

	if err := a.initCrawlerLog(); err != nil {
		a.Close()
		return nil, err
	}

	if a.shell == nil {
		a.shell = loadShell(cfg.StaticDir, a.Logger)
	}
	if cfg.AdminPassword != "" {
		a.loginLimiter = NewLoginLimiter(5, time.Minute)
		a.closers = append(a.closers, a.loginLimiter.Close)
	}

	if err := a.setupMiddleware(); err != nil {
		a.Close()
		return nil, fmt.Errorf("seoedge: middleware: %w", err)
	}
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	return a, nil
}

func (a *App) initCrawlerLog() error {
	if a.crawlers == nil && a.Config.CrawlerLogPath != "" {
		store, err := crawlerlog.NewStore(a.Config.CrawlerLogPath)
		if err != nil {
			return fmt.Errorf("seoedge: init crawler log: %w", err)
		}
		a.crawlers = store
		a.closers = append(a.closers, store.Close)
	}
	if a.crawlers == nil {
		return nil
	}
	a.recorder = crawlerlog.NewRecorder(a.crawlers, a.Logger, 1024, a.Config.CrawlerLogPerMinute)
	stop := a.crawlers.StartCleanupScheduler(a.Config.CrawlerRetention, 24*time.Hour, a.Logger)
	// Recorder and scheduler must stop before the store closes.
	a.closers = append([]func() error{func() error {
		stop()
		a.recorder.Close()
		return nil
	}}, a.closers...)
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.GET("/healthz", a.handleHealth)
	e.GET("/metrics", a.metricsHandler())
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/rss.xml", a.handleFeed)
	e.GET("/feed.xml", a.handleFeed)

	// Edge routes: humans get the shell, crawlers get SSR.
	e.GET("/", a.handleEdgeHome)
	e.GET("/category/:slug", a.handleEdgeCategory)
	e.GET("/post/:slug", a.handleEdgePost)

	// SSR endpoints: humans are redirected to the SPA route.
	e.GET("/ssr/home", a.handleSSRHome)
	e.GET("/ssr/category/:slug", a.handleSSRCategory)
	e.GET("/ssr/post/:slug", a.handleSSRPost)

	if a.contentAPI != nil {
		content.NewAPI(a.contentAPI, a.Logger).RegisterRoutes(e)
	}

	if a.Config.AdminPassword != "" {
		e.GET("/admin/", a.handleAdmin)
		e.POST("/admin/login/", a.handleAdminLogin)
		e.POST("/admin/logout/", handleAdminLogout)
		e.POST("/admin/cache/purge/", a.handleCachePurge)
		e.GET("/admin/crawlers/", a.handleCrawlerStats)
	}

	// Everything else is the SPA: static files, then the shell.
	e.GET("/*", a.handleSPA)
}

// Start serves until the server is shut down.
func (a *App) Start() error {
	a.Logger.Info("seoedge listening",
		zap.String("addr", a.Config.Addr),
		zap.String("site", a.Config.URL),
		zap.String("upstream", a.Config.UpstreamURL))
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully and then releases resources.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.Echo.Shutdown(ctx)
	return errors.Join(err, a.Close())
}

// Close flushes pending background writes and releases resources. Call
// this when the app is shutting down.
func (a *App) Close() error {
	var errs []error
	if a.writer != nil {
		errs = append(errs, a.writer.Close())
	}
	for _, fn := range a.closers {
		errs = append(errs, fn())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func lookupResult(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}
