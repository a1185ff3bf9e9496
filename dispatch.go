package seoedge

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/seoedge/botdetect"
	"github.com/eringen/seoedge/cache"
	"github.com/eringen/seoedge/crawlerlog"
	"github.com/eringen/seoedge/metrics"
)

const (
	robotsIndex   = "index, follow"
	robotsNoIndex = "noindex"
)

// page is one server-rendered response.
type page struct {
	status       int
	body         []byte
	renderPath   string
	cacheControl string
	robots       string
	csp          bool
	cacheable    bool
}

// ssrRoute is the per-route configuration of the dispatch pipeline.
type ssrRoute struct {
	kind         string
	id           string
	variant      string
	cacheControl string
	ttl          time.Duration
	render       func(ctx context.Context, req RenderRequest) (page, error)
	// degrade answers when render fails or panics.
	degrade func(c echo.Context, req RenderRequest) error
}

// dispatch runs Classify -> CacheLookup -> {hit: Respond} |
// {miss: FetchUpstream -> Render -> StoreCache (async) -> Respond}.
// Fetch failures are handled inside render as fallback pages; anything
// unexpected, including panics, goes to rt.degrade.
func (a *App) dispatch(c echo.Context, req RenderRequest, rt ssrRoute) (err error) {
	defer func() {
		if p := recover(); p != nil {
			a.Logger.Error("dispatcher panic",
				zap.String("route", rt.kind),
				zap.String("path", req.Path),
				zap.Any("panic", p),
				zap.Stack("stack"))
			err = rt.degrade(c, req)
		}
	}()

	metrics.ObserveClient(req.Classification.String())
	ctx := c.Request().Context()
	key := cache.PageKey(rt.kind, rt.id, rt.variant)

	if entry, ok := a.lookupPage(ctx, key); ok {
		return a.replay(c, req, rt.kind, entry)
	}

	pg, err := rt.render(ctx, req)
	if err != nil {
		a.Logger.Error("render failed",
			zap.String("route", rt.kind),
			zap.String("path", req.Path),
			zap.Error(err))
		return rt.degrade(c, req)
	}
	if pg.cacheControl == "" {
		pg.cacheControl = rt.cacheControl
	}
	if pg.robots == "" {
		pg.robots = robotsIndex
	}
	if pg.status == 0 {
		pg.status = http.StatusOK
	}
	h := a.pageHeader(pg)
	if pg.cacheable {
		a.writer.Enqueue(key, cache.NewEntry(key, pg.status, pg.body, h, pageHeaders...), rt.ttl)
	}
	return a.respond(c, req, rt.kind, pg.status, pg.body, h, pg.renderPath)
}

func (a *App) pageHeader(pg page) http.Header {
	h := http.Header{}
	h.Set(echo.HeaderCacheControl, pg.cacheControl)
	h.Set(HeaderRobotsTag, pg.robots)
	if pg.csp {
		h.Set(echo.HeaderContentSecurityPolicy, a.csp)
	}
	return h
}

func (a *App) lookupPage(ctx context.Context, key string) (cache.Entry, bool) {
	entry, ok, err := a.Cache.Get(ctx, key)
	switch {
	case err != nil:
		a.Logger.Warn("page cache lookup failed", zap.String("key", key), zap.Error(err))
		metrics.ObserveCacheLookup(cache.NamespacePage, "error")
		return cache.Entry{}, false
	case !ok:
		metrics.ObserveCacheLookup(cache.NamespacePage, "miss")
		return cache.Entry{}, false
	}
	metrics.ObserveCacheLookup(cache.NamespacePage, "hit")
	return entry, true
}

func (a *App) replay(c echo.Context, req RenderRequest, kind string, e cache.Entry) error {
	h := http.Header{}
	for name, v := range e.Headers {
		h.Set(name, v)
	}
	status := e.Status
	if status == 0 {
		status = http.StatusOK
	}
	return a.respond(c, req, kind, status, e.Body, h, PathCacheHit)
}

// respond writes the dispatcher headers and body, then records the
// request for metrics and the crawler log.
func (a *App) respond(c echo.Context, req RenderRequest, kind string, status int, body []byte, extra http.Header, renderPath string) error {
	h := c.Response().Header()
	for name, vals := range extra {
		h[name] = vals
	}
	cacheControl := h.Get(echo.HeaderCacheControl)
	if cacheControl == "" {
		cacheControl = CacheControlFallback
	}
	robots := h.Get(HeaderRobotsTag)
	if robots == "" {
		robots = robotsIndex
	}
	setDispatchHeaders(h, cacheControl, robots, renderPath)
	a.observe(req, kind, renderPath)
	return c.Blob(status, echo.MIMETextHTMLCharsetUTF8, body)
}

func (a *App) observe(req RenderRequest, kind, renderPath string) {
	metrics.ObserveRender(kind, renderPath)
	if a.recorder == nil || !req.Classification.Crawler() {
		return
	}
	a.recorder.Record(crawlerlog.Visit{
		BotName:    botdetect.BotName(req.UserAgent),
		IPHash:     a.crawlers.HashIP(req.ClientIP),
		UserAgent:  req.UserAgent,
		Path:       req.Path,
		AICrawler:  req.Classification.IsAICrawler,
		RenderPath: renderPath,
		Timestamp:  time.Now().UTC(),
	})
}

// fallback writes a page that was rendered without upstream data. It is
// never cached.
func (a *App) fallback(c echo.Context, req RenderRequest, kind string, pg page) error {
	if pg.status == 0 {
		pg.status = http.StatusOK
	}
	if pg.robots == "" {
		pg.robots = robotsIndex
	}
	pg.cacheControl = CacheControlFallback
	return a.respond(c, req, kind, pg.status, pg.body, a.pageHeader(pg), PathFallback)
}

func renderErr(what string, err error) error {
	return fmt.Errorf("render %s: %w", what, err)
}
