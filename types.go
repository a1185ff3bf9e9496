package seoedge

import (
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/eringen/seoedge/botdetect"
)

// Render paths reported in the X-Render-Path header.
const (
	PathCacheHit = "cache-hit"
	PathRendered = "rendered"
	PathFallback = "fallback"
	PathShell    = "shell"
	PathRedirect = "redirect"
	PathNotFound = "not-found"
)

// Route kinds, used in cache keys, logs and metrics.
const (
	RouteHome     = "home"
	RouteCategory = "category"
	RoutePost     = "post"
)

// Response headers set by the dispatchers.
const (
	HeaderRenderPath = "X-Render-Path"
	HeaderRobotsTag  = "X-Robots-Tag"
)

// Cache-Control values per route.
const (
	CacheControlHome     = "public, max-age=300, s-maxage=3600"
	CacheControlCategory = "public, max-age=600, s-maxage=1800"
	CacheControlPost     = "public, max-age=3600, s-maxage=7200"
	CacheControlFallback = "public, max-age=60, s-maxage=60"
	CacheControlShell    = "public, max-age=0, must-revalidate"
)

// RenderRequest is what a dispatcher knows about one inbound request.
// It is never persisted.
type RenderRequest struct {
	Path           string
	UserAgent      string
	Query          url.Values
	ClientIP       string
	Classification botdetect.Classification
}

func (a *App) newRenderRequest(c echo.Context) RenderRequest {
	r := c.Request()
	ua := r.UserAgent()
	return RenderRequest{
		Path:           r.URL.Path,
		UserAgent:      ua,
		Query:          r.URL.Query(),
		ClientIP:       c.RealIP(),
		Classification: a.classifier.Classify(ua),
	}
}

// variant picks the cache variant: AI crawlers get the full render,
// everyone else shares the lite one.
func (r RenderRequest) variant() string {
	return r.Classification.Variant(botdetect.VariantLite)
}
