package seoedge

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/eringen/seoedge/views"
)

const routeSPA = "spa"

var validSlug = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

func normalizeSlug(raw string) (string, bool) {
	slug := strings.ToLower(strings.TrimSpace(raw))
	return slug, validSlug.MatchString(slug)
}

func (a *App) handleEdgeHome(c echo.Context) error {
	req := a.newRenderRequest(c)
	if req.Classification.Human() {
		return a.serveShell(c, req, RouteHome)
	}
	return a.dispatch(c, req, a.homeRoute(req, a.shellFallback(RouteHome)))
}

func (a *App) handleEdgeCategory(c echo.Context) error {
	req := a.newRenderRequest(c)
	if req.Classification.Human() {
		return a.serveShell(c, req, RouteCategory)
	}
	slug, ok := normalizeSlug(c.Param("slug"))
	if !ok {
		return a.notFound(c, req, RouteCategory, http.StatusOK)
	}
	return a.dispatch(c, req, a.categoryRoute(req, slug, a.shellFallback(RouteCategory)))
}

func (a *App) handleEdgePost(c echo.Context) error {
	req := a.newRenderRequest(c)
	if req.Classification.Human() {
		return a.serveShell(c, req, RoutePost)
	}
	slug, ok := normalizeSlug(c.Param("slug"))
	if !ok {
		return a.notFound(c, req, RoutePost, http.StatusOK)
	}
	return a.dispatch(c, req, a.postRoute(req, slug, http.StatusOK, a.shellFallback(RoutePost)))
}

func (a *App) handleSSRHome(c echo.Context) error {
	req := a.newRenderRequest(c)
	if req.Classification.Human() {
		return a.redirectHuman(c, req, RouteHome, "/")
	}
	return a.dispatch(c, req, a.homeRoute(req, a.minimalFallback(RouteHome, "")))
}

func (a *App) handleSSRCategory(c echo.Context) error {
	req := a.newRenderRequest(c)
	slug, ok := normalizeSlug(c.Param("slug"))
	if req.Classification.Human() {
		return a.redirectHuman(c, req, RouteCategory, views.CategoryPath(slug))
	}
	if !ok {
		return a.notFound(c, req, RouteCategory, http.StatusOK)
	}
	return a.dispatch(c, req, a.categoryRoute(req, slug, a.minimalFallback(RouteCategory, slug)))
}

func (a *App) handleSSRPost(c echo.Context) error {
	req := a.newRenderRequest(c)
	slug, ok := normalizeSlug(c.Param("slug"))
	if req.Classification.Human() {
		return a.redirectHuman(c, req, RoutePost, views.PostPath(slug))
	}
	if !ok {
		return a.notFound(c, req, RoutePost, http.StatusNotFound)
	}
	return a.dispatch(c, req, a.postRoute(req, slug, http.StatusNotFound, a.minimalFallback(RoutePost, slug)))
}

// serveShell hands the request to the client application.
func (a *App) serveShell(c echo.Context, req RenderRequest, kind string) error {
	h := c.Response().Header()
	h.Set(echo.HeaderCacheControl, CacheControlShell)
	h.Set(echo.HeaderContentSecurityPolicy, a.csp)
	varyUserAgent(h)
	h.Set(HeaderRenderPath, PathShell)
	a.observe(req, kind, PathShell)
	return c.Blob(http.StatusOK, echo.MIMETextHTMLCharsetUTF8, a.shell)
}

func (a *App) redirectHuman(c echo.Context, req RenderRequest, kind, target string) error {
	h := c.Response().Header()
	varyUserAgent(h)
	h.Set(HeaderRenderPath, PathRedirect)
	a.observe(req, kind, PathRedirect)
	if !a.Config.ClientRedirect {
		return c.Redirect(http.StatusFound, target)
	}
	return RenderStatus(c, http.StatusOK, views.RedirectPage(target))
}

// notFound answers a crawler without touching the upstream.
func (a *App) notFound(c echo.Context, req RenderRequest, kind string, status int) error {
	body, err := views.ToBytes(c.Request().Context(), views.NotFoundPage(a.view, req.Path))
	if err != nil {
		return renderErr("not found", err)
	}
	h := a.pageHeader(page{cacheControl: CacheControlFallback, robots: robotsNoIndex})
	return a.respond(c, req, kind, status, body, h, PathNotFound)
}

// handleSPA serves a file from the built bundle, or the shell for client
// side routes. Paths that look like files but do not exist are 404s.
func (a *App) handleSPA(c echo.Context) error {
	p := path.Clean("/" + c.Param("*"))
	if p != "/" {
		file := filepath.Join(a.Config.StaticDir, filepath.FromSlash(p))
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			return c.File(file)
		}
		if path.Ext(p) != "" {
			return echo.ErrNotFound
		}
	}
	return a.serveShell(c, a.newRenderRequest(c), routeSPA)
}

// loadShell reads index.html from the built bundle, falling back to the
// embedded shell.
func loadShell(dir string, logger *zap.Logger) []byte {
	name := filepath.Join(dir, "index.html")
	b, err := os.ReadFile(name)
	if err == nil {
		return b
	}
	if !errors.Is(err, os.ErrNotExist) {
		logger.Warn("read app shell", zap.String("path", name), zap.Error(err))
	}
	b, err = EmbeddedAssets.ReadFile("embedded/index.html")
	if err != nil {
		logger.Error("read embedded app shell", zap.Error(err))
		return []byte("<!DOCTYPE html><html><head><meta charset=\"utf-8\"></head><body><div id=\"root\"></div></body></html>")
	}
	return b
}

func (a *App) handleRobots(c echo.Context) error {
	body := fmt.Sprintf("User-agent: *\nAllow: /\nDisallow: /admin/\nDisallow: /api/\n\nSitemap: %s\n",
		views.BuildURL(a.Config.URL, "sitemap.xml"))
	return c.String(http.StatusOK, body)
}

func (a *App) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) metricsHandler() echo.HandlerFunc {
	return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: prometheus.Gatherers{a.registry, prometheus.DefaultGatherer},
	})
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, views.NotFoundPage(a.view, c.Request().URL.Path))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.Logger.Error("server error",
			zap.String("uri", c.Request().RequestURI),
			zap.Error(err))
		_ = RenderStatus(c, code, views.ErrorPage(a.view))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
