package seoedge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eringen/seoedge/botdetect"
	"github.com/eringen/seoedge/content"
	"github.com/eringen/seoedge/upstream"
	"github.com/eringen/seoedge/views"
)

type degradeFunc func(c echo.Context, req RenderRequest) error

func (a *App) homeRoute(req RenderRequest, degrade degradeFunc) ssrRoute {
	return ssrRoute{
		kind:         RouteHome,
		id:           "index",
		variant:      req.variant(),
		cacheControl: CacheControlHome,
		ttl:          a.Config.HomeTTL,
		render:       a.renderHome,
		degrade:      degrade,
	}
}

func (a *App) categoryRoute(req RenderRequest, slug string, degrade degradeFunc) ssrRoute {
	return ssrRoute{
		kind:         RouteCategory,
		id:           slug,
		variant:      req.variant(),
		cacheControl: CacheControlCategory,
		ttl:          a.Config.CategoryTTL,
		render: func(ctx context.Context, req RenderRequest) (page, error) {
			return a.renderCategory(ctx, req, slug)
		},
		degrade: degrade,
	}
}

func (a *App) postRoute(req RenderRequest, slug string, notFoundStatus int, degrade degradeFunc) ssrRoute {
	return ssrRoute{
		kind:         RoutePost,
		id:           slug,
		variant:      req.Classification.Variant(botdetect.VariantMeta),
		cacheControl: CacheControlPost,
		ttl:          a.Config.PostTTL,
		render: func(ctx context.Context, req RenderRequest) (page, error) {
			return a.renderPost(ctx, req, slug, notFoundStatus)
		},
		degrade: degrade,
	}
}

// renderHome fetches posts and categories concurrently. Either fetch may
// fail independently; the page renders with whatever arrived and is then
// treated as a fallback.
func (a *App) renderHome(ctx context.Context, req RenderRequest) (page, error) {
	var (
		posts []content.Post
		cats  []content.Category
		g     errgroup.Group
	)
	timeout := a.Config.HomeTimeout
	g.Go(func() (err error) {
		posts, err = a.Upstream.Posts(ctx, a.Config.HomeLimit, timeout)
		return err
	})
	g.Go(func() (err error) {
		cats, err = a.Upstream.Categories(ctx, timeout)
		return err
	})

	pg := page{renderPath: PathRendered, csp: true, cacheable: true}
	if err := g.Wait(); err != nil {
		a.Logger.Warn("home fetch failed, rendering fallback",
			zap.String("kind", upstream.Kind(err)), zap.Error(err))
		pg = page{renderPath: PathFallback, cacheControl: CacheControlFallback, csp: true}
	}

	body, err := views.ToBytes(ctx, views.HomeDocument(a.view, posts, cats, req.Classification))
	if err != nil {
		return page{}, renderErr("home", err)
	}
	pg.body = body
	return pg, nil
}

func (a *App) renderCategory(ctx context.Context, req RenderRequest, slug string) (page, error) {
	data, err := a.Upstream.CategoryPosts(ctx, slug, a.Config.CategoryTimeout)
	pg := page{renderPath: PathRendered, csp: true, cacheable: true}
	switch {
	case err == nil:
	case errors.Is(err, upstream.ErrNotFound):
		data = content.CategoryPosts{Category: content.FallbackCategory(slug)}
		pg = page{renderPath: PathNotFound, robots: robotsNoIndex, cacheControl: CacheControlFallback, csp: true}
	default:
		a.Logger.Warn("category fetch failed, rendering fallback",
			zap.String("slug", slug), zap.String("kind", upstream.Kind(err)), zap.Error(err))
		data = categoryFallback(slug, err)
		pg = page{renderPath: PathFallback, cacheControl: CacheControlFallback, csp: true}
	}
	if data.Category.Slug == "" {
		data.Category.Slug = slug
	}
	if data.Category.Name == "" {
		fb := content.FallbackCategory(slug)
		data.Category.Name = fb.Name
		if data.Category.Description == "" {
			data.Category.Description = fb.Description
		}
	}

	body, err := views.ToBytes(ctx, views.CategoryPage(a.view, data.Category, data.Posts, req.Classification))
	if err != nil {
		return page{}, renderErr("category", err)
	}
	pg.body = body
	return pg, nil
}

// categoryFallback salvages the synthesized category the Content API puts
// in its 500 body, or builds one from the slug.
func categoryFallback(slug string, err error) content.CategoryPosts {
	var he *upstream.HTTPError
	if errors.As(err, &he) && len(he.Body) > 0 {
		var body content.CategoryPosts
		if json.Unmarshal(he.Body, &body) == nil && body.Category.Name != "" {
			return content.CategoryPosts{Category: body.Category}
		}
	}
	return content.CategoryPosts{Category: content.FallbackCategory(slug)}
}

// renderPost fetches metadata only, or the full post for AI crawlers.
func (a *App) renderPost(ctx context.Context, req RenderRequest, slug string, notFoundStatus int) (page, error) {
	fetch := a.Upstream.PostMeta
	if req.Classification.IsAICrawler {
		fetch = a.Upstream.Post
	}
	post, err := fetch(ctx, slug, a.Config.PostTimeout)

	pg := page{renderPath: PathRendered, cacheable: true}
	var cmp = views.BotPage(a.view, post, req.Classification)
	switch {
	case err == nil:
		if post.Slug == "" {
			post.Slug = slug
			cmp = views.BotPage(a.view, post, req.Classification)
		}
	case errors.Is(err, upstream.ErrNotFound):
		pg = page{status: notFoundStatus, renderPath: PathNotFound, robots: robotsNoIndex, cacheControl: CacheControlFallback}
		cmp = views.NotFoundPage(a.view, req.Path)
	default:
		a.Logger.Warn("post fetch failed, rendering fallback",
			zap.String("slug", slug), zap.String("kind", upstream.Kind(err)), zap.Error(err))
		pg = page{renderPath: PathFallback, cacheControl: CacheControlFallback}
		cmp = views.BotPage(a.view, views.FallbackPost(a.view, slug), req.Classification)
	}

	body, err := views.ToBytes(ctx, cmp)
	if err != nil {
		return page{}, renderErr("post", err)
	}
	pg.body = body
	return pg, nil
}

// shellFallback serves the application shell; used by the edge routes.
func (a *App) shellFallback(kind string) degradeFunc {
	return func(c echo.Context, req RenderRequest) error {
		return a.serveShell(c, req, kind)
	}
}

// minimalFallback renders the route's document without upstream data;
// used by the SSR endpoints.
func (a *App) minimalFallback(kind, slug string) degradeFunc {
	return func(c echo.Context, req RenderRequest) error {
		ctx := c.Request().Context()
		var cmp = views.HomeDocument(a.view, nil, nil, req.Classification)
		switch kind {
		case RouteCategory:
			cmp = views.CategoryPage(a.view, content.FallbackCategory(slug), nil, req.Classification)
		case RoutePost:
			cmp = views.BotPage(a.view, views.FallbackPost(a.view, slug), req.Classification)
		}
		body, err := views.ToBytes(ctx, cmp)
		if err != nil {
			a.Logger.Error("fallback render failed", zap.String("route", kind), zap.Error(err))
			return a.serveShell(c, req, kind)
		}
		return a.fallback(c, req, kind, page{status: http.StatusOK, body: body})
	}
}
