package seoedge

import (
	"bytes"
	"encoding/xml"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eringen/seoedge/content"
	"github.com/eringen/seoedge/views"
)

// sitemapLimit is the most posts the Content API returns in one list.
const sitemapLimit = 100

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

func (a *App) handleSitemap(c echo.Context) error {
	var (
		posts []content.Post
		cats  []content.Category
		g     errgroup.Group
	)
	ctx := c.Request().Context()
	g.Go(func() (err error) {
		posts, err = a.Upstream.Posts(ctx, sitemapLimit, feedTimeout)
		return err
	})
	g.Go(func() (err error) {
		cats, err = a.Upstream.Categories(ctx, feedTimeout)
		return err
	})
	if err := g.Wait(); err != nil {
		a.Logger.Warn("sitemap fetch incomplete", zap.Error(err))
		c.Response().Header().Set(echo.HeaderCacheControl, CacheControlFallback)
	}
	body, err := a.buildSitemap(posts, cats)
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "application/xml; charset=utf-8", body)
}

func (a *App) buildSitemap(posts []content.Post, cats []content.Category) ([]byte, error) {
	urls := []sitemapURL{{Loc: views.HomeURL(a.view)}}
	latest := map[string]time.Time{}
	for _, p := range posts {
		u := sitemapURL{Loc: views.PostURL(a.view, p.Slug)}
		if t, ok := p.PublishedTime(); ok {
			u.LastMod = t.UTC().Format("2006-01-02")
			if t.After(latest[p.CategorySlug]) {
				latest[p.CategorySlug] = t
			}
		}
		urls = append(urls, u)
	}
	for _, cat := range cats {
		u := sitemapURL{Loc: views.CategoryURL(a.view, cat.Slug)}
		if t, ok := latest[cat.Slug]; ok {
			u.LastMod = t.UTC().Format("2006-01-02")
		}
		urls = append(urls, u)
	}
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	if err := xml.NewEncoder(&buf).Encode(sitemap); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
