package seoedge

import (
	"encoding/xml"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/seoedge/content"
)

func TestFeedEscapesTitles(t *testing.T) {
	_, srv := newFakeAPI(t, map[string]http.HandlerFunc{
		"/api/posts": jsonBody([]content.Post{
			{Title: "C++ & Rust", Slug: "cpp-rust", Excerpt: "<b>fast</b>", PublishedAt: "2024-02-01T10:00:00Z", CategoryName: "Systems"},
			{Title: "Offsets", Slug: "offsets", PublishedAt: "2024-01-15T12:00:00+02:00"},
		}),
	})
	app := newTestApp(t, srv.URL, SiteConfig{})

	rec := get(app, "/rss.xml", googleUA)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/rss+xml; charset=utf-8", rec.Header().Get(echo.HeaderContentType))
	body := rec.Body.String()
	assert.Contains(t, body, "<title>C++ &amp; Rust</title>")
	assert.Contains(t, body, "&lt;b&gt;fast&lt;/b&gt;")
	assert.Contains(t, body, "<pubDate>Thu, 01 Feb 2024 10:00:00 GMT</pubDate>")
	assert.Contains(t, body, "<pubDate>Mon, 15 Jan 2024 10:00:00 GMT</pubDate>")
	assert.Contains(t, body, "<lastBuildDate>Thu, 01 Feb 2024 10:00:00 GMT</lastBuildDate>")
	assert.Contains(t, body, `<guid isPermaLink="true">`+siteURL+`/post/cpp-rust</guid>`)
	assert.Contains(t, body, "<category>Systems</category>")

	var feed rssXML
	require.NoError(t, xml.Unmarshal(rec.Body.Bytes(), &feed))
	require.Len(t, feed.Channel.Items, 2)
	assert.Equal(t, "C++ & Rust", feed.Channel.Items[0].Title)
}

func TestFeedAliasAndFailure(t *testing.T) {
	_, srv := newFakeAPI(t, map[string]http.HandlerFunc{
		"/api/posts": status(http.StatusInternalServerError, `{"error":"down"}`),
	})
	app := newTestApp(t, srv.URL, SiteConfig{})

	rec := get(app, "/feed.xml", googleUA)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, CacheControlFallback, rec.Header().Get(echo.HeaderCacheControl))

	var feed rssXML
	require.NoError(t, xml.Unmarshal(rec.Body.Bytes(), &feed))
	assert.Empty(t, feed.Channel.Items)
	assert.Equal(t, siteURL+"/", feed.Channel.Link)
}

func TestSitemapListsRoutes(t *testing.T) {
	_, srv := newFakeAPI(t, map[string]http.HandlerFunc{
		"/api/posts": jsonBody([]content.Post{
			{Title: "A", Slug: "a", CategorySlug: "ai", PublishedAt: "2024-05-02T08:00:00Z"},
		}),
		"/api/categories": jsonBody([]content.Category{{Name: "AI", Slug: "ai"}, {Name: "Go", Slug: "go"}}),
	})
	app := newTestApp(t, srv.URL, SiteConfig{})

	rec := get(app, "/sitemap.xml", googleUA)
	require.Equal(t, http.StatusOK, rec.Code)

	var set sitemapURLSet
	require.NoError(t, xml.Unmarshal(rec.Body.Bytes(), &set))
	locs := map[string]string{}
	for _, u := range set.URLs {
		locs[u.Loc] = u.LastMod
	}
	assert.Contains(t, locs, siteURL+"/")
	assert.Equal(t, "2024-05-02", locs[siteURL+"/post/a"])
	assert.Equal(t, "2024-05-02", locs[siteURL+"/category/ai"])
	assert.Contains(t, locs, siteURL+"/category/go")
}
