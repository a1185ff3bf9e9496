package seoedge

import (
	"bytes"
	"encoding/xml"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/seoedge/content"
	"github.com/eringen/seoedge/upstream"
	"github.com/eringen/seoedge/views"
)

const feedTimeout = 5 * time.Second

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language,omitempty"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string  `xml:"title"`
	Link        string  `xml:"link"`
	Description string  `xml:"description"`
	PubDate     string  `xml:"pubDate,omitempty"`
	GUID        rssGUID `xml:"guid"`
	Category    string  `xml:"category,omitempty"`
}

type rssGUID struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

// handleFeed serves the most recent posts as RSS 2.0. An upstream failure
// yields a valid empty channel.
func (a *App) handleFeed(c echo.Context) error {
	cacheControl := "public, max-age=3600"
	posts, err := a.Upstream.Posts(c.Request().Context(), a.Config.RSSLimit, feedTimeout)
	if err != nil {
		a.Logger.Warn("feed fetch failed", zap.String("kind", upstream.Kind(err)), zap.Error(err))
		posts = nil
		cacheControl = CacheControlFallback
	}
	body, err := a.buildFeed(posts)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderCacheControl, cacheControl)
	return c.Blob(http.StatusOK, "application/rss+xml; charset=utf-8", body)
}

func (a *App) buildFeed(posts []content.Post) ([]byte, error) {
	items := make([]rssItem, 0, len(posts))
	var newest time.Time
	for _, p := range posts {
		link := views.PostURL(a.view, p.Slug)
		item := rssItem{
			Title:       p.Title,
			Link:        link,
			Description: p.Excerpt,
			GUID:        rssGUID{IsPermaLink: true, Value: link},
			Category:    p.CategoryName,
		}
		if t, ok := p.PublishedTime(); ok {
			item.PubDate = t.UTC().Format(http.TimeFormat)
			if t.After(newest) {
				newest = t
			}
		}
		items = append(items, item)
	}
	if newest.IsZero() {
		newest = time.Now()
	}
	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:         a.Config.Name,
			Link:          views.HomeURL(a.view),
			Description:   a.Config.Description,
			Language:      a.Config.Language,
			LastBuildDate: newest.UTC().Format(http.TimeFormat),
			Items:         items,
		},
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	if err := xml.NewEncoder(&buf).Encode(feed); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
