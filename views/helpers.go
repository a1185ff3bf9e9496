package views

import (
	"net/url"
	"path"
	"strings"

	"github.com/eringen/seoedge/content"
)

// BuildURL joins a base URL with path segments. Segments are path-escaped.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return base
	}
	escaped := make([]string, len(pathSegments))
	for i, s := range pathSegments {
		escaped[i] = url.PathEscape(s)
	}
	u.RawPath = ""
	u.Path = path.Join("/", u.Path, path.Join(escaped...))
	if len(pathSegments) == 0 {
		u.Path = strings.TrimRight(u.Path, "/") + "/"
	}
	// Path now holds escaped text; keep it verbatim in String().
	return u.Scheme + "://" + u.Host + u.Path
}

// PostPath is the SPA route of a post.
func PostPath(slug string) string {
	return "/post/" + url.PathEscape(slug)
}

// CategoryPath is the SPA route of a category.
func CategoryPath(slug string) string {
	return "/category/" + url.PathEscape(slug)
}

// PostURL is the canonical absolute URL of a post.
func PostURL(cfg SiteConfig, slug string) string {
	return BuildURL(cfg.URL, "post", slug)
}

// CategoryURL is the canonical absolute URL of a category.
func CategoryURL(cfg SiteConfig, slug string) string {
	return BuildURL(cfg.URL, "category", slug)
}

// HomeURL is the canonical absolute URL of the home page.
func HomeURL(cfg SiteConfig) string {
	return BuildURL(cfg.URL)
}

// AbsURL resolves ref against the site origin. Empty stays empty.
func AbsURL(cfg SiteConfig, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if r.IsAbs() {
		return r.String()
	}
	base, err := url.Parse(strings.TrimRight(cfg.URL, "/") + "/")
	if err != nil {
		return ref
	}
	return base.ResolveReference(r).String()
}

// FormatDate renders a post date for humans, e.g. "January 2, 2006".
func FormatDate(p content.Post) string {
	t, ok := p.PublishedTime()
	if !ok {
		return p.PublishedAt
	}
	return t.Format("January 2, 2006")
}

// ISODate renders a post date for datetime attributes and JSON-LD.
func ISODate(p content.Post) string {
	t, ok := p.PublishedTime()
	if !ok {
		return ""
	}
	return t.Format("2006-01-02T15:04:05Z07:00")
}

func person(name string) map[string]string {
	return map[string]string{"@type": "Person", "name": name}
}

// WebsiteJsonLD returns a Schema.org WebSite object.
func WebsiteJsonLD(cfg SiteConfig) map[string]any {
	data := map[string]any{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     cfg.Name,
		"url":      HomeURL(cfg),
	}
	if cfg.Description != "" {
		data["description"] = cfg.Description
	}
	if cfg.Author != "" {
		data["author"] = person(cfg.Author)
	}
	return data
}

// BlogPostingJsonLD returns a Schema.org BlogPosting object for a post.
func BlogPostingJsonLD(cfg SiteConfig, post content.Post) map[string]any {
	postURL := PostURL(cfg, post.Slug)
	data := map[string]any{
		"@context":    "https://schema.org",
		"@type":       "BlogPosting",
		"headline":    post.SEOTitle(),
		"description": post.SEODescription(),
		"url":         postURL,
		"publisher": map[string]string{
			"@type": "Organization",
			"name":  cfg.Name,
		},
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	if d := ISODate(post); d != "" {
		data["datePublished"] = d
	}
	switch {
	case post.AuthorName != "":
		data["author"] = person(post.AuthorName)
	case cfg.Author != "":
		data["author"] = person(cfg.Author)
	}
	if img := AbsURL(cfg, post.FeaturedImage); img != "" {
		data["image"] = img
	}
	if post.CategoryName != "" {
		data["articleSection"] = post.CategoryName
	}
	return data
}

// CollectionPageJsonLD returns a Schema.org CollectionPage listing posts.
func CollectionPageJsonLD(cfg SiteConfig, cat content.Category, posts []content.Post) map[string]any {
	items := make([]map[string]any, 0, len(posts))
	for i, p := range posts {
		items = append(items, map[string]any{
			"@type":    "ListItem",
			"position": i + 1,
			"url":      PostURL(cfg, p.Slug),
			"name":     p.Title,
		})
	}
	return map[string]any{
		"@context":    "https://schema.org",
		"@type":       "CollectionPage",
		"name":        cat.Name,
		"description": cat.Description,
		"url":         CategoryURL(cfg, cat.Slug),
		"mainEntity": map[string]any{
			"@type":           "ItemList",
			"numberOfItems":   len(posts),
			"itemListElement": items,
		},
	}
}
