package views

import (
	"github.com/a-h/templ"

	"github.com/eringen/seoedge/botdetect"
	"github.com/eringen/seoedge/content"
)

// NoArticlesText is shown in place of an empty post list.
const NoArticlesText = "No articles found in this category yet."

// ssrState is the hydration payload embedded in full documents so the
// SPA can boot without refetching.
type ssrState struct {
	Route      string             `json:"route"`
	Category   *content.Category  `json:"category,omitempty"`
	Posts      []content.Post     `json:"posts"`
	Categories []content.Category `json:"categories,omitempty"`
}

// CategoryMeta builds the head metadata of a category page.
func CategoryMeta(site SiteConfig, cat content.Category, posts []content.Post) PageMeta {
	title := cat.Name
	if site.Name != "" {
		title += " | " + site.Name
	}
	desc := cat.Description
	if desc == "" {
		desc = "Latest articles about " + cat.Name
	}
	return PageMeta{
		Title:       title,
		Description: desc,
		URL:         CategoryURL(site, cat.Slug),
		OGType:      "website",
		JSONLD:      []any{CollectionPageJsonLD(site, cat, posts)},
	}
}

// CategoryPage renders a full document listing the posts of a category.
// AI crawlers get a content excerpt per post.
func CategoryPage(site SiteConfig, cat content.Category, posts []content.Post, cls botdetect.Classification) templ.Component {
	return component(func(d *doc) {
		d.open(site, CategoryMeta(site, cat, posts))
		d.raw("<body>\n")
		d.siteHeader(site)
		d.raw("<main>\n<h1>")
		d.text(cat.Name)
		d.raw("</h1>\n")
		if cat.Description != "" {
			d.raw(`<p class="description">`)
			d.text(cat.Description)
			d.raw("</p>\n")
		}
		budget := 0
		if cls.IsAICrawler {
			budget = CategoryExcerptBudget
		}
		d.postList(posts, budget, NoArticlesText)
		d.raw("</main>\n")
		d.siteFooter(site)
		d.jsonScript("application/json", "__SSR_DATA__", ssrState{
			Route:    CategoryPath(cat.Slug),
			Category: &cat,
			Posts:    stripContent(posts),
		})
		d.raw("</body>\n")
		d.close()
	})
}

// postList renders posts as articles. A positive budget adds a plain-text
// content excerpt of that many characters to each entry.
func (d *doc) postList(posts []content.Post, budget int, empty string) {
	if len(posts) == 0 {
		d.raw(`<p class="empty">`)
		d.text(empty)
		d.raw("</p>\n")
		return
	}
	d.raw(`<ul class="posts">`, "\n")
	for _, p := range posts {
		d.raw("<li><article>\n<h2>")
		d.anchor(PostPath(p.Slug), p.Title)
		d.raw("</h2>\n")
		if iso := ISODate(p); iso != "" {
			d.raw("<time")
			d.attr("datetime", iso)
			d.raw(">")
			d.text(FormatDate(p))
			d.raw("</time>\n")
		}
		if p.Excerpt != "" {
			d.raw(`<p class="excerpt">`)
			d.text(p.Excerpt)
			d.raw("</p>\n")
		}
		if budget > 0 {
			if ex := ContentExcerpt(p.Content, budget); ex != "" {
				d.raw(`<div class="content">`)
				d.text(ex)
				d.raw("</div>\n")
			}
		}
		d.raw("</article></li>\n")
	}
	d.raw("</ul>\n")
}

// stripContent drops bodies from the hydration payload.
func stripContent(posts []content.Post) []content.Post {
	out := make([]content.Post, len(posts))
	for i, p := range posts {
		p.Content = ""
		out[i] = p
	}
	return out
}
