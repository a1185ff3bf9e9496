package views

import (
	"github.com/a-h/templ"

	"github.com/eringen/seoedge/botdetect"
	"github.com/eringen/seoedge/content"
)

// FallbackPost stands in for a post whose metadata could not be loaded.
// Only the slug is trusted; the title is the site's generic fallback.
func FallbackPost(site SiteConfig, slug string) content.Post {
	return content.Post{
		Slug:    slug,
		Title:   site.FallbackTitle,
		Excerpt: site.Description,
	}
}

// PostMeta builds the head metadata of a post page.
func PostMeta(site SiteConfig, post content.Post) PageMeta {
	title := post.OpenGraphTitle()
	if title == "" {
		title = site.FallbackTitle
	}
	return PageMeta{
		Title:              title,
		Description:        post.OpenGraphDescription(),
		TwitterTitle:       post.TwitterCardTitle(),
		TwitterDescription: post.TwitterCardDescription(),
		URL:                PostURL(site, post.Slug),
		OGType:             "article",
		Image:              AbsURL(site, post.FeaturedImage),
		ImageAlt:           post.Title,
		PublishedTime:      ISODate(post),
		Author:             post.AuthorName,
		Section:            post.CategoryName,
		JSONLD:             []any{BlogPostingJsonLD(site, post)},
	}
}

// BotPage renders the crawler view of a post. Link unfurlers and search
// engines get head metadata with an empty body. AI crawlers additionally
// get the article text, stripped of scripts and truncated.
func BotPage(site SiteConfig, post content.Post, cls botdetect.Classification) templ.Component {
	return component(func(d *doc) {
		d.open(site, PostMeta(site, post))
		d.raw("<body>")
		if cls.IsAICrawler {
			d.raw("\n")
			d.article(post)
		}
		d.raw("</body>\n")
		d.close()
	})
}

func (d *doc) article(post content.Post) {
	d.raw("<article>\n<h1>")
	d.text(or(post.Title, post.SEOTitle()))
	d.raw("</h1>\n")
	if iso := ISODate(post); iso != "" {
		d.raw("<time")
		d.attr("datetime", iso)
		d.raw(">")
		d.text(FormatDate(post))
		d.raw("</time>\n")
	}
	if post.AuthorName != "" {
		d.raw(`<p class="author">`)
		d.text(post.AuthorName)
		d.raw("</p>\n")
	}
	if post.CategorySlug != "" {
		d.raw(`<p class="category">`)
		d.anchor(CategoryPath(post.CategorySlug), or(post.CategoryName, HumanizeSlug(post.CategorySlug)))
		d.raw("</p>\n")
	}
	body := ContentExcerpt(post.Content, PostContentBudget)
	if body == "" {
		body = post.Excerpt
	}
	if body != "" {
		d.raw("<p>")
		d.text(body)
		d.raw("</p>\n")
	}
	d.raw("</article>\n")
}

// HumanizeSlug is content.HumanizeSlug, re-exported for templates.
func HumanizeSlug(slug string) string {
	return content.HumanizeSlug(slug)
}
