package views

import (
	"strconv"

	"github.com/a-h/templ"

	"github.com/eringen/seoedge/botdetect"
	"github.com/eringen/seoedge/content"
)

// HomeMeta builds the head metadata of the home page.
func HomeMeta(site SiteConfig) PageMeta {
	return PageMeta{
		Title:       site.Name,
		Description: site.Description,
		URL:         HomeURL(site),
		OGType:      "website",
		JSONLD:      []any{WebsiteJsonLD(site)},
	}
}

// HomePage renders the home body fragment: the category index followed
// by the most recent posts.
func HomePage(site SiteConfig, posts []content.Post, cats []content.Category, cls botdetect.Classification) templ.Component {
	return component(func(d *doc) {
		d.homeBody(site, posts, cats, cls)
	})
}

// HomeDocument wraps HomePage in a complete document.
func HomeDocument(site SiteConfig, posts []content.Post, cats []content.Category, cls botdetect.Classification) templ.Component {
	return component(func(d *doc) {
		d.open(site, HomeMeta(site))
		d.raw("<body>\n")
		d.siteHeader(site)
		d.homeBody(site, posts, cats, cls)
		d.siteFooter(site)
		d.jsonScript("application/json", "__SSR_DATA__", ssrState{
			Route:      "/",
			Posts:      stripContent(posts),
			Categories: cats,
		})
		d.raw("</body>\n")
		d.close()
	})
}

func (d *doc) homeBody(site SiteConfig, posts []content.Post, cats []content.Category, cls botdetect.Classification) {
	d.raw("<main>\n<h1>")
	d.text(site.Name)
	d.raw("</h1>\n")
	if site.Description != "" {
		d.raw(`<p class="description">`)
		d.text(site.Description)
		d.raw("</p>\n")
	}
	if len(cats) > 0 {
		d.raw(`<section class="categories">`, "\n<h2>Categories</h2>\n<ul>\n")
		for _, c := range cats {
			d.raw("<li>")
			d.anchor(CategoryPath(c.Slug), c.Name)
			if c.PostCount > 0 {
				d.raw(` <span class="count">(`, strconv.Itoa(c.PostCount), ")</span>")
			}
			d.raw("</li>\n")
		}
		d.raw("</ul>\n</section>\n")
	}
	budget := 0
	if cls.IsAICrawler {
		budget = HomeExcerptBudget
	}
	d.raw(`<section class="recent">`, "\n<h2>Latest articles</h2>\n")
	d.postList(posts, budget, "No articles found.")
	d.raw("</section>\n</main>\n")
}

func (d *doc) siteHeader(site SiteConfig) {
	d.raw("<header>")
	d.anchor("/", site.Name)
	d.raw("</header>\n")
}

func (d *doc) siteFooter(site SiteConfig) {
	d.raw("<footer>")
	d.anchor("/rss.xml", "RSS")
	d.raw(" ")
	d.anchor("/sitemap.xml", "Sitemap")
	d.raw("</footer>\n")
}
