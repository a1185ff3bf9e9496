package views

// SiteConfig holds the site-wide values every page is rendered with.
// All absolute URLs are built from URL so canonical and og:url always
// point at the public origin.
type SiteConfig struct {
	Name          string // site name, og:site_name
	URL           string // public origin, e.g. https://blog.example.com
	Description   string // default meta description
	Author        string // JSON-LD author
	Locale        string // og:locale, e.g. en_US
	Language      string // <html lang>
	DefaultImage  string // og:image when a page has none
	TwitterHandle string // twitter:site, e.g. @example
	FallbackTitle string // og:title used when a post cannot be loaded
}

// PageMeta carries per-page Open Graph and SEO metadata into <head>.
type PageMeta struct {
	Title              string
	Description        string
	TwitterTitle       string // defaults to Title
	TwitterDescription string // defaults to Description
	URL                string // canonical + og:url
	OGType             string // "website" or "article"
	Image              string
	ImageAlt           string
	PublishedTime      string
	Author             string
	Section            string
	Robots             string
	JSONLD             []any
}

// Excerpt budgets, in characters, for AI crawler renders.
const (
	HomeExcerptBudget     = 2000
	CategoryExcerptBudget = 3000
	PostContentBudget     = 3000
)
