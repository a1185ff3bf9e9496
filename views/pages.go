package views

import (
	"github.com/a-h/templ"
)

// NotFoundPage is the deterministic document served for unknown
// resources. It is never indexed.
func NotFoundPage(site SiteConfig, path string) templ.Component {
	return component(func(d *doc) {
		title := "Page not found"
		if site.Name != "" {
			title += " | " + site.Name
		}
		d.open(site, PageMeta{
			Title:       title,
			Description: "The requested page does not exist.",
			URL:         AbsURL(site, path),
			Robots:      "noindex, follow",
		})
		d.raw("<body>\n")
		d.siteHeader(site)
		d.raw("<main>\n<h1>Page not found</h1>\n<p>Nothing lives at <code>")
		d.text(path)
		d.raw("</code>.</p>\n<p>")
		d.anchor("/", "Back to the home page")
		d.raw("</p>\n</main>\n</body>\n")
		d.close()
	})
}

// ErrorPage is the minimal document served to browsers on a 5xx.
func ErrorPage(site SiteConfig) templ.Component {
	return component(func(d *doc) {
		d.open(site, PageMeta{
			Title:  "Something went wrong",
			Robots: "noindex, nofollow",
		})
		d.raw("<body>\n<main>\n<h1>Something went wrong</h1>\n<p>")
		d.anchor("/", "Back to the home page")
		d.raw("</p>\n</main>\n</body>\n")
		d.close()
	})
}

// RedirectPage sends a client to target without an HTTP redirect.
func RedirectPage(target string) templ.Component {
	return component(func(d *doc) {
		d.raw("<!DOCTYPE html>\n<html>\n<head>\n", `<meta charset="utf-8">`, "\n")
		d.raw("<title>Redirecting</title>\n")
		d.raw(`<meta name="robots" content="noindex">`, "\n")
		d.raw(`<meta http-equiv="refresh" content="0; url=`, Escape(target), `">`, "\n")
		d.link("canonical", target)
		d.raw("</head>\n<body>\n<p>")
		d.anchor(target, "Continue")
		d.raw("</p>\n</body>\n")
		d.close()
	})
}
