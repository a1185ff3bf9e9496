package views

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

const defaultRobots = "index, follow"

// doc accumulates markup. Every value passed to text or an attribute
// helper is escaped; raw is only for literal markup.
type doc struct {
	buf bytes.Buffer
}

func (d *doc) raw(parts ...string) {
	for _, p := range parts {
		d.buf.WriteString(p)
	}
}

func (d *doc) text(s string) {
	d.buf.WriteString(Escape(s))
}

// attr writes ` name="value"`.
func (d *doc) attr(name, value string) {
	d.raw(" ", name, `="`, Escape(value), `"`)
}

func (d *doc) metaName(name, value string) {
	if value == "" {
		return
	}
	d.raw("<meta")
	d.attr("name", name)
	d.attr("content", value)
	d.raw(">\n")
}

func (d *doc) metaProperty(property, value string) {
	if value == "" {
		return
	}
	d.raw("<meta")
	d.attr("property", property)
	d.attr("content", value)
	d.raw(">\n")
}

func (d *doc) link(rel, href string, extra ...string) {
	if href == "" {
		return
	}
	d.raw("<link")
	d.attr("rel", rel)
	for i := 0; i+1 < len(extra); i += 2 {
		d.attr(extra[i], extra[i+1])
	}
	d.attr("href", href)
	d.raw(">\n")
}

// anchor writes <a href="href">label</a>.
func (d *doc) anchor(href, label string) {
	d.raw("<a")
	d.attr("href", href)
	d.raw(">")
	d.text(label)
	d.raw("</a>")
}

func (d *doc) jsonScript(typ, id string, v any) {
	d.raw("<script")
	d.attr("type", typ)
	if id != "" {
		d.attr("id", id)
	}
	d.raw(">", ScriptJSON(v), "</script>\n")
}

// component turns a doc-writing function into a templ.Component.
func component(fn func(d *doc)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var d doc
		fn(&d)
		_, err := io.Copy(w, &d.buf)
		return err
	})
}

func (d *doc) open(site SiteConfig, meta PageMeta) {
	lang := site.Language
	if lang == "" {
		lang = "en"
	}
	d.raw("<!DOCTYPE html>\n<html")
	d.attr("lang", lang)
	d.raw(">\n<head>\n")
	d.head(site, meta)
	d.raw("</head>\n")
}

func (d *doc) close() {
	d.raw("</html>\n")
}

func (d *doc) head(site SiteConfig, meta PageMeta) {
	d.raw(`<meta charset="utf-8">`, "\n")
	d.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`, "\n")
	d.raw("<title>")
	d.text(meta.Title)
	d.raw("</title>\n")

	robots := meta.Robots
	if robots == "" {
		robots = defaultRobots
	}
	d.metaName("description", meta.Description)
	d.metaName("robots", robots)
	d.link("canonical", meta.URL)

	ogType := meta.OGType
	if ogType == "" {
		ogType = "website"
	}
	image := meta.Image
	if image == "" {
		image = AbsURL(site, site.DefaultImage)
	}
	d.metaProperty("og:type", ogType)
	d.metaProperty("og:title", meta.Title)
	d.metaProperty("og:description", meta.Description)
	d.metaProperty("og:url", meta.URL)
	d.metaProperty("og:site_name", site.Name)
	d.metaProperty("og:locale", site.Locale)
	d.metaProperty("og:image", image)
	d.metaProperty("og:image:alt", meta.ImageAlt)
	if ogType == "article" {
		d.metaProperty("article:published_time", meta.PublishedTime)
		d.metaProperty("article:author", meta.Author)
		d.metaProperty("article:section", meta.Section)
	}

	card := "summary"
	if image != "" {
		card = "summary_large_image"
	}
	d.metaName("twitter:card", card)
	d.metaName("twitter:site", site.TwitterHandle)
	d.metaName("twitter:title", or(meta.TwitterTitle, meta.Title))
	d.metaName("twitter:description", or(meta.TwitterDescription, meta.Description))
	d.metaName("twitter:image", image)

	if site.URL != "" {
		d.link("alternate", BuildURL(site.URL, "rss.xml"),
			"type", "application/rss+xml", "title", site.Name)
	}
	for _, ld := range meta.JSONLD {
		d.jsonScript("application/ld+json", "", ld)
	}
}

func or(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// ToBytes renders cmp into a byte slice.
func ToBytes(ctx context.Context, cmp templ.Component) ([]byte, error) {
	var buf bytes.Buffer
	if err := cmp.Render(ctx, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ToString renders cmp into a string.
func ToString(ctx context.Context, cmp templ.Component) (string, error) {
	var sb strings.Builder
	if err := cmp.Render(ctx, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}
