// Package content holds the blog's post and category model, the sqlite
// store behind the Content API, and the API's echo handlers.
package content

import (
	"errors"
	"strings"
	"time"
	"unicode"
)

// ErrNotFound is returned when a post or category does not exist.
var ErrNotFound = errors.New("content: not found")

// Post is the read-only projection of an article served by the Content API.
type Post struct {
	ID                 int64  `json:"id" yaml:"id"`
	Title              string `json:"title" yaml:"title"`
	Slug               string `json:"slug" yaml:"slug"`
	Excerpt            string `json:"excerpt" yaml:"excerpt"`
	Content            string `json:"content,omitempty" yaml:"content"`
	FeaturedImage      string `json:"featured_image,omitempty" yaml:"featured_image"`
	PublishedAt        string `json:"published_at" yaml:"published_at"`
	AuthorName         string `json:"author_name,omitempty" yaml:"author_name"`
	CategoryName       string `json:"category_name,omitempty" yaml:"category_name"`
	CategorySlug       string `json:"category_slug,omitempty" yaml:"category_slug"`
	MetaTitle          string `json:"meta_title,omitempty" yaml:"meta_title"`
	MetaDescription    string `json:"meta_description,omitempty" yaml:"meta_description"`
	OGTitle            string `json:"og_title,omitempty" yaml:"og_title"`
	OGDescription      string `json:"og_description,omitempty" yaml:"og_description"`
	TwitterTitle       string `json:"twitter_title,omitempty" yaml:"twitter_title"`
	TwitterDescription string `json:"twitter_description,omitempty" yaml:"twitter_description"`
}

// Category groups posts under a URL-safe slug.
type Category struct {
	ID          int64  `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Slug        string `json:"slug" yaml:"slug"`
	Description string `json:"description" yaml:"description"`
	PostCount   int    `json:"post_count" yaml:"-"`
}

// CategoryPosts is the payload of GET /api/posts/category/:slug.
type CategoryPosts struct {
	Category Category `json:"category"`
	Posts    []Post   `json:"posts"`
	Error    string   `json:"error,omitempty"`
}

// SEOTitle returns the most specific title available for the <title> tag.
func (p Post) SEOTitle() string {
	return firstNonEmpty(p.MetaTitle, p.Title)
}

// SEODescription returns the description used for the meta description tag.
func (p Post) SEODescription() string {
	return firstNonEmpty(p.MetaDescription, p.Excerpt)
}

// OpenGraphTitle returns og:title, falling back to the SEO title.
func (p Post) OpenGraphTitle() string {
	return firstNonEmpty(p.OGTitle, p.SEOTitle())
}

// OpenGraphDescription returns og:description.
func (p Post) OpenGraphDescription() string {
	return firstNonEmpty(p.OGDescription, p.SEODescription())
}

// TwitterCardTitle returns twitter:title.
func (p Post) TwitterCardTitle() string {
	return firstNonEmpty(p.TwitterTitle, p.OpenGraphTitle())
}

// TwitterCardDescription returns twitter:description.
func (p Post) TwitterCardDescription() string {
	return firstNonEmpty(p.TwitterDescription, p.OpenGraphDescription())
}

// PublishedTime parses PublishedAt. Both RFC 3339 timestamps and plain
// dates are accepted; ok is false for anything else.
func (p Post) PublishedTime() (time.Time, bool) {
	s := strings.TrimSpace(p.PublishedAt)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// FallbackCategory synthesizes a category from its slug when the real one
// cannot be loaded: "machine-learning" becomes "Machine Learning".
func FallbackCategory(slug string) Category {
	name := HumanizeSlug(slug)
	return Category{
		Name:        name,
		Slug:        slug,
		Description: "Latest articles about " + name,
	}
}

// HumanizeSlug title-cases the dash or underscore separated words of slug.
func HumanizeSlug(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
