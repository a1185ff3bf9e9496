package seoedge

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// String renders the policy: each directive's base sources followed by
// the configured origins.
func (p CSPConfig) String() string {
	directives := []struct {
		name  string
		base  []string
		extra []string
	}{
		{"default-src", []string{"'self'"}, nil},
		{"script-src", []string{"'self'"}, p.ScriptSrc},
		{"style-src", []string{"'self'", "'unsafe-inline'"}, p.StyleSrc},
		{"img-src", []string{"'self'", "https:", "data:"}, p.ImgSrc},
		{"font-src", []string{"'self'"}, p.FontSrc},
		{"connect-src", []string{"'self'"}, p.ConnectSrc},
		{"frame-src", []string{"'self'"}, p.FrameSrc},
		{"object-src", []string{"'none'"}, nil},
		{"base-uri", []string{"'self'"}, nil},
	}
	parts := make([]string, 0, len(directives))
	for _, d := range directives {
		sources := append(append([]string{}, d.base...), d.extra...)
		parts = append(parts, d.name+" "+strings.Join(sources, " "))
	}
	return strings.Join(parts, "; ")
}

// pageHeaders are replayed verbatim from a cached page.
var pageHeaders = []string{
	echo.HeaderCacheControl,
	HeaderRobotsTag,
	echo.HeaderContentSecurityPolicy,
}

func setDispatchHeaders(h http.Header, cacheControl, robots, renderPath string) {
	h.Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	h.Set(echo.HeaderCacheControl, cacheControl)
	h.Set(HeaderRobotsTag, robots)
	varyUserAgent(h)
	h.Set(HeaderRenderPath, renderPath)
}

// varyUserAgent appends User-Agent to Vary, keeping what gzip already added.
func varyUserAgent(h http.Header) {
	for _, v := range h.Values(echo.HeaderVary) {
		for _, part := range strings.Split(v, ",") {
			if strings.EqualFold(strings.TrimSpace(part), "User-Agent") {
				return
			}
		}
	}
	h.Add(echo.HeaderVary, "User-Agent")
}
