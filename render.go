package seoedge

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/seoedge/views"
)

// Render writes a templ component as an uncached 200 HTML response. It is
// used outside the dispatch pipeline: admin pages and error documents.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus renders cmp into memory first so a failing component never
// leaves a half-written response behind.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	body, err := views.ToBytes(c.Request().Context(), cmp)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return c.Blob(code, echo.MIMETextHTMLCharsetUTF8, body)
}
