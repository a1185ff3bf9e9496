package seoedge

import (
	"crypto/subtle"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/seoedge/cache"
	"github.com/eringen/seoedge/views"
)

const maxStatsDays = 365

func (a *App) handleAdmin(c echo.Context) error {
	if !IsAdmin(c) {
		return Render(c, views.AdminLogin(a.view, false, CsrfToken(c)))
	}
	return Render(c, views.AdminDashboard(a.view, c.QueryParam("msg"), CsrfToken(c), a.crawlers != nil))
}

func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	pass := c.FormValue("password")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.AdminPassword)) == 1 {
		a.loginLimiter.Reset(ip)
		if err := setAdminSession(c); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	a.loginLimiter.Record(ip)
	a.Logger.Warn("admin login failed", zap.String("ip", ip))
	return RenderStatus(c, http.StatusUnauthorized, views.AdminLogin(a.view, true, CsrfToken(c)))
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

// handleCachePurge drops cached pages and API data. Without a prefix
// everything goes.
func (a *App) handleCachePurge(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	prefix := strings.TrimSpace(c.FormValue("prefix"))
	if prefix != "" && !strings.HasPrefix(prefix, cache.NamespacePage) && !strings.HasPrefix(prefix, cache.NamespaceData) {
		return adminRedirect(c, "Prefix must start with page or data.")
	}
	n, err := a.Cache.Purge(c.Request().Context(), prefix)
	if err != nil {
		a.Logger.Error("cache purge failed", zap.String("prefix", prefix), zap.Error(err))
		return adminRedirect(c, "Purge failed.")
	}
	a.Logger.Info("cache purged", zap.String("prefix", prefix), zap.Int("entries", n))
	return adminRedirect(c, "Purged "+strconv.Itoa(n)+" entries.")
}

func adminRedirect(c echo.Context, msg string) error {
	return c.Redirect(http.StatusSeeOther, "/admin/?msg="+url.QueryEscape(msg))
}

func (a *App) handleCrawlerStats(c echo.Context) error {
	if !IsAdmin(c) {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
	if a.crawlers == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "crawler log disabled"})
	}
	days := 7
	if v, err := strconv.Atoi(c.QueryParam("days")); err == nil && v > 0 {
		days = min(v, maxStatsDays)
	}
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -days)
	stats, err := a.crawlers.Stats(c.Request().Context(), from, to)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}
