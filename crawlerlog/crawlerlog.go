// Package crawlerlog records which crawlers fetch which server-rendered
// pages. Visits are stored in sqlite with a salted IP hash, never the raw
// address.
package crawlerlog

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Visit is one crawler request handled by a dispatcher.
type Visit struct {
	ID         int64     `json:"-"`
	BotName    string    `json:"bot_name"` // e.g. "Googlebot"
	IPHash     string    `json:"-"`
	UserAgent  string    `json:"user_agent"`
	Path       string    `json:"path"`
	AICrawler  bool      `json:"ai_crawler"`
	RenderPath string    `json:"render_path"` // X-Render-Path value
	Timestamp  time.Time `json:"timestamp"`
}

// Stats holds aggregated crawler activity for a period.
type Stats struct {
	Period      string          `json:"period"`
	TotalVisits int             `json:"total_visits"`
	AIVisits    int             `json:"ai_visits"`
	TopBots     []DimensionStat `json:"top_bots"`
	TopPages    []PageStat      `json:"top_pages"`
	RenderPaths []DimensionStat `json:"render_paths"`
	DailyVisits []DailyVisit    `json:"daily_visits"`
}

// PageStat counts visits to one path.
type PageStat struct {
	Path   string `json:"path"`
	Visits int    `json:"visits"`
}

// DimensionStat counts visits per value of a dimension.
type DimensionStat struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// DailyVisit counts visits per day.
type DailyVisit struct {
	Date   string `json:"date"`
	Visits int    `json:"visits"`
}

const maxUserAgentLen = 512

// hashIP returns the first 16 hex characters of sha256(salt + ip).
func hashIP(salt, ip string) string {
	h := sha256.New()
	h.Write([]byte(salt + ip))
	return hex.EncodeToString(h.Sum(nil))[:16]
}
