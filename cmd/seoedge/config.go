package main

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/eringen/seoedge"
	"github.com/eringen/seoedge/cache"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("site.name", "Tech Blog")
	v.SetDefault("site.locale", "en_US")
	v.SetDefault("site.language", "en")
	v.SetDefault("server.addr", ":3000")
	v.SetDefault("server.static_dir", "public")
	v.SetDefault("server.client_redirect", false)
	v.SetDefault("upstream.home_timeout", 5*time.Second)
	v.SetDefault("upstream.category_timeout", 8*time.Second)
	v.SetDefault("upstream.post_timeout", 3*time.Second)
	v.SetDefault("upstream.retries", 0)
	v.SetDefault("upstream.retry_backoff", 100*time.Millisecond)
	v.SetDefault("cache.home_ttl", 30*time.Minute)
	v.SetDefault("cache.category_ttl", 60*time.Minute)
	v.SetDefault("cache.post_ttl", 120*time.Minute)
	v.SetDefault("cache.data_ttl", 5*time.Minute)
	v.SetDefault("cache.queue_size", 256)
	v.SetDefault("cache.workers", 2)
	v.SetDefault("cache.redis_prefix", "seoedge:")
	v.SetDefault("crawlers.retention_days", 90)
	v.SetDefault("crawlers.per_minute", 120)
	v.SetDefault("content.addr", ":4000")
	v.SetDefault("log.level", "info")
}

// siteConfig maps viper keys onto the edge configuration.
func siteConfig(v *viper.Viper) seoedge.SiteConfig {
	return seoedge.SiteConfig{
		Name:          v.GetString("site.name"),
		URL:           strings.TrimRight(v.GetString("site.url"), "/"),
		Description:   v.GetString("site.description"),
		Author:        v.GetString("site.author"),
		Locale:        v.GetString("site.locale"),
		Language:      v.GetString("site.language"),
		DefaultImage:  v.GetString("site.default_image"),
		TwitterHandle: v.GetString("site.twitter_handle"),
		FallbackTitle: v.GetString("site.fallback_title"),

		Addr:        v.GetString("server.addr"),
		UpstreamURL: strings.TrimRight(v.GetString("upstream.url"), "/"),
		StaticDir:   v.GetString("server.static_dir"),

		ClientRedirect: v.GetBool("server.client_redirect"),

		HomeTimeout:     v.GetDuration("upstream.home_timeout"),
		CategoryTimeout: v.GetDuration("upstream.category_timeout"),
		PostTimeout:     v.GetDuration("upstream.post_timeout"),
		UpstreamRetries: v.GetInt("upstream.retries"),
		RetryBackoff:    v.GetDuration("upstream.retry_backoff"),

		HomeTTL:     v.GetDuration("cache.home_ttl"),
		CategoryTTL: v.GetDuration("cache.category_ttl"),
		PostTTL:     v.GetDuration("cache.post_ttl"),
		DataTTL:     v.GetDuration("cache.data_ttl"),

		HomeLimit: v.GetInt("site.home_limit"),
		RSSLimit:  v.GetInt("site.rss_limit"),

		CacheQueueSize: v.GetInt("cache.queue_size"),
		CacheWorkers:   v.GetInt("cache.workers"),

		CSP: seoedge.CSPConfig{
			ScriptSrc:  v.GetStringSlice("csp.script_src"),
			StyleSrc:   v.GetStringSlice("csp.style_src"),
			ImgSrc:     v.GetStringSlice("csp.img_src"),
			FontSrc:    v.GetStringSlice("csp.font_src"),
			ConnectSrc: v.GetStringSlice("csp.connect_src"),
			FrameSrc:   v.GetStringSlice("csp.frame_src"),
		},

		CrawlerLogPath:      v.GetString("crawlers.log_path"),
		CrawlerRetention:    v.GetInt("crawlers.retention_days"),
		CrawlerLogPerMinute: v.GetInt("crawlers.per_minute"),

		AdminPassword: v.GetString("admin.password"),
		SessionSecret: v.GetString("admin.session_secret"),
		CookieSecure:  v.GetBool("admin.cookie_secure"),
	}
}

func redisConfig(v *viper.Viper) cache.RedisConfig {
	return cache.RedisConfig{
		Address:  v.GetString("cache.redis_addr"),
		Password: v.GetString("cache.redis_password"),
		DB:       v.GetInt("cache.redis_db"),
		Prefix:   v.GetString("cache.redis_prefix"),
	}
}

// loopbackURL points the edge at a Content API served by the same process.
func loopbackURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://127.0.0.1" + addr
	}
	return "http://" + addr
}
