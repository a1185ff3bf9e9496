// Package botdetect classifies HTTP clients as humans, crawlers or AI
// crawlers from their User-Agent header.
//
// Classification is substring based: any keyword found anywhere in the
// lower-cased user agent counts as a match. False positives such as
// "fetch" inside an unrelated HTTP library name are accepted.
package botdetect

import (
	"strings"

	ahocorasick "github.com/cloudflare/ahocorasick"
)

// Variants select the rendering choice that is encoded in cache keys.
const (
	VariantFull = "full"
	VariantMeta = "meta"
	VariantLite = "lite"
)

// CrawlerKeywords mark generic search engines, link unfurlers and tools.
var CrawlerKeywords = []string{
	"googlebot",
	"bingbot",
	"slurp",
	"duckduckbot",
	"baiduspider",
	"yandexbot",
	"applebot",
	"facebookexternalhit",
	"facebot",
	"twitterbot",
	"linkedinbot",
	"slackbot",
	"discordbot",
	"telegrambot",
	"whatsapp",
	"embedly",
	"pinterest",
	"redditbot",
	"bot",
	"crawler",
	"spider",
	"scraper",
	"fetch",
}

// AICrawlerKeywords mark generative-AI content ingesters.
var AICrawlerKeywords = []string{
	"gptbot",
	"chatgpt-user",
	"oai-searchbot",
	"claudebot",
	"claude-web",
	"anthropic-ai",
	"perplexitybot",
	"google-extended",
	"ccbot",
	"bytespider",
}

// Classification is the result of inspecting one user agent. The two
// flags are independent: an AI crawler usually also matches a generic
// keyword, but callers must not assume it.
type Classification struct {
	IsBot       bool
	IsAICrawler bool
}

// Human reports whether neither flag is set.
func (c Classification) Human() bool {
	return !c.IsBot && !c.IsAICrawler
}

// Crawler reports whether the client should receive server-rendered HTML.
func (c Classification) Crawler() bool {
	return c.IsBot || c.IsAICrawler
}

// Variant returns VariantFull for AI crawlers and fallback otherwise.
func (c Classification) Variant(fallback string) string {
	if c.IsAICrawler {
		return VariantFull
	}
	return fallback
}

// String returns a short label used in logs and metrics.
func (c Classification) String() string {
	switch {
	case c.IsAICrawler:
		return "ai-crawler"
	case c.IsBot:
		return "crawler"
	default:
		return "human"
	}
}

// Classifier holds prebuilt automatons for both keyword lists.
// It is safe for concurrent use.
type Classifier struct {
	bots *ahocorasick.Matcher
	ai   *ahocorasick.Matcher
}

// New builds a Classifier from custom keyword lists. Keywords are
// lower-cased; empty entries are ignored.
func New(botKeywords, aiKeywords []string) *Classifier {
	return &Classifier{
		bots: buildMatcher(botKeywords),
		ai:   buildMatcher(aiKeywords),
	}
}

// Default returns a Classifier over CrawlerKeywords and AICrawlerKeywords.
func Default() *Classifier {
	return New(CrawlerKeywords, AICrawlerKeywords)
}

func buildMatcher(keywords []string) *ahocorasick.Matcher {
	normalized := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			normalized = append(normalized, kw)
		}
	}
	if len(normalized) == 0 {
		return nil
	}
	return ahocorasick.NewStringMatcher(normalized)
}

func matches(m *ahocorasick.Matcher, ua []byte) bool {
	if m == nil {
		return false
	}
	return len(m.MatchThreadSafe(ua)) > 0
}

// Classify inspects a raw User-Agent value.
func (c *Classifier) Classify(userAgent string) Classification {
	ua := strings.ToLower(strings.TrimSpace(userAgent))
	if ua == "" {
		return Classification{}
	}
	b := []byte(ua)
	return Classification{
		IsBot:       matches(c.bots, b),
		IsAICrawler: matches(c.ai, b),
	}
}

var defaultClassifier = Default()

// Classify runs the default classifier.
func Classify(userAgent string) Classification {
	return defaultClassifier.Classify(userAgent)
}

// botNames maps user agent fragments to the names shown in crawler stats.
// Order matters: specific crawlers precede generic terms.
var botNames = []struct {
	pattern string
	name    string
}{
	{"gptbot", "GPTBot"},
	{"chatgpt-user", "ChatGPT"},
	{"oai-searchbot", "OpenAI Search"},
	{"claudebot", "ClaudeBot"},
	{"claude-web", "Claude"},
	{"anthropic-ai", "Anthropic"},
	{"perplexitybot", "PerplexityBot"},
	{"google-extended", "Google-Extended"},
	{"ccbot", "Common Crawl"},
	{"bytespider", "Bytespider"},
	{"googlebot", "Googlebot"},
	{"bingbot", "Bingbot"},
	{"slurp", "Yahoo Slurp"},
	{"duckduckbot", "DuckDuckBot"},
	{"baiduspider", "Baidu"},
	{"yandexbot", "Yandex"},
	{"applebot", "Applebot"},
	{"facebookexternalhit", "Facebook"},
	{"facebot", "Facebook"},
	{"twitterbot", "Twitterbot"},
	{"linkedinbot", "LinkedIn"},
	{"slackbot", "Slack"},
	{"discordbot", "Discord"},
	{"telegrambot", "Telegram"},
	{"whatsapp", "WhatsApp"},
	{"redditbot", "Reddit"},
	{"crawler", "Generic Crawler"},
	{"spider", "Generic Spider"},
	{"scraper", "Generic Scraper"},
}

// BotName extracts a display name for a crawler user agent.
func BotName(userAgent string) string {
	ua := strings.ToLower(userAgent)
	for _, bn := range botNames {
		if strings.Contains(ua, bn.pattern) {
			return bn.name
		}
	}
	if strings.Contains(ua, "bot") {
		return "Other Bot"
	}
	return "Unknown"
}
