package botdetect

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

const chromeUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

func TestClassifyBrowserIsHuman(t *testing.T) {
	got := Classify(chromeUA)
	assert.False(t, got.IsBot)
	assert.False(t, got.IsAICrawler)
	assert.True(t, got.Human())
	assert.Equal(t, "human", got.String())
}

func TestClassifyEmptyIsHuman(t *testing.T) {
	assert.True(t, Classify("").Human())
	assert.True(t, Classify("   ").Human())
}

func TestClassifyEveryCrawlerKeywordAnyCaseAnyPosition(t *testing.T) {
	for _, kw := range CrawlerKeywords {
		variants := []string{
			kw,
			strings.ToUpper(kw),
			"Mozilla/5.0 (compatible; " + strings.ToUpper(kw[:1]) + kw[1:] + "/2.1)",
			chromeUA + " " + kw,
		}
		for _, ua := range variants {
			assert.Truef(t, Classify(ua).IsBot, "expected %q to be a bot", ua)
		}
	}
}

func TestClassifyEveryAIKeyword(t *testing.T) {
	for _, kw := range AICrawlerKeywords {
		ua := "Mozilla/5.0 AppleWebKit/537.36 (KHTML, like Gecko; compatible; " + strings.ToUpper(kw) + "/1.0)"
		got := Classify(ua)
		assert.Truef(t, got.IsAICrawler, "expected %q to be an AI crawler", ua)
		assert.Equal(t, VariantFull, got.Variant(VariantMeta))
	}
}

func TestClassifyFlagsAreIndependent(t *testing.T) {
	// "google-extended" contains none of the generic keywords.
	got := Classify("Google-Extended")
	assert.True(t, got.IsAICrawler)
	assert.False(t, got.IsBot)
	assert.True(t, got.Crawler())

	both := Classify("Mozilla/5.0 (compatible; GPTBot/1.2; +https://openai.com/gptbot)")
	assert.True(t, both.IsAICrawler)
	assert.True(t, both.IsBot)
	assert.Equal(t, "ai-crawler", both.String())
}

func TestClassifyGenericBotVariant(t *testing.T) {
	got := Classify("Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)")
	assert.True(t, got.IsBot)
	assert.False(t, got.IsAICrawler)
	assert.Equal(t, VariantMeta, got.Variant(VariantMeta))
	assert.Equal(t, VariantLite, got.Variant(VariantLite))
}

func TestNewIgnoresEmptyKeywords(t *testing.T) {
	c := New([]string{"", "  "}, nil)
	assert.True(t, c.Classify("anything-bot").Human())

	c = New([]string{" MyCrawler "}, []string{"LLM-Agent"})
	assert.True(t, c.Classify("mycrawler/1.0").IsBot)
	assert.True(t, c.Classify("x llm-agent y").IsAICrawler)
}

func TestClassifyConcurrent(t *testing.T) {
	c := Default()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				assert.True(t, c.Classify("Twitterbot/1.0").IsBot)
			} else {
				assert.True(t, c.Classify(chromeUA).Human())
			}
		}(i)
	}
	wg.Wait()
}

func TestBotName(t *testing.T) {
	tests := []struct {
		ua   string
		want string
	}{
		{"Mozilla/5.0 (compatible; Googlebot/2.1)", "Googlebot"},
		{"Mozilla/5.0 (compatible; GPTBot/1.2)", "GPTBot"},
		{"facebookexternalhit/1.1", "Facebook"},
		{"SomeRandomBot/0.1", "Other Bot"},
		{"my-spider", "Generic Spider"},
		{chromeUA, "Unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BotName(tt.ua), tt.ua)
	}
}
