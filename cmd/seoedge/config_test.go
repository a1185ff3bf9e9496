package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSiteConfigFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SEOEDGE_SITE_URL", "https://blog.example.com/")
	t.Setenv("SEOEDGE_UPSTREAM_URL", "http://content:4000")
	t.Setenv("SEOEDGE_UPSTREAM_POST_TIMEOUT", "750ms")
	t.Setenv("SEOEDGE_CACHE_REDIS_ADDR", "redis:6379")

	v := viper.New()
	require.NoError(t, initConfig(v, ""))
	cfg := siteConfig(v)

	assert.Equal(t, "https://blog.example.com", cfg.URL)
	assert.Equal(t, "http://content:4000", cfg.UpstreamURL)
	assert.Equal(t, 750*time.Millisecond, cfg.PostTimeout)
	assert.Equal(t, 8*time.Second, cfg.CategoryTimeout)
	assert.Equal(t, "Tech Blog", cfg.Name)
	assert.Equal(t, ":3000", cfg.Addr)
	assert.Equal(t, "redis:6379", redisConfig(v).Address)
	assert.Equal(t, "seoedge:", redisConfig(v).Prefix)
}

func TestSiteConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	file := filepath.Join(dir, "seoedge.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
site:
  name: Field Notes
  url: https://notes.example.com
csp:
  script_src: [https://cdn.example.com]
cache:
  post_ttl: 3h
`), 0o644))

	v := viper.New()
	require.NoError(t, initConfig(v, ""))
	cfg := siteConfig(v)

	assert.Equal(t, "Field Notes", cfg.Name)
	assert.Equal(t, "https://notes.example.com", cfg.URL)
	assert.Equal(t, []string{"https://cdn.example.com"}, cfg.CSP.ScriptSrc)
	assert.Equal(t, 3*time.Hour, cfg.PostTTL)
}

func TestExplicitConfigFileMustExist(t *testing.T) {
	t.Chdir(t.TempDir())
	err := initConfig(viper.New(), "missing.yaml")
	assert.Error(t, err)
}

func TestLoopbackURL(t *testing.T) {
	assert.Equal(t, "http://127.0.0.1:3000", loopbackURL(":3000"))
	assert.Equal(t, "http://0.0.0.0:8080", loopbackURL("0.0.0.0:8080"))
}

func TestVersionCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "seoedge dev\n", out.String())
}

func TestSeedCommand(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	seed := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(seed, []byte(`
categories:
  - {name: AI, slug: ai, description: Machine intelligence}
posts:
  - {title: Hello, slug: hello, category_slug: ai, published_at: "2024-01-01T00:00:00Z"}
`), 0o644))

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"seed", "--content-db", filepath.Join(dir, "content.db"), seed})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "seeded 1 categories and 1 posts\n", out.String())
}
