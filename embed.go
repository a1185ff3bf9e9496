package seoedge

import "embed"

// EmbeddedAssets holds the fallback application shell, served when the
// static bundle has no index.html.
//
//go:embed embedded/index.html
var EmbeddedAssets embed.FS
