// Package cache stores rendered HTTP responses and raw upstream JSON
// behind a small key-value port with per-entry TTL.
//
// Two namespaces share a Store: "page" entries hold rendered HTML keyed by
// resource and rendering variant, "data" entries hold Content API bodies.
// Nothing is invalidated on content change; entries simply expire.
package cache

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// Namespaces prefix every key.
const (
	NamespacePage = "page"
	NamespaceData = "data"
)

// Entry is a cached response.
type Entry struct {
	Key      string            `json:"key"`
	Status   int               `json:"status"`
	Body     []byte            `json:"body"`
	Headers  map[string]string `json:"headers,omitempty"`
	StoredAt time.Time         `json:"stored_at"`
}

// Store is the cache port injected into dispatchers and the upstream client.
// A miss is reported with ok == false and a nil error.
type Store interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Put(ctx context.Context, key string, entry Entry, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// Purge removes every key starting with prefix and returns how many
	// were removed. An empty prefix clears the store.
	Purge(ctx context.Context, prefix string) (int, error)
}

// PageKey derives a page-cache key: page-{kind}-{id}-{variant}.
func PageKey(kind, id, variant string) string {
	return join(NamespacePage, kind, id, variant)
}

// DataKey derives a data-cache key: data-{resource}-{id}. Resource names
// must not contain '-' or a slug could complete a shorter resource's key.
func DataKey(resource, id string) string {
	return join(NamespaceData, resource, id)
}

func join(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "-")
}

// NewEntry builds an entry from a status, body and the headers to replay.
func NewEntry(key string, status int, body []byte, h http.Header, names ...string) Entry {
	e := Entry{
		Key:      key,
		Status:   status,
		Body:     body,
		StoredAt: time.Now().UTC(),
	}
	for _, name := range names {
		if v := h.Get(name); v != "" {
			if e.Headers == nil {
				e.Headers = make(map[string]string, len(names))
			}
			e.Headers[http.CanonicalHeaderKey(name)] = v
		}
	}
	return e
}

// Age returns how long ago the entry was stored.
func (e Entry) Age(now time.Time) time.Duration {
	if e.StoredAt.IsZero() {
		return 0
	}
	return now.Sub(e.StoredAt)
}
