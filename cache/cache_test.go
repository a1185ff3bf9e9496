package cache

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "page-category-ai-full", PageKey("category", "ai", "full"))
	assert.Equal(t, "page-post-hello-world-meta", PageKey("post", "Hello-World", "meta"))
	assert.Equal(t, "page-home-lite", PageKey("home", "", "lite"))
	assert.Equal(t, "data-posts_category-ai", DataKey("posts_category", "ai"))
	assert.NotEqual(t, DataKey("post_meta", "foo"), DataKey("post", "meta-foo"))
	assert.NotEqual(t, PageKey("category", "ai", "full"), PageKey("category", "ai", "lite"))
}

func TestNewEntryCopiesSelectedHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("Content-Type", "text/html")
	h.Set("Set-Cookie", "secret=1")
	e := NewEntry("k", http.StatusOK, []byte("x"), h, "content-type", "cache-control")
	assert.Equal(t, map[string]string{"Content-Type": "text/html"}, e.Headers)
	assert.False(t, e.StoredAt.IsZero())
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "page-post-a-meta")
	require.NoError(t, err)
	assert.False(t, ok)

	entry := Entry{Status: 200, Body: []byte("<html>a</html>"), Headers: map[string]string{"Content-Type": "text/html"}, StoredAt: time.Now().UTC()}
	require.NoError(t, s.Put(ctx, "page-post-a-meta", entry, time.Minute))
	require.NoError(t, s.Put(ctx, "page-post-b-meta", entry, time.Minute))
	require.NoError(t, s.Put(ctx, "data-post-a", entry, time.Minute))

	got, ok, err := s.Get(ctx, "page-post-a-meta")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, entry.Body, got.Body)
	assert.Equal(t, "page-post-a-meta", got.Key)
	assert.Equal(t, "text/html", got.Headers["Content-Type"])

	require.NoError(t, s.Delete(ctx, "page-post-b-meta"))
	_, ok, _ = s.Get(ctx, "page-post-b-meta")
	assert.False(t, ok)

	n, err := s.Purge(ctx, "page-")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, ok, _ = s.Get(ctx, "data-post-a")
	assert.True(t, ok, "purge must leave other namespaces alone")
}

func TestMemoryStore(t *testing.T) {
	m := NewMemory(0)
	defer m.Close()
	exerciseStore(t, m)
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory(0)
	defer m.Close()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, m.Put(ctx, "k", Entry{Body: []byte("v")}, time.Minute))
	_, ok, _ := m.Get(ctx, "k")
	assert.True(t, ok)

	now = now.Add(time.Minute)
	_, ok, _ = m.Get(ctx, "k")
	assert.False(t, ok)

	m.sweep()
	assert.Equal(t, 0, m.Len())
}

func TestMemoryIgnoresNonPositiveTTL(t *testing.T) {
	m := NewMemory(0)
	defer m.Close()
	require.NoError(t, m.Put(context.Background(), "k", Entry{}, 0))
	assert.Equal(t, 0, m.Len())
}

func TestMemoryPutCopiesBody(t *testing.T) {
	m := NewMemory(0)
	defer m.Close()
	body := []byte("abc")
	require.NoError(t, m.Put(context.Background(), "k", Entry{Body: body}, time.Minute))
	body[0] = 'z'
	got, _, _ := m.Get(context.Background(), "k")
	assert.Equal(t, "abc", string(got.Body))
}

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *Redis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewRedisFromClient(client, "test:")
}

func TestRedisStore(t *testing.T) {
	_, r := newMiniredis(t)
	exerciseStore(t, r)
}

func TestRedisExpiryAndPrefix(t *testing.T) {
	mr, r := newMiniredis(t)
	ctx := context.Background()
	require.NoError(t, r.Put(ctx, "page-home-lite", Entry{Body: []byte("x")}, 30*time.Second))

	assert.True(t, mr.Exists("test:page-home-lite"))
	assert.Equal(t, 30*time.Second, mr.TTL("test:page-home-lite"))

	mr.FastForward(31 * time.Second)
	_, ok, err := r.Get(ctx, "page-home-lite")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCorruptEntry(t *testing.T) {
	mr, r := newMiniredis(t)
	require.NoError(t, mr.Set("test:bad", "not json"))
	_, ok, err := r.Get(context.Background(), "bad")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestNewRedisRequiresAddress(t *testing.T) {
	_, err := NewRedis(RedisConfig{})
	assert.ErrorIs(t, err, ErrEmptyAddress)
}

type countingStore struct {
	*Memory
	puts atomic.Int32
	fail bool
	gate chan struct{}
}

func (c *countingStore) Put(ctx context.Context, key string, e Entry, ttl time.Duration) error {
	if c.gate != nil {
		<-c.gate
	}
	c.puts.Add(1)
	if c.fail {
		return errors.New("backend down")
	}
	return c.Memory.Put(ctx, key, e, ttl)
}

type outcomes struct {
	mu   sync.Mutex
	seen map[string]int
}

func (o *outcomes) record(s string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.seen == nil {
		o.seen = map[string]int{}
	}
	o.seen[s]++
}

func (o *outcomes) count(s string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.seen[s]
}

func TestWriterStoresInBackground(t *testing.T) {
	store := &countingStore{Memory: NewMemory(0)}
	var o outcomes
	w := NewWriter(store, 4, 1, WithObserver(o.record))

	w.Enqueue("k", Entry{Body: []byte("v")}, time.Minute)
	require.NoError(t, w.Close())

	_, ok, _ := store.Get(context.Background(), "k")
	assert.True(t, ok)
	assert.Equal(t, 1, o.count(WriteStored))
}

func TestWriterDoesNotBlockWhenFull(t *testing.T) {
	gate := make(chan struct{})
	store := &countingStore{Memory: NewMemory(0), gate: gate}
	var o outcomes
	w := NewWriter(store, 1, 1, WithObserver(o.record))

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			w.Enqueue("k", Entry{}, time.Minute)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}
	close(gate)
	require.NoError(t, w.Close())
	assert.Positive(t, o.count(WriteDropped))
	assert.Equal(t, 10, o.count(WriteDropped)+o.count(WriteStored))
}

func TestWriterSwallowsFailures(t *testing.T) {
	store := &countingStore{Memory: NewMemory(0), fail: true}
	var o outcomes
	w := NewWriter(store, 4, 1, WithObserver(o.record))
	w.Enqueue("k", Entry{}, time.Minute)
	require.NoError(t, w.Close())
	assert.Equal(t, 1, o.count(WriteFailed))

	w.Enqueue("late", Entry{}, time.Minute)
	assert.Equal(t, 1, o.count(WriteDropped))
}
