package crawlerlog

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "crawlers.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestHashIPIsSaltedAndStable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crawlers.db")

	s, err := NewStore(path)
	require.NoError(t, err)
	h := s.HashIP("203.0.113.7")
	assert.Len(t, h, 16)
	assert.Equal(t, h, s.HashIP("203.0.113.7"))
	assert.NotEqual(t, h, s.HashIP("203.0.113.8"))
	assert.NotEqual(t, hashIP("", "203.0.113.7"), h)
	require.NoError(t, s.Close())

	reopened, err := NewStore(path)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, h, reopened.HashIP("203.0.113.7"), "salt must persist")
}

func TestSaveAndStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	visits := []Visit{
		{BotName: "Googlebot", Path: "/post/a", RenderPath: "rendered", Timestamp: now},
		{BotName: "Googlebot", Path: "/post/a", RenderPath: "cache-hit", Timestamp: now},
		{BotName: "GPTBot", Path: "/category/ai", AICrawler: true, RenderPath: "rendered", Timestamp: now},
		{BotName: "Bingbot", Path: "/", RenderPath: "rendered", Timestamp: now.AddDate(0, 0, -40)},
	}
	for _, v := range visits {
		v.IPHash = s.HashIP("198.51.100.1")
		require.NoError(t, s.Save(ctx, v))
	}

	stats, err := s.Stats(ctx, now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalVisits)
	assert.Equal(t, 1, stats.AIVisits)
	require.NotEmpty(t, stats.TopBots)
	assert.Equal(t, DimensionStat{Name: "Googlebot", Count: 2}, stats.TopBots[0])
	assert.Equal(t, PageStat{Path: "/post/a", Visits: 2}, stats.TopPages[0])
	assert.Len(t, stats.DailyVisits, 1)
	assert.Equal(t, 3, stats.DailyVisits[0].Visits)

	recent, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 4)

	deleted, err := s.Cleanup(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestSaveTruncatesUserAgent(t *testing.T) {
	s := newTestStore(t)
	ua := make([]byte, 2*maxUserAgentLen)
	for i := range ua {
		ua[i] = 'x'
	}
	require.NoError(t, s.Save(context.Background(), Visit{BotName: "Other Bot", UserAgent: string(ua), Path: "/"}))
	recent, err := s.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Len(t, recent[0].UserAgent, maxUserAgentLen)
}

type memSaver struct {
	mu     sync.Mutex
	visits []Visit
	err    error
}

func (m *memSaver) Save(_ context.Context, v Visit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.visits = append(m.visits, v)
	return nil
}

func (m *memSaver) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.visits)
}

func TestRecorderWritesInBackground(t *testing.T) {
	saver := &memSaver{}
	r := NewRecorder(saver, nil, 8, 0)
	for i := 0; i < 5; i++ {
		assert.True(t, r.Record(Visit{BotName: "Googlebot", Path: "/"}))
	}
	r.Close()
	assert.Equal(t, 5, saver.len())
	assert.False(t, r.Record(Visit{BotName: "Googlebot"}), "closed recorder accepts nothing")
}

func TestRecorderRateLimitsPerIP(t *testing.T) {
	saver := &memSaver{}
	r := NewRecorder(saver, nil, 16, 2)
	assert.True(t, r.Record(Visit{IPHash: "a"}))
	assert.True(t, r.Record(Visit{IPHash: "a"}))
	assert.False(t, r.Record(Visit{IPHash: "a"}))
	assert.True(t, r.Record(Visit{IPHash: "b"}))
	r.Close()
	assert.Equal(t, 3, saver.len())
}

func TestRecorderSwallowsSaveErrors(t *testing.T) {
	saver := &memSaver{err: errors.New("disk full")}
	r := NewRecorder(saver, nil, 4, 0)
	assert.True(t, r.Record(Visit{BotName: "Googlebot"}))
	r.Close()
	assert.Equal(t, 0, saver.len())
}

func TestCleanupSchedulerStops(t *testing.T) {
	s := newTestStore(t)
	stop := s.StartCleanupScheduler(30, 10*time.Millisecond, zap.NewNop())
	time.Sleep(30 * time.Millisecond)
	stop()
}

func TestWindowLimiterResets(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := newWindowLimiter(1, time.Minute)
	l.now = func() time.Time { return now }

	assert.True(t, l.allow("a"))
	assert.False(t, l.allow("a"))

	now = now.Add(time.Minute)
	assert.True(t, l.allow("a"))
}
