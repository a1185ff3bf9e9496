package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Write outcomes reported to the observer.
const (
	WriteStored  = "stored"
	WriteFailed  = "failed"
	WriteDropped = "dropped"
)

const (
	defaultQueueSize    = 256
	defaultWriters      = 2
	defaultWriteTimeout = 2 * time.Second
)

type writeJob struct {
	key   string
	entry Entry
	ttl   time.Duration
}

// Writer populates a Store in the background so responses never wait on
// cache writes. A write that cannot be queued is dropped; a failed write
// is logged and the next request simply misses again.
type Writer struct {
	store    Store
	logger   *zap.Logger
	observe  func(outcome string)
	timeout  time.Duration
	jobs     chan writeJob
	wg       sync.WaitGroup
	mu       sync.RWMutex
	closed   bool
	closeOne sync.Once
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithLogger sets the logger used for failed and dropped writes.
func WithLogger(l *zap.Logger) WriterOption {
	return func(w *Writer) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithObserver registers a callback invoked with every write outcome.
func WithObserver(fn func(outcome string)) WriterOption {
	return func(w *Writer) {
		w.observe = fn
	}
}

// WithWriteTimeout bounds each write.
func WithWriteTimeout(d time.Duration) WriterOption {
	return func(w *Writer) {
		if d > 0 {
			w.timeout = d
		}
	}
}

// NewWriter starts workers draining a bounded queue into store.
func NewWriter(store Store, queueSize, workers int, opts ...WriterOption) *Writer {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if workers <= 0 {
		workers = defaultWriters
	}
	w := &Writer{
		store:   store,
		logger:  zap.NewNop(),
		observe: func(string) {},
		timeout: defaultWriteTimeout,
		jobs:    make(chan writeJob, queueSize),
	}
	for _, opt := range opts {
		opt(w)
	}
	for i := 0; i < workers; i++ {
		w.wg.Add(1)
		go w.run()
	}
	return w
}

func (w *Writer) run() {
	defer w.wg.Done()
	for job := range w.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		err := w.store.Put(ctx, job.key, job.entry, job.ttl)
		cancel()
		if err != nil {
			w.logger.Warn("cache write failed", zap.String("key", job.key), zap.Error(err))
			w.observe(WriteFailed)
			continue
		}
		w.observe(WriteStored)
	}
}

// Enqueue schedules a write and returns immediately.
func (w *Writer) Enqueue(key string, entry Entry, ttl time.Duration) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		w.observe(WriteDropped)
		return
	}
	select {
	case w.jobs <- writeJob{key: key, entry: entry, ttl: ttl}:
	default:
		w.logger.Warn("cache write queue full, dropping", zap.String("key", key))
		w.observe(WriteDropped)
	}
}

// Close stops accepting writes and waits for queued ones to finish.
func (w *Writer) Close() error {
	w.closeOne.Do(func() {
		w.mu.Lock()
		w.closed = true
		close(w.jobs)
		w.mu.Unlock()
	})
	w.wg.Wait()
	return nil
}
