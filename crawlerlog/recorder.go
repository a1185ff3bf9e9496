package crawlerlog

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Saver is the persistence side of a Recorder.
type Saver interface {
	Save(ctx context.Context, v Visit) error
}

// Recorder writes visits in the background so logging never delays a
// response. When its buffer is full, or a single address exceeds its
// per-minute budget, visits are dropped.
type Recorder struct {
	saver   Saver
	logger  *zap.Logger
	limiter *windowLimiter
	queue   chan Visit

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewRecorder starts a Recorder with one background writer. perMinute
// caps the visits logged per IP hash; zero disables the cap.
func NewRecorder(saver Saver, logger *zap.Logger, buffer, perMinute int) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if buffer <= 0 {
		buffer = 256
	}
	r := &Recorder{
		saver:  saver,
		logger: logger,
		queue:  make(chan Visit, buffer),
	}
	if perMinute > 0 {
		r.limiter = newWindowLimiter(perMinute, time.Minute)
	}
	r.wg.Add(1)
	go r.run()
	return r
}

// Record queues v and reports whether it was accepted.
func (r *Recorder) Record(v Visit) bool {
	if r.limiter != nil && !r.limiter.allow(v.IPHash) {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return false
	}
	select {
	case r.queue <- v:
		return true
	default:
		r.logger.Warn("crawler log queue full, dropping visit", zap.String("path", v.Path))
		return false
	}
}

func (r *Recorder) run() {
	defer r.wg.Done()
	for v := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := r.saver.Save(ctx, v); err != nil {
			r.logger.Warn("crawler log insert failed", zap.String("bot", v.BotName), zap.Error(err))
		}
		cancel()
	}
}

// Close stops accepting visits and waits for queued ones to be written.
func (r *Recorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()
	r.wg.Wait()
}
