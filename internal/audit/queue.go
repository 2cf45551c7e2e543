// AngelaMos | 2026
// queue.go

package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// saturationThreshold is the fill ratio at which the queue reports itself
// unhealthy.
const saturationThreshold = 0.9

var ErrQueueSaturated = errors.New("audit queue saturated")

type Store interface {
	Insert(ctx context.Context, entry Entry) error
}

type QueueConfig struct {
	Size         int
	Workers      int
	WriteTimeout time.Duration
	Registerer   prometheus.Registerer
}

// Queue is a bounded, drop-oldest audit pipeline. Record never blocks and
// never fails; lost or failed entries only show up in Stats, the health
// check and the exported metrics.
type Queue struct {
	entries      chan Entry
	store        Store
	logger       *slog.Logger
	workers      int
	writeTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	written   atomic.Uint64
	dropped   atomic.Uint64
	failed    atomic.Uint64
	lastError atomic.Pointer[string]

	droppedTotal prometheus.Counter
	failedTotal  prometheus.Counter
	writtenTotal prometheus.Counter
}

type Stats struct {
	Depth     int    `json:"depth"`
	Capacity  int    `json:"capacity"`
	Written   uint64 `json:"written"`
	Dropped   uint64 `json:"dropped"`
	Failed    uint64 `json:"failed"`
	LastError string `json:"last_error,omitempty"`
}

func NewQueue(store Store, logger *slog.Logger, cfg QueueConfig) *Queue {
	if cfg.Size < 1 {
		cfg.Size = 1024
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}

	q := &Queue{
		entries:      make(chan Entry, cfg.Size),
		store:        store,
		logger:       logger,
		workers:      cfg.Workers,
		writeTimeout: cfg.WriteTimeout,
		droppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "audit_entries_dropped_total",
			Help: "Audit entries discarded because the queue was full or closed",
		}),
		failedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "audit_entries_failed_total",
			Help: "Audit entries that could not be persisted",
		}),
		writtenTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "audit_entries_written_total",
			Help: "Audit entries persisted",
		}),
	}

	if cfg.Registerer != nil {
		cfg.Registerer.MustRegister(
			q.droppedTotal,
			q.failedTotal,
			q.writtenTotal,
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Name: "audit_queue_depth",
				Help: "Audit entries waiting to be persisted",
			}, func() float64 { return float64(len(q.entries)) }),
		)
	}

	return q
}

func (q *Queue) Start() {
	for range q.workers {
		q.wg.Add(1)
		go q.work()
	}
}

// Record enqueues entry. When the buffer is full the oldest pending entry is
// discarded to make room.
func (q *Queue) Record(_ context.Context, entry Entry) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.drop()
		return
	}

	select {
	case q.entries <- entry:
		return
	default:
	}

	select {
	case <-q.entries:
		q.drop()
	default:
	}

	select {
	case q.entries <- entry:
	default:
		q.drop()
	}
}

// Shutdown stops intake and waits for queued entries to drain or ctx to end.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.entries)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain audit queue: %w", ctx.Err())
	}
}

func (q *Queue) Stats() Stats {
	stats := Stats{
		Depth:    len(q.entries),
		Capacity: cap(q.entries),
		Written:  q.written.Load(),
		Dropped:  q.dropped.Load(),
		Failed:   q.failed.Load(),
	}
	if msg := q.lastError.Load(); msg != nil {
		stats.LastError = *msg
	}
	return stats
}

// Ping reports the queue as unhealthy once it is close to full, which is the
// point where entries start being dropped.
func (q *Queue) Ping(_ context.Context) error {
	capacity := cap(q.entries)
	if capacity == 0 {
		return nil
	}
	if float64(len(q.entries)) >= float64(capacity)*saturationThreshold {
		return ErrQueueSaturated
	}
	return nil
}

func (q *Queue) work() {
	defer q.wg.Done()

	for entry := range q.entries {
		q.persist(entry)
	}
}

func (q *Queue) persist(entry Entry) {
	defer func() {
		if p := recover(); p != nil {
			q.fail(fmt.Errorf("panic: %v", p), entry)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), q.writeTimeout)
	defer cancel()

	if err := q.store.Insert(ctx, entry); err != nil {
		q.fail(err, entry)
		return
	}

	q.written.Add(1)
	q.writtenTotal.Inc()
}

func (q *Queue) fail(err error, entry Entry) {
	q.failed.Add(1)
	q.failedTotal.Inc()

	msg := err.Error()
	q.lastError.Store(&msg)

	q.logger.Warn("audit log write failed",
		"error", err,
		"level", entry.Level,
		"endpoint", entry.Endpoint,
	)
}

func (q *Queue) drop() {
	q.dropped.Add(1)
	q.droppedTotal.Inc()
}
