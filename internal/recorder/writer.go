// Package recorder provides buffered, asynchronous persistence of audit
// entries and feedback records.
//
// Record calls return as soon as the record is queued. Background workers
// group queued records into batches and hand them to a Backend, flushing
// partial batches on a timer and draining everything on Stop.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/willfong/insurance-assistant/internal/config"
	"github.com/willfong/insurance-assistant/internal/metrics"
	"github.com/willfong/insurance-assistant/internal/models"
)

var (
	// ErrBufferFull is returned when a record cannot be queued
	ErrBufferFull = errors.New("recorder buffer full")

	// ErrStopped is returned when recording after Stop
	ErrStopped = errors.New("recorder stopped")
)

const (
	kindAudit    = "audit"
	kindFeedback = "feedback"
)

// Backend durably stores batches of records
type Backend interface {
	InsertAuditEntries(ctx context.Context, entries []models.AuditEntry) error
	InsertFeedbackRecords(ctx context.Context, records []models.FeedbackRecord) error
}

// Config holds configuration for the writer
type Config struct {
	BufferSize    int           // Capacity of each record buffer
	BatchSize     int           // Max records per backend call
	FlushInterval time.Duration // How often to flush incomplete batches
	Workers       int           // Number of concurrent write workers
	WriteTimeout  time.Duration // Deadline for one backend call
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		BufferSize:    config.AuditBufferSize,
		BatchSize:     config.AuditBatchSize,
		FlushInterval: config.AuditFlushInterval,
		Workers:       config.AuditWorkers,
		WriteTimeout:  30 * time.Second,
	}
}

// Writer queues records and writes them in the background
type Writer struct {
	backend Backend

	// Buffered channels for incoming records
	audits    chan models.AuditEntry
	feedbacks chan models.FeedbackRecord

	// Configuration
	batchSize     int
	flushInterval time.Duration
	workers       int
	writeTimeout  time.Duration

	metrics *metrics.Metrics
	logger  *slog.Logger

	// Lifecycle
	mu      sync.RWMutex
	stopped bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// Statistics
	stats writerStats
}

type writerStats struct {
	received       atomic.Int64
	written        atomic.Int64
	batchesWritten atomic.Int64
	writeErrors    atomic.Int64
	dropped        atomic.Int64
	lastFlushTime  atomic.Value // time.Time
}

// Option configures a Writer
type Option func(*Writer)

// WithMetrics enables Prometheus counters
func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Writer) {
		w.metrics = m
	}
}

// WithLogger sets the structured logger
func WithLogger(l *slog.Logger) Option {
	return func(w *Writer) {
		w.logger = l
	}
}

// New creates a writer. Call Start to begin writing.
func New(backend Backend, cfg Config, opts ...Option) *Writer {
	def := DefaultConfig()
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = def.BufferSize
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = def.FlushInterval
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Writer{
		backend:       backend,
		audits:        make(chan models.AuditEntry, cfg.BufferSize),
		feedbacks:     make(chan models.FeedbackRecord, cfg.BufferSize),
		batchSize:     cfg.BatchSize,
		flushInterval: cfg.FlushInterval,
		workers:       cfg.Workers,
		writeTimeout:  cfg.WriteTimeout,
		logger:        slog.Default(),
		ctx:           ctx,
		cancel:        cancel,
	}
	for _, opt := range opts {
		opt(w)
	}

	w.stats.lastFlushTime.Store(time.Time{})
	return w
}

// Start begins the background write workers
func (w *Writer) Start() {
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.writeWorker(i)
	}
}

// RecordAudit queues an audit entry
func (w *Writer) RecordAudit(_ context.Context, entry models.AuditEntry) error {
	w.mu.RLock()
	defer w.mu.RUnlock()

	w.stats.received.Add(1)
	if w.stopped {
		w.drop(kindAudit, "stopped")
		return ErrStopped
	}

	select {
	case w.audits <- entry:
		w.metrics.Queued(kindAudit, 1)
		return nil
	default:
		w.drop(kindAudit, "buffer_full")
		return ErrBufferFull
	}
}

// RecordFeedback queues a feedback record
func (w *Writer) RecordFeedback(_ context.Context, rec models.FeedbackRecord) error {
	w.mu.RLock()
	defer w.mu.RUnlock()

	w.stats.received.Add(1)
	if w.stopped {
		w.drop(kindFeedback, "stopped")
		return ErrStopped
	}

	select {
	case w.feedbacks <- rec:
		w.metrics.Queued(kindFeedback, 1)
		return nil
	default:
		w.drop(kindFeedback, "buffer_full")
		return ErrBufferFull
	}
}

func (w *Writer) drop(kind, reason string) {
	w.stats.dropped.Add(1)
	w.metrics.Dropped(kind, reason, 1)
}

// writeWorker processes records from the buffers and writes them in batches
func (w *Writer) writeWorker(workerID int) {
	defer w.wg.Done()

	audits := make([]models.AuditEntry, 0, w.batchSize)
	feedbacks := make([]models.FeedbackRecord, 0, w.batchSize)
	ticker := time.NewTicker(w.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case e := <-w.audits:
			audits = append(audits, e)
			if len(audits) >= w.batchSize {
				w.writeAudits(audits)
				audits = audits[:0]
			}

		case r := <-w.feedbacks:
			feedbacks = append(feedbacks, r)
			if len(feedbacks) >= w.batchSize {
				w.writeFeedback(feedbacks)
				feedbacks = feedbacks[:0]
			}

		case <-ticker.C:
			// Periodic flush of incomplete batches
			if len(audits) > 0 {
				w.writeAudits(audits)
				audits = audits[:0]
			}
			if len(feedbacks) > 0 {
				w.writeFeedback(feedbacks)
				feedbacks = feedbacks[:0]
			}

		case <-w.ctx.Done():
			w.logger.Debug("recorder.worker: draining", "worker", workerID)
			w.drain(audits, feedbacks)
			return
		}
	}
}

// drain writes all remaining records during shutdown
func (w *Writer) drain(audits []models.AuditEntry, feedbacks []models.FeedbackRecord) {
	for {
		select {
		case e := <-w.audits:
			audits = append(audits, e)
			if len(audits) >= w.batchSize {
				w.writeAudits(audits)
				audits = audits[:0]
			}
		case r := <-w.feedbacks:
			feedbacks = append(feedbacks, r)
			if len(feedbacks) >= w.batchSize {
				w.writeFeedback(feedbacks)
				feedbacks = feedbacks[:0]
			}
		default:
			// Both channels empty
			w.writeAudits(audits)
			w.writeFeedback(feedbacks)
			return
		}
	}
}

func (w *Writer) writeAudits(batch []models.AuditEntry) {
	if len(batch) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.writeTimeout)
	defer cancel()

	if err := w.backend.InsertAuditEntries(ctx, batch); err != nil {
		w.writeFailed(kindAudit, len(batch), err)
		return
	}
	w.writeSucceeded(kindAudit, len(batch))
}

func (w *Writer) writeFeedback(batch []models.FeedbackRecord) {
	if len(batch) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.writeTimeout)
	defer cancel()

	if err := w.backend.InsertFeedbackRecords(ctx, batch); err != nil {
		w.writeFailed(kindFeedback, len(batch), err)
		return
	}
	w.writeSucceeded(kindFeedback, len(batch))
}

func (w *Writer) writeFailed(kind string, n int, err error) {
	w.stats.writeErrors.Add(1)
	w.stats.dropped.Add(int64(n))
	w.metrics.Dropped(kind, "write_error", n)
	w.logger.Error("recorder.write: batch insert failed", "kind", kind, "records", n, "error", err)
}

func (w *Writer) writeSucceeded(kind string, n int) {
	w.stats.written.Add(int64(n))
	w.stats.batchesWritten.Add(1)
	w.stats.lastFlushTime.Store(time.Now())
	w.metrics.Flushed(kind, n)
}

// Stop rejects new records, drains the buffers and waits for the workers
func (w *Writer) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	w.mu.Unlock()

	// Signal workers to stop
	w.cancel()

	// Wait for workers with timeout
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(config.GracefulShutdownTimeout):
		return fmt.Errorf("recorder shutdown timed out")
	}
}

// Stats is a point-in-time view of writer statistics
type Stats struct {
	Received       int64
	Written        int64
	BatchesWritten int64
	WriteErrors    int64
	Dropped        int64
	Buffered       int
	BufferCapacity int
	LastFlushTime  time.Time
}

// Pending returns the number of records waiting to be written
func (s Stats) Pending() int64 {
	return s.Received - s.Written - s.Dropped
}

// GetStats returns current statistics
func (w *Writer) GetStats() Stats {
	lastFlush, _ := w.stats.lastFlushTime.Load().(time.Time)
	return Stats{
		Received:       w.stats.received.Load(),
		Written:        w.stats.written.Load(),
		BatchesWritten: w.stats.batchesWritten.Load(),
		WriteErrors:    w.stats.writeErrors.Load(),
		Dropped:        w.stats.dropped.Load(),
		Buffered:       len(w.audits) + len(w.feedbacks),
		BufferCapacity: cap(w.audits) + cap(w.feedbacks),
		LastFlushTime:  lastFlush,
	}
}
