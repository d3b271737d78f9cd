package recorder

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willfong/insurance-assistant/internal/metrics"
	"github.com/willfong/insurance-assistant/internal/models"
)

type fakeBackend struct {
	mu        sync.Mutex
	audits    []models.AuditEntry
	feedbacks []models.FeedbackRecord
	batches   int
	err       error
	block     chan struct{}
}

func (f *fakeBackend) InsertAuditEntries(_ context.Context, entries []models.AuditEntry) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.audits = append(f.audits, entries...)
	f.batches++
	return nil
}

func (f *fakeBackend) InsertFeedbackRecords(_ context.Context, records []models.FeedbackRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.feedbacks = append(f.feedbacks, records...)
	f.batches++
	return nil
}

func (f *fakeBackend) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.audits), len(f.feedbacks)
}

func audit(session string) models.AuditEntry {
	return models.AuditEntry{
		Timestamp:  time.Now(),
		SessionKey: session,
		Action:     models.AuditFallback,
		Outcome:    models.OutcomeSuccess,
	}
}

func TestWriter_DrainsOnStop(t *testing.T) {
	backend := &fakeBackend{}
	w := New(backend, Config{BufferSize: 100, BatchSize: 10, FlushInterval: time.Hour, Workers: 2})
	w.Start()

	for i := 0; i < 25; i++ {
		require.NoError(t, w.RecordAudit(context.Background(), audit("s1")))
	}
	require.NoError(t, w.RecordFeedback(context.Background(), models.FeedbackRecord{ID: "f1", Rating: 5}))

	require.NoError(t, w.Stop())

	audits, feedbacks := backend.counts()
	assert.Equal(t, 25, audits)
	assert.Equal(t, 1, feedbacks)

	stats := w.GetStats()
	assert.Equal(t, int64(26), stats.Received)
	assert.Equal(t, int64(26), stats.Written)
	assert.Equal(t, int64(0), stats.Pending())
}

func TestWriter_FlushesOnInterval(t *testing.T) {
	backend := &fakeBackend{}
	w := New(backend, Config{BufferSize: 10, BatchSize: 100, FlushInterval: 10 * time.Millisecond, Workers: 1})
	w.Start()
	defer w.Stop()

	require.NoError(t, w.RecordAudit(context.Background(), audit("s1")))

	assert.Eventually(t, func() bool {
		a, _ := backend.counts()
		return a == 1
	}, time.Second, 5*time.Millisecond)
	assert.False(t, w.GetStats().LastFlushTime.IsZero())
}

func TestWriter_BufferFull(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	// Not started: nothing consumes the buffer
	w := New(&fakeBackend{}, Config{BufferSize: 2, BatchSize: 1, Workers: 1}, WithMetrics(m))

	require.NoError(t, w.RecordAudit(context.Background(), audit("a")))
	require.NoError(t, w.RecordAudit(context.Background(), audit("b")))

	err := w.RecordAudit(context.Background(), audit("c"))
	assert.ErrorIs(t, err, ErrBufferFull)

	assert.Equal(t, int64(1), w.GetStats().Dropped)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RecorderDropped.WithLabelValues("audit", "buffer_full")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RecorderQueued.WithLabelValues("audit")))
}

func TestWriter_RejectsAfterStop(t *testing.T) {
	w := New(&fakeBackend{}, Config{})
	w.Start()
	require.NoError(t, w.Stop())

	assert.ErrorIs(t, w.RecordAudit(context.Background(), audit("x")), ErrStopped)
	assert.ErrorIs(t, w.RecordFeedback(context.Background(), models.FeedbackRecord{}), ErrStopped)

	// Stop is idempotent
	assert.NoError(t, w.Stop())
}

func TestWriter_BackendErrorCountsDropped(t *testing.T) {
	backend := &fakeBackend{err: errors.New("connection refused")}
	w := New(backend, Config{BufferSize: 10, BatchSize: 5, FlushInterval: time.Hour, Workers: 1})
	w.Start()

	for i := 0; i < 3; i++ {
		require.NoError(t, w.RecordAudit(context.Background(), audit("s")))
	}
	require.NoError(t, w.Stop())

	stats := w.GetStats()
	assert.Equal(t, int64(1), stats.WriteErrors)
	assert.Equal(t, int64(3), stats.Dropped)
	assert.Equal(t, int64(0), stats.Written)
}

func TestLogBackend(t *testing.T) {
	b := NewLogBackend(nil)
	assert.NoError(t, b.InsertAuditEntries(context.Background(), []models.AuditEntry{audit("s")}))
	assert.NoError(t, b.InsertFeedbackRecords(context.Background(), []models.FeedbackRecord{{ID: "f", Rating: 3}}))
}

func TestLogBackend_MasksPINAttempts(t *testing.T) {
	tests := []struct {
		action models.AuditAction
		masked bool
	}{
		{models.AuditPINSuccess, true},
		{models.AuditPINFailed, true},
		{models.AuditLockout, true},
		{models.AuditPINChallenge, false},
		{models.AuditFallback, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			var buf bytes.Buffer
			b := NewLogBackend(slog.New(slog.NewTextHandler(&buf, nil)))

			e := audit("s")
			e.Action = tt.action
			e.Utterance = "9876"
			require.NoError(t, b.InsertAuditEntries(context.Background(), []models.AuditEntry{e}))

			if tt.masked {
				assert.Contains(t, buf.String(), maskedUtterance)
				assert.NotContains(t, buf.String(), "9876")
			} else {
				assert.Contains(t, buf.String(), "utterance=9876")
			}
		})
	}
}
