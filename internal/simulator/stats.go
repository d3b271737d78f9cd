package simulator

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const maxMismatchSamples = 20

// Stats aggregates outcomes across all simulated conversations
type Stats struct {
	utterances    atomic.Int64
	conversations atomic.Int64
	mismatches    atomic.Int64
	feedback      atomic.Int64

	mu          sync.Mutex
	byScript    map[ScriptType]int64
	byOutcome   map[string]int64
	samples     []Mismatch
	latency     *LatencyTracker
	recentTurns *RollingWindow

	startTime time.Time
}

// NewStats creates an empty stats collector
func NewStats() *Stats {
	return &Stats{
		byScript:    make(map[ScriptType]int64),
		byOutcome:   make(map[string]int64),
		latency:     NewLatencyTracker(10000),
		recentTurns: NewRollingWindow(10*time.Second, 100*time.Millisecond),
		startTime:   time.Now(),
	}
}

// RecordTurn records one handled utterance
func (s *Stats) RecordTurn(outcome string, latency time.Duration, feedback bool) {
	s.utterances.Add(1)
	if feedback {
		s.feedback.Add(1)
	}
	s.latency.Record(latency)
	s.recentTurns.Add(1)

	s.mu.Lock()
	s.byOutcome[outcome]++
	s.mu.Unlock()
}

// RecordConversation records a finished script
func (s *Stats) RecordConversation(kind ScriptType) {
	s.conversations.Add(1)

	s.mu.Lock()
	s.byScript[kind]++
	s.mu.Unlock()
}

// RecordMismatch records a reply that did not match the script
func (s *Stats) RecordMismatch(m Mismatch) {
	s.mismatches.Add(1)

	s.mu.Lock()
	if len(s.samples) < maxMismatchSamples {
		s.samples = append(s.samples, m)
	}
	s.mu.Unlock()
}

// Snapshot is a point-in-time copy of the stats
type Snapshot struct {
	Utterances    int64
	Conversations int64
	Mismatches    int64
	Feedback      int64
	ByScript      map[ScriptType]int64
	ByOutcome     map[string]int64
	Samples       []Mismatch

	Elapsed     time.Duration
	TurnsPerSec float64 // over the whole run
	RecentTPS   float64 // over the last 10 seconds
	AvgLatency  time.Duration
	P50Latency  time.Duration
	P99Latency  time.Duration
}

// Snapshot returns current statistics
func (s *Stats) Snapshot() Snapshot {
	elapsed := time.Since(s.startTime)

	s.mu.Lock()
	byScript := make(map[ScriptType]int64, len(s.byScript))
	for k, v := range s.byScript {
		byScript[k] = v
	}
	byOutcome := make(map[string]int64, len(s.byOutcome))
	for k, v := range s.byOutcome {
		byOutcome[k] = v
	}
	samples := append([]Mismatch(nil), s.samples...)
	s.mu.Unlock()

	utterances := s.utterances.Load()
	snap := Snapshot{
		Utterances:    utterances,
		Conversations: s.conversations.Load(),
		Mismatches:    s.mismatches.Load(),
		Feedback:      s.feedback.Load(),
		ByScript:      byScript,
		ByOutcome:     byOutcome,
		Samples:       samples,
		Elapsed:       elapsed,
		RecentTPS:     s.recentTurns.Rate(),
		AvgLatency:    s.latency.Average(),
		P50Latency:    s.latency.Percentile(50),
		P99Latency:    s.latency.Percentile(99),
	}
	if secs := elapsed.Seconds(); secs > 0 {
		snap.TurnsPerSec = float64(utterances) / secs
	}
	return snap
}

// LatencyTracker keeps the most recent latency samples for percentiles
type LatencyTracker struct {
	mu      sync.Mutex
	samples []time.Duration
	next    int
	maxSize int
	totalNs int64
	count   int64
}

// NewLatencyTracker creates a tracker holding up to maxSize samples
func NewLatencyTracker(maxSize int) *LatencyTracker {
	return &LatencyTracker{
		samples: make([]time.Duration, 0, maxSize),
		maxSize: maxSize,
	}
}

// Record adds a latency sample, overwriting the oldest when full
func (lt *LatencyTracker) Record(latency time.Duration) {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	lt.totalNs += latency.Nanoseconds()
	lt.count++

	if len(lt.samples) < lt.maxSize {
		lt.samples = append(lt.samples, latency)
		return
	}
	lt.samples[lt.next] = latency
	lt.next = (lt.next + 1) % lt.maxSize
}

// Percentile returns the p-th percentile latency
func (lt *LatencyTracker) Percentile(p float64) time.Duration {
	lt.mu.Lock()
	sorted := append([]time.Duration(nil), lt.samples...)
	lt.mu.Unlock()

	if len(sorted) == 0 {
		return 0
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := int(float64(len(sorted)-1) * p / 100.0)
	return sorted[idx]
}

// Average returns the mean latency over every sample ever recorded
func (lt *LatencyTracker) Average() time.Duration {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	if lt.count == 0 {
		return 0
	}
	return time.Duration(lt.totalNs / lt.count)
}

// RollingWindow counts events within a sliding time window
type RollingWindow struct {
	mu       sync.Mutex
	buckets  []windowBucket
	duration time.Duration
	bucketMs int64
}

type windowBucket struct {
	timestamp int64 // Unix milliseconds
	count     int64
}

// NewRollingWindow creates a window of the given span and bucket size
func NewRollingWindow(duration, bucketSize time.Duration) *RollingWindow {
	return &RollingWindow{
		buckets:  make([]windowBucket, 0, int(duration/bucketSize)),
		duration: duration,
		bucketMs: bucketSize.Milliseconds(),
	}
}

// Add increments the count in the current bucket
func (rw *RollingWindow) Add(n int64) {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	now := time.Now().UnixMilli()
	rw.prune(now)

	bucketTime := (now / rw.bucketMs) * rw.bucketMs
	if last := len(rw.buckets) - 1; last >= 0 && rw.buckets[last].timestamp == bucketTime {
		rw.buckets[last].count += n
		return
	}
	rw.buckets = append(rw.buckets, windowBucket{timestamp: bucketTime, count: n})
}

// Rate returns events per second over the window
func (rw *RollingWindow) Rate() float64 {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	rw.prune(time.Now().UnixMilli())

	var total int64
	for _, b := range rw.buckets {
		total += b.count
	}
	return float64(total) / rw.duration.Seconds()
}

func (rw *RollingWindow) prune(now int64) {
	cutoff := now - rw.duration.Milliseconds()
	kept := rw.buckets[:0]
	for _, b := range rw.buckets {
		if b.timestamp >= cutoff {
			kept = append(kept, b)
		}
	}
	rw.buckets = kept
}
