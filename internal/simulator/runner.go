package simulator

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/willfong/insurance-assistant/internal/config"
	"github.com/willfong/insurance-assistant/internal/conversation"
	"github.com/willfong/insurance-assistant/internal/utils"
)

// Conversation handles one utterance for a session
type Conversation interface {
	Handle(ctx context.Context, sessionKey, utterance string) conversation.Result
}

// Runner coordinates concurrent scripted callers
type Runner struct {
	conv   Conversation
	roster *Roster
	cfg    config.SimulateConfig
	mix    ScriptMix
	rng    *utils.Random
	stats  *Stats
	logger *slog.Logger

	limit    int64 // max conversations across all workers, 0 = unlimited
	started  atomic.Int64
	onReport func(Snapshot)
}

// Option configures a Runner
type Option func(*Runner)

// WithConversationLimit stops the run after n conversations have started
func WithConversationLimit(n int) Option {
	return func(r *Runner) {
		r.limit = int64(n)
	}
}

// WithReporter is called every metrics interval with current statistics
func WithReporter(fn func(Snapshot)) Option {
	return func(r *Runner) {
		r.onReport = fn
	}
}

// WithLogger sets the structured logger
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// NewRunner creates a runner. A zero seed picks a random one.
func NewRunner(conv Conversation, roster *Roster, cfg config.SimulateConfig, opts ...Option) *Runner {
	r := &Runner{
		conv:   conv,
		roster: roster,
		cfg:    cfg,
		mix:    MixFromConfig(cfg),
		rng:    utils.NewRandom(cfg.Seed),
		stats:  NewStats(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Seed returns the seed in use, for reproducing a run
func (r *Runner) Seed() uint64 {
	return r.rng.Seed()
}

// Stats returns the live statistics
func (r *Runner) Stats() *Stats {
	return r.stats
}

// Run executes conversations until ctx is cancelled, the configured duration
// elapses or the conversation limit is reached
func (r *Runner) Run(ctx context.Context) Snapshot {
	if r.cfg.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Duration)
		defer cancel()
	}

	workers := max(r.cfg.NumSessions, 1)
	r.logger.Info("simulator.run: starting",
		"workers", workers, "callers", r.roster.Len(), "seed", r.rng.Seed())

	reportCtx, stopReport := context.WithCancel(ctx)
	defer stopReport()
	if r.onReport != nil && r.cfg.MetricsInterval > 0 {
		go r.report(reportCtx)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(rng *utils.Random) {
			defer wg.Done()
			r.worker(ctx, rng)
		}(r.rng.Fork())
	}
	wg.Wait()

	snap := r.stats.Snapshot()
	r.logger.Info("simulator.run: finished",
		"conversations", snap.Conversations, "utterances", snap.Utterances, "mismatches", snap.Mismatches)
	return snap
}

func (r *Runner) worker(ctx context.Context, rng *utils.Random) {
	for ctx.Err() == nil {
		if r.limit > 0 && r.started.Add(1) > r.limit {
			return
		}
		r.converse(ctx, rng)
	}
}

// converse runs one scripted conversation on a fresh session key
func (r *Runner) converse(ctx context.Context, rng *utils.Random) {
	kind := r.mix.Choose(rng)
	caller := r.roster.Pick(rng)
	steps := r.roster.BuildScript(kind, caller, rng)
	key := "sim-" + uuid.NewString()

	for i, step := range steps {
		if i > 0 && !r.think(ctx, rng) {
			// Interrupted mid-script: end the session so it does not linger
			r.conv.Handle(context.WithoutCancel(ctx), key, "bye")
			return
		}

		start := time.Now()
		res := r.conv.Handle(ctx, key, step.Utterance)
		r.stats.RecordTurn(string(res.Audit.Outcome), time.Since(start), res.Feedback != nil)

		if res.Audit.Action != step.Expect {
			r.stats.RecordMismatch(Mismatch{
				Script:    kind,
				Utterance: step.Utterance,
				Expected:  string(step.Expect),
				Actual:    string(res.Audit.Action),
			})
			r.logger.Debug("simulator.converse: unexpected action",
				"script", kind, "session", key, "expected", step.Expect, "actual", res.Audit.Action)
		}
	}

	r.stats.RecordConversation(kind)
}

// think pauses between utterances; false means the run was cancelled
func (r *Runner) think(ctx context.Context, rng *utils.Random) bool {
	d := rng.Duration(r.cfg.MinThinkTime, r.cfg.MaxThinkTime)
	if d <= 0 {
		return ctx.Err() == nil
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (r *Runner) report(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.MetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.onReport(r.stats.Snapshot())
		case <-ctx.Done():
			return
		}
	}
}
