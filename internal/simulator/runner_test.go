package simulator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willfong/insurance-assistant/internal/config"
	"github.com/willfong/insurance-assistant/internal/conversation"
	"github.com/willfong/insurance-assistant/internal/data"
	"github.com/willfong/insurance-assistant/internal/models"
	"github.com/willfong/insurance-assistant/internal/session"
	"github.com/willfong/insurance-assistant/internal/utils"
)

func testRoster(t *testing.T) (*Roster, *data.ReferenceData) {
	t.Helper()
	ref, err := data.Load()
	require.NoError(t, err)
	roster, err := NewRoster(ref)
	require.NoError(t, err)
	return roster, ref
}

func TestNewRoster(t *testing.T) {
	roster, _ := testRoster(t)
	assert.Equal(t, 5, roster.Len())

	for _, c := range roster.callers {
		if c.CustomerID == "CUST001" {
			assert.Equal(t, "1234", c.PIN)
			assert.Equal(t, "PN100001", c.Policy)
			assert.Equal(t, []string{"CLM0001", "CLM0003"}, c.Claims)
		}
	}
}

func TestNewRoster_RejectsHashedPINs(t *testing.T) {
	ref := data.NewReferenceData(
		[]models.Customer{{ID: "CUST001", FirstName: "A", PIN: "$2a$10$abcdefghijklmnopqrstuv"}},
		[]models.Policy{{Number: "PN100001", CustomerID: "CUST001"}},
		nil, nil,
	)
	_, err := NewRoster(ref)
	assert.ErrorIs(t, err, ErrHashedPIN)
}

func TestNewRoster_Empty(t *testing.T) {
	_, err := NewRoster(data.NewReferenceData(nil, nil, nil, nil))
	assert.ErrorIs(t, err, ErrEmptyRoster)
}

func TestBuildScript(t *testing.T) {
	roster, _ := testRoster(t)
	rng := utils.NewRandom(42)
	caller := Caller{CustomerID: "CUST001", PIN: "1234", Policy: "PN100001", Claims: []string{"CLM0001"}}

	actions := func(steps []Step) []models.AuditAction {
		out := make([]models.AuditAction, len(steps))
		for i, s := range steps {
			out[i] = s.Expect
		}
		return out
	}

	t.Run("lookup", func(t *testing.T) {
		got := roster.BuildScript(ScriptLookup, caller, rng)
		assert.Equal(t, []models.AuditAction{
			models.AuditPINChallenge, models.AuditPINSuccess,
			models.AuditPolicyViewed, models.AuditClaimViewed, models.AuditSessionEnded,
		}, actions(got))
	})

	t.Run("lockout", func(t *testing.T) {
		got := roster.BuildScript(ScriptLockout, caller, rng)
		require.Len(t, got, 1+config.MaxPINAttempts)
		assert.Equal(t, models.AuditLockout, got[len(got)-1].Expect)
		for _, s := range got[1:] {
			assert.NotEqual(t, "1234", s.Utterance)
		}
	})

	t.Run("wrong pin", func(t *testing.T) {
		got := roster.BuildScript(ScriptWrongPIN, caller, rng)
		assert.Equal(t, models.AuditPINFailed, got[1].Expect)
		assert.Equal(t, models.AuditPINSuccess, got[2].Expect)
	})

	t.Run("feedback", func(t *testing.T) {
		got := roster.BuildScript(ScriptFeedback, caller, rng)
		assert.Equal(t, models.AuditFeedbackCompleted, got[len(got)-2].Expect)
		assert.Equal(t, models.AuditSessionEnded, got[len(got)-1].Expect)
	})
}

type recordingSink struct {
	mu        sync.Mutex
	audits    int
	feedbacks int
}

func (s *recordingSink) RecordAudit(context.Context, models.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audits++
	return nil
}

func (s *recordingSink) RecordFeedback(context.Context, models.FeedbackRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feedbacks++
	return nil
}

func TestRunner_ScriptsMatchAssistant(t *testing.T) {
	for _, policy := range []conversation.CompletionPolicy{conversation.EndSession, conversation.KeepSession} {
		t.Run(string(policy), func(t *testing.T) {
			roster, ref := testRoster(t)
			store := session.NewMemoryStore(0)
			sink := &recordingSink{}
			orch := conversation.New(store, ref, sink, sink, conversation.WithCompletionPolicy(policy))

			cfg := config.DefaultConfig().Simulate
			cfg.Seed = 7
			cfg.NumSessions = 4
			cfg.MinThinkTime = 0
			cfg.MaxThinkTime = 0
			cfg.FeedbackRate = 0.5
			cfg.LockoutRate = 0.2

			r := NewRunner(orch, roster, cfg, WithConversationLimit(200))
			snap := r.Run(context.Background())

			assert.Equal(t, int64(200), snap.Conversations)
			assert.Zero(t, snap.Mismatches, "samples: %+v", snap.Samples)
			assert.Equal(t, snap.Utterances, int64(sink.audits))
			assert.Equal(t, snap.Feedback, int64(sink.feedbacks))
			assert.Positive(t, snap.ByScript[ScriptLockout])
			assert.Positive(t, snap.ByScript[ScriptFeedback])

			// Every script ends the session
			assert.Zero(t, store.Len())
		})
	}
}

func TestRunner_StopsOnDuration(t *testing.T) {
	roster, ref := testRoster(t)
	orch := conversation.New(session.NewMemoryStore(0), ref, nil, nil)

	cfg := config.DefaultConfig().Simulate
	cfg.NumSessions = 2
	cfg.Duration = 100 * time.Millisecond
	cfg.MinThinkTime = time.Millisecond
	cfg.MaxThinkTime = 5 * time.Millisecond

	start := time.Now()
	snap := NewRunner(orch, roster, cfg).Run(context.Background())

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Positive(t, snap.Utterances)
}

func TestLatencyTracker(t *testing.T) {
	lt := NewLatencyTracker(3)
	for _, ms := range []int{10, 20, 30, 40} {
		lt.Record(time.Duration(ms) * time.Millisecond)
	}

	// Oldest sample (10ms) was overwritten
	assert.Equal(t, 20*time.Millisecond, lt.Percentile(0))
	assert.Equal(t, 40*time.Millisecond, lt.Percentile(100))
	assert.Equal(t, 25*time.Millisecond, lt.Average())
}
