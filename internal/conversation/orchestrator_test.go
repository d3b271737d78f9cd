package conversation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willfong/insurance-assistant/internal/credential"
	"github.com/willfong/insurance-assistant/internal/data"
	"github.com/willfong/insurance-assistant/internal/metrics"
	"github.com/willfong/insurance-assistant/internal/models"
	"github.com/willfong/insurance-assistant/internal/session"
)

// ============================================================================
// Test helpers
// ============================================================================

type captureSink struct {
	mu       sync.Mutex
	audits   []models.AuditEntry
	feedback []models.FeedbackRecord
	err      error
}

func (c *captureSink) RecordAudit(_ context.Context, e models.AuditEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.audits = append(c.audits, e)
	return nil
}

func (c *captureSink) RecordFeedback(_ context.Context, r models.FeedbackRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.feedback = append(c.feedback, r)
	return nil
}

func (c *captureSink) auditCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.audits)
}

type failingStore struct {
	session.Store
	failGet, failPut bool
}

func (f *failingStore) Get(ctx context.Context, key string) (*session.Session, error) {
	if f.failGet {
		return nil, errors.New("connection refused")
	}
	return f.Store.Get(ctx, key)
}

func (f *failingStore) Put(ctx context.Context, s *session.Session) error {
	if f.failPut {
		return errors.New("connection refused")
	}
	return f.Store.Put(ctx, s)
}

type fixture struct {
	orch  *Orchestrator
	store *session.MemoryStore
	sink  *captureSink
	clock *fakeClock
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	dir, err := data.Load()
	require.NoError(t, err)

	store := session.NewMemoryStore(time.Hour)
	sink := &captureSink{}
	clock := &fakeClock{now: time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC)}

	seq := 0
	base := []Option{
		WithClock(clock.Now),
		WithIDGenerator(func() string { seq++; return fmt.Sprintf("fb-%d", seq) }),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	orch := New(store, dir, sink, sink, append(base, opts...)...)
	return &fixture{orch: orch, store: store, sink: sink, clock: clock}
}

func (f *fixture) say(t *testing.T, key, text string) Result {
	t.Helper()
	return f.orch.Handle(context.Background(), key, text)
}

func (f *fixture) session(t *testing.T, key string) *session.Session {
	t.Helper()
	s, err := f.store.Get(context.Background(), key)
	require.NoError(t, err)
	return s
}

// ============================================================================
// Authentication
// ============================================================================

func TestLoginAndGatedLookups(t *testing.T) {
	f := newFixture(t)
	const key = "s1"

	r := f.say(t, key, "CUST001")
	assert.Contains(t, r.Reply, "CUST001")
	assert.Contains(t, r.Reply, "PIN")
	assert.Equal(t, models.AuditPINChallenge, r.Audit.Action)
	s := f.session(t, key)
	require.NotNil(t, s)
	assert.Equal(t, "CUST001", s.PendingCustomerID)
	assert.Zero(t, s.PINAttempts)

	r = f.say(t, key, "1234")
	assert.Contains(t, r.Reply, "PN100001")
	assert.Contains(t, r.Reply, "Active")
	assert.Contains(t, r.Reply, "Next premium due: KES 11,250.00 on 30 Oct 2025")
	assert.Equal(t, models.AuditPINSuccess, r.Audit.Action)
	assert.Equal(t, "CUST001", r.Audit.CustomerID)
	s = f.session(t, key)
	assert.Equal(t, "CUST001", s.AuthenticatedCustomerID)
	assert.Empty(t, s.PendingCustomerID)
	assert.Zero(t, s.PINAttempts)

	r = f.say(t, key, "PN100001")
	assert.Contains(t, r.Reply, "Policy: PN100001 (Comprehensive Motor Cover)")
	assert.Contains(t, r.Reply, "Premium: KES 45,000.00")
	assert.Equal(t, models.AuditPolicyViewed, r.Audit.Action)

	r = f.say(t, key, "PN100002")
	assert.Contains(t, r.Reply, "Access denied")
	assert.Contains(t, r.Reply, "CUST002")
	assert.Equal(t, models.OutcomeDenied, r.Audit.Outcome)

	r = f.say(t, key, "what about clm0003")
	assert.Contains(t, r.Reply, "Claim: CLM0003 on policy PN100001")
	assert.Contains(t, r.Reply, "Under Review")

	r = f.say(t, key, "CLM0002")
	assert.Contains(t, r.Reply, "Access denied")
	assert.Contains(t, r.Reply, "CUST002")

	assert.Equal(t, "CUST001", f.session(t, key).AuthenticatedCustomerID, "denials do not change state")
}

func TestSameAndDifferentCustomerWhileAuthenticated(t *testing.T) {
	f := newFixture(t)
	const key = "s2"

	f.say(t, key, "CUST001")
	f.say(t, key, "1234")

	r := f.say(t, key, "CUST001")
	assert.Contains(t, r.Reply, "Welcome back")
	assert.Contains(t, r.Reply, "PN100001")
	assert.Equal(t, models.AuditCustomerViewed, r.Audit.Action)

	r = f.say(t, key, "CUST002")
	assert.Contains(t, r.Reply, "bye")
	assert.Equal(t, models.AuditAccessDenied, r.Audit.Action)

	s := f.session(t, key)
	assert.Equal(t, "CUST001", s.AuthenticatedCustomerID)
	assert.Empty(t, s.PendingCustomerID, "no second identity is started")
}

func TestUnknownCustomerIsIdempotent(t *testing.T) {
	f := newFixture(t)
	const key = "s3"

	for i := 0; i < 3; i++ {
		r := f.say(t, key, "CUST999")
		assert.Contains(t, r.Reply, "No customer found with ID CUST999")
		assert.Equal(t, models.OutcomeNotFound, r.Audit.Outcome)

		s := f.session(t, key)
		require.NotNil(t, s)
		assert.False(t, s.IsPinPending())
		assert.False(t, s.IsAuthenticated())
		assert.Zero(t, s.PINAttempts)
	}

	r := f.say(t, key, "PN999999")
	assert.Contains(t, r.Reply, "No policy found")
	r = f.say(t, key, "CLM9999")
	assert.Contains(t, r.Reply, "No claim found")
}

func TestUnknownCustomerKeepsExistingLogin(t *testing.T) {
	f := newFixture(t)
	const key = "s3b"

	f.say(t, key, "CUST001")
	f.say(t, key, "1234")
	before := f.session(t, key)

	f.say(t, key, "CUST999")
	after := f.session(t, key)
	assert.Equal(t, before.AuthenticatedCustomerID, after.AuthenticatedCustomerID)
	assert.Equal(t, before.PendingCustomerID, after.PendingCustomerID)
}

func TestLockoutAfterThreeWrongPINs(t *testing.T) {
	f := newFixture(t)
	const key = "s4"

	f.say(t, key, "CUST002")

	r := f.say(t, key, "0000")
	assert.Contains(t, r.Reply, "Attempt 1/3")
	assert.Equal(t, 1, f.session(t, key).PINAttempts)

	r = f.say(t, key, "1111")
	assert.Contains(t, r.Reply, "Attempt 2/3")
	assert.Equal(t, 2, f.session(t, key).PINAttempts)

	r = f.say(t, key, "2222")
	assert.Contains(t, r.Reply, "locked")
	assert.Equal(t, models.AuditLockout, r.Audit.Action)
	assert.Equal(t, "CUST002", r.Audit.CustomerID)
	assert.Nil(t, f.session(t, key), "lockout destroys the session")

	// The correct PIN now is just an unrecognised utterance
	r = f.say(t, key, "5678")
	assert.Equal(t, ReplyFallback, r.Reply)
	s := f.session(t, key)
	assert.False(t, s.IsAuthenticated())
	assert.False(t, s.IsPinPending())
}

func TestAnyInputDuringChallengeIsAPINAttempt(t *testing.T) {
	f := newFixture(t)
	const key = "s5"

	f.say(t, key, "CUST001")
	r := f.say(t, key, "CUST002")
	assert.Contains(t, r.Reply, "Attempt 1/3")
	assert.Equal(t, "CUST001", f.session(t, key).PendingCustomerID)

	r = f.say(t, key, "1234")
	assert.Equal(t, models.AuditPINSuccess, r.Audit.Action)
}

func TestNewChallengeResetsAttempts(t *testing.T) {
	f := newFixture(t)
	const key = "s6"

	f.say(t, key, "CUST001")
	f.say(t, key, "9999")
	f.say(t, key, "1234")
	assert.Zero(t, f.session(t, key).PINAttempts, "successful login resets attempts")
}

func TestBcryptVerifier(t *testing.T) {
	hash, err := credential.HashPIN("4321")
	require.NoError(t, err)

	dir := data.NewReferenceData(
		[]models.Customer{{ID: "CUST100", FirstName: "Hashed", PIN: hash}},
		nil, nil, nil,
	)
	orch := New(session.NewMemoryStore(0), dir, nil, nil,
		WithVerifier(credential.BcryptVerifier{}),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	ctx := context.Background()
	orch.Handle(ctx, "k", "CUST100")
	r := orch.Handle(ctx, "k", "4321")
	assert.Contains(t, r.Reply, "PIN verified")
	assert.Contains(t, r.Reply, "No policy is currently on file")
}

// ============================================================================
// Termination
// ============================================================================

func TestByeClearsEverything(t *testing.T) {
	f := newFixture(t)
	const key = "s7"

	f.say(t, key, "CUST001")
	f.say(t, key, "1234")

	r := f.say(t, key, "bye")
	assert.Equal(t, ReplyFarewell, r.Reply)
	assert.Equal(t, models.AuditSessionEnded, r.Audit.Action)
	assert.Nil(t, f.session(t, key))

	r = f.say(t, key, "CUST001")
	assert.Equal(t, models.AuditPINChallenge, r.Audit.Action, "behaves as a brand new session")
	assert.Equal(t, "CUST001", f.session(t, key).PendingCustomerID)
}

func TestTerminationWinsInEveryState(t *testing.T) {
	for _, setup := range [][]string{
		{},
		{"CUST001"},
		{"feedback"},
		{"5 stars"},
	} {
		f := newFixture(t)
		for _, u := range setup {
			f.say(t, "k", u)
		}
		r := f.say(t, "k", "  EXIT ")
		assert.Equal(t, ReplyFarewell, r.Reply, "setup %v", setup)
		assert.Nil(t, f.session(t, "k"))
	}
}

// ============================================================================
// Feedback
// ============================================================================

func TestFeedbackWithPreExtractedRating(t *testing.T) {
	f := newFixture(t)
	const key = "s8"

	r := f.say(t, key, "5 stars, excellent service!")
	assert.Contains(t, r.Reply, "5/5")
	assert.Contains(t, r.Reply, "skip")

	s := f.session(t, key)
	require.NotNil(t, s.Feedback)
	assert.Equal(t, session.StepAwaitingComments, s.Feedback.Step)
	assert.Equal(t, 5, s.Feedback.Rating)
}

func TestFeedbackFullFlow(t *testing.T) {
	f := newFixture(t)
	const key = "s9"

	r := f.say(t, key, "I'd like to leave feedback")
	assert.Contains(t, r.Reply, "1 to 5")
	assert.Equal(t, session.StepAwaitingRating, f.session(t, key).Feedback.Step)

	r = f.say(t, key, "hmm not sure")
	assert.Contains(t, r.Reply, "1 to 5")
	assert.Equal(t, session.StepAwaitingRating, f.session(t, key).Feedback.Step)

	r = f.say(t, key, "2")
	assert.Contains(t, r.Reply, "2/5")

	f.clock.Advance(90 * time.Second)
	r = f.say(t, key, "  The claim process was slow and the agent was rude  ")
	require.NotNil(t, r.Feedback)
	assert.Contains(t, r.Reply, "manager")
	assert.Contains(t, r.Reply, "The claim process was slow and the agent was rude")

	rec := r.Feedback
	assert.Equal(t, "fb-1", rec.ID)
	assert.Equal(t, key, rec.SessionKey)
	assert.Equal(t, 2, rec.Rating)
	assert.Equal(t, "The claim process was slow and the agent was rude", rec.Comments)
	assert.Equal(t, models.SentimentNegative, rec.Sentiment)
	assert.Equal(t, []models.FeedbackCategory{
		models.CategoryResponseTime,
		models.CategoryProcessEfficiency,
		models.CategoryStaffBehavior,
	}, rec.Categories)
	assert.Equal(t, 90*time.Second, rec.Elapsed)

	require.Len(t, f.sink.feedback, 1)
	assert.Equal(t, *rec, f.sink.feedback[0])
	assert.Nil(t, f.session(t, key), "default policy ends the session")
}

func TestEveryRatingIsAcknowledged(t *testing.T) {
	for r := 1; r <= 5; r++ {
		f := newFixture(t)
		f.say(t, "k", "feedback")
		res := f.say(t, "k", fmt.Sprintf("%d", r))
		assert.Contains(t, res.Reply, fmt.Sprintf("%d/5", r))
		s := f.session(t, "k")
		assert.Equal(t, session.StepAwaitingComments, s.Feedback.Step)
		assert.Equal(t, r, s.Feedback.Rating)
	}
}

func TestFeedbackSkipUsesPlaceholder(t *testing.T) {
	f := newFixture(t)

	f.say(t, "k", "rate")
	f.say(t, "k", "4 out of 5")
	r := f.say(t, "k", "SKIP")

	require.NotNil(t, r.Feedback)
	assert.Equal(t, models.NoCommentsPlaceholder, r.Feedback.Comments)
	assert.Equal(t, models.SentimentNeutral, r.Feedback.Sentiment)
	assert.Equal(t, []models.FeedbackCategory{models.CategoryGeneral}, r.Feedback.Categories)
	assert.Contains(t, r.Reply, "wonderful")
	assert.NotContains(t, r.Reply, models.NoCommentsPlaceholder, "placeholder is not echoed")
}

func TestFeedbackCommentsEchoedVerbatim(t *testing.T) {
	f := newFixture(t)
	const comment = `The "claims" page said:` + "\nwait 2 days \\ then call"

	f.say(t, "k", "5 stars")
	r := f.say(t, "k", comment)

	require.NotNil(t, r.Feedback)
	assert.Equal(t, comment, r.Feedback.Comments)
	assert.True(t, strings.HasSuffix(r.Reply, "\nYour comments: "+comment), r.Reply)
}

func TestFeedbackBlankCommentReprompts(t *testing.T) {
	f := newFixture(t)

	f.say(t, "k", "3 stars")
	r := f.say(t, "k", "   ")
	assert.Nil(t, r.Feedback)
	assert.Equal(t, models.AuditFeedbackReprompt, r.Audit.Action)
	assert.Equal(t, session.StepAwaitingComments, f.session(t, "k").Feedback.Step)

	r = f.say(t, "k", "fine")
	require.NotNil(t, r.Feedback)
	assert.Contains(t, r.Reply, "always working to improve")
}

func TestFeedbackCancel(t *testing.T) {
	f := newFixture(t)

	f.say(t, "k", "feedback")
	r := f.say(t, "k", "Cancel")
	assert.Contains(t, r.Reply, "cancelled")
	assert.Equal(t, models.AuditFeedbackCancelled, r.Audit.Action)
	s := f.session(t, "k")
	require.NotNil(t, s)
	assert.Nil(t, s.Feedback)

	f.say(t, "k", "5")
	r = f.say(t, "k", "cancel")
	assert.Contains(t, r.Reply, "cancelled")
	assert.Nil(t, f.session(t, "k").Feedback)
	assert.Empty(t, f.sink.feedback)
}

func TestFeedbackOneRecordPerFlow(t *testing.T) {
	f := newFixture(t, WithCompletionPolicy(KeepSession))

	f.say(t, "k", "feedback")
	f.say(t, "k", "5")
	r := f.say(t, "k", "great")
	require.NotNil(t, r.Feedback)

	// The flow is over; another comment is a fresh utterance
	r = f.say(t, "k", "great")
	assert.Nil(t, r.Feedback)

	assert.Len(t, f.sink.feedback, 1)
}

func TestCompletionPolicies(t *testing.T) {
	t.Run("end_session", func(t *testing.T) {
		f := newFixture(t, WithCompletionPolicy(EndSession))
		f.say(t, "k", "CUST001")
		f.say(t, "k", "1234")
		f.say(t, "k", "feedback")
		f.say(t, "k", "4")
		r := f.say(t, "k", "quick and helpful")
		require.NotNil(t, r.Feedback)
		assert.Equal(t, "CUST001", r.Feedback.CustomerID)
		assert.Nil(t, f.session(t, "k"))
	})

	t.Run("keep_session", func(t *testing.T) {
		f := newFixture(t, WithCompletionPolicy(KeepSession))
		f.say(t, "k", "CUST001")
		f.say(t, "k", "1234")
		f.say(t, "k", "feedback")
		f.say(t, "k", "4")
		f.say(t, "k", "quick and helpful")
		s := f.session(t, "k")
		require.NotNil(t, s)
		assert.Nil(t, s.Feedback)
		assert.Equal(t, "CUST001", s.AuthenticatedCustomerID)
	})
}

func TestParseCompletionPolicy(t *testing.T) {
	p, err := ParseCompletionPolicy("keep_session")
	require.NoError(t, err)
	assert.Equal(t, KeepSession, p)

	p, err = ParseCompletionPolicy("")
	require.NoError(t, err)
	assert.Equal(t, EndSession, p)

	_, err = ParseCompletionPolicy("forever")
	assert.Error(t, err)
}

// ============================================================================
// Audit and failure handling
// ============================================================================

func TestOneAuditEntryPerUtterance(t *testing.T) {
	f := newFixture(t)

	script := []string{"hello", "CUST001", "0000", "1234", "PN100001", "feedback", "5", "skip", "bye"}
	for _, u := range script {
		f.say(t, "k", u)
	}

	require.Len(t, f.sink.audits, len(script))
	for i, e := range f.sink.audits {
		assert.Equal(t, script[i], e.Utterance)
		assert.Equal(t, "k", e.SessionKey)
		assert.NotEmpty(t, e.Reply)
		assert.False(t, e.Timestamp.IsZero())
	}
}

func TestSinkFailureStillReplies(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	f := newFixture(t, WithMetrics(m))
	f.sink.err = errors.New("disk full")

	f.say(t, "k", "feedback")
	f.say(t, "k", "5")
	r := f.say(t, "k", "excellent")

	assert.Contains(t, r.Reply, "wonderful")
	require.NotNil(t, r.Feedback, "the record is still produced")
	assert.Equal(t, 3.0, testutil.ToFloat64(m.SinkErrorsTotal.WithLabelValues("audit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SinkErrorsTotal.WithLabelValues("feedback")))
}

func TestStoreFailureRepliesUnavailable(t *testing.T) {
	dir, err := data.Load()
	require.NoError(t, err)
	sink := &captureSink{}
	quiet := WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	t.Run("get", func(t *testing.T) {
		store := &failingStore{Store: session.NewMemoryStore(0), failGet: true}
		orch := New(store, dir, sink, sink, quiet)
		r := orch.Handle(context.Background(), "k", "CUST001")
		assert.Equal(t, ReplyUnavailable, r.Reply)
		assert.Equal(t, models.OutcomeError, r.Audit.Outcome)
	})

	t.Run("put", func(t *testing.T) {
		store := &failingStore{Store: session.NewMemoryStore(0), failPut: true}
		orch := New(store, dir, sink, sink, quiet)
		r := orch.Handle(context.Background(), "k", "CUST001")
		assert.Equal(t, ReplyUnavailable, r.Reply)
		assert.Equal(t, models.AuditUnavailable, r.Audit.Action)
	})

	assert.Equal(t, 2, sink.auditCount(), "failed turns are still audited")
}

func TestFallbackReply(t *testing.T) {
	f := newFixture(t)
	r := f.say(t, "k", "what's the weather like?")
	assert.Equal(t, ReplyFallback, r.Reply)
	assert.Equal(t, models.AuditFallback, r.Audit.Action)
}

func TestLastActivityUpdated(t *testing.T) {
	f := newFixture(t)
	f.say(t, "k", "hello")
	first := f.session(t, "k").LastActivity

	f.clock.Advance(time.Minute)
	f.say(t, "k", "hello again")
	s := f.session(t, "k")
	assert.Equal(t, first.Add(time.Minute), s.LastActivity)
	assert.Equal(t, first, s.CreatedAt)
}

// ============================================================================
// Concurrency
// ============================================================================

func TestConcurrentPINAttemptsAreSerialized(t *testing.T) {
	f := newFixture(t)
	const key = "race"

	f.say(t, key, "CUST001")

	var wg sync.WaitGroup
	replies := make([]string, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			replies[i] = f.say(t, key, "0000").Reply
		}(i)
	}
	wg.Wait()

	var retries, lockouts int
	for _, r := range replies {
		switch {
		case strings.Contains(r, "locked"):
			lockouts++
		case strings.Contains(r, "Attempt"):
			retries++
		}
	}
	assert.Equal(t, 2, retries)
	assert.Equal(t, 1, lockouts)
	assert.Nil(t, f.session(t, key))
}

func TestIndependentSessionsInParallel(t *testing.T) {
	f := newFixture(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("p-%d", i)
			f.say(t, key, "CUST001")
			f.say(t, key, "1234")
		}(i)
	}
	wg.Wait()

	for i := 0; i < 20; i++ {
		s := f.session(t, fmt.Sprintf("p-%d", i))
		require.NotNil(t, s)
		assert.Equal(t, "CUST001", s.AuthenticatedCustomerID)
	}
	assert.Equal(t, 40, f.sink.auditCount())
}
