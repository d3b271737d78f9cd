// Package conversation implements the per-session dialogue state machine of
// the insurance assistant.
//
// An utterance enters through Orchestrator.Handle with the caller's session
// key. The orchestrator loads the session, hands the utterance to the active
// sub-machine (feedback, then PIN challenge) or classifies it afresh, saves
// the resulting state and emits exactly one audit entry. Completed feedback
// flows additionally emit one feedback record.
//
// Utterances for the same session key are processed one at a time.
// Different keys run in parallel.
package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/willfong/insurance-assistant/internal/classifier"
	"github.com/willfong/insurance-assistant/internal/config"
	"github.com/willfong/insurance-assistant/internal/credential"
	"github.com/willfong/insurance-assistant/internal/metrics"
	"github.com/willfong/insurance-assistant/internal/models"
	"github.com/willfong/insurance-assistant/internal/session"
)

// Directory is the read-only reference data the assistant answers from
type Directory interface {
	Customer(id string) (*models.Customer, bool)
	PolicyByCustomer(customerID string) (*models.Policy, bool)
	Policy(number string) (*models.Policy, bool)
	Claim(id string) (*models.Claim, bool)
	NextDue(policyNumber string) (*models.Payment, bool)
}

// AuditSink accepts one entry per handled utterance
type AuditSink interface {
	RecordAudit(ctx context.Context, entry models.AuditEntry) error
}

// FeedbackSink accepts one record per completed feedback flow
type FeedbackSink interface {
	RecordFeedback(ctx context.Context, rec models.FeedbackRecord) error
}

// CompletionPolicy decides what finishing a feedback flow does to the session
type CompletionPolicy string

const (
	// EndSession clears the whole session, including authentication
	EndSession CompletionPolicy = config.FeedbackCompletionEndSession

	// KeepSession clears only the feedback sub-state
	KeepSession CompletionPolicy = config.FeedbackCompletionKeepSession
)

// ParseCompletionPolicy validates a configured policy name
func ParseCompletionPolicy(s string) (CompletionPolicy, error) {
	switch CompletionPolicy(s) {
	case EndSession, KeepSession:
		return CompletionPolicy(s), nil
	case "":
		return EndSession, nil
	default:
		return "", fmt.Errorf("unknown feedback completion policy %q", s)
	}
}

// Result is what Handle produces for one utterance
type Result struct {
	Reply    string
	Audit    models.AuditEntry
	Feedback *models.FeedbackRecord // set only when a feedback flow completed
}

// turn is the outcome of a single dispatch step
type turn struct {
	reply      string
	action     models.AuditAction
	outcome    models.AuditOutcome
	customerID string // overrides the session identity on the audit entry

	feedback  *models.FeedbackRecord
	completed bool // feedback flow finished
	end       bool // session must be deleted
}

// Orchestrator routes utterances to the authentication and feedback
// sub-machines and owns session persistence
type Orchestrator struct {
	store        session.Store
	dir          Directory
	auditSink    AuditSink
	feedbackSink FeedbackSink

	verifier credential.Verifier
	policy   CompletionPolicy
	now      func() time.Time
	newID    func() string
	metrics  *metrics.Metrics
	logger   *slog.Logger

	locks *session.KeyedMutex
	auth  *authenticator
	fb    *feedbackMachine
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithVerifier sets how PINs are checked (default: plain comparison)
func WithVerifier(v credential.Verifier) Option {
	return func(o *Orchestrator) {
		o.verifier = v
	}
}

// WithCompletionPolicy sets what completing feedback does (default: EndSession)
func WithCompletionPolicy(p CompletionPolicy) Option {
	return func(o *Orchestrator) {
		o.policy = p
	}
}

// WithClock sets the time source
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// WithIDGenerator sets how feedback record ids are made (default: UUIDv4)
func WithIDGenerator(gen func() string) Option {
	return func(o *Orchestrator) {
		o.newID = gen
	}
}

// WithMetrics enables Prometheus instrumentation
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithLogger sets the structured logger (default: slog.Default())
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// New creates an Orchestrator. Either sink may be nil to discard records.
func New(store session.Store, dir Directory, audit AuditSink, feedback FeedbackSink, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:        store,
		dir:          dir,
		auditSink:    audit,
		feedbackSink: feedback,
		verifier:     credential.PlainVerifier{},
		policy:       EndSession,
		now:          time.Now,
		newID:        uuid.NewString,
		logger:       slog.Default(),
		locks:        session.NewKeyedMutex(),
	}
	for _, opt := range opts {
		opt(o)
	}

	o.auth = &authenticator{dir: o.dir, verifier: o.verifier, metrics: o.metrics}
	o.fb = &feedbackMachine{newID: o.newID}
	return o
}

// Handle processes one utterance for a session and returns the reply.
// It never fails: store and sink problems are logged and turned into replies.
func (o *Orchestrator) Handle(ctx context.Context, sessionKey, utterance string) Result {
	started := time.Now()

	unlock := o.locks.Lock(sessionKey)
	defer unlock()

	now := o.now()
	t, identity := o.dispatch(ctx, sessionKey, utterance, now)

	if t.customerID != "" {
		identity = t.customerID
	}
	entry := models.AuditEntry{
		Timestamp:  now,
		SessionKey: sessionKey,
		CustomerID: identity,
		Utterance:  utterance,
		Reply:      t.reply,
		Action:     t.action,
		Outcome:    t.outcome,
	}

	// Records are queued before the reply is released
	o.recordAudit(ctx, entry)
	if t.feedback != nil {
		o.recordFeedback(ctx, *t.feedback)
	}

	o.metrics.ObserveUtterance(string(t.action), string(t.outcome), time.Since(started).Seconds())

	return Result{
		Reply:    t.reply,
		Audit:    entry,
		Feedback: t.feedback,
	}
}

// dispatch runs the state machine and persists the session. It returns the
// turn and the customer identity the session held while handling it.
func (o *Orchestrator) dispatch(ctx context.Context, key, utterance string, now time.Time) (turn, string) {
	if classifier.IsTermination(utterance) {
		if err := o.store.Delete(ctx, key); err != nil {
			return o.unavailable("delete", key, err), ""
		}
		return turn{
			reply:   ReplyFarewell,
			action:  models.AuditSessionEnded,
			outcome: models.OutcomeSuccess,
		}, ""
	}

	s, err := o.store.Get(ctx, key)
	if err != nil {
		return o.unavailable("get", key, err), ""
	}
	if s == nil {
		s = session.New(key, now)
	}

	var t turn
	switch {
	case s.InFeedback():
		t = o.fb.handle(s, utterance, now)
		if t.completed {
			if o.policy == KeepSession {
				s.Feedback = nil
			} else {
				t.end = true
			}
			o.metrics.FeedbackCompleted(strconv.Itoa(t.feedback.Rating), string(t.feedback.Sentiment))
		}

	case s.IsPinPending():
		t = o.auth.submitPIN(s, utterance)

	default:
		t = o.route(s, classifier.Classify(utterance), now)
	}

	identity := s.AuthenticatedCustomerID
	if identity == "" {
		identity = s.PendingCustomerID
	}

	if t.end {
		if err := o.store.Delete(ctx, key); err != nil {
			return o.unavailable("delete", key, err), identity
		}
		return t, identity
	}

	s.LastActivity = now
	if err := o.store.Put(ctx, s); err != nil {
		return o.unavailable("put", key, err), identity
	}
	return t, identity
}

// route handles a freshly classified utterance on an idle session
func (o *Orchestrator) route(s *session.Session, sig classifier.Signal, now time.Time) turn {
	switch sig := sig.(type) {
	case classifier.EntityRef:
		switch sig.Kind {
		case classifier.EntityCustomer:
			return o.auth.customerRef(s, sig.ID)
		case classifier.EntityPolicy:
			return o.auth.lookupPolicy(s, sig.ID)
		case classifier.EntityClaim:
			return o.auth.lookupClaim(s, sig.ID)
		}

	case classifier.FeedbackTrigger:
		return o.fb.start(s, sig.Rating, sig.HasRating, now)

	case classifier.Terminate:
		s.Reset()
		return turn{
			reply:   ReplyFarewell,
			action:  models.AuditSessionEnded,
			outcome: models.OutcomeSuccess,
			end:     true,
		}

	case classifier.Unrecognized:
	}

	return turn{
		reply:   ReplyFallback,
		action:  models.AuditFallback,
		outcome: models.OutcomeSuccess,
	}
}

func (o *Orchestrator) unavailable(op, key string, err error) turn {
	o.logger.Error("conversation.store: session store failed",
		"op", op, "session", key, "error", err)
	o.metrics.StoreError(op)
	return turn{
		reply:   ReplyUnavailable,
		action:  models.AuditUnavailable,
		outcome: models.OutcomeError,
	}
}

func (o *Orchestrator) recordAudit(ctx context.Context, entry models.AuditEntry) {
	if o.auditSink == nil {
		return
	}
	if err := o.auditSink.RecordAudit(ctx, entry); err != nil {
		o.logger.Warn("conversation.audit: failed to record audit entry",
			"session", entry.SessionKey, "action", entry.Action, "error", err)
		o.metrics.SinkError("audit")
	}
}

func (o *Orchestrator) recordFeedback(ctx context.Context, rec models.FeedbackRecord) {
	if o.feedbackSink == nil {
		return
	}
	if err := o.feedbackSink.RecordFeedback(ctx, rec); err != nil {
		o.logger.Warn("conversation.feedback: failed to record feedback",
			"session", rec.SessionKey, "feedback_id", rec.ID, "rating", rec.Rating, "error", err)
		o.metrics.SinkError("feedback")
	}
}
