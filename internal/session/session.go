// Package session holds per-caller conversation state and the stores that
// keep it between utterances.
package session

import "time"

// FeedbackStep is the position inside a feedback flow
type FeedbackStep string

const (
	StepAwaitingRating   FeedbackStep = "rating"
	StepAwaitingComments FeedbackStep = "comments"
)

// FeedbackState is the partial feedback collected so far
type FeedbackState struct {
	Step      FeedbackStep `json:"step"`
	Rating    int          `json:"rating,omitempty"` // 0 until a rating is given
	StartedAt time.Time    `json:"started_at"`
}

// Session is the conversation state for one session key.
// Empty identifier fields mean "none".
type Session struct {
	Key string `json:"key"`

	// Authentication
	AuthenticatedCustomerID string `json:"authenticated_customer_id,omitempty"`
	PendingCustomerID       string `json:"pending_customer_id,omitempty"`
	PINAttempts             int    `json:"pin_attempts"`

	// Feedback flow in progress, nil when idle
	Feedback *FeedbackState `json:"feedback,omitempty"`

	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// New creates an empty session for the key
func New(key string, now time.Time) *Session {
	return &Session{
		Key:          key,
		CreatedAt:    now,
		LastActivity: now,
	}
}

// IsAuthenticated returns true once a PIN has been verified
func (s *Session) IsAuthenticated() bool {
	return s.AuthenticatedCustomerID != ""
}

// IsPinPending returns true while a PIN challenge is outstanding
func (s *Session) IsPinPending() bool {
	return s.PendingCustomerID != ""
}

// InFeedback returns true while a feedback flow is active
func (s *Session) InFeedback() bool {
	return s.Feedback != nil
}

// Reset clears all conversation state, keeping only the key
func (s *Session) Reset() {
	s.AuthenticatedCustomerID = ""
	s.PendingCustomerID = ""
	s.PINAttempts = 0
	s.Feedback = nil
}

// Clone returns a deep copy
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.Feedback != nil {
		fb := *s.Feedback
		c.Feedback = &fb
	}
	return &c
}

// IdleSince returns how long the session has been inactive at now
func (s *Session) IdleSince(now time.Time) time.Duration {
	return now.Sub(s.LastActivity)
}
