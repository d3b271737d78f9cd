package models

import (
	"time"
)

// AuditAction represents what the assistant did with an utterance
type AuditAction string

const (
	// Authentication actions
	AuditPINChallenge AuditAction = "pin_challenge"
	AuditPINSuccess   AuditAction = "pin_success"
	AuditPINFailed    AuditAction = "pin_failed"
	AuditLockout      AuditAction = "lockout"
	AuditAccessDenied AuditAction = "access_denied"

	// Lookup actions
	AuditCustomerViewed AuditAction = "customer_viewed"
	AuditPolicyViewed   AuditAction = "policy_viewed"
	AuditClaimViewed    AuditAction = "claim_viewed"
	AuditNotFound       AuditAction = "not_found"

	// Feedback actions
	AuditFeedbackStarted   AuditAction = "feedback_started"
	AuditFeedbackRating    AuditAction = "feedback_rating"
	AuditFeedbackReprompt  AuditAction = "feedback_reprompt"
	AuditFeedbackCompleted AuditAction = "feedback_completed"
	AuditFeedbackCancelled AuditAction = "feedback_cancelled"

	// Session actions
	AuditSessionEnded AuditAction = "session_ended"
	AuditFallback     AuditAction = "fallback"
	AuditUnavailable  AuditAction = "unavailable"
)

// AuditOutcome represents the result of the action
type AuditOutcome string

const (
	OutcomeSuccess  AuditOutcome = "success"
	OutcomeFailure  AuditOutcome = "failure"
	OutcomeDenied   AuditOutcome = "denied"
	OutcomeNotFound AuditOutcome = "not_found"
	OutcomeError    AuditOutcome = "error"
)

// AuditEntry is the record written for every inbound utterance
type AuditEntry struct {
	// Primary identifier (assigned by the store)
	ID int64 `db:"id" json:"id,omitempty"`

	// Timestamp - when the utterance was handled
	Timestamp time.Time `db:"timestamp" json:"timestamp"`

	// WHO - the caller session and, once verified, the customer
	SessionKey string `db:"session_key" json:"session_key"`
	CustomerID string `db:"customer_id" json:"customer_id,omitempty"`

	// WHAT - the exchange
	Utterance string `db:"utterance" json:"utterance"`
	Reply     string `db:"reply" json:"reply"`

	// Classification of the exchange
	Action  AuditAction  `db:"action" json:"action"`
	Outcome AuditOutcome `db:"outcome" json:"outcome"`
}

// IsSuccessful returns true if the action completed successfully
func (a *AuditEntry) IsSuccessful() bool {
	return a.Outcome == OutcomeSuccess
}

// IsAuthenticationEvent returns true if this is a PIN related event
func (a *AuditEntry) IsAuthenticationEvent() bool {
	switch a.Action {
	case AuditPINChallenge, AuditPINSuccess, AuditPINFailed, AuditLockout:
		return true
	default:
		return false
	}
}

// CarriesPIN returns true if the utterance was a PIN attempt
func (a *AuditEntry) CarriesPIN() bool {
	switch a.Action {
	case AuditPINSuccess, AuditPINFailed, AuditLockout:
		return true
	default:
		return false
	}
}
