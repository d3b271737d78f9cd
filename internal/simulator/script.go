// Package simulator drives concurrent scripted conversations through the
// orchestrator to exercise it under load.
//
// FILE: script.go
// PURPOSE: Caller roster and conversation scripts. A script is an ordered list
// of utterances together with the audit action each one should produce.
//
// KEY TYPES:
// - Roster: Customers with the policies and claims they can look up
// - ScriptType: Kind of scripted conversation
// - Step: One utterance and its expected action
//
// RELATED FILES:
// - runner.go: Executes scripts on concurrent workers
// - stats.go: Aggregates outcomes and latencies
package simulator

import (
	"fmt"
	"sort"

	"github.com/willfong/insurance-assistant/internal/config"
	"github.com/willfong/insurance-assistant/internal/data"
	"github.com/willfong/insurance-assistant/internal/models"
	"github.com/willfong/insurance-assistant/internal/utils"
)

// ScriptType identifies a kind of scripted conversation
type ScriptType string

const (
	ScriptLookup   ScriptType = "lookup"    // log in, view policy and claim, leave
	ScriptWrongPIN ScriptType = "wrong_pin" // one mistyped PIN before success
	ScriptLockout  ScriptType = "lockout"   // every attempt wrong
	ScriptFeedback ScriptType = "feedback"  // log in and leave a rating
	ScriptIntruder ScriptType = "intruder"  // look up another customer's policy
)

// AllScripts lists every script type in report order
var AllScripts = []ScriptType{ScriptLookup, ScriptWrongPIN, ScriptLockout, ScriptFeedback, ScriptIntruder}

// Step is one caller utterance and the action the assistant should record
type Step struct {
	Utterance string
	Expect    models.AuditAction
}

// Caller is a customer the simulator can impersonate
type Caller struct {
	CustomerID string
	PIN        string
	Policy     string
	Claims     []string
}

// Roster holds every caller with a policy
type Roster struct {
	callers []Caller
}

// NewRoster builds callers from reference data. Customers without a policy
// are skipped. PINs must be stored in plain form.
func NewRoster(ref *data.ReferenceData) (*Roster, error) {
	claimsByPolicy := make(map[string][]string)
	for _, c := range ref.Claims() {
		claimsByPolicy[c.PolicyNumber] = append(claimsByPolicy[c.PolicyNumber], c.ID)
	}

	var callers []Caller
	for _, c := range ref.Customers() {
		p, ok := ref.PolicyByCustomer(c.ID)
		if !ok {
			continue
		}
		if len(c.PIN) != config.PINLength {
			return nil, fmt.Errorf("customer %s: %w", c.ID, ErrHashedPIN)
		}
		claims := claimsByPolicy[p.Number]
		sort.Strings(claims)
		callers = append(callers, Caller{
			CustomerID: c.ID,
			PIN:        c.PIN,
			Policy:     p.Number,
			Claims:     claims,
		})
	}

	if len(callers) == 0 {
		return nil, ErrEmptyRoster
	}
	return &Roster{callers: callers}, nil
}

// Len returns the number of callers
func (r *Roster) Len() int {
	return len(r.callers)
}

// Pick returns a random caller
func (r *Roster) Pick(rng *utils.Random) Caller {
	return r.callers[rng.IntN(len(r.callers))]
}

// other returns a caller different from c, if the roster has one
func (r *Roster) other(c Caller, rng *utils.Random) (Caller, bool) {
	if len(r.callers) < 2 {
		return Caller{}, false
	}
	for {
		o := r.Pick(rng)
		if o.CustomerID != c.CustomerID {
			return o, true
		}
	}
}

// ScriptMix holds the probabilities used to choose a script
type ScriptMix struct {
	WrongPINRate float64
	LockoutRate  float64
	FeedbackRate float64
}

// MixFromConfig extracts the script mix from simulate settings
func MixFromConfig(cfg config.SimulateConfig) ScriptMix {
	return ScriptMix{
		WrongPINRate: cfg.WrongPINRate,
		LockoutRate:  cfg.LockoutRate,
		FeedbackRate: cfg.FeedbackRate,
	}
}

// Choose picks a script type. Lockout is rolled first since it replaces the
// whole conversation.
func (m ScriptMix) Choose(rng *utils.Random) ScriptType {
	switch {
	case rng.Probability(m.LockoutRate):
		return ScriptLockout
	case rng.Probability(m.FeedbackRate):
		return ScriptFeedback
	case rng.Probability(m.WrongPINRate):
		return ScriptWrongPIN
	case rng.Probability(0.1):
		return ScriptIntruder
	default:
		return ScriptLookup
	}
}

var feedbackComments = []string{
	"Very quick and helpful, thank you",
	"The process was slow and confusing",
	"Polite staff, clear information",
	"skip",
	"Too much paperwork for a simple claim",
	"Excellent service",
}

// BuildScript produces the utterances for one conversation
func (r *Roster) BuildScript(kind ScriptType, c Caller, rng *utils.Random) []Step {
	steps := []Step{{c.CustomerID, models.AuditPINChallenge}}

	switch kind {
	case ScriptLockout:
		for i := 1; i < config.MaxPINAttempts; i++ {
			steps = append(steps, Step{wrongPIN(c.PIN, rng), models.AuditPINFailed})
		}
		// Lockout resets the session, so there is nothing further to say
		return append(steps, Step{wrongPIN(c.PIN, rng), models.AuditLockout})

	case ScriptWrongPIN:
		steps = append(steps, Step{wrongPIN(c.PIN, rng), models.AuditPINFailed})
	}

	steps = append(steps, Step{c.PIN, models.AuditPINSuccess})

	switch kind {
	case ScriptFeedback:
		if rng.Probability(0.5) {
			steps = append(steps,
				Step{"I'd like to give feedback", models.AuditFeedbackStarted},
				Step{fmt.Sprintf("%d", rng.IntRange(1, 5)), models.AuditFeedbackRating},
			)
		} else {
			steps = append(steps, Step{fmt.Sprintf("I rate you %d stars", rng.IntRange(1, 5)), models.AuditFeedbackRating})
		}
		steps = append(steps, Step{rng.PickString(feedbackComments), models.AuditFeedbackCompleted})

	case ScriptIntruder:
		if o, ok := r.other(c, rng); ok {
			steps = append(steps, Step{"Show me policy " + o.Policy, models.AuditAccessDenied})
		}
		steps = append(steps, Step{c.Policy, models.AuditPolicyViewed})

	default:
		steps = append(steps, Step{"What is the status of " + c.Policy + "?", models.AuditPolicyViewed})
		if len(c.Claims) > 0 {
			claim := c.Claims[rng.IntN(len(c.Claims))]
			steps = append(steps, Step{"Check claim " + claim, models.AuditClaimViewed})
		}
	}

	return append(steps, Step{"bye", models.AuditSessionEnded})
}

// wrongPIN returns a PIN that differs from the real one
func wrongPIN(pin string, rng *utils.Random) string {
	for {
		guess := rng.NumericString(len(pin))
		if guess != pin {
			return guess
		}
	}
}
