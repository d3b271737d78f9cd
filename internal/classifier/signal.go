// Package classifier maps free-text utterances to structured signals using
// fixed lexical patterns. Every function in this package is pure.
package classifier

// EntityKind identifies which kind of identifier an utterance referenced
type EntityKind int

const (
	EntityCustomer EntityKind = iota
	EntityPolicy
	EntityClaim
)

// String returns the human readable entity kind
func (k EntityKind) String() string {
	switch k {
	case EntityCustomer:
		return "customer"
	case EntityPolicy:
		return "policy"
	case EntityClaim:
		return "claim"
	default:
		return "unknown"
	}
}

// Signal is the classified intent of a single utterance.
// The concrete type is one of Terminate, EntityRef, FeedbackTrigger or Unrecognized.
type Signal interface {
	signal()
}

// Terminate asks for the session to be ended
type Terminate struct{}

// EntityRef references a customer, policy or claim by identifier
type EntityRef struct {
	Kind EntityKind
	ID   string // upper-cased
}

// FeedbackTrigger starts a feedback flow, optionally with a rating already given
type FeedbackTrigger struct {
	Rating    int
	HasRating bool
}

// Unrecognized means no rule matched
type Unrecognized struct{}

func (Terminate) signal()       {}
func (EntityRef) signal()       {}
func (FeedbackTrigger) signal() {}
func (Unrecognized) signal()    {}
