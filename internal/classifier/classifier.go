package classifier

import (
	"regexp"
	"strings"
)

var terminationWords = map[string]struct{}{
	"bye":     {},
	"goodbye": {},
	"exit":    {},
	"quit":    {},
	"end":     {},
}

var cancelWords = map[string]struct{}{
	"cancel": {},
	"exit":   {},
	"quit":   {},
}

// Entity patterns in probe order: customer, policy, claim
var entityPatterns = []struct {
	kind    EntityKind
	pattern *regexp.Regexp
}{
	{EntityCustomer, regexp.MustCompile(`(?i)\bCUST\d{3}\b`)},
	{EntityPolicy, regexp.MustCompile(`(?i)\bPN\d{6}\b`)},
	{EntityClaim, regexp.MustCompile(`(?i)\bCLM\d{4}\b`)},
}

var feedbackPattern = regexp.MustCompile(
	`(?i)\b(feedback|rate|rating|review|complaint|complain|suggestion|survey|thank\s+you|thanks)\b`,
)

// Classify returns the signal for an utterance. Rules are evaluated in order
// and the first match wins: termination, entity reference, feedback trigger.
func Classify(text string) Signal {
	if IsTermination(text) {
		return Terminate{}
	}

	if ref, ok := FindEntity(text); ok {
		return ref
	}

	rating, hasRating := ExtractRating(text)
	if hasRating || feedbackPattern.MatchString(text) {
		return FeedbackTrigger{Rating: rating, HasRating: hasRating}
	}

	return Unrecognized{}
}

// IsTermination reports whether the whole utterance is an end-session command
func IsTermination(text string) bool {
	_, ok := terminationWords[normalize(text)]
	return ok
}

// IsCancel reports whether the whole utterance cancels a feedback flow
func IsCancel(text string) bool {
	_, ok := cancelWords[normalize(text)]
	return ok
}

// IsSkip reports whether the caller declined to leave comments
func IsSkip(text string) bool {
	return normalize(text) == "skip"
}

// FindEntity extracts the highest priority identifier from the text
func FindEntity(text string) (EntityRef, bool) {
	for _, ep := range entityPatterns {
		if m := ep.pattern.FindString(text); m != "" {
			return EntityRef{Kind: ep.kind, ID: strings.ToUpper(m)}, true
		}
	}
	return EntityRef{}, false
}

func normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
