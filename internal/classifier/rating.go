package classifier

import (
	"regexp"
	"strconv"
)

var numericRating = regexp.MustCompile(`(?i)\b([1-5])\s*(?:stars?|/\s*5|out\s+of\s+5)?\b`)

// Keyword fallbacks, highest rating first
var ratingKeywords = []struct {
	rating  int
	pattern *regexp.Regexp
}{
	{5, regexp.MustCompile(`(?i)\b(excellent|amazing|perfect)\b`)},
	{4, regexp.MustCompile(`(?i)\b(good|satisfied|happy)\b`)},
	{3, regexp.MustCompile(`(?i)\b(okay|fine|average|decent)\b`)},
	{2, regexp.MustCompile(`(?i)\b(poor|bad|unsatisfied)\b`)},
	{1, regexp.MustCompile(`(?i)\b(terrible|awful|worst)\b`)},
}

// ExtractRating finds a 1-5 rating in free text. A digit (optionally followed
// by "stars", "/5" or "out of 5") wins over sentiment keywords.
func ExtractRating(text string) (int, bool) {
	if m := numericRating.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			return n, true
		}
	}

	for _, rk := range ratingKeywords {
		if rk.pattern.MatchString(text) {
			return rk.rating, true
		}
	}

	return 0, false
}
