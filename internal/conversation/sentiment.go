package conversation

import (
	"regexp"
	"strings"

	"github.com/willfong/insurance-assistant/internal/models"
)

var positiveWords = []string{
	"good", "great", "excellent", "amazing", "helpful", "fast", "quick", "easy",
	"friendly", "satisfied", "happy", "love", "perfect", "clear", "smooth",
	"efficient", "professional", "thank",
}

var negativeWords = []string{
	"bad", "poor", "slow", "terrible", "awful", "worst", "difficult", "confusing",
	"rude", "frustrat", "disappoint", "hate", "delay", "complicated", "useless",
}

// Negated forms of positive words. Each counts as negative and is removed
// from the text before the positive roots are counted.
var negatedWords = []string{
	"unsatisfied", "dissatisf", "not satisfied", "unhappy", "not happy",
	"unhelpful", "not helpful", "unclear", "not clear", "not good", "not great",
	"not easy", "unfriendly", "not friendly", "unprofessional", "inefficient",
	"not fast", "not quick",
}

// Category patterns in reporting order
var categoryPatterns = []struct {
	category models.FeedbackCategory
	pattern  *regexp.Regexp
}{
	{models.CategoryResponseTime, regexp.MustCompile(`(?i)\b(slow|fast|quick\w*|wait\w*|delay\w*|time|response)\b`)},
	{models.CategoryServiceQuality, regexp.MustCompile(`(?i)\b(service|quality|help\w*|support|assist\w*)\b`)},
	{models.CategoryUserExperience, regexp.MustCompile(`(?i)\b(easy|difficult|confus\w*|navigat\w*|interface|experience|user[- ]friendly)\b`)},
	{models.CategoryInformationClarity, regexp.MustCompile(`(?i)\b(clear\w*|unclear|information|info|explain\w*|understand\w*|details?)\b`)},
	{models.CategoryProcessEfficiency, regexp.MustCompile(`(?i)\b(process\w*|steps?|efficien\w*|complicated|simple|paperwork|claims?)\b`)},
	{models.CategoryStaffBehavior, regexp.MustCompile(`(?i)\b(staff|agents?|rude|polite|friendly|professional\w*|attitude|manners?)\b`)},
}

// analyzeSentiment compares how many positive and negative words the
// comments contain. Matching is case-insensitive substring containment.
func analyzeSentiment(comments string) models.Sentiment {
	text := strings.ToLower(comments)

	negative := 0
	for _, w := range negatedWords {
		if strings.Contains(text, w) {
			negative++
			text = strings.ReplaceAll(text, w, " ")
		}
	}
	positive := countContained(text, positiveWords)
	negative += countContained(text, negativeWords)

	switch {
	case positive > negative:
		return models.SentimentPositive
	case negative > positive:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

func countContained(text string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(text, w) {
			n++
		}
	}
	return n
}

// categorize returns every category whose keywords appear in the comments,
// or general when none do
func categorize(comments string) []models.FeedbackCategory {
	var cats []models.FeedbackCategory
	for _, cp := range categoryPatterns {
		if cp.pattern.MatchString(comments) {
			cats = append(cats, cp.category)
		}
	}
	if len(cats) == 0 {
		return []models.FeedbackCategory{models.CategoryGeneral}
	}
	return cats
}
