package models

import (
	"strings"
	"time"
)

// Sentiment is the tone derived from feedback comments
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// FeedbackCategory tags what a piece of feedback is about
type FeedbackCategory string

const (
	CategoryResponseTime       FeedbackCategory = "response-time"
	CategoryServiceQuality     FeedbackCategory = "service-quality"
	CategoryUserExperience     FeedbackCategory = "user-experience"
	CategoryInformationClarity FeedbackCategory = "information-clarity"
	CategoryProcessEfficiency  FeedbackCategory = "process-efficiency"
	CategoryStaffBehavior      FeedbackCategory = "staff-behavior"
	CategoryGeneral            FeedbackCategory = "general"
)

// NoCommentsPlaceholder is stored when the caller skips the comments step
const NoCommentsPlaceholder = "No additional comments provided"

// FeedbackRecord is emitted once per completed feedback flow.
// It is never mutated after creation.
type FeedbackRecord struct {
	ID         string             `db:"id" json:"id"`
	SessionKey string             `db:"session_key" json:"session_key"`
	CustomerID string             `db:"customer_id" json:"customer_id,omitempty"`
	Rating     int                `db:"rating" json:"rating"` // 1-5
	Comments   string             `db:"comments" json:"comments"`
	Sentiment  Sentiment          `db:"sentiment" json:"sentiment"`
	Categories []FeedbackCategory `db:"categories" json:"categories"`
	CreatedAt  time.Time          `db:"created_at" json:"created_at"`
	Elapsed    time.Duration      `db:"elapsed_ms" json:"elapsed"`
}

// HasComments returns true if the caller left free-text comments
func (f *FeedbackRecord) HasComments() bool {
	return f.Comments != "" && f.Comments != NoCommentsPlaceholder
}

// CategoryList joins the categories for storage in a single column
func (f *FeedbackRecord) CategoryList() string {
	parts := make([]string, len(f.Categories))
	for i, c := range f.Categories {
		parts[i] = string(c)
	}
	return strings.Join(parts, ",")
}
