package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/willfong/insurance-assistant/internal/models"
)

func TestAnalyzeSentiment(t *testing.T) {
	tests := []struct {
		comments string
		want     models.Sentiment
	}{
		{"Great service, very helpful", models.SentimentPositive},
		{"Terrible and slow", models.SentimentNegative},
		{"It was good but slow", models.SentimentNeutral},
		{"nothing to add", models.SentimentNeutral},
		{models.NoCommentsPlaceholder, models.SentimentNeutral},
		{"EXCELLENT", models.SentimentPositive},
		{"unhelpful", models.SentimentNegative},
		{"staff were unhelpful", models.SentimentNegative},
		{"I am unsatisfied", models.SentimentNegative},
		{"Dissatisfied with the claim process", models.SentimentNegative},
		{"not happy, the form was not clear", models.SentimentNegative},
		{"inefficient but friendly", models.SentimentNeutral},
		{"unclear", models.SentimentNegative},
		{"frustrating and disappointing", models.SentimentNegative},
	}

	for _, tt := range tests {
		t.Run(tt.comments, func(t *testing.T) {
			assert.Equal(t, tt.want, analyzeSentiment(tt.comments))
		})
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		comments string
		want     []models.FeedbackCategory
	}{
		{"you were so quick", []models.FeedbackCategory{models.CategoryResponseTime}},
		{"great customer service", []models.FeedbackCategory{models.CategoryServiceQuality}},
		{"the chat was confusing", []models.FeedbackCategory{models.CategoryUserExperience}},
		{"the information was unclear", []models.FeedbackCategory{models.CategoryInformationClarity}},
		{"too much paperwork", []models.FeedbackCategory{models.CategoryProcessEfficiency}},
		{"polite staff", []models.FeedbackCategory{models.CategoryStaffBehavior}},
		{"lovely", []models.FeedbackCategory{models.CategoryGeneral}},
		{"", []models.FeedbackCategory{models.CategoryGeneral}},
		{
			"Slow response but the staff explained every step",
			[]models.FeedbackCategory{
				models.CategoryResponseTime,
				models.CategoryInformationClarity,
				models.CategoryProcessEfficiency,
				models.CategoryStaffBehavior,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.comments, func(t *testing.T) {
			assert.Equal(t, tt.want, categorize(tt.comments))
		})
	}
}
