package conversation

import (
	"strings"
	"time"

	"github.com/willfong/insurance-assistant/internal/classifier"
	"github.com/willfong/insurance-assistant/internal/models"
	"github.com/willfong/insurance-assistant/internal/session"
)

// feedbackMachine collects a rating and then optional comments
type feedbackMachine struct {
	newID func() string
}

// start enters the flow. A rating found in the triggering utterance skips
// straight to the comments step.
func (f *feedbackMachine) start(s *session.Session, rating int, hasRating bool, now time.Time) turn {
	if hasRating {
		s.Feedback = &session.FeedbackState{
			Step:      session.StepAwaitingComments,
			Rating:    rating,
			StartedAt: now,
		}
		return turn{
			reply:   ratingAckReply(rating),
			action:  models.AuditFeedbackRating,
			outcome: models.OutcomeSuccess,
		}
	}

	s.Feedback = &session.FeedbackState{
		Step:      session.StepAwaitingRating,
		StartedAt: now,
	}
	return turn{
		reply:   feedbackStartReply,
		action:  models.AuditFeedbackStarted,
		outcome: models.OutcomeSuccess,
	}
}

// handle advances an active flow by one utterance
func (f *feedbackMachine) handle(s *session.Session, text string, now time.Time) turn {
	if classifier.IsCancel(text) {
		s.Feedback = nil
		return turn{
			reply:   feedbackCancelReply,
			action:  models.AuditFeedbackCancelled,
			outcome: models.OutcomeSuccess,
		}
	}

	switch s.Feedback.Step {
	case session.StepAwaitingRating:
		rating, ok := classifier.ExtractRating(text)
		if !ok {
			return turn{
				reply:   ratingRepromptReply,
				action:  models.AuditFeedbackReprompt,
				outcome: models.OutcomeFailure,
			}
		}
		s.Feedback.Step = session.StepAwaitingComments
		s.Feedback.Rating = rating
		return turn{
			reply:   ratingAckReply(rating),
			action:  models.AuditFeedbackRating,
			outcome: models.OutcomeSuccess,
		}

	default:
		return f.complete(s, text, now)
	}
}

func (f *feedbackMachine) complete(s *session.Session, text string, now time.Time) turn {
	var comments string
	switch {
	case classifier.IsSkip(text):
		comments = models.NoCommentsPlaceholder
	case strings.TrimSpace(text) == "":
		return turn{
			reply:   commentsRepromptReply,
			action:  models.AuditFeedbackReprompt,
			outcome: models.OutcomeFailure,
		}
	default:
		comments = strings.TrimSpace(text)
	}

	rec := &models.FeedbackRecord{
		ID:         f.newID(),
		SessionKey: s.Key,
		CustomerID: s.AuthenticatedCustomerID,
		Rating:     s.Feedback.Rating,
		Comments:   comments,
		Sentiment:  analyzeSentiment(comments),
		Categories: categorize(comments),
		CreatedAt:  now,
		Elapsed:    now.Sub(s.Feedback.StartedAt),
	}
	s.Feedback = nil

	return turn{
		reply:     feedbackCompleteReply(rec),
		action:    models.AuditFeedbackCompleted,
		outcome:   models.OutcomeSuccess,
		feedback:  rec,
		completed: true,
	}
}
