package conversation

import (
	"fmt"
	"strings"
	"time"

	"github.com/willfong/insurance-assistant/internal/config"
	"github.com/willfong/insurance-assistant/internal/models"
)

// Fixed replies
const (
	ReplyFarewell    = "Thank you for contacting Hakikisha Insurance. Goodbye!"
	ReplyUnavailable = "Sorry, the assistant is temporarily unavailable. Please try again in a moment."
	ReplyFallback    = "Sorry, I didn't understand that. You can send your customer ID (e.g. CUST001), " +
		"a policy number (e.g. PN100001), a claim ID (e.g. CLM0001), or type 'feedback' to rate our service."
)

const dateLayout = "02 Jan 2006"

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "n/a"
	}
	return t.Format(dateLayout)
}

// ----------------------------------------------------------------------------
// Authentication
// ----------------------------------------------------------------------------

func pinChallengeReply(customerID string) string {
	return fmt.Sprintf("Customer %s found. For your security, please enter your %d-digit PIN to continue.",
		customerID, config.PINLength)
}

func pinRetryReply(attempt int) string {
	return fmt.Sprintf("Incorrect PIN. Attempt %d/%d. Please try again.", attempt, config.MaxPINAttempts)
}

func lockoutReply() string {
	return fmt.Sprintf("Incorrect PIN. You have reached the maximum of %d attempts and this session has been "+
		"locked for your security. Please start again with your customer ID.", config.MaxPINAttempts)
}

func notFoundReply(kind, id string) string {
	return fmt.Sprintf("No %s found with ID %s. Please check the ID and try again.", kind, id)
}

func accessConflictReply(current, requested string) string {
	return fmt.Sprintf("You are currently verified as customer %s. To access %s, please end this session "+
		"(type 'bye') and start again.", current, requested)
}

func accessDeniedReply(kind, id, owner string) string {
	return fmt.Sprintf("Access denied. %s %s belongs to customer %s. Please verify as %s by sending that "+
		"customer ID first.", kind, id, owner, owner)
}

// customerDetailReply is sent after a successful PIN
func customerDetailReply(c *models.Customer, p *models.Policy, next *models.Payment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "PIN verified. Welcome, %s!\n", c.FullName())
	fmt.Fprintf(&b, "Customer: %s\n", c.ID)
	if c.Email != "" {
		fmt.Fprintf(&b, "Email: %s\n", c.Email)
	}
	if c.Phone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", c.Phone)
	}
	if p == nil {
		b.WriteString("No policy is currently on file for your account.")
		return b.String()
	}
	b.WriteString(policyDetail(p, next))
	return b.String()
}

// policySummaryReply is sent when an already verified customer asks again
func policySummaryReply(c *models.Customer, p *models.Policy) string {
	if p == nil {
		return fmt.Sprintf("Welcome back, %s. No policy is currently on file for your account.", c.FullName())
	}
	return fmt.Sprintf("Welcome back, %s. Your policy %s (%s) is %s, valid until %s.",
		c.FullName(), p.Number, p.Product, p.Status, formatDate(p.ExpiryDate))
}

func policyDetail(p *models.Policy, next *models.Payment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Policy: %s (%s)\n", p.Number, p.Product)
	fmt.Fprintf(&b, "Status: %s\n", p.Status)
	fmt.Fprintf(&b, "Premium: %s\n", p.FormattedPremium())
	fmt.Fprintf(&b, "Cover: %s to %s", formatDate(p.StartDate), formatDate(p.ExpiryDate))
	if next != nil {
		fmt.Fprintf(&b, "\nNext premium due: %s on %s (%s, %s)",
			next.Amount.Format(next.Currency), formatDate(next.DueDate), next.Method, next.Status)
	}
	return b.String()
}

func claimDetail(c *models.Claim) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Claim: %s on policy %s\n", c.ID, c.PolicyNumber)
	fmt.Fprintf(&b, "Status: %s\n", c.Status)
	fmt.Fprintf(&b, "Amount: %s\n", c.Amount.Format(c.Currency))
	fmt.Fprintf(&b, "Filed: %s", formatDate(c.FiledAt))
	if c.Description != "" {
		fmt.Fprintf(&b, "\nDescription: %s", c.Description)
	}
	return b.String()
}

// ----------------------------------------------------------------------------
// Feedback
// ----------------------------------------------------------------------------

const (
	feedbackStartReply    = "We'd love your feedback! Please rate your experience from 1 to 5 (or type 'cancel')."
	ratingRepromptReply   = "Please rate your experience with a number from 1 to 5, or type 'cancel' to stop."
	commentsRepromptReply = "Please type your comments, or 'skip' to finish without comments."
	feedbackCancelReply   = "Feedback cancelled. Is there anything else I can help you with?"
)

func ratingAckReply(rating int) string {
	return fmt.Sprintf("Thank you for rating us %d/5! Would you like to add any comments? "+
		"Type your comments, or 'skip' to finish.", rating)
}

func feedbackCompleteReply(rec *models.FeedbackRecord) string {
	var msg string
	switch {
	case rec.Rating >= 4:
		msg = "Thank you for your wonderful feedback! We're glad you had a great experience with Hakikisha Insurance."
	case rec.Rating == 3:
		msg = "Thank you for your feedback. We're always working to improve our service."
	default:
		msg = "We're sorry your experience fell short of expectations. A manager will review your feedback " +
			"and follow up with you."
	}
	if rec.HasComments() {
		msg += "\nYour comments: " + rec.Comments
	}
	return msg
}
