package server

import (
	"github.com/willfong/insurance-assistant/internal/conversation"
	"github.com/willfong/insurance-assistant/internal/models"
)

// Replies for Dialogflow intents the conversation core has no flow for.
// Keyed by queryResult.intent.displayName.
var intentReplies = map[string]string{
	"Welcome":             "Welcome to Hakikisha Insurance! How can I assist you today?",
	"Escalation to Agent": "I'm connecting you to a live agent. Please hold on while we transfer your chat.",
	"Complaint Status":    "Your complaint is currently under review. We'll update you within 48 hours.",
	"Claim Submission":    "To submit a claim, please provide your policy number and a brief description of the incident.",
	"Survey":              "Here's a quick survey: How satisfied are you with our service today?",
	"Claims Status":       "Please provide your claim number so I can check the status for you.",
}

// intentReply replaces the fallback reply with the matched intent's reply.
// Any other outcome from the core is returned unchanged.
func intentReply(displayName string, res conversation.Result) string {
	if res.Audit.Action != models.AuditFallback {
		return res.Reply
	}
	if reply, ok := intentReplies[displayName]; ok {
		return reply
	}
	return res.Reply
}
