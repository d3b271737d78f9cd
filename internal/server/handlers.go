package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/willfong/insurance-assistant/internal/config"
)

// ErrorResponse is returned for rejected requests
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// WebhookRequest is the subset of a Dialogflow fulfillment request we read
type WebhookRequest struct {
	Session     string      `json:"session"`
	QueryResult QueryResult `json:"queryResult"`
}

// QueryResult carries the caller's raw text and the intent Dialogflow matched
type QueryResult struct {
	QueryText string `json:"queryText"`
	Intent    Intent `json:"intent"`
}

// Intent is the matched Dialogflow intent
type Intent struct {
	DisplayName string `json:"displayName"`
}

// WebhookResponse is the fulfillment reply
type WebhookResponse struct {
	FulfillmentText string `json:"fulfillmentText"`
}

// ChatRequest is the body of POST /api/v1/chat
type ChatRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Message   string `json:"message"`
}

// ChatResponse is the reply to POST /api/v1/chat
type ChatResponse struct {
	Reply string `json:"reply"`
}

// HealthResponse is the body of GET /healthz
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (s *Server) handleBanner(c *gin.Context) {
	c.String(http.StatusOK, Banner)
}

// handleWebhook handles POST /webhook.
//
// The Dialogflow session path identifies the conversation; queryText is the
// caller's utterance. The reply is returned as fulfillmentText. When the
// core does not recognise the text, a known intent's reply is used instead.
func (s *Server) handleWebhook(c *gin.Context) {
	var req WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.reject(c, http.StatusBadRequest, "Invalid request body", "INVALID_REQUEST")
		return
	}
	if strings.TrimSpace(req.Session) == "" {
		s.reject(c, http.StatusBadRequest, "session is required", "MISSING_SESSION")
		return
	}
	if len(req.QueryResult.QueryText) > config.MaxUtteranceBytes {
		s.rejectOversized(c, req.Session, len(req.QueryResult.QueryText), "queryText too long")
		return
	}

	result := s.handler.Handle(c.Request.Context(), req.Session, req.QueryResult.QueryText)
	reply := intentReply(req.QueryResult.Intent.DisplayName, result)
	c.JSON(http.StatusOK, WebhookResponse{FulfillmentText: reply})
}

// handleChat handles POST /api/v1/chat
func (s *Server) handleChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.reject(c, http.StatusBadRequest, "session_id is required", "INVALID_REQUEST")
		return
	}
	if len(req.Message) > config.MaxUtteranceBytes {
		s.rejectOversized(c, req.SessionID, len(req.Message), "message too long")
		return
	}

	result := s.handler.Handle(c.Request.Context(), req.SessionID, req.Message)
	c.JSON(http.StatusOK, ChatResponse{Reply: result.Reply})
}

// handleHealth runs every registered check with a short deadline
func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "ok"}
	status := http.StatusOK

	if len(s.checks) > 0 {
		resp.Checks = make(map[string]string, len(s.checks))
	}
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}

	c.JSON(status, resp)
}

// rejectOversized refuses an utterance over the size limit without passing
// it to the handler, so nothing is audited for it.
func (s *Server) rejectOversized(c *gin.Context, session string, size int, msg string) {
	s.logger.Warn("server.request: utterance too long",
		"path", c.FullPath(), "session", session, "bytes", size, "limit", config.MaxUtteranceBytes)
	c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: msg, Code: "UTTERANCE_TOO_LONG"})
}

func (s *Server) reject(c *gin.Context, status int, msg, code string) {
	s.logger.Warn("server.request: rejected", "path", c.FullPath(), "code", code)
	c.JSON(status, ErrorResponse{Error: msg, Code: code})
}
