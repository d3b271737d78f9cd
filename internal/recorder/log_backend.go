package recorder

import (
	"context"
	"log/slog"

	"github.com/willfong/insurance-assistant/internal/models"
)

// maskedUtterance replaces PIN attempts in log lines
const maskedUtterance = "[masked]"

// LogBackend writes records as structured log lines. It is the default
// backend when no database is configured.
type LogBackend struct {
	logger *slog.Logger
}

// NewLogBackend creates a LogBackend; a nil logger uses slog.Default()
func NewLogBackend(logger *slog.Logger) *LogBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogBackend{logger: logger}
}

// InsertAuditEntries implements Backend
func (b *LogBackend) InsertAuditEntries(ctx context.Context, entries []models.AuditEntry) error {
	for _, e := range entries {
		utterance := e.Utterance
		if e.CarriesPIN() {
			utterance = maskedUtterance
		}
		b.logger.LogAttrs(ctx, slog.LevelInfo, "audit",
			slog.Time("timestamp", e.Timestamp),
			slog.String("session", e.SessionKey),
			slog.String("customer", e.CustomerID),
			slog.String("action", string(e.Action)),
			slog.String("outcome", string(e.Outcome)),
			slog.String("utterance", utterance),
			slog.Int("reply_len", len(e.Reply)),
		)
	}
	return nil
}

// InsertFeedbackRecords implements Backend
func (b *LogBackend) InsertFeedbackRecords(ctx context.Context, records []models.FeedbackRecord) error {
	for _, r := range records {
		b.logger.LogAttrs(ctx, slog.LevelInfo, "feedback",
			slog.String("id", r.ID),
			slog.String("session", r.SessionKey),
			slog.String("customer", r.CustomerID),
			slog.Int("rating", r.Rating),
			slog.String("sentiment", string(r.Sentiment)),
			slog.String("categories", r.CategoryList()),
			slog.String("comments", r.Comments),
			slog.Duration("elapsed", r.Elapsed),
		)
	}
	return nil
}
