// Package database provides MySQL persistence for the insurance assistant.
//
// FILE: queries_feedback.go
// PURPOSE: Feedback record database operations.
//
// KEY FUNCTIONS:
// - InsertFeedbackRecords: Records a batch of completed feedback flows
//
// RELATED FILES:
// - queries.go: Base Queries struct
package database

import (
	"context"
	"fmt"

	"github.com/willfong/insurance-assistant/internal/models"
)

const feedbackColumns = 9

// InsertFeedbackRecords writes a batch of feedback records in one statement.
// Records are immutable, so a duplicate id is an error rather than an update.
func (q *Queries) InsertFeedbackRecords(ctx context.Context, records []models.FeedbackRecord) error {
	if len(records) == 0 {
		return nil
	}

	query := `
		INSERT INTO feedback (
			id, session_key, customer_id, rating, comments,
			sentiment, categories, created_at, elapsed_ms
		) VALUES ` + valuesClause(len(records), feedbackColumns)

	args := make([]any, 0, len(records)*feedbackColumns)
	for _, r := range records {
		args = append(args,
			r.ID, r.SessionKey, nullString(r.CustomerID), r.Rating, r.Comments,
			string(r.Sentiment), r.CategoryList(), r.CreatedAt, r.Elapsed.Milliseconds(),
		)
	}

	if _, err := q.pool.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert %d feedback records: %w", len(records), err)
	}
	return nil
}
