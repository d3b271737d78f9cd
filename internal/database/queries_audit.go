// Package database provides MySQL persistence for the insurance assistant.
//
// FILE: queries_audit.go
// PURPOSE: Audit log database operations.
//
// KEY FUNCTIONS:
// - InsertAuditEntries: Records a batch of handled utterances
//
// RELATED FILES:
// - queries.go: Base Queries struct
package database

import (
	"context"
	"fmt"

	"github.com/willfong/insurance-assistant/internal/models"
)

const auditColumns = 7

// InsertAuditEntries writes a batch of audit entries in one statement
func (q *Queries) InsertAuditEntries(ctx context.Context, entries []models.AuditEntry) error {
	if len(entries) == 0 {
		return nil
	}

	query := `
		INSERT INTO audit_log (
			timestamp, session_key, customer_id, utterance, reply, action, outcome
		) VALUES ` + valuesClause(len(entries), auditColumns)

	args := make([]any, 0, len(entries)*auditColumns)
	for _, e := range entries {
		args = append(args,
			e.Timestamp, e.SessionKey, nullString(e.CustomerID),
			e.Utterance, e.Reply, string(e.Action), string(e.Outcome),
		)
	}

	if _, err := q.pool.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert %d audit entries: %w", len(entries), err)
	}
	return nil
}
