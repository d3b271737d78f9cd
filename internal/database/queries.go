// Package database provides MySQL persistence for the insurance assistant.
//
// FILE: queries.go
// PURPOSE: Base Queries struct and constructor. This is the entry point for all
// database operations.
//
// KEY TYPES:
// - Queries: Main struct holding database pool connection
//
// RELATED FILES:
// - queries_audit.go: Audit entry batch insertion
// - queries_feedback.go: Feedback record batch insertion
// - queries_reference.go: Reference data load and seed
// - scanners.go: Row scanning helper functions
package database

import (
	"strings"
)

// Queries provides database operations for the assistant
type Queries struct {
	pool *Pool
}

// NewQueries creates a new Queries instance
func NewQueries(pool *Pool) *Queries {
	return &Queries{pool: pool}
}

// valuesClause builds "(?, ?), (?, ?)" for a multi-row insert
func valuesClause(rows, cols int) string {
	group := "(" + strings.TrimSuffix(strings.Repeat("?, ", cols), ", ") + ")"

	var b strings.Builder
	b.Grow(rows * (len(group) + 2))
	for i := 0; i < rows; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(group)
	}
	return b.String()
}
