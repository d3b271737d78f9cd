// Package database provides MySQL persistence for the insurance assistant.
//
// FILE: queries_reference.go
// PURPOSE: Reference data (customers, policies, claims, payments) loading and
// seeding. Reference tables are read once at startup and never written by the
// conversation core.
//
// KEY FUNCTIONS:
// - LoadReference: Reads all reference tables into an indexed ReferenceData
// - UpsertCustomers / UpsertPolicies / UpsertClaims / UpsertPayments: Seed batches
//
// RELATED FILES:
// - queries.go: Base Queries struct and valuesClause
// - scanners.go: Row scanning utilities
package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/willfong/insurance-assistant/internal/data"
	"github.com/willfong/insurance-assistant/internal/models"
)

const (
	selectCustomers = `
		SELECT id, first_name, last_name, email, phone, pin
		FROM customers
		ORDER BY id`

	selectPolicies = `
		SELECT policy_number, customer_id, product, status,
			premium, currency, start_date, expiry_date
		FROM policies
		ORDER BY policy_number`

	selectClaims = `
		SELECT id, policy_number, status, amount, currency, description, filed_at
		FROM claims
		ORDER BY id`

	selectPayments = `
		SELECT id, policy_number, amount, currency, method, status, due_date, paid_at
		FROM payments
		ORDER BY policy_number, due_date`
)

// LoadReference reads every reference table and builds the lookup indexes
func (q *Queries) LoadReference(ctx context.Context) (*data.ReferenceData, error) {
	customers, err := queryAll(ctx, q.pool, selectCustomers, scanCustomer)
	if err != nil {
		return nil, fmt.Errorf("failed to load customers: %w", err)
	}
	policies, err := queryAll(ctx, q.pool, selectPolicies, scanPolicy)
	if err != nil {
		return nil, fmt.Errorf("failed to load policies: %w", err)
	}
	claims, err := queryAll(ctx, q.pool, selectClaims, scanClaim)
	if err != nil {
		return nil, fmt.Errorf("failed to load claims: %w", err)
	}
	payments, err := queryAll(ctx, q.pool, selectPayments, scanPayment)
	if err != nil {
		return nil, fmt.Errorf("failed to load payments: %w", err)
	}

	return data.NewReferenceData(customers, policies, claims, payments), nil
}

func queryAll[T any](ctx context.Context, pool *Pool, query string, scan func(*sql.Rows) (T, error)) ([]T, error) {
	rows, err := pool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// UpsertCustomers inserts or refreshes a batch of customers
func (q *Queries) UpsertCustomers(ctx context.Context, customers []models.Customer) error {
	if len(customers) == 0 {
		return nil
	}

	query := `
		INSERT INTO customers (id, first_name, last_name, email, phone, pin)
		VALUES ` + valuesClause(len(customers), 6) + `
		ON DUPLICATE KEY UPDATE
			first_name = VALUES(first_name), last_name = VALUES(last_name),
			email = VALUES(email), phone = VALUES(phone), pin = VALUES(pin)`

	args := make([]any, 0, len(customers)*6)
	for _, c := range customers {
		args = append(args, c.ID, c.FirstName, nullString(c.LastName),
			nullString(c.Email), nullString(c.Phone), c.PIN)
	}

	if _, err := q.pool.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to upsert customers: %w", err)
	}
	return nil
}

// UpsertPolicies inserts or refreshes a batch of policies
func (q *Queries) UpsertPolicies(ctx context.Context, policies []models.Policy) error {
	if len(policies) == 0 {
		return nil
	}

	query := `
		INSERT INTO policies (
			policy_number, customer_id, product, status,
			premium, currency, start_date, expiry_date
		) VALUES ` + valuesClause(len(policies), 8) + `
		ON DUPLICATE KEY UPDATE
			customer_id = VALUES(customer_id), product = VALUES(product),
			status = VALUES(status), premium = VALUES(premium),
			currency = VALUES(currency), start_date = VALUES(start_date),
			expiry_date = VALUES(expiry_date)`

	args := make([]any, 0, len(policies)*8)
	for _, p := range policies {
		args = append(args, p.Number, p.CustomerID, p.Product, string(p.Status),
			int64(p.Premium), p.Currency, p.StartDate, p.ExpiryDate)
	}

	if _, err := q.pool.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to upsert policies: %w", err)
	}
	return nil
}

// UpsertClaims inserts or refreshes a batch of claims
func (q *Queries) UpsertClaims(ctx context.Context, claims []models.Claim) error {
	if len(claims) == 0 {
		return nil
	}

	query := `
		INSERT INTO claims (
			id, policy_number, status, amount, currency, description, filed_at
		) VALUES ` + valuesClause(len(claims), 7) + `
		ON DUPLICATE KEY UPDATE
			policy_number = VALUES(policy_number), status = VALUES(status),
			amount = VALUES(amount), currency = VALUES(currency),
			description = VALUES(description), filed_at = VALUES(filed_at)`

	args := make([]any, 0, len(claims)*7)
	for _, c := range claims {
		args = append(args, c.ID, c.PolicyNumber, string(c.Status), int64(c.Amount),
			c.Currency, nullString(c.Description), c.FiledAt)
	}

	if _, err := q.pool.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to upsert claims: %w", err)
	}
	return nil
}

// UpsertPayments inserts or refreshes a batch of premium instalments
func (q *Queries) UpsertPayments(ctx context.Context, payments []models.Payment) error {
	if len(payments) == 0 {
		return nil
	}

	query := `
		INSERT INTO payments (
			id, policy_number, amount, currency, method, status, due_date, paid_at
		) VALUES ` + valuesClause(len(payments), 8) + `
		ON DUPLICATE KEY UPDATE
			policy_number = VALUES(policy_number), amount = VALUES(amount),
			currency = VALUES(currency), method = VALUES(method),
			status = VALUES(status), due_date = VALUES(due_date),
			paid_at = VALUES(paid_at)`

	args := make([]any, 0, len(payments)*8)
	for _, p := range payments {
		var paidAt sql.NullTime
		if p.PaidAt != nil {
			paidAt = sql.NullTime{Time: *p.PaidAt, Valid: true}
		}
		args = append(args, p.ID, p.PolicyNumber, int64(p.Amount), p.Currency,
			string(p.Method), string(p.Status), p.DueDate, paidAt)
	}

	if _, err := q.pool.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to upsert payments: %w", err)
	}
	return nil
}
