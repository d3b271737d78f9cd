// Package database provides MySQL persistence for the insurance assistant.
//
// FILE: scanners.go
// PURPOSE: Row scanning helper functions for converting database rows to model structs.
//
// KEY FUNCTIONS:
// - scanCustomer: Scans a customer row
// - scanPolicy: Scans a policy row
// - scanClaim: Scans a claim row
// - scanPayment: Scans a payment row
// - nullString: Converts empty identifiers to SQL NULL
//
// RELATED FILES:
// - queries_reference.go: Uses every scanner
package database

import (
	"database/sql"

	"github.com/willfong/insurance-assistant/internal/models"
)

func scanCustomer(rows *sql.Rows) (models.Customer, error) {
	var c models.Customer

	// Nullable fields need sql.Null* types for scanning
	var (
		lastName sql.NullString
		email    sql.NullString
		phone    sql.NullString
	)

	err := rows.Scan(&c.ID, &c.FirstName, &lastName, &email, &phone, &c.PIN)
	if err != nil {
		return c, err
	}

	c.LastName = lastName.String
	c.Email = email.String
	c.Phone = phone.String
	return c, nil
}

func scanPolicy(rows *sql.Rows) (models.Policy, error) {
	var p models.Policy
	err := rows.Scan(
		&p.Number, &p.CustomerID, &p.Product, &p.Status,
		&p.Premium, &p.Currency, &p.StartDate, &p.ExpiryDate,
	)
	return p, err
}

func scanClaim(rows *sql.Rows) (models.Claim, error) {
	var c models.Claim
	var description sql.NullString

	err := rows.Scan(
		&c.ID, &c.PolicyNumber, &c.Status, &c.Amount, &c.Currency,
		&description, &c.FiledAt,
	)
	if err != nil {
		return c, err
	}

	c.Description = description.String
	return c, nil
}

func scanPayment(rows *sql.Rows) (models.Payment, error) {
	var p models.Payment
	var paidAt sql.NullTime

	err := rows.Scan(
		&p.ID, &p.PolicyNumber, &p.Amount, &p.Currency, &p.Method,
		&p.Status, &p.DueDate, &paidAt,
	)
	if err != nil {
		return p, err
	}

	if paidAt.Valid {
		t := paidAt.Time
		p.PaidAt = &t
	}
	return p, nil
}

// nullString stores empty identifiers as NULL
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
