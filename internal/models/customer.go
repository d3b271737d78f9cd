package models

// Customer represents a policyholder who can be verified over chat
type Customer struct {
	// Primary identifier (e.g., "CUST001")
	ID string `db:"id" json:"id"`

	// Personal Information (PII)
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
	Email     string `db:"email" json:"email"`
	Phone     string `db:"phone" json:"phone"`

	// PIN is the 4-digit secret used for chat verification.
	// Depending on the configured verifier it holds the plain PIN or a bcrypt hash.
	PIN string `db:"pin" json:"pin"`
}

// FullName returns the customer's display name
func (c *Customer) FullName() string {
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}
