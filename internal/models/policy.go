package models

import (
	"time"

	"github.com/willfong/insurance-assistant/internal/utils"
)

// PolicyStatus represents the lifecycle state of a policy
type PolicyStatus string

const (
	PolicyStatusActive    PolicyStatus = "Active"
	PolicyStatusLapsed    PolicyStatus = "Lapsed"
	PolicyStatusCancelled PolicyStatus = "Cancelled"
	PolicyStatusPending   PolicyStatus = "Pending"
	PolicyStatusSuspended PolicyStatus = "Suspended"
	PolicyStatusExpired   PolicyStatus = "Expired"
)

// Policy represents an insurance policy owned by a single customer
type Policy struct {
	// Policy number (e.g., "PN100001")
	Number string `db:"policy_number" json:"policy_number"`

	// Owner
	CustomerID string `db:"customer_id" json:"customer_id"`

	// Product details
	Product  string       `db:"product" json:"product"`
	Status   PolicyStatus `db:"status" json:"status"`
	Premium  utils.Money  `db:"premium" json:"premium"` // Minor units
	Currency string       `db:"currency" json:"currency"`

	// Coverage period
	StartDate  time.Time `db:"start_date" json:"start_date"`
	ExpiryDate time.Time `db:"expiry_date" json:"expiry_date"`
}

// IsActive returns true if the policy currently provides cover
func (p *Policy) IsActive() bool {
	return p.Status == PolicyStatusActive
}

// FormattedPremium renders the premium in the policy currency
func (p *Policy) FormattedPremium() string {
	return p.Premium.Format(p.Currency)
}
