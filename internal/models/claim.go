package models

import (
	"time"

	"github.com/willfong/insurance-assistant/internal/utils"
)

// ClaimStatus represents where a claim is in assessment
type ClaimStatus string

const (
	ClaimStatusApproved    ClaimStatus = "Approved"
	ClaimStatusRejected    ClaimStatus = "Rejected"
	ClaimStatusPending     ClaimStatus = "Pending"
	ClaimStatusUnderReview ClaimStatus = "Under Review"
	ClaimStatusPaid        ClaimStatus = "Paid"
)

// Claim represents a claim filed against a policy
type Claim struct {
	// Claim identifier (e.g., "CLM0001")
	ID string `db:"id" json:"id"`

	// Policy the claim was filed against; ownership follows the policy
	PolicyNumber string `db:"policy_number" json:"policy_number"`

	Status      ClaimStatus `db:"status" json:"status"`
	Amount      utils.Money `db:"amount" json:"amount"` // Minor units
	Currency    string      `db:"currency" json:"currency"`
	Description string      `db:"description" json:"description"`
	FiledAt     time.Time   `db:"filed_at" json:"filed_at"`
}

// IsSettled returns true once no further assessment is expected
func (c *Claim) IsSettled() bool {
	switch c.Status {
	case ClaimStatusApproved, ClaimStatusRejected, ClaimStatusPaid:
		return true
	default:
		return false
	}
}
