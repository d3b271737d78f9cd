package models

import (
	"time"

	"github.com/willfong/insurance-assistant/internal/utils"
)

// PaymentStatus represents the settlement state of a premium instalment
type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "Paid"
	PaymentStatusDue     PaymentStatus = "Due"
	PaymentStatusOverdue PaymentStatus = "Overdue"
)

// PaymentMethod represents how a premium was or will be paid
type PaymentMethod string

const (
	PaymentMethodMpesa PaymentMethod = "M-Pesa"
	PaymentMethodBank  PaymentMethod = "Bank Transfer"
	PaymentMethodCard  PaymentMethod = "Card"
)

// Payment represents a premium instalment on a policy
type Payment struct {
	ID           string        `db:"id" json:"id"`
	PolicyNumber string        `db:"policy_number" json:"policy_number"`
	Amount       utils.Money   `db:"amount" json:"amount"` // Minor units
	Currency     string        `db:"currency" json:"currency"`
	Method       PaymentMethod `db:"method" json:"method"`
	Status       PaymentStatus `db:"status" json:"status"`
	DueDate      time.Time     `db:"due_date" json:"due_date"`
	PaidAt       *time.Time    `db:"paid_at" json:"paid_at,omitempty"`
}

// IsOutstanding returns true if the instalment still needs to be paid
func (p *Payment) IsOutstanding() bool {
	return p.Status == PaymentStatusDue || p.Status == PaymentStatusOverdue
}
