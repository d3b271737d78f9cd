// Package credential verifies the secret a caller submits against the
// customer's stored PIN.
package credential

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/willfong/insurance-assistant/internal/models"
)

// Kind selects a verifier implementation
type Kind string

const (
	KindPlain  Kind = "plain"
	KindBcrypt Kind = "bcrypt"
)

// ErrUnknownKind is returned by New for unsupported verifier kinds
var ErrUnknownKind = errors.New("unknown credential verifier")

// Verifier checks a submitted secret for a customer
type Verifier interface {
	Verify(customer *models.Customer, secret string) bool
}

// New returns the verifier for the given kind
func New(kind Kind) (Verifier, error) {
	switch Kind(strings.ToLower(string(kind))) {
	case KindPlain, "":
		return PlainVerifier{}, nil
	case KindBcrypt:
		return BcryptVerifier{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// PlainVerifier compares the submitted text verbatim with the stored PIN
type PlainVerifier struct{}

// Verify implements Verifier
func (PlainVerifier) Verify(customer *models.Customer, secret string) bool {
	if customer == nil || customer.PIN == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(customer.PIN), []byte(secret)) == 1
}

// BcryptVerifier treats the stored PIN as a bcrypt hash
type BcryptVerifier struct{}

// Verify implements Verifier
func (BcryptVerifier) Verify(customer *models.Customer, secret string) bool {
	if customer == nil || customer.PIN == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(customer.PIN), []byte(secret)) == nil
}

// HashPIN returns the bcrypt hash stored for BcryptVerifier
func HashPIN(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash PIN: %w", err)
	}
	return string(hash), nil
}
