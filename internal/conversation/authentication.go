package conversation

import (
	"github.com/willfong/insurance-assistant/internal/config"
	"github.com/willfong/insurance-assistant/internal/credential"
	"github.com/willfong/insurance-assistant/internal/metrics"
	"github.com/willfong/insurance-assistant/internal/models"
	"github.com/willfong/insurance-assistant/internal/session"
)

// authenticator runs the PIN challenge and gates policy and claim lookups
// on the verified identity
type authenticator struct {
	dir      Directory
	verifier credential.Verifier
	metrics  *metrics.Metrics
}

// customerRef handles a customer identifier from an idle session
func (a *authenticator) customerRef(s *session.Session, id string) turn {
	customer, ok := a.dir.Customer(id)
	if !ok {
		return turn{
			reply:   notFoundReply("customer", id),
			action:  models.AuditNotFound,
			outcome: models.OutcomeNotFound,
		}
	}

	if s.IsAuthenticated() {
		if s.AuthenticatedCustomerID != customer.ID {
			return turn{
				reply:   accessConflictReply(s.AuthenticatedCustomerID, customer.ID),
				action:  models.AuditAccessDenied,
				outcome: models.OutcomeDenied,
			}
		}
		policy, _ := a.dir.PolicyByCustomer(customer.ID)
		return turn{
			reply:   policySummaryReply(customer, policy),
			action:  models.AuditCustomerViewed,
			outcome: models.OutcomeSuccess,
		}
	}

	s.PendingCustomerID = customer.ID
	s.PINAttempts = 0
	return turn{
		reply:      pinChallengeReply(customer.ID),
		action:     models.AuditPINChallenge,
		outcome:    models.OutcomeSuccess,
		customerID: customer.ID,
	}
}

// submitPIN treats the whole utterance as the PIN for the pending customer
func (a *authenticator) submitPIN(s *session.Session, secret string) turn {
	pending := s.PendingCustomerID
	customer, ok := a.dir.Customer(pending)
	if !ok {
		// Reference data no longer knows the customer; drop the challenge
		s.PendingCustomerID = ""
		s.PINAttempts = 0
		return turn{
			reply:      notFoundReply("customer", pending),
			action:     models.AuditNotFound,
			outcome:    models.OutcomeNotFound,
			customerID: pending,
		}
	}

	if a.verifier.Verify(customer, secret) {
		s.AuthenticatedCustomerID = customer.ID
		s.PendingCustomerID = ""
		s.PINAttempts = 0
		a.metrics.AuthEvent("success")

		policy, _ := a.dir.PolicyByCustomer(customer.ID)
		var next *models.Payment
		if policy != nil {
			next, _ = a.dir.NextDue(policy.Number)
		}
		return turn{
			reply:      customerDetailReply(customer, policy, next),
			action:     models.AuditPINSuccess,
			outcome:    models.OutcomeSuccess,
			customerID: customer.ID,
		}
	}

	s.PINAttempts++
	if s.PINAttempts >= config.MaxPINAttempts {
		s.Reset()
		a.metrics.AuthEvent("lockout")
		return turn{
			reply:      lockoutReply(),
			action:     models.AuditLockout,
			outcome:    models.OutcomeFailure,
			customerID: pending,
			end:        true,
		}
	}

	a.metrics.AuthEvent("failure")
	return turn{
		reply:      pinRetryReply(s.PINAttempts),
		action:     models.AuditPINFailed,
		outcome:    models.OutcomeFailure,
		customerID: pending,
	}
}

// lookupPolicy shows a policy to its verified owner
func (a *authenticator) lookupPolicy(s *session.Session, number string) turn {
	policy, ok := a.dir.Policy(number)
	if !ok {
		return turn{
			reply:   notFoundReply("policy", number),
			action:  models.AuditNotFound,
			outcome: models.OutcomeNotFound,
		}
	}

	if denied, t := a.gate(s, "Policy", policy.Number, policy.CustomerID); denied {
		return t
	}

	next, _ := a.dir.NextDue(policy.Number)
	return turn{
		reply:   policyDetail(policy, next),
		action:  models.AuditPolicyViewed,
		outcome: models.OutcomeSuccess,
	}
}

// lookupClaim shows a claim to the verified owner of its policy
func (a *authenticator) lookupClaim(s *session.Session, id string) turn {
	claim, ok := a.dir.Claim(id)
	if !ok {
		return turn{
			reply:   notFoundReply("claim", id),
			action:  models.AuditNotFound,
			outcome: models.OutcomeNotFound,
		}
	}

	policy, ok := a.dir.Policy(claim.PolicyNumber)
	if !ok {
		return turn{
			reply:   notFoundReply("policy", claim.PolicyNumber),
			action:  models.AuditNotFound,
			outcome: models.OutcomeNotFound,
		}
	}

	if denied, t := a.gate(s, "Claim", claim.ID, policy.CustomerID); denied {
		return t
	}

	return turn{
		reply:   claimDetail(claim),
		action:  models.AuditClaimViewed,
		outcome: models.OutcomeSuccess,
	}
}

// gate denies access unless the session is verified as owner
func (a *authenticator) gate(s *session.Session, kind, id, owner string) (bool, turn) {
	if s.IsAuthenticated() && s.AuthenticatedCustomerID == owner {
		return false, turn{}
	}
	return true, turn{
		reply:   accessDeniedReply(kind, id, owner),
		action:  models.AuditAccessDenied,
		outcome: models.OutcomeDenied,
	}
}
