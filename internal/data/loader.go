// Package data provides the read-only insurance reference data the assistant
// answers from: customers, policies, claims and premium payments.
package data

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/willfong/insurance-assistant/internal/models"
)

//go:embed reference/*.json
var dataFiles embed.FS

// ReferenceData holds all loaded reference records indexed by primary key
type ReferenceData struct {
	customers []models.Customer
	policies  []models.Policy
	claims    []models.Claim
	payments  []models.Payment

	// Lookup maps for efficient access
	customerByID     map[string]*models.Customer
	policyByNumber   map[string]*models.Policy
	policyByCustomer map[string]*models.Policy
	claimByID        map[string]*models.Claim
	paymentsByPolicy map[string][]*models.Payment
}

// customersFile represents the structure of customers.json
type customersFile struct {
	Customers []models.Customer `json:"customers"`
}

// policiesFile represents the structure of policies.json
type policiesFile struct {
	Policies []models.Policy `json:"policies"`
}

// claimsFile represents the structure of claims.json
type claimsFile struct {
	Claims []models.Claim `json:"claims"`
}

// paymentsFile represents the structure of payments.json
type paymentsFile struct {
	Payments []models.Payment `json:"payments"`
}

var (
	instance *ReferenceData
	once     sync.Once
	loadErr  error
)

// Load loads all reference data from embedded files
// This is thread-safe and will only load data once
func Load() (*ReferenceData, error) {
	once.Do(func() {
		instance, loadErr = loadEmbedded()
	})

	if loadErr != nil {
		return nil, loadErr
	}
	return instance, nil
}

// loadEmbedded parses every embedded reference file
func loadEmbedded() (*ReferenceData, error) {
	var (
		cf  customersFile
		pf  policiesFile
		clf claimsFile
		pyf paymentsFile
	)

	files := []struct {
		name string
		dst  any
	}{
		{"reference/customers.json", &cf},
		{"reference/policies.json", &pf},
		{"reference/claims.json", &clf},
		{"reference/payments.json", &pyf},
	}

	for _, f := range files {
		raw, err := dataFiles.ReadFile(f.name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.name, err)
		}
		if err := json.Unmarshal(raw, f.dst); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", f.name, err)
		}
	}

	return NewReferenceData(cf.Customers, pf.Policies, clf.Claims, pyf.Payments), nil
}

// NewReferenceData builds the lookup indexes over the given records.
// Identifiers are normalised to upper case.
func NewReferenceData(customers []models.Customer, policies []models.Policy, claims []models.Claim, payments []models.Payment) *ReferenceData {
	r := &ReferenceData{
		customers:        customers,
		policies:         policies,
		claims:           claims,
		payments:         payments,
		customerByID:     make(map[string]*models.Customer, len(customers)),
		policyByNumber:   make(map[string]*models.Policy, len(policies)),
		policyByCustomer: make(map[string]*models.Policy, len(policies)),
		claimByID:        make(map[string]*models.Claim, len(claims)),
		paymentsByPolicy: make(map[string][]*models.Payment),
	}

	for i := range r.customers {
		c := &r.customers[i]
		r.customerByID[strings.ToUpper(c.ID)] = c
	}

	for i := range r.policies {
		p := &r.policies[i]
		r.policyByNumber[strings.ToUpper(p.Number)] = p
		// First policy listed for a customer is the one summarised in chat
		owner := strings.ToUpper(p.CustomerID)
		if _, exists := r.policyByCustomer[owner]; !exists {
			r.policyByCustomer[owner] = p
		}
	}

	for i := range r.claims {
		c := &r.claims[i]
		r.claimByID[strings.ToUpper(c.ID)] = c
	}

	for i := range r.payments {
		p := &r.payments[i]
		key := strings.ToUpper(p.PolicyNumber)
		r.paymentsByPolicy[key] = append(r.paymentsByPolicy[key], p)
	}
	for _, list := range r.paymentsByPolicy {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].DueDate.Before(list[j].DueDate)
		})
	}

	return r
}

// Customer returns the customer with the given identifier
func (r *ReferenceData) Customer(id string) (*models.Customer, bool) {
	c, ok := r.customerByID[strings.ToUpper(id)]
	return c, ok
}

// PolicyByCustomer returns the policy owned by the given customer
func (r *ReferenceData) PolicyByCustomer(customerID string) (*models.Policy, bool) {
	p, ok := r.policyByCustomer[strings.ToUpper(customerID)]
	return p, ok
}

// Policy returns the policy with the given number
func (r *ReferenceData) Policy(number string) (*models.Policy, bool) {
	p, ok := r.policyByNumber[strings.ToUpper(number)]
	return p, ok
}

// Claim returns the claim with the given identifier
func (r *ReferenceData) Claim(id string) (*models.Claim, bool) {
	c, ok := r.claimByID[strings.ToUpper(id)]
	return c, ok
}

// PaymentsByPolicy returns the premium instalments of a policy ordered by due date
func (r *ReferenceData) PaymentsByPolicy(number string) []*models.Payment {
	return r.paymentsByPolicy[strings.ToUpper(number)]
}

// NextDue returns the earliest outstanding instalment of a policy
func (r *ReferenceData) NextDue(number string) (*models.Payment, bool) {
	for _, p := range r.PaymentsByPolicy(number) {
		if p.IsOutstanding() {
			return p, true
		}
	}
	return nil, false
}

// Customers returns all customers in load order
func (r *ReferenceData) Customers() []models.Customer {
	return r.customers
}

// Policies returns all policies in load order
func (r *ReferenceData) Policies() []models.Policy {
	return r.policies
}

// Claims returns all claims in load order
func (r *ReferenceData) Claims() []models.Claim {
	return r.claims
}

// Payments returns all payments in load order
func (r *ReferenceData) Payments() []models.Payment {
	return r.payments
}

// Stats returns record counts for display
func (r *ReferenceData) Stats() map[string]int {
	return map[string]int{
		"customers": len(r.customers),
		"policies":  len(r.policies),
		"claims":    len(r.claims),
		"payments":  len(r.payments),
	}
}
