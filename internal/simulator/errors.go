package simulator

import (
	"errors"
)

// Error types for simulation setup
var (
	ErrEmptyRoster = errors.New("no customers with a policy to simulate")
	ErrHashedPIN   = errors.New("PIN is not stored in plain form; seed the simulation from plain reference data")
)

// Mismatch describes a reply whose audit action differed from the script
type Mismatch struct {
	Script    ScriptType
	Utterance string
	Expected  string
	Actual    string
}
