package model

import (
	"fmt"
	"time"
)

// ScopeKey identifies one unit of incremental computation.
type ScopeKey struct {
	ServerID         string `json:"serverId"`
	NetworkVariant   string `json:"networkVariant"`
	DimensionContext string `json:"dimensionContext"`
}

func (k ScopeKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.ServerID, k.NetworkVariant, k.DimensionContext)
}

// ScopeStatus is the state of a compute scope row.
type ScopeStatus string

const (
	ScopeRunning   ScopeStatus = "RUNNING"
	ScopeSucceeded ScopeStatus = "SUCCEEDED"
	ScopeFailed    ScopeStatus = "FAILED"
)

// ScopeState is the persisted status row of a compute scope.
type ScopeState struct {
	Key          ScopeKey
	Status       ScopeStatus
	Fingerprint  string
	ErrorMessage string
	ClaimedAt    time.Time
	ComputedAt   time.Time
}

// Outcome is the result of one attempt to compute a scope.
type Outcome string

const (
	OutcomeComputed         Outcome = "COMPUTED"
	OutcomeFailed           Outcome = "FAILED"
	OutcomeSkippedUnchanged Outcome = "SKIPPED_UNCHANGED"
	OutcomeSkippedRunning   Outcome = "SKIPPED_RUNNING"
	OutcomeSkippedLocked    Outcome = "SKIPPED_LOCKED"
)

// Skipped reports whether the outcome left the scope untouched.
func (o Outcome) Skipped() bool {
	switch o {
	case OutcomeSkippedUnchanged, OutcomeSkippedRunning, OutcomeSkippedLocked:
		return true
	}
	return false
}
