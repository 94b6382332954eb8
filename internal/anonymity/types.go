package anonymity

import (
	"errors"

	"github.com/privacykit/governance/internal/transform"
)

// UnreachablePolicy decides what happens to records whose group never
// reaches size k within the round budget.
type UnreachablePolicy string

const (
	// UnreachableDrop suppresses unreconcilable records from the output.
	// This is lossy and silent, the historical behavior of the engine.
	UnreachableDrop UnreachablePolicy = "drop"
	// UnreachableError fails the whole call instead of dropping.
	UnreachableError UnreachablePolicy = "error"
)

// DefaultMaxRounds is the generalization round budget when Options leaves it unset.
const DefaultMaxRounds = 10

// Options configures an anonymization pass.
type Options struct {
	// K is the minimum group size every surviving quasi-identifier
	// combination must reach.
	K int
	// QuasiIdentifiers are the record fields that form the group key, in order.
	QuasiIdentifiers []string
	// SensitiveFields are never generalized, even if a rule names them.
	SensitiveFields []string
	// Rules replace the default partial generalization of every
	// quasi-identifier field.
	Rules []transform.Rule
	// MaxRounds caps generalization rounds; zero selects DefaultMaxRounds.
	MaxRounds int
	// OnUnreachable defaults to UnreachableDrop.
	OnUnreachable UnreachablePolicy
}

// Stats summarizes the quasi-identifier grouping of a dataset.
type Stats struct {
	TotalRecords int  `json:"total_records"`
	GroupCount   int  `json:"group_count"`
	MinGroupSize int  `json:"min_group_size"`
	MaxGroupSize int  `json:"max_group_size"`
	Satisfied    bool `json:"satisfied"`
}

var (
	// ErrTooFewRecords rejects a dataset smaller than k outright.
	ErrTooFewRecords = errors.New("fewer records than k, k-anonymity is unsatisfiable")
	// ErrInvalidK rejects a non-positive k.
	ErrInvalidK = errors.New("k must be at least 1")
	// ErrNoQuasiIdentifiers rejects a call without grouping fields.
	ErrNoQuasiIdentifiers = errors.New("at least one quasi-identifier is required")
	// ErrUnreachableGroups is returned under UnreachableError when records
	// cannot reach size k within the round budget.
	ErrUnreachableGroups = errors.New("records could not reach group size k within the round budget")
)
