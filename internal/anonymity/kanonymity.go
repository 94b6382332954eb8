package anonymity

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/privacykit/governance/internal/logger"
	"github.com/privacykit/governance/internal/transform"
)

// Enforcer groups records by quasi-identifier signature and generalizes
// under-sized groups until every surviving group reaches size k. Calls are
// independent and share no state, so an Enforcer is safe for concurrent use.
type Enforcer struct {
	logger *logger.Logger
}

// NewEnforcer creates an enforcer. A nil logger discards output.
func NewEnforcer(log *logger.Logger) *Enforcer {
	if log == nil {
		log = logger.Nop()
	}
	return &Enforcer{logger: log.WithComponent("k-anonymity")}
}

// Anonymize returns a k-anonymous version of records. Groups already of
// size >= k pass through unchanged; smaller groups are generalized round by
// round and re-grouped. Records still failing after the round budget are
// handled per Options.OnUnreachable.
func (e *Enforcer) Anonymize(records []transform.Record, opts Options) ([]transform.Record, error) {
	if opts.K < 1 {
		return nil, ErrInvalidK
	}
	if len(opts.QuasiIdentifiers) == 0 {
		return nil, ErrNoQuasiIdentifiers
	}
	if len(records) < opts.K {
		return nil, fmt.Errorf("%w: have %d records, need at least %d", ErrTooFewRecords, len(records), opts.K)
	}

	maxRounds := opts.MaxRounds
	if maxRounds == 0 {
		maxRounds = DefaultMaxRounds
	}
	rules := e.effectiveRules(opts)

	output := make([]transform.Record, 0, len(records))
	remaining := records

	for round := 0; ; round++ {
		qualified, failing := e.partition(remaining, opts.K, opts.QuasiIdentifiers)
		output = append(output, qualified...)
		remaining = failing

		if len(remaining) == 0 || round >= maxRounds {
			break
		}

		e.logger.Debug("generalizing under-sized groups",
			zap.Int("round", round+1),
			zap.Int("remaining", len(remaining)),
		)
		remaining = transform.GeneralizeRecords(remaining, rules)
	}

	if len(remaining) > 0 {
		if opts.OnUnreachable == UnreachableError {
			return nil, fmt.Errorf("%w: %d records", ErrUnreachableGroups, len(remaining))
		}
		e.logger.Warn("suppressing records that could not reach k-anonymity",
			zap.Int("suppressed", len(remaining)),
			zap.Int("k", opts.K),
		)
	}

	return output, nil
}

// effectiveRules returns the caller's rules minus any that target a
// sensitive field, or default partial generalization of every
// quasi-identifier when no rules were given.
func (e *Enforcer) effectiveRules(opts Options) []transform.Rule {
	sensitive := make(map[string]bool, len(opts.SensitiveFields))
	for _, f := range opts.SensitiveFields {
		sensitive[f] = true
	}

	if len(opts.Rules) == 0 {
		rules := make([]transform.Rule, 0, len(opts.QuasiIdentifiers))
		for _, qi := range opts.QuasiIdentifiers {
			if sensitive[qi] {
				continue
			}
			rules = append(rules, transform.Rule{Field: qi, Level: transform.LevelPartial})
		}
		return rules
	}

	rules := make([]transform.Rule, 0, len(opts.Rules))
	for _, r := range opts.Rules {
		if sensitive[r.Field] {
			continue
		}
		rules = append(rules, r)
	}
	return rules
}

// partition splits records into those whose group meets k and the rest.
func (e *Enforcer) partition(records []transform.Record, k int, quasiIdentifiers []string) (qualified, failing []transform.Record) {
	groups := groupRecords(records, quasiIdentifiers)
	for _, group := range groups {
		if len(group) >= k {
			qualified = append(qualified, group...)
		} else {
			failing = append(failing, group...)
		}
	}
	return qualified, failing
}

// Check reports whether every quasi-identifier group in records has size >= k.
func (e *Enforcer) Check(records []transform.Record, k int, quasiIdentifiers []string) bool {
	if len(records) == 0 {
		return false
	}
	for _, group := range groupRecords(records, quasiIdentifiers) {
		if len(group) < k {
			return false
		}
	}
	return true
}

// Stats reports grouping statistics and whether records satisfy k-anonymity.
func (e *Enforcer) Stats(records []transform.Record, k int, quasiIdentifiers []string) Stats {
	groups := groupRecords(records, quasiIdentifiers)

	stats := Stats{
		TotalRecords: len(records),
		GroupCount:   len(groups),
	}
	for _, group := range groups {
		size := len(group)
		if stats.MinGroupSize == 0 || size < stats.MinGroupSize {
			stats.MinGroupSize = size
		}
		if size > stats.MaxGroupSize {
			stats.MaxGroupSize = size
		}
	}
	stats.Satisfied = len(records) > 0 && stats.MinGroupSize >= k
	return stats
}

// groupRecords buckets records by the ordered, |-joined string of their
// quasi-identifier values. Missing or nil fields contribute an empty string.
func groupRecords(records []transform.Record, quasiIdentifiers []string) map[string][]transform.Record {
	groups := make(map[string][]transform.Record)
	for _, record := range records {
		key := groupKey(record, quasiIdentifiers)
		groups[key] = append(groups[key], record)
	}
	return groups
}

func groupKey(record transform.Record, quasiIdentifiers []string) string {
	parts := make([]string, len(quasiIdentifiers))
	for i, qi := range quasiIdentifiers {
		if value, ok := record[qi]; ok && value != nil {
			parts[i] = fmt.Sprintf("%v", value)
		}
	}
	return strings.Join(parts, "|")
}
