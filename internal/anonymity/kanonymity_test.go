package anonymity

import (
	"errors"
	"testing"

	"github.com/privacykit/governance/internal/transform"
)

func TestAnonymize(t *testing.T) {
	enforcer := NewEnforcer(nil)
	quasiIdentifiers := []string{"age", "zip"}

	t.Run("TooFewRecords", func(t *testing.T) {
		records := []transform.Record{{"age": 25, "zip": "10001"}}
		_, err := enforcer.Anonymize(records, Options{K: 2, QuasiIdentifiers: quasiIdentifiers})
		if !errors.Is(err, ErrTooFewRecords) {
			t.Errorf("err = %v, want ErrTooFewRecords", err)
		}
	})

	t.Run("MissingQuasiIdentifiers", func(t *testing.T) {
		_, err := enforcer.Anonymize([]transform.Record{{"a": 1}, {"a": 2}}, Options{K: 2})
		if !errors.Is(err, ErrNoQuasiIdentifiers) {
			t.Errorf("err = %v, want ErrNoQuasiIdentifiers", err)
		}
	})

	t.Run("AlreadyAnonymousPassesThrough", func(t *testing.T) {
		records := []transform.Record{
			{"age": "20-29", "zip": "100", "name": "a"},
			{"age": "20-29", "zip": "100", "name": "b"},
		}
		out, err := enforcer.Anonymize(records, Options{K: 2, QuasiIdentifiers: quasiIdentifiers})
		if err != nil {
			t.Fatalf("anonymize failed: %v", err)
		}
		if len(out) != 2 {
			t.Fatalf("len = %d, want 2", len(out))
		}
		if out[0]["name"] != "a" && out[1]["name"] != "a" {
			t.Error("record content lost")
		}
	})

	t.Run("GeneralizationMergesGroups", func(t *testing.T) {
		// Distinct ages 23 and 27 land in the same 20-29 bucket after one
		// partial generalization round.
		records := []transform.Record{
			{"age": 23, "zip": "10001"},
			{"age": 27, "zip": "10001"},
			{"age": 23, "zip": "10001"},
			{"age": 27, "zip": "10001"},
		}
		out, err := enforcer.Anonymize(records, Options{K: 4, QuasiIdentifiers: []string{"age"}})
		if err != nil {
			t.Fatalf("anonymize failed: %v", err)
		}
		if len(out) != 4 {
			t.Fatalf("len = %d, want 4", len(out))
		}
		if !enforcer.Check(out, 4, []string{"age"}) {
			t.Error("output does not satisfy k-anonymity")
		}
	})

	t.Run("UnreachableRecordsSuppressed", func(t *testing.T) {
		// Region values cannot merge: one maps north, one maps south, and
		// full generalization is never applied by partial-level rules.
		records := []transform.Record{
			{"tag": "x", "label": "a"},
			{"tag": "x", "label": "a"},
			{"tag": "y", "label": "b"},
		}
		out, err := enforcer.Anonymize(records, Options{
			K:                2,
			QuasiIdentifiers: []string{"tag"},
			Rules:            []transform.Rule{{Field: "tag", Custom: func(v interface{}) interface{} { return v }}},
		})
		if err != nil {
			t.Fatalf("anonymize failed: %v", err)
		}
		if len(out) != 2 {
			t.Errorf("len = %d, want 2 (odd record suppressed)", len(out))
		}
		if !enforcer.Check(out, 2, []string{"tag"}) {
			t.Error("output does not satisfy k-anonymity")
		}
	})

	t.Run("UnreachableErrorPolicy", func(t *testing.T) {
		records := []transform.Record{
			{"tag": "x"},
			{"tag": "x"},
			{"tag": "y"},
		}
		_, err := enforcer.Anonymize(records, Options{
			K:                2,
			QuasiIdentifiers: []string{"tag"},
			Rules:            []transform.Rule{{Field: "tag", Custom: func(v interface{}) interface{} { return v }}},
			OnUnreachable:    UnreachableError,
		})
		if !errors.Is(err, ErrUnreachableGroups) {
			t.Errorf("err = %v, want ErrUnreachableGroups", err)
		}
	})

	t.Run("SensitiveFieldsNeverGeneralized", func(t *testing.T) {
		records := []transform.Record{
			{"age": 23, "diagnosis": "a"},
			{"age": 27, "diagnosis": "b"},
		}
		out, err := enforcer.Anonymize(records, Options{
			K:                2,
			QuasiIdentifiers: []string{"age"},
			SensitiveFields:  []string{"diagnosis"},
		})
		if err != nil {
			t.Fatalf("anonymize failed: %v", err)
		}
		values := map[interface{}]bool{}
		for _, r := range out {
			values[r["diagnosis"]] = true
		}
		if !values["a"] || !values["b"] {
			t.Errorf("sensitive values altered: %v", values)
		}
	})
}

func TestCheck(t *testing.T) {
	enforcer := NewEnforcer(nil)
	quasiIdentifiers := []string{"age", "zip"}

	t.Run("TwoGroupsOfTwo", func(t *testing.T) {
		records := []transform.Record{
			{"age": 25, "zip": "10001"},
			{"age": 25, "zip": "10001"},
			{"age": 30, "zip": "20002"},
			{"age": 30, "zip": "20002"},
		}
		if !enforcer.Check(records, 2, quasiIdentifiers) {
			t.Error("Check = false, want true")
		}
	})

	t.Run("SingletonGroupsFail", func(t *testing.T) {
		records := []transform.Record{
			{"age": 25, "zip": "10001"},
			{"age": 30, "zip": "20002"},
		}
		if enforcer.Check(records, 2, quasiIdentifiers) {
			t.Error("Check = true, want false")
		}
	})

	t.Run("MissingFieldsGroupTogether", func(t *testing.T) {
		records := []transform.Record{
			{"zip": "10001"},
			{"age": nil, "zip": "10001"},
		}
		if !enforcer.Check(records, 2, quasiIdentifiers) {
			t.Error("missing and nil quasi-identifiers should share a group")
		}
	})

	t.Run("EmptyDataset", func(t *testing.T) {
		if enforcer.Check(nil, 2, quasiIdentifiers) {
			t.Error("empty dataset cannot satisfy k-anonymity")
		}
	})
}

func TestStats(t *testing.T) {
	enforcer := NewEnforcer(nil)
	records := []transform.Record{
		{"age": 25, "zip": "10001"},
		{"age": 25, "zip": "10001"},
		{"age": 25, "zip": "10001"},
		{"age": 30, "zip": "20002"},
		{"age": 30, "zip": "20002"},
	}

	stats := enforcer.Stats(records, 2, []string{"age", "zip"})
	if stats.TotalRecords != 5 {
		t.Errorf("TotalRecords = %d, want 5", stats.TotalRecords)
	}
	if stats.GroupCount != 2 {
		t.Errorf("GroupCount = %d, want 2", stats.GroupCount)
	}
	if stats.MinGroupSize != 2 || stats.MaxGroupSize != 3 {
		t.Errorf("group sizes = %d/%d, want 2/3", stats.MinGroupSize, stats.MaxGroupSize)
	}
	if !stats.Satisfied {
		t.Error("Satisfied = false, want true")
	}

	stats = enforcer.Stats(records, 3, []string{"age", "zip"})
	if stats.Satisfied {
		t.Error("Satisfied = true, want false for k=3")
	}
}
