package transform

import "testing"

func TestSelectAndExcludeFields(t *testing.T) {
	record := Record{
		"id":    "u1",
		"email": "a@b.io",
		"profile": Record{
			"email": "a@b.io",
			"bio":   "hello",
		},
	}

	t.Run("Select", func(t *testing.T) {
		out := SelectFields(record, []string{"id"}, false)
		if len(out) != 1 || out["id"] != "u1" {
			t.Errorf("unexpected projection: %v", out)
		}
	})

	t.Run("ExcludeShallow", func(t *testing.T) {
		out := ExcludeFields(record, []string{"email"}, false)
		if _, ok := out["email"]; ok {
			t.Error("excluded field present")
		}
		profile := out["profile"].(Record)
		if _, ok := profile["email"]; !ok {
			t.Error("shallow exclude must not recurse")
		}
	})

	t.Run("ExcludeDeep", func(t *testing.T) {
		out := ExcludeFields(record, []string{"email"}, true)
		profile := out["profile"].(Record)
		if _, ok := profile["email"]; ok {
			t.Error("deep exclude did not recurse")
		}
		if profile["bio"] != "hello" {
			t.Error("sibling field changed")
		}
	})
}

func TestCleanRecord(t *testing.T) {
	record := Record{
		"name":  "Alice",
		"empty": "",
		"nope":  nil,
		"tags":  []interface{}{"a", "a", "", "b"},
		"nested": Record{
			"empty": "",
			"kept":  "v",
		},
	}

	opts := CleanOptions{RemoveEmptyStrings: true, RemoveNils: true, RemoveDuplicates: true}
	out := CleanRecord(record, opts)

	if _, ok := out["empty"]; ok {
		t.Error("empty string kept")
	}
	if _, ok := out["nope"]; ok {
		t.Error("nil kept")
	}
	tags := out["tags"].([]interface{})
	if len(tags) != 2 || tags[0] != "a" || tags[1] != "b" {
		t.Errorf("tags = %v, want [a b]", tags)
	}
	nested := out["nested"].(Record)
	if _, ok := nested["empty"]; ok {
		t.Error("nested empty string kept")
	}
	if nested["kept"] != "v" {
		t.Error("nested value lost")
	}
}

func TestCleanRecordKeepsByDefault(t *testing.T) {
	record := Record{"empty": "", "nope": nil}
	out := CleanRecord(record, CleanOptions{})
	if len(out) != 2 {
		t.Errorf("zero options must keep everything, got %v", out)
	}
}
