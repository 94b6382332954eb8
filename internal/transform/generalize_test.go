package transform

import "testing"

func TestGeneralizeValue(t *testing.T) {
	t.Run("AgeBuckets", func(t *testing.T) {
		if got := GeneralizeValue("age", 27, Rule{Level: LevelMinimal}); got != "25-29" {
			t.Errorf("minimal age = %v, want 25-29", got)
		}
		if got := GeneralizeValue("age", 27, Rule{Level: LevelPartial}); got != "20-29" {
			t.Errorf("partial age = %v, want 20-29", got)
		}
		if got := GeneralizeValue("age", 27, Rule{Level: LevelFull}); got != "20-39" {
			t.Errorf("full age = %v, want 20-39", got)
		}
	})

	t.Run("AgeFromString", func(t *testing.T) {
		if got := GeneralizeValue("age", "34", Rule{Level: LevelPartial}); got != "30-39" {
			t.Errorf("string age = %v, want 30-39", got)
		}
	})

	t.Run("Dates", func(t *testing.T) {
		if got := GeneralizeValue("birth_date", "1990-05-17", Rule{Level: LevelMinimal}); got != "1990-05" {
			t.Errorf("minimal date = %v, want 1990-05", got)
		}
		if got := GeneralizeValue("birth_date", "1990-05-17", Rule{Level: LevelPartial}); got != "1990-Q2" {
			t.Errorf("partial date = %v, want 1990-Q2", got)
		}
		if got := GeneralizeValue("birth_date", "1990-05-17", Rule{Level: LevelFull}); got != "1990" {
			t.Errorf("full date = %v, want 1990", got)
		}
	})

	t.Run("Regions", func(t *testing.T) {
		if got := GeneralizeValue("region", "Beijing", Rule{Level: LevelPartial}); got != "north" {
			t.Errorf("partial region = %v, want north", got)
		}
		if got := GeneralizeValue("region", "Atlantis", Rule{Level: LevelPartial}); got != "other" {
			t.Errorf("unknown region = %v, want other", got)
		}
		if got := GeneralizeValue("region", "Beijing", Rule{Level: LevelFull}); got != "*" {
			t.Errorf("full region = %v, want *", got)
		}
	})

	t.Run("NumericFallback", func(t *testing.T) {
		if got := GeneralizeValue("salary", 12345, Rule{Level: LevelPartial}); got != "12300-12399" {
			t.Errorf("fallback bucket = %v, want 12300-12399", got)
		}
	})

	t.Run("NegativeValues", func(t *testing.T) {
		// Integral and fractional negatives must land in the same bucket,
		// and that bucket must actually contain the value.
		if got := GeneralizeValue("salary", -15, Rule{Level: LevelPartial}); got != "-100--1" {
			t.Errorf("integral negative = %v, want -100--1", got)
		}
		if got := GeneralizeValue("salary", -15.5, Rule{Level: LevelPartial}); got != "-100--1" {
			t.Errorf("fractional negative = %v, want -100--1", got)
		}
		if got := GeneralizeValue("salary", -150, Rule{Level: LevelPartial}); got != "-200--101" {
			t.Errorf("negative bucket = %v, want -200--101", got)
		}
		if got := GeneralizeValue("salary", -100, Rule{Level: LevelPartial}); got != "-100--1" {
			t.Errorf("boundary negative = %v, want -100--1", got)
		}
	})

	t.Run("NonNumericPassthrough", func(t *testing.T) {
		if got := GeneralizeValue("nickname", "zed", Rule{Level: LevelPartial}); got != "zed" {
			t.Errorf("passthrough = %v, want zed", got)
		}
	})

	t.Run("CustomOverridesBuiltins", func(t *testing.T) {
		rule := Rule{Custom: func(interface{}) interface{} { return "custom" }}
		if got := GeneralizeValue("age", 27, rule); got != "custom" {
			t.Errorf("custom fn not applied: %v", got)
		}
	})
}

func TestGeneralizeRecord(t *testing.T) {
	record := Record{"age": 27, "city": "shanghai", "name": "untouched"}
	rules := []Rule{
		{Field: "age", Level: LevelPartial},
		{Field: "city", Level: LevelPartial},
	}

	out := GeneralizeRecord(record, rules)
	if out["age"] != "20-29" {
		t.Errorf("age = %v, want 20-29", out["age"])
	}
	if out["city"] != "east" {
		t.Errorf("city = %v, want east", out["city"])
	}
	if out["name"] != "untouched" {
		t.Errorf("unruled field changed: %v", out["name"])
	}
	if record["age"] != 27 {
		t.Error("input record was mutated")
	}
}
