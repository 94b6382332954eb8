package consent

import (
	"context"
	"testing"
	"time"
)

func newTestManager() *Manager {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return NewManager(NewMemoryStore(), nil,
		WithVersion("2.1"),
		WithClock(func() time.Time { return fixed }),
	)
}

func TestConsentLifecycle(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()

	t.Run("NotSetByDefault", func(t *testing.T) {
		status, err := m.Status(ctx, "u1", "marketing")
		if err != nil {
			t.Fatalf("status failed: %v", err)
		}
		if status != StatusNotSet {
			t.Errorf("status = %s, want not_set", status)
		}
		granted, _ := m.Has(ctx, "u1", "marketing")
		if granted {
			t.Error("Has should be false before any grant")
		}
	})

	t.Run("GrantThenHas", func(t *testing.T) {
		record, err := m.Grant(ctx, "u1", "marketing", map[string]string{"channel": "web"})
		if err != nil {
			t.Fatalf("grant failed: %v", err)
		}
		if record.Status != StatusGranted || record.Version != "2.1" {
			t.Errorf("unexpected record: %+v", record)
		}

		granted, err := m.Has(ctx, "u1", "marketing")
		if err != nil {
			t.Fatalf("has failed: %v", err)
		}
		if !granted {
			t.Error("Has = false after grant")
		}
	})

	t.Run("WithdrawTransitionsAndStamps", func(t *testing.T) {
		record, err := m.Withdraw(ctx, "u1", "marketing")
		if err != nil {
			t.Fatalf("withdraw failed: %v", err)
		}
		if record.Status != StatusWithdrawn {
			t.Errorf("status = %s, want withdrawn", record.Status)
		}
		if record.WithdrawnAt == nil {
			t.Error("WithdrawnAt not stamped")
		}

		granted, _ := m.Has(ctx, "u1", "marketing")
		if granted {
			t.Error("Has = true after withdraw")
		}
		status, _ := m.Status(ctx, "u1", "marketing")
		if status != StatusWithdrawn {
			t.Errorf("status = %s, want withdrawn", status)
		}
	})

	t.Run("RegrantAfterWithdraw", func(t *testing.T) {
		if _, err := m.Grant(ctx, "u1", "marketing", nil); err != nil {
			t.Fatalf("grant failed: %v", err)
		}
		granted, _ := m.Has(ctx, "u1", "marketing")
		if !granted {
			t.Error("explicit re-consent must always win")
		}
	})

	t.Run("DenyIsNotConsent", func(t *testing.T) {
		if _, err := m.Deny(ctx, "u1", "analytics", nil); err != nil {
			t.Fatalf("deny failed: %v", err)
		}
		granted, _ := m.Has(ctx, "u1", "analytics")
		if granted {
			t.Error("Has = true for denied purpose")
		}
	})

	t.Run("WithdrawMissingIsNoop", func(t *testing.T) {
		record, err := m.Withdraw(ctx, "u1", "never-seen")
		if err != nil {
			t.Fatalf("withdraw failed: %v", err)
		}
		if record != nil {
			t.Errorf("record = %+v, want nil", record)
		}
	})
}

func TestCheckManyAndGetAll(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()

	if _, err := m.Grant(ctx, "u2", "marketing", nil); err != nil {
		t.Fatalf("grant failed: %v", err)
	}
	if _, err := m.Deny(ctx, "u2", "analytics", nil); err != nil {
		t.Fatalf("deny failed: %v", err)
	}

	results, err := m.CheckMany(ctx, "u2", []string{"marketing", "analytics", "profiling"})
	if err != nil {
		t.Fatalf("check many failed: %v", err)
	}
	if !results["marketing"] || results["analytics"] || results["profiling"] {
		t.Errorf("unexpected results: %v", results)
	}

	records, err := m.GetAll(ctx, "u2")
	if err != nil {
		t.Fatalf("get all failed: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("len = %d, want 2", len(records))
	}
}

func TestWithdrawAll(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()

	m.Grant(ctx, "u3", "marketing", nil)
	m.Grant(ctx, "u3", "analytics", nil)
	m.Deny(ctx, "u3", "profiling", nil)

	withdrawn, err := m.WithdrawAll(ctx, "u3")
	if err != nil {
		t.Fatalf("withdraw all failed: %v", err)
	}
	if len(withdrawn) != 2 {
		t.Errorf("withdrawn = %d, want 2 (denied purpose untouched)", len(withdrawn))
	}

	status, _ := m.Status(ctx, "u3", "profiling")
	if status != StatusDenied {
		t.Errorf("denied purpose transitioned: %s", status)
	}
}

func TestDeleteConsent(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()

	m.Grant(ctx, "u4", "marketing", nil)
	if err := m.Delete(ctx, "u4", "marketing"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	status, _ := m.Status(ctx, "u4", "marketing")
	if status != StatusNotSet {
		t.Errorf("status after delete = %s, want not_set", status)
	}
}

func TestLastWriteWins(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()

	m.Deny(ctx, "u5", "marketing", nil)
	m.Grant(ctx, "u5", "marketing", nil)

	record, err := m.Get(ctx, "u5", "marketing")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if record == nil || record.Status != StatusGranted {
		t.Errorf("record = %+v, want granted", record)
	}
}
