package audit

import (
	"context"
	"testing"
	"time"
)

func TestLog(t *testing.T) {
	ctx := context.Background()

	t.Run("StampsIDAndTimestamp", func(t *testing.T) {
		fixed := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
		l := NewLogger(NewMemoryStore(), Defaults{}, nil,
			WithClock(func() time.Time { return fixed }))
		entry, err := l.Log(ctx, Entry{Action: ActionView, ResourceType: "order", ResourceID: "o1", UserID: "u1"})
		if err != nil {
			t.Fatalf("log failed: %v", err)
		}
		if entry.ID == "" {
			t.Error("id not generated")
		}
		if !entry.Timestamp.Equal(fixed) {
			t.Errorf("timestamp = %v, want clock value %v", entry.Timestamp, fixed)
		}
		if entry.Result != ResultSuccess {
			t.Errorf("result = %s, want success default", entry.Result)
		}
	})

	t.Run("UniqueIDs", func(t *testing.T) {
		l := NewLogger(NewMemoryStore(), Defaults{}, nil)
		first, _ := l.Log(ctx, Entry{Action: ActionView, ResourceType: "order", ResourceID: "o1"})
		second, _ := l.Log(ctx, Entry{Action: ActionView, ResourceType: "order", ResourceID: "o1"})
		if first.ID == second.ID {
			t.Error("ids must be unique")
		}
	})

	t.Run("DefaultsFillOmittedFields", func(t *testing.T) {
		defaults := Defaults{UserID: "svc", IPAddress: "10.0.0.9", UserAgent: "governanced"}
		l := NewLogger(NewMemoryStore(), defaults, nil)

		entry, _ := l.Log(ctx, Entry{Action: ActionCreate, ResourceType: "user", ResourceID: "u1"})
		if entry.UserID != "svc" || entry.IPAddress != "10.0.0.9" || entry.UserAgent != "governanced" {
			t.Errorf("defaults not applied: %+v", entry)
		}

		entry, _ = l.Log(ctx, Entry{Action: ActionCreate, ResourceType: "user", ResourceID: "u1", UserID: "caller"})
		if entry.UserID != "caller" {
			t.Error("explicit field overridden by default")
		}
	})

	t.Run("ConvenienceWrappers", func(t *testing.T) {
		store := NewMemoryStore()
		l := NewLogger(store, Defaults{UserID: "u1"}, nil)

		l.LogView(ctx, "order", "o1", nil)
		l.LogCreate(ctx, "order", "o2", nil)
		l.LogUpdate(ctx, "order", "o2", nil)
		l.LogDelete(ctx, "order", "o2", nil)
		l.LogExport(ctx, "order", "o2", map[string]interface{}{"format": "parquet"})
		l.LogAccess(ctx, "order", "o2", nil)
		l.LogFailure(ctx, ActionDelete, "order", "o3", "permission denied")

		count, _ := l.Count(ctx, QueryOptions{})
		if count != 7 {
			t.Errorf("count = %d, want 7", count)
		}

		failures, _ := l.Query(ctx, QueryOptions{Action: ActionDelete})
		var failed *Entry
		for _, e := range failures {
			if e.Result == ResultFailure {
				failed = e
			}
		}
		if failed == nil || failed.Error != "permission denied" {
			t.Errorf("failure entry wrong: %+v", failed)
		}
	})
}

func seedEntries(t *testing.T) *Logger {
	t.Helper()
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	current := base
	l := NewLogger(NewMemoryStore(), Defaults{}, nil,
		WithClock(func() time.Time { return current }))

	fixtures := []struct {
		offset time.Duration
		user   string
		action Action
	}{
		{0, "alice", ActionView},
		{time.Hour, "bob", ActionCreate},
		{2 * time.Hour, "alice", ActionDelete},
		{3 * time.Hour, "carol", ActionView},
	}
	for _, f := range fixtures {
		current = base.Add(f.offset)
		if _, err := l.Log(ctx, Entry{UserID: f.user, Action: f.action, ResourceType: "order", ResourceID: "o1"}); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}
	return l
}

func TestQuery(t *testing.T) {
	ctx := context.Background()
	l := seedEntries(t)

	t.Run("FilterByUser", func(t *testing.T) {
		entries, err := l.Query(ctx, QueryOptions{UserID: "alice"})
		if err != nil {
			t.Fatalf("query failed: %v", err)
		}
		if len(entries) != 2 {
			t.Errorf("len = %d, want 2", len(entries))
		}
	})

	t.Run("FilterByTimeRange", func(t *testing.T) {
		from := time.Date(2026, 1, 1, 0, 30, 0, 0, time.UTC)
		to := time.Date(2026, 1, 1, 2, 30, 0, 0, time.UTC)
		entries, _ := l.Query(ctx, QueryOptions{From: from, To: to})
		if len(entries) != 2 {
			t.Errorf("len = %d, want 2", len(entries))
		}
	})

	t.Run("SortDescending", func(t *testing.T) {
		entries, _ := l.Query(ctx, QueryOptions{SortBy: SortByTimestamp, SortDesc: true})
		for i := 1; i < len(entries); i++ {
			if entries[i].Timestamp.After(entries[i-1].Timestamp) {
				t.Fatal("not sorted descending")
			}
		}
	})

	t.Run("SortByUser", func(t *testing.T) {
		entries, _ := l.Query(ctx, QueryOptions{SortBy: SortByUserID})
		for i := 1; i < len(entries); i++ {
			if entries[i].UserID < entries[i-1].UserID {
				t.Fatal("not sorted by user")
			}
		}
	})

	t.Run("Pagination", func(t *testing.T) {
		page, _ := l.Query(ctx, QueryOptions{SortBy: SortByTimestamp, Limit: 2, Offset: 1})
		if len(page) != 2 {
			t.Fatalf("len = %d, want 2", len(page))
		}
		if page[0].UserID != "bob" {
			t.Errorf("offset not applied, first = %s", page[0].UserID)
		}

		empty, _ := l.Query(ctx, QueryOptions{Offset: 100})
		if len(empty) != 0 {
			t.Errorf("past-the-end offset should be empty, got %d", len(empty))
		}
	})

	t.Run("CountIgnoresPagination", func(t *testing.T) {
		count, err := l.Count(ctx, QueryOptions{Limit: 1, Offset: 1})
		if err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if count != 4 {
			t.Errorf("count = %d, want 4", count)
		}
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	l := NewLogger(NewMemoryStore(), Defaults{}, nil)

	first, _ := l.Log(ctx, Entry{UserID: "u1", Action: ActionView, ResourceType: "r", ResourceID: "1"})
	second, _ := l.Log(ctx, Entry{UserID: "u1", Action: ActionView, ResourceType: "r", ResourceID: "2"})
	third, _ := l.Log(ctx, Entry{UserID: "u1", Action: ActionView, ResourceType: "r", ResourceID: "3"})

	if err := l.Delete(ctx, first.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := l.DeleteMany(ctx, []string{second.ID, third.ID}); err != nil {
		t.Fatalf("delete many failed: %v", err)
	}

	count, _ := l.Count(ctx, QueryOptions{})
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
}
