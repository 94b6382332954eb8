package audit

import (
	"testing"
	"time"
)

func TestBuildFilter(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		where, args := buildFilter(QueryOptions{})
		if where != "" || len(args) != 0 {
			t.Errorf("empty filter rendered %q with %d args", where, len(args))
		}
	})

	t.Run("AllFilters", func(t *testing.T) {
		from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		to := from.Add(24 * time.Hour)
		where, args := buildFilter(QueryOptions{
			UserID:       "u1",
			Action:       ActionView,
			ResourceType: "order",
			ResourceID:   "o1",
			From:         from,
			To:           to,
		})

		want := " WHERE user_id = $1 AND action = $2 AND resource_type = $3 AND resource_id = $4 AND timestamp >= $5 AND timestamp <= $6"
		if where != want {
			t.Errorf("where = %q\nwant    %q", where, want)
		}
		if len(args) != 6 {
			t.Errorf("args = %d, want 6", len(args))
		}
	})

	t.Run("PartialFiltersRenumber", func(t *testing.T) {
		where, args := buildFilter(QueryOptions{Action: ActionDelete, ResourceID: "o1"})
		want := " WHERE action = $1 AND resource_id = $2"
		if where != want {
			t.Errorf("where = %q, want %q", where, want)
		}
		if len(args) != 2 {
			t.Errorf("args = %d, want 2", len(args))
		}
	})
}

func TestSortColumnWhitelist(t *testing.T) {
	for _, sortBy := range []string{SortByTimestamp, SortByUserID, SortByAction} {
		if _, ok := sortColumns[sortBy]; !ok {
			t.Errorf("sortable column %q missing from whitelist", sortBy)
		}
	}
	if _, ok := sortColumns["details; DROP TABLE audit_entries"]; ok {
		t.Error("whitelist accepts arbitrary input")
	}
}
