package audit

import (
	"context"
	"time"
)

// Action identifies the governance-relevant operation an entry records.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionExport Action = "export"
	ActionAccess Action = "access"
)

// Result records whether the audited operation succeeded.
type Result string

const (
	ResultSuccess Result = "success"
	ResultFailure Result = "failure"
)

// Entry is one audit trail record. Entries are append-only: ids are
// engine-generated and unique, and an entry is never mutated after creation,
// only deleted for retention compliance.
type Entry struct {
	ID           string                 `json:"id"`
	UserID       string                 `json:"user_id"`
	Action       Action                 `json:"action"`
	ResourceType string                 `json:"resource_type"`
	ResourceID   string                 `json:"resource_id"`
	Timestamp    time.Time              `json:"timestamp"`
	IPAddress    string                 `json:"ip_address,omitempty"`
	UserAgent    string                 `json:"user_agent,omitempty"`
	Details      map[string]interface{} `json:"details,omitempty"`
	Result       Result                 `json:"result"`
	Error        string                 `json:"error,omitempty"`
}

// Sortable query columns.
const (
	SortByTimestamp = "timestamp"
	SortByUserID    = "user_id"
	SortByAction    = "action"
)

// QueryOptions filters, sorts, and paginates an audit query. Zero-valued
// filters are ignored; a zero From/To leaves that side of the time range open.
type QueryOptions struct {
	UserID       string
	Action       Action
	ResourceType string
	ResourceID   string
	From         time.Time
	To           time.Time
	SortBy       string // timestamp (default), user_id, or action
	SortDesc     bool
	Limit        int
	Offset       int
}

// Store is the pluggable persistence adapter for audit entries. Adapter
// errors propagate to the caller unreinterpreted.
type Store interface {
	Save(ctx context.Context, entry *Entry) error
	Query(ctx context.Context, opts QueryOptions) ([]*Entry, error)
	Count(ctx context.Context, opts QueryOptions) (int, error)
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) error
}

// matches reports whether an entry passes the query's filters.
func (opts QueryOptions) matches(e *Entry) bool {
	if opts.UserID != "" && e.UserID != opts.UserID {
		return false
	}
	if opts.Action != "" && e.Action != opts.Action {
		return false
	}
	if opts.ResourceType != "" && e.ResourceType != opts.ResourceType {
		return false
	}
	if opts.ResourceID != "" && e.ResourceID != opts.ResourceID {
		return false
	}
	if !opts.From.IsZero() && e.Timestamp.Before(opts.From) {
		return false
	}
	if !opts.To.IsZero() && e.Timestamp.After(opts.To) {
		return false
	}
	return true
}

// withoutPagination strips Limit and Offset, for Count.
func (opts QueryOptions) withoutPagination() QueryOptions {
	opts.Limit = 0
	opts.Offset = 0
	return opts
}
