package consent

import (
	"context"
	"time"
)

// Status is the consent state for a (user, purpose) pair.
type Status string

const (
	StatusGranted   Status = "granted"
	StatusDenied    Status = "denied"
	StatusNotSet    Status = "not_set"
	StatusWithdrawn Status = "withdrawn"
)

// Record is the current consent state of one (user, purpose) pair. A new
// save supersedes the previous value for that key; withdrawal is a status
// transition rather than a deletion, so the withdrawal time survives in the
// current value.
type Record struct {
	UserID      string            `json:"user_id" db:"user_id"`
	Purpose     string            `json:"purpose" db:"purpose"`
	Status      Status            `json:"status" db:"status"`
	Timestamp   time.Time         `json:"timestamp" db:"timestamp"`
	WithdrawnAt *time.Time        `json:"withdrawn_at,omitempty" db:"withdrawn_at"`
	Version     string            `json:"version" db:"version"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Store is the pluggable persistence adapter for consent records. Get
// returns (nil, nil) when no record exists. Implementations backing
// concurrent callers must serialize access themselves; adapter errors
// propagate to the caller unreinterpreted.
type Store interface {
	Save(ctx context.Context, record *Record) error
	Get(ctx context.Context, userID, purpose string) (*Record, error)
	GetAll(ctx context.Context, userID string) ([]*Record, error)
	Delete(ctx context.Context, userID, purpose string) error
}

// storeKey builds the canonical userID:purpose key shared by the adapters.
func storeKey(userID, purpose string) string {
	return userID + ":" + purpose
}
