package retention

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"
)

// Policy declares how long data of given types may be kept. Policies are
// evaluated in list order and an item is governed by the first policy whose
// DataTypes applies (first match, not best match).
type Policy struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	RetentionDays int    `json:"retention_days"`

	// DataTypes restricts the policy to the listed item types. Empty means
	// the policy applies to any item.
	DataTypes        []string `json:"data_types,omitempty"`
	AutoDelete       bool     `json:"auto_delete"`
	NotifyBeforeDays int      `json:"notify_before_days,omitempty"`
}

// ItemMetadata describes one stored data item. The engine only reads it and
// issues deletes by id; it never owns or mutates storage.
type ItemMetadata struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt *time.Time        `json:"updated_at,omitempty"`
	ExpiresAt *time.Time        `json:"expires_at,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Accessor is the caller-supplied window into the external data store.
// Accessor errors propagate to the caller unreinterpreted; no timeouts are
// imposed beyond the passed context.
type Accessor interface {
	GetAllMetadata(ctx context.Context) ([]ItemMetadata, error)
	DeleteItem(ctx context.Context, id string) error
	DeleteItems(ctx context.Context, ids []string) error
}

// CheckResult is the outcome of one retention evaluation pass.
type CheckResult struct {
	// Expired items have passed their retention window.
	Expired []ItemMetadata `json:"expired"`
	// ToDelete is the subset of Expired governed by an auto-delete policy.
	ToDelete []ItemMetadata `json:"to_delete"`
	// ExpiringSoon items fall inside their policy's notification window.
	ExpiringSoon []ItemMetadata `json:"expiring_soon"`
}

// Options tunes the scheduler. Zero values select the defaults.
type Options struct {
	CheckInterval time.Duration // default 24h
	BatchSize     int           // default 100
	// DeleteRate throttles deletion batches per second; zero means unlimited.
	DeleteRate rate.Limit
}

const (
	// DefaultCheckInterval is the pass cadence when Options leaves it unset.
	DefaultCheckInterval = 24 * time.Hour
	// DefaultBatchSize is the deletion batch size when Options leaves it unset.
	DefaultBatchSize = 100
)

// ErrPolicyNotFound is returned when removing an unknown policy id.
var ErrPolicyNotFound = errors.New("retention policy not found")
