package audit

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is the reference in-process audit store, an append-ordered
// slice behind a mutex. Suitable for tests and single-node deployments.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []*Entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make([]*Entry, 0)}
}

// Save appends a copy of the entry.
func (s *MemoryStore) Save(_ context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *entry
	s.entries = append(s.entries, &clone)
	return nil
}

// Query returns copies of matching entries, sorted and paginated.
func (s *MemoryStore) Query(_ context.Context, opts QueryOptions) ([]*Entry, error) {
	s.mu.RLock()
	matched := make([]*Entry, 0)
	for _, e := range s.entries {
		if opts.matches(e) {
			clone := *e
			matched = append(matched, &clone)
		}
	}
	s.mu.RUnlock()

	sortEntries(matched, opts.SortBy, opts.SortDesc)

	if opts.Offset > 0 {
		if opts.Offset >= len(matched) {
			return []*Entry{}, nil
		}
		matched = matched[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(matched) {
		matched = matched[:opts.Limit]
	}
	return matched, nil
}

// Count returns the number of matching entries, ignoring pagination.
func (s *MemoryStore) Count(_ context.Context, opts QueryOptions) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, e := range s.entries {
		if opts.matches(e) {
			count++
		}
	}
	return count, nil
}

// Delete removes one entry by id; a missing id is not an error.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	return s.DeleteMany(ctx, []string{id})
}

// DeleteMany removes a batch of entries by id.
func (s *MemoryStore) DeleteMany(_ context.Context, ids []string) error {
	targets := make(map[string]bool, len(ids))
	for _, id := range ids {
		targets[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[:0]
	for _, e := range s.entries {
		if !targets[e.ID] {
			kept = append(kept, e)
		}
	}
	s.entries = kept
	return nil
}

func sortEntries(entries []*Entry, sortBy string, desc bool) {
	var less func(a, b *Entry) bool
	switch sortBy {
	case SortByUserID:
		less = func(a, b *Entry) bool { return a.UserID < b.UserID }
	case SortByAction:
		less = func(a, b *Entry) bool { return a.Action < b.Action }
	default:
		less = func(a, b *Entry) bool { return a.Timestamp.Before(b.Timestamp) }
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if desc {
			return less(entries[j], entries[i])
		}
		return less(entries[i], entries[j])
	})
}
