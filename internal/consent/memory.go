package consent

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore is the reference in-process consent store, keyed by
// userID:purpose. Suitable for tests and single-node deployments.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

// Save stores a copy of the record, superseding any previous value for the key.
func (s *MemoryStore) Save(_ context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *record
	s.records[storeKey(record.UserID, record.Purpose)] = &clone
	return nil
}

// Get returns a copy of the stored record, or (nil, nil) when absent.
func (s *MemoryStore) Get(_ context.Context, userID, purpose string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[storeKey(userID, purpose)]
	if !ok {
		return nil, nil
	}
	clone := *record
	return &clone, nil
}

// GetAll returns copies of every record belonging to a user.
func (s *MemoryStore) GetAll(_ context.Context, userID string) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := userID + ":"
	records := make([]*Record, 0)
	for key, record := range s.records {
		if strings.HasPrefix(key, prefix) {
			clone := *record
			records = append(records, &clone)
		}
	}
	return records, nil
}

// Delete removes a record; deleting a missing record is not an error.
func (s *MemoryStore) Delete(_ context.Context, userID, purpose string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, storeKey(userID, purpose))
	return nil
}
