package consent

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/privacykit/governance/internal/logger"
)

// Manager is the per-(user, purpose) consent state machine over a pluggable
// store. A fresh Grant or Deny always overwrites whatever was stored before:
// explicit re-consent wins over any prior state.
type Manager struct {
	store   Store
	version string
	logger  *logger.Logger
	now     func() time.Time
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithVersion stamps every new record with a consent policy version.
func WithVersion(version string) ManagerOption {
	return func(m *Manager) { m.version = version }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a consent manager over the given store. A nil logger
// discards output.
func NewManager(store Store, log *logger.Logger, opts ...ManagerOption) *Manager {
	if log == nil {
		log = logger.Nop()
	}
	m := &Manager{
		store:   store,
		version: "1.0",
		logger:  log.WithComponent("consent"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Version returns the consent policy version new records are stamped with.
func (m *Manager) Version() string {
	return m.version
}

// Grant records consent for a purpose, overwriting any prior state.
func (m *Manager) Grant(ctx context.Context, userID, purpose string, metadata map[string]string) (*Record, error) {
	return m.save(ctx, userID, purpose, StatusGranted, metadata)
}

// Deny records refusal for a purpose, overwriting any prior state.
func (m *Manager) Deny(ctx context.Context, userID, purpose string, metadata map[string]string) (*Record, error) {
	return m.save(ctx, userID, purpose, StatusDenied, metadata)
}

func (m *Manager) save(ctx context.Context, userID, purpose string, status Status, metadata map[string]string) (*Record, error) {
	record := &Record{
		UserID:    userID,
		Purpose:   purpose,
		Status:    status,
		Timestamp: m.now(),
		Version:   m.version,
		Metadata:  metadata,
	}
	if err := m.store.Save(ctx, record); err != nil {
		return nil, err
	}

	m.logger.Info("consent recorded",
		zap.String("user_id", userID),
		zap.String("purpose", purpose),
		zap.String("status", string(status)),
	)
	return record, nil
}

// Withdraw transitions an existing record to withdrawn and stamps the
// withdrawal time. Withdrawing consent that was never recorded is a no-op
// returning (nil, nil).
func (m *Manager) Withdraw(ctx context.Context, userID, purpose string) (*Record, error) {
	record, err := m.store.Get(ctx, userID, purpose)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}

	withdrawnAt := m.now()
	record.Status = StatusWithdrawn
	record.WithdrawnAt = &withdrawnAt
	if err := m.store.Save(ctx, record); err != nil {
		return nil, err
	}

	m.logger.Info("consent withdrawn",
		zap.String("user_id", userID),
		zap.String("purpose", purpose),
	)
	return record, nil
}

// WithdrawAll withdraws every currently granted purpose for a user and
// returns the records that were transitioned.
func (m *Manager) WithdrawAll(ctx context.Context, userID string) ([]*Record, error) {
	records, err := m.store.GetAll(ctx, userID)
	if err != nil {
		return nil, err
	}

	withdrawn := make([]*Record, 0, len(records))
	for _, record := range records {
		if record.Status != StatusGranted {
			continue
		}
		updated, err := m.Withdraw(ctx, userID, record.Purpose)
		if err != nil {
			return withdrawn, err
		}
		if updated != nil {
			withdrawn = append(withdrawn, updated)
		}
	}
	return withdrawn, nil
}

// Has reports whether the current status is exactly granted. Denied,
// withdrawn, and never-set all answer false.
func (m *Manager) Has(ctx context.Context, userID, purpose string) (bool, error) {
	status, err := m.Status(ctx, userID, purpose)
	if err != nil {
		return false, err
	}
	return status == StatusGranted, nil
}

// Status returns the current consent status, StatusNotSet when no record exists.
func (m *Manager) Status(ctx context.Context, userID, purpose string) (Status, error) {
	record, err := m.store.Get(ctx, userID, purpose)
	if err != nil {
		return StatusNotSet, err
	}
	if record == nil {
		return StatusNotSet, nil
	}
	return record.Status, nil
}

// Get returns the stored record for a (user, purpose) pair, nil when absent.
func (m *Manager) Get(ctx context.Context, userID, purpose string) (*Record, error) {
	return m.store.Get(ctx, userID, purpose)
}

// GetAll returns every stored record for a user.
func (m *Manager) GetAll(ctx context.Context, userID string) ([]*Record, error) {
	return m.store.GetAll(ctx, userID)
}

// CheckMany evaluates Has for several purposes at once.
func (m *Manager) CheckMany(ctx context.Context, userID string, purposes []string) (map[string]bool, error) {
	results := make(map[string]bool, len(purposes))
	for _, purpose := range purposes {
		granted, err := m.Has(ctx, userID, purpose)
		if err != nil {
			return nil, err
		}
		results[purpose] = granted
	}
	return results, nil
}

// Delete permanently removes a consent record, for erasure requests.
func (m *Manager) Delete(ctx context.Context, userID, purpose string) error {
	if err := m.store.Delete(ctx, userID, purpose); err != nil {
		return err
	}
	m.logger.Info("consent record deleted",
		zap.String("user_id", userID),
		zap.String("purpose", purpose),
	)
	return nil
}
