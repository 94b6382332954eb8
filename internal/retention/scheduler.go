package retention

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/privacykit/governance/internal/logger"
)

// Scheduler evaluates retention policies against item metadata and drives
// batched deletion through the injected accessor. It runs passes on a timer
// once started; a failing pass is caught and logged, never cancelling the
// timer. Stop is explicit and does not interrupt an in-flight deletion.
type Scheduler struct {
	mu       sync.Mutex
	policies []Policy
	opts     Options
	limiter  *rate.Limiter
	active   bool
	stop     chan struct{}
	done     chan struct{}

	accessor Accessor
	logger   *logger.Logger
	now      func() time.Time
}

// NewScheduler creates a scheduler over the given accessor.
func NewScheduler(accessor Accessor, opts Options, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	s := &Scheduler{
		accessor: accessor,
		logger:   log.WithComponent("retention"),
		now:      time.Now,
	}
	s.applyOptions(opts)
	return s
}

func (s *Scheduler) applyOptions(opts Options) {
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = DefaultCheckInterval
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	s.opts = opts
	if opts.DeleteRate > 0 {
		s.limiter = rate.NewLimiter(opts.DeleteRate, 1)
	} else {
		s.limiter = nil
	}
}

// UpdateOptions replaces the scheduler tunables. A running timer picks up
// the new interval on its next pass.
func (s *Scheduler) UpdateOptions(opts Options) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyOptions(opts)
}

// AddPolicy appends a policy. Order matters: items match the first
// applicable policy.
func (s *Scheduler) AddPolicy(policy Policy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies = append(s.policies, policy)
}

// RemovePolicy removes a policy by id.
func (s *Scheduler) RemovePolicy(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, p := range s.policies {
		if p.ID == id {
			s.policies = append(s.policies[:i], s.policies[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrPolicyNotFound, id)
}

// Policies returns a copy of the current policy list in evaluation order.
func (s *Scheduler) Policies() []Policy {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Policy, len(s.policies))
	copy(out, s.policies)
	return out
}

// policyFor returns the first policy applying to the item's type.
func policyFor(item ItemMetadata, policies []Policy) (Policy, bool) {
	for _, p := range policies {
		if len(p.DataTypes) == 0 {
			return p, true
		}
		for _, t := range p.DataTypes {
			if t == item.Type {
				return p, true
			}
		}
	}
	return Policy{}, false
}

// ExpiresAt computes when an item expires under a policy: the explicit
// ExpiresAt when set, else CreatedAt plus the policy's retention window.
func ExpiresAt(item ItemMetadata, policy Policy) time.Time {
	if item.ExpiresAt != nil {
		return *item.ExpiresAt
	}
	return item.CreatedAt.Add(time.Duration(policy.RetentionDays) * 24 * time.Hour)
}

// IsExpired reports whether the item has passed its retention window at now.
func IsExpired(item ItemMetadata, policy Policy, now time.Time) bool {
	return now.After(ExpiresAt(item, policy))
}

// ShouldDelete reports whether the item is expired and its policy allows
// automatic deletion.
func ShouldDelete(item ItemMetadata, policy Policy, now time.Time) bool {
	return policy.AutoDelete && IsExpired(item, policy, now)
}

// Check evaluates every item against the policy list and reports expired,
// deletable, and soon-expiring items, each deduplicated by item id.
func (s *Scheduler) Check(ctx context.Context) (*CheckResult, error) {
	items, err := s.accessor.GetAllMetadata(ctx)
	if err != nil {
		return nil, err
	}
	policies := s.Policies()
	now := s.now()

	result := &CheckResult{
		Expired:      []ItemMetadata{},
		ToDelete:     []ItemMetadata{},
		ExpiringSoon: []ItemMetadata{},
	}
	for _, item := range items {
		policy, ok := policyFor(item, policies)
		if !ok {
			continue
		}

		if IsExpired(item, policy, now) {
			result.Expired = append(result.Expired, item)
			if policy.AutoDelete {
				result.ToDelete = append(result.ToDelete, item)
			}
			continue
		}

		if policy.NotifyBeforeDays > 0 {
			window := time.Duration(policy.NotifyBeforeDays) * 24 * time.Hour
			if ExpiresAt(item, policy).Sub(now) <= window {
				result.ExpiringSoon = append(result.ExpiringSoon, item)
			}
		}
	}
	return result, nil
}

// ExecuteDeletion re-evaluates policies and deletes the deletable items in
// sequential batches, returning how many were actually deleted. A failing
// batch stops the run and reports the count so far.
func (s *Scheduler) ExecuteDeletion(ctx context.Context) (int, error) {
	result, err := s.Check(ctx)
	if err != nil {
		return 0, err
	}
	if len(result.ToDelete) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	batchSize := s.opts.BatchSize
	limiter := s.limiter
	s.mu.Unlock()

	ids := make([]string, len(result.ToDelete))
	for i, item := range result.ToDelete {
		ids[i] = item.ID
	}

	deleted := 0
	for start := 0; start < len(ids); start += batchSize {
		end := start + batchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return deleted, err
			}
		}
		if err := s.accessor.DeleteItems(ctx, batch); err != nil {
			return deleted, fmt.Errorf("failed to delete batch of %d items: %w", len(batch), err)
		}
		deleted += len(batch)

		s.logger.Debug("deleted retention batch",
			zap.Int("batch_size", len(batch)),
			zap.Int("deleted_total", deleted),
		)
	}

	s.logger.Info("retention deletion completed", zap.Int("deleted", deleted))
	return deleted, nil
}

// Start runs one immediate pass and then a timer loop at the configured
// interval. Starting an active scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return
	}
	s.active = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stop, s.done
	s.mu.Unlock()

	go s.loop(ctx, stop, done)
}

func (s *Scheduler) loop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	s.runPass(ctx)

	for {
		s.mu.Lock()
		interval := s.opts.CheckInterval
		s.mu.Unlock()

		timer := time.NewTimer(interval)
		select {
		case <-stop:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.runPass(ctx)
		}
	}
}

// runPass executes one scheduled pass. Failures are logged and swallowed so
// the timer loop keeps running.
func (s *Scheduler) runPass(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("retention pass panicked", zap.Any("panic", r))
		}
	}()

	deleted, err := s.ExecuteDeletion(ctx)
	if err != nil {
		s.logger.Error("retention pass failed",
			zap.Int("deleted_before_failure", deleted),
			zap.Error(err),
		)
		return
	}
	if deleted > 0 {
		s.logger.Info("retention pass completed", zap.Int("deleted", deleted))
	}
}

// Stop cancels the timer loop and waits for the current pass to finish.
// No in-flight deletion is interrupted; no new pass is scheduled.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	close(s.stop)
	done := s.done
	s.mu.Unlock()

	<-done
}

// IsActive reports whether the timer loop is running.
func (s *Scheduler) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}
