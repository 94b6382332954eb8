package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/privacykit/governance/internal/logger"
)

// Defaults fill entry fields the call site omits, typically the request
// identity a caller binds once per session.
type Defaults struct {
	UserID    string
	IPAddress string
	UserAgent string
}

// Logger records governance operations through a pluggable store. Every
// logged entry gets a generated unique id and a stamped timestamp.
type Logger struct {
	store    Store
	defaults Defaults
	logger   *logger.Logger
	now      func() time.Time
}

// LoggerOption configures a Logger.
type LoggerOption func(*Logger)

// WithClock overrides the entry timestamp source, for tests.
func WithClock(now func() time.Time) LoggerOption {
	return func(l *Logger) { l.now = now }
}

// NewLogger creates an audit logger over the given store. A nil zap logger
// discards diagnostic output.
func NewLogger(store Store, defaults Defaults, log *logger.Logger, opts ...LoggerOption) *Logger {
	if log == nil {
		log = logger.Nop()
	}
	l := &Logger{
		store:    store,
		defaults: defaults,
		logger:   log.WithComponent("audit"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Log stamps and persists an entry. Omitted UserID/IPAddress/UserAgent fall
// back to the logger's defaults; an omitted Result records success.
func (l *Logger) Log(ctx context.Context, entry Entry) (*Entry, error) {
	entry.ID = uuid.NewString()
	entry.Timestamp = l.now()

	if entry.UserID == "" {
		entry.UserID = l.defaults.UserID
	}
	if entry.IPAddress == "" {
		entry.IPAddress = l.defaults.IPAddress
	}
	if entry.UserAgent == "" {
		entry.UserAgent = l.defaults.UserAgent
	}
	if entry.Result == "" {
		entry.Result = ResultSuccess
	}

	if err := l.store.Save(ctx, &entry); err != nil {
		return nil, err
	}

	l.logger.Debug("audit entry recorded",
		zap.String("id", entry.ID),
		zap.String("action", string(entry.Action)),
		zap.String("resource_type", entry.ResourceType),
		zap.String("result", string(entry.Result)),
	)
	return &entry, nil
}

func (l *Logger) logAction(ctx context.Context, action Action, resourceType, resourceID string, details map[string]interface{}) (*Entry, error) {
	return l.Log(ctx, Entry{
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      details,
		Result:       ResultSuccess,
	})
}

// LogView records a successful read of a resource.
func (l *Logger) LogView(ctx context.Context, resourceType, resourceID string, details map[string]interface{}) (*Entry, error) {
	return l.logAction(ctx, ActionView, resourceType, resourceID, details)
}

// LogCreate records a successful resource creation.
func (l *Logger) LogCreate(ctx context.Context, resourceType, resourceID string, details map[string]interface{}) (*Entry, error) {
	return l.logAction(ctx, ActionCreate, resourceType, resourceID, details)
}

// LogUpdate records a successful resource update.
func (l *Logger) LogUpdate(ctx context.Context, resourceType, resourceID string, details map[string]interface{}) (*Entry, error) {
	return l.logAction(ctx, ActionUpdate, resourceType, resourceID, details)
}

// LogDelete records a successful resource deletion.
func (l *Logger) LogDelete(ctx context.Context, resourceType, resourceID string, details map[string]interface{}) (*Entry, error) {
	return l.logAction(ctx, ActionDelete, resourceType, resourceID, details)
}

// LogExport records a successful data export.
func (l *Logger) LogExport(ctx context.Context, resourceType, resourceID string, details map[string]interface{}) (*Entry, error) {
	return l.logAction(ctx, ActionExport, resourceType, resourceID, details)
}

// LogAccess records a generic successful data access.
func (l *Logger) LogAccess(ctx context.Context, resourceType, resourceID string, details map[string]interface{}) (*Entry, error) {
	return l.logAction(ctx, ActionAccess, resourceType, resourceID, details)
}

// LogFailure records a failed operation with its error message.
func (l *Logger) LogFailure(ctx context.Context, action Action, resourceType, resourceID, errMsg string) (*Entry, error) {
	return l.Log(ctx, Entry{
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Result:       ResultFailure,
		Error:        errMsg,
	})
}

// Query returns audit entries matching the filter, sorted and paginated.
func (l *Logger) Query(ctx context.Context, opts QueryOptions) ([]*Entry, error) {
	return l.store.Query(ctx, opts)
}

// Count returns the number of entries matching the filter, ignoring pagination.
func (l *Logger) Count(ctx context.Context, opts QueryOptions) (int, error) {
	return l.store.Count(ctx, opts.withoutPagination())
}

// Delete removes a single entry by id, for retention compliance.
func (l *Logger) Delete(ctx context.Context, id string) error {
	return l.store.Delete(ctx, id)
}

// DeleteMany removes a batch of entries by id.
func (l *Logger) DeleteMany(ctx context.Context, ids []string) error {
	return l.store.DeleteMany(ctx, ids)
}
