package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/victoralfred/gowritter/safepath"

	"github.com/victoralfred/goguard/hooks"
)

// AuditLogger provides immutable audit logging of lease lifecycles.
type AuditLogger interface {
	// Log logs an audit event.
	Log(ctx context.Context, event *AuditEvent) error

	// Query queries audit events.
	Query(ctx context.Context, filter *AuditFilter) ([]*AuditEvent, error)

	// Close closes the audit logger.
	Close() error
}

// AuditEvent represents an audit log entry.
type AuditEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	ID        string            `json:"id"`
	LeaseID   string            `json:"lease_id,omitempty"`
	Origin    string            `json:"origin"`
	Error     string            `json:"error,omitempty"`
	Type      AuditEventType    `json:"type"`
	HoldTime  time.Duration     `json:"hold_time,omitempty"`
}

// AuditEventType represents the type of audit event.
type AuditEventType string

const (
	// AuditEventAcquired is a lease acquisition event.
	AuditEventAcquired AuditEventType = "lease_acquired"

	// AuditEventReleased is a lease release event.
	AuditEventReleased AuditEventType = "lease_released"

	// AuditEventDetached is a lease detach event.
	AuditEventDetached AuditEventType = "lease_detached"

	// AuditEventDestroyed is a resource destruction event.
	AuditEventDestroyed AuditEventType = "resource_destroyed"

	// AuditEventError is an error event.
	AuditEventError AuditEventType = "error"
)

// AuditFilter filters audit events.
type AuditFilter struct {
	// StartTime is the start of the time range.
	StartTime time.Time

	// EndTime is the end of the time range.
	EndTime time.Time

	// Origin filters by origin.
	Origin string

	// Type filters by event type.
	Type AuditEventType

	// Limit is the maximum number of events to return.
	Limit int
}

// AuditConfig configures the audit logger.
type AuditConfig struct {
	LogLevel AuditLogLevel
	BasePath string
	FilePath string
	Enabled  bool
}

// AuditLogLevel determines what events to log.
type AuditLogLevel string

const (
	// AuditLogAll logs all events.
	AuditLogAll AuditLogLevel = "all"

	// AuditLogErrors logs only error events.
	AuditLogErrors AuditLogLevel = "errors"
)

// DefaultAuditConfig returns default audit configuration.
func DefaultAuditConfig() AuditConfig {
	return AuditConfig{
		Enabled:  true,
		LogLevel: AuditLogAll,
		BasePath: "/var/log",
		FilePath: "goguard/audit.log",
	}
}

// fileAuditLogger implements AuditLogger using gowritter.
type fileAuditLogger struct {
	safePath *safepath.SafePath
	config   AuditConfig
	mu       sync.Mutex
}

// NewFileAuditLogger creates a new file-based audit logger.
func NewFileAuditLogger(config AuditConfig) (AuditLogger, error) {
	sp, err := safepath.New(config.BasePath)
	if err != nil {
		return nil, fmt.Errorf("creating safe path: %w", err)
	}

	return &fileAuditLogger{
		config:   config,
		safePath: sp,
	}, nil
}

// Log implements AuditLogger.Log.
func (l *fileAuditLogger) Log(ctx context.Context, event *AuditEvent) error {
	if !l.config.Enabled {
		return nil
	}

	if !l.shouldLog(event) {
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling audit event: %w", err)
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.safePath.AppendFile(l.config.FilePath, data, 0o644); err != nil {
		return fmt.Errorf("writing audit log: %w", err)
	}

	return nil
}

// Query implements AuditLogger.Query.
func (l *fileAuditLogger) Query(ctx context.Context, filter *AuditFilter) ([]*AuditEvent, error) {
	data, err := l.safePath.ReadFile(l.config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("reading audit log: %w", err)
	}

	var events []*AuditEvent
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var event AuditEvent
		if err := json.Unmarshal(line, &event); err != nil {
			continue // skip malformed lines
		}
		if filter != nil && !matches(&event, filter) {
			continue
		}
		events = append(events, &event)
		if filter != nil && filter.Limit > 0 && len(events) >= filter.Limit {
			break
		}
	}

	return events, nil
}

// Close implements AuditLogger.Close.
func (l *fileAuditLogger) Close() error {
	return nil
}

func (l *fileAuditLogger) shouldLog(event *AuditEvent) bool {
	switch l.config.LogLevel {
	case AuditLogAll:
		return true
	case AuditLogErrors:
		return event.Type == AuditEventError
	default:
		return true
	}
}

func matches(event *AuditEvent, filter *AuditFilter) bool {
	if !filter.StartTime.IsZero() && event.Timestamp.Before(filter.StartTime) {
		return false
	}
	if !filter.EndTime.IsZero() && event.Timestamp.After(filter.EndTime) {
		return false
	}
	if filter.Origin != "" && event.Origin != filter.Origin {
		return false
	}
	if filter.Type != "" && event.Type != filter.Type {
		return false
	}
	return true
}

// NewAuditEvent creates an audit event from a lifecycle transition.
func NewAuditEvent(eventType AuditEventType, lifecycle *hooks.Event, opErr error) *AuditEvent {
	event := &AuditEvent{
		ID:        uuid.NewString(),
		Timestamp: lifecycle.At,
		Type:      eventType,
		LeaseID:   lifecycle.LeaseID,
		Origin:    lifecycle.Origin,
		HoldTime:  lifecycle.HoldTime,
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if opErr != nil {
		event.Error = opErr.Error()
		event.Type = AuditEventError
	}
	return event
}

// AuditHook bridges the hook registry to an AuditLogger so every lease
// lifecycle transition leaves an audit trail.
type AuditHook struct {
	logger AuditLogger
}

// NewAuditHook creates a hook that writes lifecycle events to logger.
func NewAuditHook(logger AuditLogger) *AuditHook {
	return &AuditHook{logger: logger}
}

func (h *AuditHook) Name() string  { return "audit" }
func (h *AuditHook) Priority() int { return 100 }

func (h *AuditHook) OnAcquire(ctx context.Context, event *hooks.Event) error {
	return h.logger.Log(ctx, NewAuditEvent(AuditEventAcquired, event, nil))
}

func (h *AuditHook) OnRelease(ctx context.Context, event *hooks.Event) error {
	return h.logger.Log(ctx, NewAuditEvent(AuditEventReleased, event, nil))
}

func (h *AuditHook) OnDetach(ctx context.Context, event *hooks.Event) error {
	return h.logger.Log(ctx, NewAuditEvent(AuditEventDetached, event, nil))
}

func (h *AuditHook) OnDestroy(ctx context.Context, event *hooks.Event) error {
	return h.logger.Log(ctx, NewAuditEvent(AuditEventDestroyed, event, nil))
}

func (h *AuditHook) OnError(ctx context.Context, event *hooks.Event, err error) error {
	return h.logger.Log(ctx, NewAuditEvent(AuditEventError, event, err))
}

// NoopAuditLogger returns a no-op audit logger.
func NoopAuditLogger() AuditLogger {
	return &noopAuditLogger{}
}

type noopAuditLogger struct{}

func (l *noopAuditLogger) Log(ctx context.Context, event *AuditEvent) error { return nil }
func (l *noopAuditLogger) Query(ctx context.Context, filter *AuditFilter) ([]*AuditEvent, error) {
	return nil, nil
}
func (l *noopAuditLogger) Close() error { return nil }
