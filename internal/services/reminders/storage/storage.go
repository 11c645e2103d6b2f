// Package storage defines the persistence boundary for reminder
// notification state and the remote-sync outbox.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a requested notification or outbox row is missing.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a write conflicts with uniqueness constraints.
	ErrConflict = errors.New("record conflict")
)

// Lifecycle state tokens as persisted. The domain layer owns transition
// rules; storage only filters on them.
const (
	StateCreated   = "created"
	StateScheduled = "scheduled"
	StateDelivered = "delivered"
	StateActioned  = "actioned"
	StateExpired   = "expired"
	StateCancelled = "cancelled"
)

// NotificationRecord stores one schedulable notification row.
type NotificationRecord struct {
	ID           string
	UserID       string
	MemoID       string
	Kind         string
	Title        string
	Body         string
	ScheduledFor time.Time
	// RecurrenceJSON carries the serialized recurrence rule, empty for
	// one-shot records.
	RecurrenceJSON string
	ActionID       string
	CanComplete    bool
	CanSnooze      bool
	State          string
	Sent           bool
	SnoozedCount   int
	// OriginalScheduledFor is nil until the first snooze.
	OriginalScheduledFor *time.Time
	DeviceHandle         string
	ReadAt               *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// SyncRecord stores one queued best-effort remote mutation.
type SyncRecord struct {
	ID             int64
	Kind           string
	UserID         string
	NotificationID string
	ActionID       string
	AttemptCount   int
	NextAttemptAt  time.Time
	LastError      string
	CreatedAt      time.Time
}

// NotificationStore persists notification lifecycle state. PutNotification
// upserts the full row so partial writes are never observable.
type NotificationStore interface {
	PutNotification(ctx context.Context, record NotificationRecord) error
	GetNotification(ctx context.Context, userID string, notificationID string) (NotificationRecord, error)
	ListPendingByUser(ctx context.Context, userID string) ([]NotificationRecord, error)
	ListScheduled(ctx context.Context) ([]NotificationRecord, error)
	CountUnreadByUser(ctx context.Context, userID string) (int, error)
	MarkAllRead(ctx context.Context, userID string, readAt time.Time) (int, error)
	DeleteNotification(ctx context.Context, userID string, notificationID string) error
}

// SyncOutbox persists retryable remote reconciliation work.
type SyncOutbox interface {
	EnqueueSync(ctx context.Context, record SyncRecord) error
	ListDueSync(ctx context.Context, limit int, now time.Time) ([]SyncRecord, error)
	MarkSyncRetry(ctx context.Context, id int64, attemptCount int, nextAttemptAt time.Time, lastError string) error
	DeleteSync(ctx context.Context, id int64) error
}
