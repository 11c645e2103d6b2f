package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/murmurapp/murmur/internal/services/reminders/storage"
)

// Backend is the slice of the remote API the reconciler drives.
type Backend interface {
	UpsertNotification(ctx context.Context, row Row) error
	DeleteNotification(ctx context.Context, userID string, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) error
	UpdateActionStatus(ctx context.Context, actionID string, status string) error
}

// Outbox kinds, matching what the lifecycle service enqueues.
const (
	syncKindUpsert         = "upsert"
	syncKindMarkAllRead    = "mark_all_read"
	syncKindActionComplete = "action_complete"
)

const (
	defaultDrainInterval = 30 * time.Second
	defaultBatchSize     = 25
	baseRetryDelay       = 5 * time.Second
	maxRetryDelay        = 10 * time.Minute
	maxAttempts          = 12
)

// Reconciler drains the sync outbox against the remote backend. Ops are
// replayed from current local state, so replaying the same op twice
// converges instead of conflicting.
type Reconciler struct {
	store    storage.NotificationStore
	outbox   storage.SyncOutbox
	backend  Backend
	clock    func() time.Time
	interval time.Duration
	batch    int
}

// NewReconciler constructs the outbox drainer. A nil clock uses wall time.
func NewReconciler(store storage.NotificationStore, outbox storage.SyncOutbox, backend Backend, clock func() time.Time) *Reconciler {
	if clock == nil {
		clock = time.Now
	}
	return &Reconciler{
		store:    store,
		outbox:   outbox,
		backend:  backend,
		clock:    clock,
		interval: defaultDrainInterval,
		batch:    defaultBatchSize,
	}
}

// Run drains the outbox on a fixed interval until the context ends.
func (r *Reconciler) Run(ctx context.Context) error {
	if r == nil || r.outbox == nil || r.backend == nil {
		return errors.New("reconciler is not configured")
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		if err := r.DrainOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("reminders: drain sync outbox: %v", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// DrainOnce processes one batch of due outbox rows. A failed op is
// rescheduled with capped exponential backoff; rows past the attempt
// cap are dropped with a log line.
func (r *Reconciler) DrainOnce(ctx context.Context) error {
	if r == nil || r.outbox == nil || r.backend == nil {
		return errors.New("reconciler is not configured")
	}

	now := r.clock().UTC()
	due, err := r.outbox.ListDueSync(ctx, r.batch, now)
	if err != nil {
		return fmt.Errorf("list due sync: %w", err)
	}

	for _, op := range due {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.apply(ctx, op); err != nil {
			r.retry(ctx, op, err)
			continue
		}
		if err := r.outbox.DeleteSync(ctx, op.ID); err != nil {
			log.Printf("reminders: delete sync %d: %v", op.ID, err)
		}
	}
	return nil
}

func (r *Reconciler) apply(ctx context.Context, op storage.SyncRecord) error {
	switch op.Kind {
	case syncKindUpsert:
		return r.applyUpsert(ctx, op)
	case syncKindMarkAllRead:
		return r.backend.MarkAllRead(ctx, op.UserID)
	case syncKindActionComplete:
		return r.backend.UpdateActionStatus(ctx, op.ActionID, "completed")
	default:
		// Unknown kinds are dropped, not retried forever.
		log.Printf("reminders: dropping sync op %d with unknown kind %q", op.ID, op.Kind)
		return nil
	}
}

// applyUpsert pushes the current local row. A record deleted locally
// since the op was queued is deleted remotely as well.
func (r *Reconciler) applyUpsert(ctx context.Context, op storage.SyncRecord) error {
	if r.store == nil {
		return errors.New("reconciler store is not configured")
	}
	record, err := r.store.GetNotification(ctx, op.UserID, op.NotificationID)
	if errors.Is(err, storage.ErrNotFound) {
		return r.backend.DeleteNotification(ctx, op.UserID, op.NotificationID)
	}
	if err != nil {
		return fmt.Errorf("load notification %s: %w", op.NotificationID, err)
	}
	return r.backend.UpsertNotification(ctx, rowFromRecord(record))
}

func (r *Reconciler) retry(ctx context.Context, op storage.SyncRecord, cause error) {
	attempt := op.AttemptCount + 1
	if attempt >= maxAttempts {
		log.Printf("reminders: dropping sync op %d after %d attempts: %v", op.ID, attempt, cause)
		if err := r.outbox.DeleteSync(ctx, op.ID); err != nil {
			log.Printf("reminders: delete exhausted sync %d: %v", op.ID, err)
		}
		return
	}

	nextAttemptAt := r.clock().UTC().Add(retryDelay(attempt))
	if err := r.outbox.MarkSyncRetry(ctx, op.ID, attempt, nextAttemptAt, cause.Error()); err != nil {
		log.Printf("reminders: mark sync retry %d: %v", op.ID, err)
	}
}

// retryDelay doubles per attempt up to the cap.
func retryDelay(attempt int) time.Duration {
	delay := baseRetryDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxRetryDelay {
			return maxRetryDelay
		}
	}
	return delay
}

func rowFromRecord(record storage.NotificationRecord) Row {
	data := map[string]any{
		"memo_id":       record.MemoID,
		"state":         record.State,
		"scheduled_for": record.ScheduledFor.UTC().Format(time.RFC3339),
		"snoozed_count": record.SnoozedCount,
		"sent":          record.Sent,
	}
	if record.RecurrenceJSON != "" {
		var recurrence map[string]any
		if err := json.Unmarshal([]byte(record.RecurrenceJSON), &recurrence); err == nil {
			data["recurrence"] = recurrence
		}
	}
	if record.ActionID != "" {
		data["action_id"] = record.ActionID
		data["can_complete"] = record.CanComplete
		data["can_snooze"] = record.CanSnooze
	}
	if record.OriginalScheduledFor != nil {
		data["original_scheduled_for"] = record.OriginalScheduledFor.UTC().Format(time.RFC3339)
	}
	return Row{
		ID:        record.ID,
		UserID:    record.UserID,
		Type:      record.Kind,
		Title:     record.Title,
		Body:      record.Body,
		IsRead:    record.ReadAt != nil,
		CreatedAt: record.CreatedAt.UTC(),
		Data:      data,
	}
}
