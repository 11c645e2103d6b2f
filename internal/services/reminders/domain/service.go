package domain

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/murmurapp/murmur/internal/platform/id"
)

// Store is the domain persistence boundary for notification lifecycle state.
// PutNotification upserts the full record in a single call so partial
// writes are never observable.
type Store interface {
	PutNotification(ctx context.Context, record NotificationRecord) error
	GetNotification(ctx context.Context, userID string, notificationID string) (NotificationRecord, error)
	ListPendingByUser(ctx context.Context, userID string) ([]NotificationRecord, error)
	ListScheduled(ctx context.Context) ([]NotificationRecord, error)
	CountUnreadByUser(ctx context.Context, userID string) (int, error)
	MarkAllRead(ctx context.Context, userID string, readAt time.Time) (int, error)
	DeleteNotification(ctx context.Context, userID string, notificationID string) error
	EnqueueSync(ctx context.Context, op SyncOp) error
}

// DeviceScheduler arms and disarms platform triggers. Schedule returns an
// opaque handle the store keeps but never interprets; Cancel is a no-op
// for unknown or already-fired handles.
type DeviceScheduler interface {
	Schedule(ctx context.Context, record NotificationRecord, schedule Schedule) (string, error)
	Cancel(ctx context.Context, handle string)
}

// Renderer produces display copy for a record whose title or body is empty.
type Renderer interface {
	Render(record NotificationRecord) (title string, body string)
}

// SyncOpKind identifies one remote reconciliation operation.
type SyncOpKind string

const (
	// SyncOpUpsert re-syncs the full remote row for one notification.
	SyncOpUpsert SyncOpKind = "upsert"
	// SyncOpMarkAllRead bulk-acknowledges the remote rows for one user.
	SyncOpMarkAllRead SyncOpKind = "mark_all_read"
	// SyncOpActionComplete retries an external action status update.
	SyncOpActionComplete SyncOpKind = "action_complete"
)

// SyncOp is one queued best-effort remote mutation. Ops are idempotent:
// the reconciler re-reads current local state when draining, so the same
// record can be re-synced any number of times.
type SyncOp struct {
	Kind           SyncOpKind
	UserID         string
	NotificationID string
	ActionID       string
}

// Service owns NotificationRecord mutation. Local state is authoritative
// for scheduling decisions; remote reconciliation is queued, never awaited.
type Service struct {
	store    Store
	device   DeviceScheduler
	renderer Renderer
	clock    func() time.Time
	newID    func() (string, error)
}

// NewService constructs the notification lifecycle use-cases. A nil
// renderer leaves trigger-provided copy untouched.
func NewService(store Store, device DeviceScheduler, renderer Renderer, clock func() time.Time, newID func() (string, error)) *Service {
	if clock == nil {
		clock = time.Now
	}
	if newID == nil {
		newID = id.NewID
	}
	return &Service{
		store:    store,
		device:   device,
		renderer: renderer,
		clock:    clock,
		newID:    newID,
	}
}

// CreateFromTrigger persists and arms one calculated trigger. A nil
// trigger is the calculator's "nothing to do" result and is a no-op.
//
// The record is persisted before the device trigger is armed: a crash in
// between leaves it unscheduled (recovered by Rehydrate), never armed
// without a row.
func (s *Service) CreateFromTrigger(ctx context.Context, trigger *Trigger) (NotificationRecord, error) {
	if trigger == nil {
		return NotificationRecord{}, nil
	}
	if s == nil || s.store == nil {
		return NotificationRecord{}, ErrStoreNotConfigured
	}
	if s.device == nil {
		return NotificationRecord{}, ErrSchedulerNotConfigured
	}
	if s.newID == nil {
		return NotificationRecord{}, ErrIDGeneratorNotConfigured
	}

	record := trigger.Record
	record.UserID = strings.TrimSpace(record.UserID)
	if record.UserID == "" {
		return NotificationRecord{}, ErrUserIDRequired
	}

	notificationID, err := s.newID()
	if err != nil {
		return NotificationRecord{}, err
	}
	now := s.nowUTC()
	record.ID = notificationID
	record.State = StateCreated
	record.Sent = false
	record.ReadAt = nil
	record.SnoozedCount = 0
	record.OriginalScheduledFor = time.Time{}
	record.DeviceHandle = ""
	record.CreatedAt = now
	record.UpdatedAt = now
	if record.ScheduledFor.IsZero() {
		record.ScheduledFor = now
	}
	if s.renderer != nil {
		title, body := s.renderer.Render(record)
		if record.Title == "" {
			record.Title = title
		}
		if record.Body == "" {
			record.Body = body
		}
	}

	if err := s.store.PutNotification(ctx, record); err != nil {
		return NotificationRecord{}, err
	}

	handle, err := s.device.Schedule(ctx, record, trigger.Schedule)
	if err != nil {
		// The record stays created and unscheduled; losing a reminder is the
		// acceptable degraded outcome, crashing the creation flow is not.
		log.Printf("reminders: schedule %s: %v", record.ID, err)
		s.enqueueUpsert(ctx, record)
		return record, nil
	}

	record.DeviceHandle = handle
	record.State = StateScheduled
	record.UpdatedAt = s.nowUTC()
	if err := s.store.PutNotification(ctx, record); err != nil {
		return NotificationRecord{}, err
	}
	s.enqueueUpsert(ctx, record)
	return record, nil
}

// MarkDelivered records that the device reported the trigger firing. A
// recurring record whose end date has passed expires instead. Terminal
// records ignore the report; delivery never regresses lifecycle state.
//
// An active series is re-armed here: the trigger that fired may have been
// a snoozed one-shot whose handle is now dead, so the recurrence is
// cancelled and scheduled fresh rather than trusting the old handle.
func (s *Service) MarkDelivered(ctx context.Context, userID string, notificationID string) (NotificationRecord, error) {
	record, err := s.get(ctx, userID, notificationID)
	if err != nil {
		return NotificationRecord{}, err
	}
	if record.State.Terminal() {
		return record, nil
	}

	now := s.nowUTC()
	record.Sent = true
	if record.Recurrence.Ended(now) {
		record.State = StateExpired
		record.DeviceHandle = ""
	} else if record.State.CanTransition(StateDelivered) {
		record.State = StateDelivered
	}
	record.UpdatedAt = now
	if err := s.store.PutNotification(ctx, record); err != nil {
		return NotificationRecord{}, err
	}

	if record.State != StateExpired && record.Recurrence != nil && record.Recurrence.Enabled && s.device != nil {
		if record.DeviceHandle != "" {
			s.device.Cancel(ctx, record.DeviceHandle)
			record.DeviceHandle = ""
		}
		// Anchor on the pre-snooze time when there is one so the series
		// keeps its original cadence.
		fireAt := record.ScheduledFor
		if !record.OriginalScheduledFor.IsZero() {
			fireAt = record.OriginalScheduledFor
		}
		handle, err := s.device.Schedule(ctx, record, Schedule{FireAt: fireAt, Repeat: record.Recurrence})
		if err != nil {
			log.Printf("reminders: re-arm series %s: %v", record.ID, err)
		} else {
			record.DeviceHandle = handle
			record.UpdatedAt = s.nowUTC()
			if err := s.store.PutNotification(ctx, record); err != nil {
				return NotificationRecord{}, err
			}
		}
	}
	s.enqueueUpsert(ctx, record)
	return record, nil
}

// MarkRead flips the unread flag. Reading is independent of the schedule
// lifecycle and idempotent.
func (s *Service) MarkRead(ctx context.Context, userID string, notificationID string) (NotificationRecord, error) {
	record, err := s.get(ctx, userID, notificationID)
	if err != nil {
		return NotificationRecord{}, err
	}
	if record.ReadAt != nil {
		return record, nil
	}
	now := s.nowUTC()
	record.ReadAt = &now
	record.UpdatedAt = now
	if err := s.store.PutNotification(ctx, record); err != nil {
		return NotificationRecord{}, err
	}
	s.enqueueUpsert(ctx, record)
	return record, nil
}

// MarkAllRead flips the unread flag on every record for the user and
// queues one bulk remote acknowledgement.
func (s *Service) MarkAllRead(ctx context.Context, userID string) (int, error) {
	if s == nil || s.store == nil {
		return 0, ErrStoreNotConfigured
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, ErrUserIDRequired
	}
	count, err := s.store.MarkAllRead(ctx, userID, s.nowUTC())
	if err != nil {
		return 0, err
	}
	s.enqueueSync(ctx, SyncOp{Kind: SyncOpMarkAllRead, UserID: userID})
	return count, nil
}

// UnreadCount returns the local unread badge count for the user.
func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	if s == nil || s.store == nil {
		return 0, ErrStoreNotConfigured
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, ErrUserIDRequired
	}
	return s.store.CountUnreadByUser(ctx, userID)
}

// Pending lists all non-terminal records for the user.
func (s *Service) Pending(ctx context.Context, userID string) ([]NotificationRecord, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	return s.store.ListPendingByUser(ctx, userID)
}

// Complete transitions one record to actioned. Completing a recurring
// record applies to the occurrence only: the record is marked read and
// sent but the series keeps its armed trigger until its end date or an
// explicit cancellation.
func (s *Service) Complete(ctx context.Context, userID string, notificationID string) (NotificationRecord, error) {
	record, err := s.get(ctx, userID, notificationID)
	if err != nil {
		return NotificationRecord{}, err
	}
	if s.device == nil {
		return NotificationRecord{}, ErrSchedulerNotConfigured
	}
	if record.State == StateActioned {
		return record, nil
	}
	if !record.State.CanTransition(StateActioned) {
		return record, ErrInvalidTransition
	}

	now := s.nowUTC()
	if record.Recurrence != nil && record.Recurrence.Enabled && !record.Recurrence.Ended(now) {
		record.Sent = true
		if record.ReadAt == nil {
			record.ReadAt = &now
		}
		record.UpdatedAt = now
		if err := s.store.PutNotification(ctx, record); err != nil {
			return NotificationRecord{}, err
		}
		s.enqueueUpsert(ctx, record)
		return record, nil
	}

	if record.DeviceHandle != "" {
		s.device.Cancel(ctx, record.DeviceHandle)
		record.DeviceHandle = ""
	}
	record.State = StateActioned
	if record.ReadAt == nil {
		record.ReadAt = &now
	}
	record.UpdatedAt = now
	if err := s.store.PutNotification(ctx, record); err != nil {
		return NotificationRecord{}, err
	}
	s.enqueueUpsert(ctx, record)
	return record, nil
}

// Snooze re-arms one record duration from now. The device handle is
// cancelled before the mutated record is persisted and only then is a new
// trigger armed: a crash in between leaves the record unscheduled, never
// double-scheduled.
func (s *Service) Snooze(ctx context.Context, userID string, notificationID string, duration time.Duration) (NotificationRecord, error) {
	record, err := s.get(ctx, userID, notificationID)
	if err != nil {
		return NotificationRecord{}, err
	}
	if s.device == nil {
		return NotificationRecord{}, ErrSchedulerNotConfigured
	}
	if !record.State.CanTransition(StateScheduled) {
		return record, ErrInvalidTransition
	}
	if duration <= 0 {
		duration = DefaultSnoozeDuration
	}

	if record.DeviceHandle != "" {
		s.device.Cancel(ctx, record.DeviceHandle)
		record.DeviceHandle = ""
	}

	now := s.nowUTC()
	if record.SnoozedCount == 0 {
		record.OriginalScheduledFor = record.ScheduledFor
	}
	record.ScheduledFor = now.Add(duration)
	record.SnoozedCount++
	record.State = StateScheduled
	record.UpdatedAt = now
	if err := s.store.PutNotification(ctx, record); err != nil {
		return NotificationRecord{}, err
	}

	handle, err := s.device.Schedule(ctx, record, Schedule{FireAt: record.ScheduledFor})
	if err != nil {
		log.Printf("reminders: reschedule snoozed %s: %v", record.ID, err)
		s.enqueueUpsert(ctx, record)
		return record, nil
	}
	record.DeviceHandle = handle
	record.UpdatedAt = s.nowUTC()
	if err := s.store.PutNotification(ctx, record); err != nil {
		return NotificationRecord{}, err
	}
	s.enqueueUpsert(ctx, record)
	return record, nil
}

// Cancel revokes one record. Idempotent; the device handle is disarmed
// before the terminal state is persisted so no orphaned trigger survives.
func (s *Service) Cancel(ctx context.Context, userID string, notificationID string) (NotificationRecord, error) {
	record, err := s.get(ctx, userID, notificationID)
	if err != nil {
		return NotificationRecord{}, err
	}
	if s.device == nil {
		return NotificationRecord{}, ErrSchedulerNotConfigured
	}
	if record.State == StateCancelled {
		return record, nil
	}
	if !record.State.CanTransition(StateCancelled) {
		return record, ErrInvalidTransition
	}

	if record.DeviceHandle != "" {
		s.device.Cancel(ctx, record.DeviceHandle)
		record.DeviceHandle = ""
	}
	record.State = StateCancelled
	record.UpdatedAt = s.nowUTC()
	if err := s.store.PutNotification(ctx, record); err != nil {
		return NotificationRecord{}, err
	}
	s.enqueueUpsert(ctx, record)
	return record, nil
}

// Delete removes one record entirely, disarming its device handle first
// so no trigger fires for a record no longer in the store.
func (s *Service) Delete(ctx context.Context, userID string, notificationID string) error {
	record, err := s.get(ctx, userID, notificationID)
	if err != nil {
		return err
	}
	if record.DeviceHandle != "" && s.device != nil {
		s.device.Cancel(ctx, record.DeviceHandle)
	}
	return s.store.DeleteNotification(ctx, record.UserID, record.ID)
}

// Rehydrate re-arms device triggers for every non-terminal record after a
// process restart; device handles do not survive one. Recurring records
// past their end date expire instead. Returns the number re-armed.
func (s *Service) Rehydrate(ctx context.Context) (int, error) {
	if s == nil || s.store == nil {
		return 0, ErrStoreNotConfigured
	}
	if s.device == nil {
		return 0, ErrSchedulerNotConfigured
	}
	records, err := s.store.ListScheduled(ctx)
	if err != nil {
		return 0, err
	}

	armed := 0
	now := s.nowUTC()
	for _, record := range records {
		if record.Recurrence.Ended(now) {
			record.State = StateExpired
			record.DeviceHandle = ""
			record.UpdatedAt = now
			if err := s.store.PutNotification(ctx, record); err != nil {
				return armed, err
			}
			s.enqueueUpsert(ctx, record)
			continue
		}

		handle, err := s.device.Schedule(ctx, record, Schedule{FireAt: record.ScheduledFor, Repeat: record.Recurrence})
		if err != nil {
			log.Printf("reminders: rehydrate %s: %v", record.ID, err)
			continue
		}
		record.DeviceHandle = handle
		record.State = StateScheduled
		record.UpdatedAt = now
		if err := s.store.PutNotification(ctx, record); err != nil {
			return armed, err
		}
		armed++
	}
	return armed, nil
}

func (s *Service) get(ctx context.Context, userID string, notificationID string) (NotificationRecord, error) {
	if s == nil || s.store == nil {
		return NotificationRecord{}, ErrStoreNotConfigured
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return NotificationRecord{}, ErrUserIDRequired
	}
	notificationID = strings.TrimSpace(notificationID)
	if notificationID == "" {
		return NotificationRecord{}, ErrNotificationIDRequired
	}
	return s.store.GetNotification(ctx, userID, notificationID)
}

func (s *Service) enqueueUpsert(ctx context.Context, record NotificationRecord) {
	s.enqueueSync(ctx, SyncOp{
		Kind:           SyncOpUpsert,
		UserID:         record.UserID,
		NotificationID: record.ID,
	})
}

// enqueueSync is best-effort: a failed enqueue is logged, never rolled
// back into the local transition.
func (s *Service) enqueueSync(ctx context.Context, op SyncOp) {
	if s == nil || s.store == nil {
		return
	}
	if err := s.store.EnqueueSync(ctx, op); err != nil {
		log.Printf("reminders: enqueue %s sync for %s: %v", op.Kind, op.NotificationID, err)
	}
}

func (s *Service) nowUTC() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock().UTC()
}
