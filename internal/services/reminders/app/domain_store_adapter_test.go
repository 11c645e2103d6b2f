package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/murmurapp/murmur/internal/services/reminders/domain"
	"github.com/murmurapp/murmur/internal/services/reminders/storage"
)

type fakeNotificationStore struct {
	records map[string]storage.NotificationRecord
	syncOps []storage.SyncRecord
	getErr  error
}

var (
	_ storage.NotificationStore = (*fakeNotificationStore)(nil)
	_ storage.SyncOutbox        = (*fakeNotificationStore)(nil)
)

func (f *fakeNotificationStore) PutNotification(_ context.Context, record storage.NotificationRecord) error {
	if f.records == nil {
		f.records = make(map[string]storage.NotificationRecord)
	}
	f.records[record.ID] = record
	return nil
}

func (f *fakeNotificationStore) GetNotification(_ context.Context, userID string, notificationID string) (storage.NotificationRecord, error) {
	if f.getErr != nil {
		return storage.NotificationRecord{}, f.getErr
	}
	record, ok := f.records[notificationID]
	if !ok || record.UserID != userID {
		return storage.NotificationRecord{}, storage.ErrNotFound
	}
	return record, nil
}

func (f *fakeNotificationStore) ListPendingByUser(_ context.Context, userID string) ([]storage.NotificationRecord, error) {
	var results []storage.NotificationRecord
	for _, record := range f.records {
		if record.UserID == userID {
			results = append(results, record)
		}
	}
	return results, nil
}

func (f *fakeNotificationStore) ListScheduled(context.Context) ([]storage.NotificationRecord, error) {
	var results []storage.NotificationRecord
	for _, record := range f.records {
		results = append(results, record)
	}
	return results, nil
}

func (f *fakeNotificationStore) CountUnreadByUser(context.Context, string) (int, error) {
	return 0, nil
}

func (f *fakeNotificationStore) MarkAllRead(context.Context, string, time.Time) (int, error) {
	return 0, nil
}

func (f *fakeNotificationStore) DeleteNotification(_ context.Context, userID string, notificationID string) error {
	record, ok := f.records[notificationID]
	if !ok || record.UserID != userID {
		return storage.ErrNotFound
	}
	delete(f.records, notificationID)
	return nil
}

func (f *fakeNotificationStore) EnqueueSync(_ context.Context, record storage.SyncRecord) error {
	record.ID = int64(len(f.syncOps) + 1)
	f.syncOps = append(f.syncOps, record)
	return nil
}

func (f *fakeNotificationStore) ListDueSync(_ context.Context, limit int, now time.Time) ([]storage.SyncRecord, error) {
	var due []storage.SyncRecord
	for _, record := range f.syncOps {
		if len(due) == limit {
			break
		}
		if !record.NextAttemptAt.After(now) {
			due = append(due, record)
		}
	}
	return due, nil
}

func (f *fakeNotificationStore) MarkSyncRetry(_ context.Context, id int64, attemptCount int, nextAttemptAt time.Time, lastError string) error {
	for i, record := range f.syncOps {
		if record.ID == id {
			f.syncOps[i].AttemptCount = attemptCount
			f.syncOps[i].NextAttemptAt = nextAttemptAt
			f.syncOps[i].LastError = lastError
			return nil
		}
	}
	return storage.ErrNotFound
}

func (f *fakeNotificationStore) DeleteSync(_ context.Context, id int64) error {
	for i, record := range f.syncOps {
		if record.ID == id {
			f.syncOps = append(f.syncOps[:i], f.syncOps[i+1:]...)
			return nil
		}
	}
	return nil
}

func TestDomainStoreAdapterRecurrenceRoundTrip(t *testing.T) {
	t.Parallel()

	store := &fakeNotificationStore{}
	adapter := newDomainStoreAdapter(store, store)
	ctx := context.Background()

	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	record := domain.NotificationRecord{
		ID:           "notif-1",
		UserID:       "user-1",
		MemoID:       "memo-1",
		Kind:         domain.KindReminder,
		Title:        "Standup",
		ScheduledFor: now.Add(time.Hour),
		Recurrence: &domain.Recurrence{
			Enabled:    true,
			Frequency:  domain.FrequencyWeekly,
			DaysOfWeek: []time.Weekday{time.Monday, time.Friday},
			EndDate:    now.AddDate(0, 1, 0),
		},
		Action:    &domain.ActionData{ActionID: "action-1", CanComplete: true, CanSnooze: true},
		State:     domain.StateScheduled,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := adapter.PutNotification(ctx, record); err != nil {
		t.Fatalf("put: %v", err)
	}

	stored := store.records["notif-1"]
	if stored.RecurrenceJSON == "" {
		t.Fatal("recurrence not serialized")
	}
	if stored.ActionID != "action-1" || !stored.CanComplete || !stored.CanSnooze {
		t.Fatalf("action not flattened: %+v", stored)
	}

	got, err := adapter.GetNotification(ctx, "user-1", "notif-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Recurrence == nil || !got.Recurrence.Enabled {
		t.Fatal("recurrence not restored")
	}
	if got.Recurrence.Frequency != domain.FrequencyWeekly {
		t.Fatalf("frequency = %q", got.Recurrence.Frequency)
	}
	if len(got.Recurrence.DaysOfWeek) != 2 || got.Recurrence.DaysOfWeek[0] != time.Monday {
		t.Fatalf("weekdays = %v", got.Recurrence.DaysOfWeek)
	}
	if !got.Recurrence.EndDate.Equal(record.Recurrence.EndDate) {
		t.Fatalf("end date = %v, want %v", got.Recurrence.EndDate, record.Recurrence.EndDate)
	}
	if got.Action == nil || got.Action.ActionID != "action-1" {
		t.Fatalf("action = %+v", got.Action)
	}
}

func TestDomainStoreAdapterOneShotHasNoRecurrenceJSON(t *testing.T) {
	t.Parallel()

	store := &fakeNotificationStore{}
	adapter := newDomainStoreAdapter(store, store)
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

	err := adapter.PutNotification(context.Background(), domain.NotificationRecord{
		ID: "notif-1", UserID: "user-1", Kind: domain.KindFollowup,
		ScheduledFor: now, State: domain.StateCreated, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if store.records["notif-1"].RecurrenceJSON != "" {
		t.Fatalf("recurrence json = %q, want empty", store.records["notif-1"].RecurrenceJSON)
	}

	got, err := adapter.GetNotification(context.Background(), "user-1", "notif-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Recurrence != nil || got.Action != nil {
		t.Fatalf("unexpected pointers restored: %+v", got)
	}
}

func TestDomainStoreAdapterOriginalScheduledForMapping(t *testing.T) {
	t.Parallel()

	store := &fakeNotificationStore{}
	adapter := newDomainStoreAdapter(store, store)
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

	record := domain.NotificationRecord{
		ID: "notif-1", UserID: "user-1", Kind: domain.KindReminder,
		ScheduledFor: now.Add(time.Hour), State: domain.StateScheduled,
		SnoozedCount: 1, OriginalScheduledFor: now,
		CreatedAt: now, UpdatedAt: now,
	}
	if err := adapter.PutNotification(context.Background(), record); err != nil {
		t.Fatalf("put: %v", err)
	}
	stored := store.records["notif-1"]
	if stored.OriginalScheduledFor == nil || !stored.OriginalScheduledFor.Equal(now) {
		t.Fatalf("stored original = %v", stored.OriginalScheduledFor)
	}

	got, err := adapter.GetNotification(context.Background(), "user-1", "notif-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.OriginalScheduledFor.Equal(now) {
		t.Fatalf("restored original = %v, want %v", got.OriginalScheduledFor, now)
	}
}

func TestDomainStoreAdapterMapsNotFound(t *testing.T) {
	t.Parallel()

	store := &fakeNotificationStore{}
	adapter := newDomainStoreAdapter(store, store)

	_, err := adapter.GetNotification(context.Background(), "user-1", "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("error = %v, want domain.ErrNotFound", err)
	}
}

func TestDomainStoreAdapterEnqueueSync(t *testing.T) {
	t.Parallel()

	store := &fakeNotificationStore{}
	adapter := newDomainStoreAdapter(store, store)

	err := adapter.EnqueueSync(context.Background(), domain.SyncOp{
		Kind:           domain.SyncOpActionComplete,
		UserID:         "user-1",
		NotificationID: "notif-1",
		ActionID:       "action-1",
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if len(store.syncOps) != 1 {
		t.Fatalf("sync ops = %d, want 1", len(store.syncOps))
	}
	op := store.syncOps[0]
	if op.Kind != "action_complete" || op.ActionID != "action-1" {
		t.Fatalf("op = %+v", op)
	}
}

func TestDomainStoreAdapterNilGuards(t *testing.T) {
	t.Parallel()

	adapter := newDomainStoreAdapter(nil, nil)
	if err := adapter.PutNotification(context.Background(), domain.NotificationRecord{}); !errors.Is(err, domain.ErrStoreNotConfigured) {
		t.Fatalf("put error = %v", err)
	}
	if err := adapter.EnqueueSync(context.Background(), domain.SyncOp{}); !errors.Is(err, domain.ErrStoreNotConfigured) {
		t.Fatalf("enqueue error = %v", err)
	}
}
