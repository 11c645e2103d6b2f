package domain

import (
	"context"
	"fmt"
	"sync"
	"time"
)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func sequentialIDGenerator(ids ...string) func() (string, error) {
	index := 0
	return func() (string, error) {
		if index >= len(ids) {
			return "", fmt.Errorf("id sequence exhausted after %d ids", len(ids))
		}
		value := ids[index]
		index++
		return value, nil
	}
}

type fakeStore struct {
	mu      sync.Mutex
	records map[string]NotificationRecord
	syncOps []SyncOp
	putErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]NotificationRecord)}
}

func (f *fakeStore) PutNotification(_ context.Context, record NotificationRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	f.records[record.ID] = record
	return nil
}

func (f *fakeStore) GetNotification(_ context.Context, userID string, notificationID string) (NotificationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[notificationID]
	if !ok || record.UserID != userID {
		return NotificationRecord{}, ErrNotFound
	}
	return record, nil
}

func (f *fakeStore) ListPendingByUser(_ context.Context, userID string) ([]NotificationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []NotificationRecord
	for _, record := range f.records {
		if record.UserID == userID && record.Pending() {
			out = append(out, record)
		}
	}
	return out, nil
}

func (f *fakeStore) ListScheduled(_ context.Context) ([]NotificationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []NotificationRecord
	for _, record := range f.records {
		if record.Pending() {
			out = append(out, record)
		}
	}
	return out, nil
}

func (f *fakeStore) CountUnreadByUser(_ context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, record := range f.records {
		if record.UserID == userID && record.ReadAt == nil {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) MarkAllRead(_ context.Context, userID string, readAt time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for id, record := range f.records {
		if record.UserID == userID && record.ReadAt == nil {
			at := readAt
			record.ReadAt = &at
			f.records[id] = record
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) DeleteNotification(_ context.Context, userID string, notificationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[notificationID]
	if !ok || record.UserID != userID {
		return ErrNotFound
	}
	delete(f.records, notificationID)
	return nil
}

func (f *fakeStore) EnqueueSync(_ context.Context, op SyncOp) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.syncOps = append(f.syncOps, op)
	return nil
}

func (f *fakeStore) record(id string) (NotificationRecord, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[id]
	return record, ok
}

func (f *fakeStore) syncOpKinds() []SyncOpKind {
	f.mu.Lock()
	defer f.mu.Unlock()
	kinds := make([]SyncOpKind, 0, len(f.syncOps))
	for _, op := range f.syncOps {
		kinds = append(kinds, op.Kind)
	}
	return kinds
}

type fakeDeviceScheduler struct {
	mu          sync.Mutex
	nextID      int
	armed       map[string]NotificationRecord
	cancelled   []string
	scheduleErr error
}

func newFakeDeviceScheduler() *fakeDeviceScheduler {
	return &fakeDeviceScheduler{armed: make(map[string]NotificationRecord)}
}

func (f *fakeDeviceScheduler) Schedule(_ context.Context, record NotificationRecord, _ Schedule) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.scheduleErr != nil {
		return "", f.scheduleErr
	}
	f.nextID++
	handle := fmt.Sprintf("handle-%d", f.nextID)
	f.armed[handle] = record
	return handle, nil
}

func (f *fakeDeviceScheduler) Cancel(_ context.Context, handle string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	// Cancelling an unknown handle is a legal no-op; record every call so
	// tests can assert sequencing.
	delete(f.armed, handle)
	f.cancelled = append(f.cancelled, handle)
}

func (f *fakeDeviceScheduler) armedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.armed)
}

func (f *fakeDeviceScheduler) cancelledHandles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.cancelled...)
}

type fakeActionUpdater struct {
	mu      sync.Mutex
	updates map[string]string
	err     error
}

func newFakeActionUpdater() *fakeActionUpdater {
	return &fakeActionUpdater{updates: make(map[string]string)}
}

func (f *fakeActionUpdater) UpdateActionStatus(_ context.Context, actionID string, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.updates[actionID] = status
	return nil
}

func (f *fakeActionUpdater) status(actionID string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	status, ok := f.updates[actionID]
	return status, ok
}
