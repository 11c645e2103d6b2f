package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/murmurapp/murmur/internal/services/reminders/domain"
	"github.com/murmurapp/murmur/internal/services/reminders/storage"
)

type domainStoreAdapter struct {
	notificationStore storage.NotificationStore
	syncOutbox        storage.SyncOutbox
}

func newDomainStoreAdapter(notificationStore storage.NotificationStore, syncOutbox storage.SyncOutbox) *domainStoreAdapter {
	return &domainStoreAdapter{
		notificationStore: notificationStore,
		syncOutbox:        syncOutbox,
	}
}

func (a *domainStoreAdapter) PutNotification(ctx context.Context, record domain.NotificationRecord) error {
	if a == nil || a.notificationStore == nil {
		return domain.ErrStoreNotConfigured
	}
	stored, err := toStorageRecord(record)
	if err != nil {
		return err
	}
	return mapStorageError(a.notificationStore.PutNotification(ctx, stored))
}

func (a *domainStoreAdapter) GetNotification(ctx context.Context, userID string, notificationID string) (domain.NotificationRecord, error) {
	if a == nil || a.notificationStore == nil {
		return domain.NotificationRecord{}, domain.ErrStoreNotConfigured
	}
	record, err := a.notificationStore.GetNotification(ctx, userID, notificationID)
	if err != nil {
		return domain.NotificationRecord{}, mapStorageError(err)
	}
	return toDomainRecord(record)
}

func (a *domainStoreAdapter) ListPendingByUser(ctx context.Context, userID string) ([]domain.NotificationRecord, error) {
	if a == nil || a.notificationStore == nil {
		return nil, domain.ErrStoreNotConfigured
	}
	records, err := a.notificationStore.ListPendingByUser(ctx, userID)
	if err != nil {
		return nil, mapStorageError(err)
	}
	return toDomainRecords(records)
}

func (a *domainStoreAdapter) ListScheduled(ctx context.Context) ([]domain.NotificationRecord, error) {
	if a == nil || a.notificationStore == nil {
		return nil, domain.ErrStoreNotConfigured
	}
	records, err := a.notificationStore.ListScheduled(ctx)
	if err != nil {
		return nil, mapStorageError(err)
	}
	return toDomainRecords(records)
}

func (a *domainStoreAdapter) CountUnreadByUser(ctx context.Context, userID string) (int, error) {
	if a == nil || a.notificationStore == nil {
		return 0, domain.ErrStoreNotConfigured
	}
	count, err := a.notificationStore.CountUnreadByUser(ctx, userID)
	if err != nil {
		return 0, mapStorageError(err)
	}
	return count, nil
}

func (a *domainStoreAdapter) MarkAllRead(ctx context.Context, userID string, readAt time.Time) (int, error) {
	if a == nil || a.notificationStore == nil {
		return 0, domain.ErrStoreNotConfigured
	}
	count, err := a.notificationStore.MarkAllRead(ctx, userID, readAt)
	if err != nil {
		return 0, mapStorageError(err)
	}
	return count, nil
}

func (a *domainStoreAdapter) DeleteNotification(ctx context.Context, userID string, notificationID string) error {
	if a == nil || a.notificationStore == nil {
		return domain.ErrStoreNotConfigured
	}
	return mapStorageError(a.notificationStore.DeleteNotification(ctx, userID, notificationID))
}

func (a *domainStoreAdapter) EnqueueSync(ctx context.Context, op domain.SyncOp) error {
	if a == nil || a.syncOutbox == nil {
		return domain.ErrStoreNotConfigured
	}
	return mapStorageError(a.syncOutbox.EnqueueSync(ctx, storage.SyncRecord{
		Kind:           string(op.Kind),
		UserID:         op.UserID,
		NotificationID: op.NotificationID,
		ActionID:       op.ActionID,
	}))
}

// recurrencePayload is the stored JSON form of a recurrence rule.
type recurrencePayload struct {
	Frequency  string `json:"frequency"`
	DaysOfWeek []int  `json:"days_of_week,omitempty"`
	EndDate    string `json:"end_date,omitempty"`
}

func toStorageRecord(record domain.NotificationRecord) (storage.NotificationRecord, error) {
	stored := storage.NotificationRecord{
		ID:           record.ID,
		UserID:       record.UserID,
		MemoID:       record.MemoID,
		Kind:         string(record.Kind),
		Title:        record.Title,
		Body:         record.Body,
		ScheduledFor: record.ScheduledFor,
		State:        string(record.State),
		Sent:         record.Sent,
		SnoozedCount: record.SnoozedCount,
		DeviceHandle: record.DeviceHandle,
		ReadAt:       record.ReadAt,
		CreatedAt:    record.CreatedAt,
		UpdatedAt:    record.UpdatedAt,
	}
	if record.Action != nil {
		stored.ActionID = record.Action.ActionID
		stored.CanComplete = record.Action.CanComplete
		stored.CanSnooze = record.Action.CanSnooze
	}
	if !record.OriginalScheduledFor.IsZero() {
		at := record.OriginalScheduledFor
		stored.OriginalScheduledFor = &at
	}
	if record.Recurrence != nil && record.Recurrence.Enabled {
		payload := recurrencePayload{Frequency: string(record.Recurrence.Frequency)}
		for _, day := range record.Recurrence.DaysOfWeek {
			payload.DaysOfWeek = append(payload.DaysOfWeek, int(day))
		}
		if !record.Recurrence.EndDate.IsZero() {
			payload.EndDate = record.Recurrence.EndDate.UTC().Format(time.RFC3339)
		}
		encoded, err := json.Marshal(payload)
		if err != nil {
			return storage.NotificationRecord{}, fmt.Errorf("encode recurrence: %w", err)
		}
		stored.RecurrenceJSON = string(encoded)
	}
	return stored, nil
}

func toDomainRecord(record storage.NotificationRecord) (domain.NotificationRecord, error) {
	result := domain.NotificationRecord{
		ID:           record.ID,
		UserID:       record.UserID,
		MemoID:       record.MemoID,
		Kind:         domain.Kind(record.Kind),
		Title:        record.Title,
		Body:         record.Body,
		ScheduledFor: record.ScheduledFor,
		State:        domain.State(record.State),
		Sent:         record.Sent,
		SnoozedCount: record.SnoozedCount,
		DeviceHandle: record.DeviceHandle,
		ReadAt:       record.ReadAt,
		CreatedAt:    record.CreatedAt,
		UpdatedAt:    record.UpdatedAt,
	}
	if record.ActionID != "" || record.CanComplete || record.CanSnooze {
		result.Action = &domain.ActionData{
			ActionID:    record.ActionID,
			CanComplete: record.CanComplete,
			CanSnooze:   record.CanSnooze,
		}
	}
	if record.OriginalScheduledFor != nil {
		result.OriginalScheduledFor = *record.OriginalScheduledFor
	}
	if record.RecurrenceJSON != "" {
		var payload recurrencePayload
		if err := json.Unmarshal([]byte(record.RecurrenceJSON), &payload); err != nil {
			return domain.NotificationRecord{}, fmt.Errorf("decode recurrence for %s: %w", record.ID, err)
		}
		recurrence := &domain.Recurrence{
			Enabled:   true,
			Frequency: domain.Frequency(payload.Frequency),
		}
		for _, day := range payload.DaysOfWeek {
			recurrence.DaysOfWeek = append(recurrence.DaysOfWeek, time.Weekday(day))
		}
		if payload.EndDate != "" {
			endDate, err := time.Parse(time.RFC3339, payload.EndDate)
			if err != nil {
				return domain.NotificationRecord{}, fmt.Errorf("decode recurrence end date for %s: %w", record.ID, err)
			}
			recurrence.EndDate = endDate.UTC()
		}
		result.Recurrence = recurrence
	}
	return result, nil
}

func toDomainRecords(records []storage.NotificationRecord) ([]domain.NotificationRecord, error) {
	results := make([]domain.NotificationRecord, 0, len(records))
	for _, record := range records {
		mapped, err := toDomainRecord(record)
		if err != nil {
			return nil, err
		}
		results = append(results, mapped)
	}
	return results, nil
}

func mapStorageError(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return domain.ErrNotFound
	}
	return err
}
