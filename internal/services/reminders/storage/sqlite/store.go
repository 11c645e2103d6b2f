// Package sqlite provides SQLite-backed persistence for reminder state.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/murmurapp/murmur/internal/platform/storage/sqlitemigrate"
	"github.com/murmurapp/murmur/internal/services/reminders/storage"
	"github.com/murmurapp/murmur/internal/services/reminders/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for notifications and the sync
// outbox.
type Store struct {
	sqlDB *sql.DB
	clock func() time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// liveStates are the non-terminal lifecycle states.
var liveStates = []string{storage.StateCreated, storage.StateScheduled, storage.StateDelivered}

// Open opens a reminders SQLite store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB, clock: time.Now}
	if err := sqlitemigrate.Apply(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// PutNotification upserts one notification row in a single statement.
func (s *Store) PutNotification(ctx context.Context, record storage.NotificationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	normalized, err := normalizeNotificationRecord(record)
	if err != nil {
		return err
	}

	var originalScheduledFor any
	if normalized.OriginalScheduledFor != nil {
		originalScheduledFor = toMillis(*normalized.OriginalScheduledFor)
	}
	var readAt any
	if normalized.ReadAt != nil {
		readAt = toMillis(*normalized.ReadAt)
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO notifications (
    id, user_id, memo_id, kind, title, body, scheduled_for, recurrence_json,
    action_id, can_complete, can_snooze, state, sent, snoozed_count,
    original_scheduled_for, device_handle, read_at, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    user_id = excluded.user_id,
    memo_id = excluded.memo_id,
    kind = excluded.kind,
    title = excluded.title,
    body = excluded.body,
    scheduled_for = excluded.scheduled_for,
    recurrence_json = excluded.recurrence_json,
    action_id = excluded.action_id,
    can_complete = excluded.can_complete,
    can_snooze = excluded.can_snooze,
    state = excluded.state,
    sent = excluded.sent,
    snoozed_count = excluded.snoozed_count,
    original_scheduled_for = excluded.original_scheduled_for,
    device_handle = excluded.device_handle,
    read_at = excluded.read_at,
    updated_at = excluded.updated_at
`,
		normalized.ID, normalized.UserID, normalized.MemoID, normalized.Kind,
		normalized.Title, normalized.Body, toMillis(normalized.ScheduledFor),
		normalized.RecurrenceJSON, normalized.ActionID,
		boolToInt(normalized.CanComplete), boolToInt(normalized.CanSnooze),
		normalized.State, boolToInt(normalized.Sent), normalized.SnoozedCount,
		originalScheduledFor, normalized.DeviceHandle, readAt,
		toMillis(normalized.CreatedAt), toMillis(normalized.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put notification: %w", err)
	}
	return nil
}

// GetNotification loads one notification row scoped to its owner.
func (s *Store) GetNotification(ctx context.Context, userID string, notificationID string) (storage.NotificationRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.NotificationRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.NotificationRecord{}, fmt.Errorf("storage is not configured")
	}
	userID = strings.TrimSpace(userID)
	notificationID = strings.TrimSpace(notificationID)
	if userID == "" {
		return storage.NotificationRecord{}, fmt.Errorf("user id is required")
	}
	if notificationID == "" {
		return storage.NotificationRecord{}, fmt.Errorf("notification id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, selectNotificationSQL+`
WHERE user_id = ? AND id = ?
`, userID, notificationID)
	record, err := scanNotification(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.NotificationRecord{}, storage.ErrNotFound
		}
		return storage.NotificationRecord{}, fmt.Errorf("get notification: %w", err)
	}
	return record, nil
}

// ListPendingByUser lists the user's non-terminal rows, soonest first.
func (s *Store) ListPendingByUser(ctx context.Context, userID string) ([]storage.NotificationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx, selectNotificationSQL+`
WHERE user_id = ? AND state IN (?, ?, ?)
ORDER BY scheduled_for ASC, id ASC
`, userID, liveStates[0], liveStates[1], liveStates[2])
	if err != nil {
		return nil, fmt.Errorf("list pending notifications: %w", err)
	}
	return collectNotifications(rows)
}

// ListScheduled lists every non-terminal row across users, for rehydration
// after a process restart.
func (s *Store) ListScheduled(ctx context.Context) ([]storage.NotificationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx, selectNotificationSQL+`
WHERE state IN (?, ?, ?)
ORDER BY scheduled_for ASC, id ASC
`, liveStates[0], liveStates[1], liveStates[2])
	if err != nil {
		return nil, fmt.Errorf("list scheduled notifications: %w", err)
	}
	return collectNotifications(rows)
}

// CountUnreadByUser counts the user's unread rows.
func (s *Store) CountUnreadByUser(ctx context.Context, userID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, fmt.Errorf("user id is required")
	}

	var count int
	if err := s.sqlDB.QueryRowContext(ctx, `
SELECT COUNT(1) FROM notifications
WHERE user_id = ? AND read_at IS NULL
`, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkAllRead flips every unread row for the user and returns how many.
func (s *Store) MarkAllRead(ctx context.Context, userID string, readAt time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, fmt.Errorf("user id is required")
	}
	if readAt.IsZero() {
		return 0, fmt.Errorf("read at is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE notifications
SET read_at = ?, updated_at = ?
WHERE user_id = ? AND read_at IS NULL
`, toMillis(readAt), toMillis(readAt), userID)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark all read rows affected: %w", err)
	}
	return int(affected), nil
}

// DeleteNotification removes one row scoped to its owner.
func (s *Store) DeleteNotification(ctx context.Context, userID string, notificationID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	userID = strings.TrimSpace(userID)
	notificationID = strings.TrimSpace(notificationID)
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	if notificationID == "" {
		return fmt.Errorf("notification id is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
DELETE FROM notifications WHERE user_id = ? AND id = ?
`, userID, notificationID)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete notification rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// EnqueueSync appends one outbox row due immediately unless a later
// attempt time is set.
func (s *Store) EnqueueSync(ctx context.Context, record storage.SyncRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	record.Kind = strings.TrimSpace(record.Kind)
	record.UserID = strings.TrimSpace(record.UserID)
	if record.Kind == "" {
		return fmt.Errorf("sync kind is required")
	}
	if record.UserID == "" {
		return fmt.Errorf("user id is required")
	}
	now := s.nowUTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	if record.NextAttemptAt.IsZero() {
		record.NextAttemptAt = record.CreatedAt
	}

	if _, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO sync_outbox (
    kind, user_id, notification_id, action_id,
    attempt_count, next_attempt_at, last_error, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`,
		record.Kind, record.UserID, strings.TrimSpace(record.NotificationID),
		strings.TrimSpace(record.ActionID), record.AttemptCount,
		toMillis(record.NextAttemptAt), strings.TrimSpace(record.LastError),
		toMillis(record.CreatedAt),
	); err != nil {
		return fmt.Errorf("enqueue sync: %w", err)
	}
	return nil
}

// ListDueSync lists outbox rows due at or before now, oldest first.
func (s *Store) ListDueSync(ctx context.Context, limit int, now time.Time) ([]storage.SyncRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}
	if now.IsZero() {
		return nil, fmt.Errorf("now is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, kind, user_id, notification_id, action_id,
       attempt_count, next_attempt_at, last_error, created_at
FROM sync_outbox
WHERE next_attempt_at <= ?
ORDER BY next_attempt_at ASC, id ASC
LIMIT ?
`, toMillis(now.UTC()), limit)
	if err != nil {
		return nil, fmt.Errorf("list due sync: %w", err)
	}
	defer rows.Close()

	results := make([]storage.SyncRecord, 0, limit)
	for rows.Next() {
		var record storage.SyncRecord
		var nextAttemptMillis, createdMillis int64
		if err := rows.Scan(
			&record.ID, &record.Kind, &record.UserID, &record.NotificationID,
			&record.ActionID, &record.AttemptCount, &nextAttemptMillis,
			&record.LastError, &createdMillis,
		); err != nil {
			return nil, fmt.Errorf("scan sync row: %w", err)
		}
		record.NextAttemptAt = fromMillis(nextAttemptMillis)
		record.CreatedAt = fromMillis(createdMillis)
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sync rows: %w", err)
	}
	return results, nil
}

// MarkSyncRetry records one failed attempt and schedules the next.
func (s *Store) MarkSyncRetry(ctx context.Context, id int64, attemptCount int, nextAttemptAt time.Time, lastError string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if attemptCount < 0 {
		return fmt.Errorf("attempt count must be non-negative")
	}
	if nextAttemptAt.IsZero() {
		return fmt.Errorf("next attempt at is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE sync_outbox
SET attempt_count = ?, next_attempt_at = ?, last_error = ?
WHERE id = ?
`, attemptCount, toMillis(nextAttemptAt.UTC()), strings.TrimSpace(lastError), id)
	if err != nil {
		return fmt.Errorf("mark sync retry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark sync retry rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteSync removes one completed outbox row.
func (s *Store) DeleteSync(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM sync_outbox WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete sync: %w", err)
	}
	return nil
}

const selectNotificationSQL = `
SELECT id, user_id, memo_id, kind, title, body, scheduled_for, recurrence_json,
       action_id, can_complete, can_snooze, state, sent, snoozed_count,
       original_scheduled_for, device_handle, read_at, created_at, updated_at
FROM notifications
`

type scanner func(dest ...any) error

func scanNotification(scan scanner) (storage.NotificationRecord, error) {
	var record storage.NotificationRecord
	var scheduledMillis, createdMillis, updatedMillis int64
	var canComplete, canSnooze, sent int
	var originalScheduledMillis, readAtMillis sql.NullInt64

	if err := scan(
		&record.ID, &record.UserID, &record.MemoID, &record.Kind,
		&record.Title, &record.Body, &scheduledMillis, &record.RecurrenceJSON,
		&record.ActionID, &canComplete, &canSnooze, &record.State,
		&sent, &record.SnoozedCount, &originalScheduledMillis,
		&record.DeviceHandle, &readAtMillis, &createdMillis, &updatedMillis,
	); err != nil {
		return storage.NotificationRecord{}, err
	}

	record.ScheduledFor = fromMillis(scheduledMillis)
	record.CanComplete = canComplete != 0
	record.CanSnooze = canSnooze != 0
	record.Sent = sent != 0
	if originalScheduledMillis.Valid {
		at := fromMillis(originalScheduledMillis.Int64)
		record.OriginalScheduledFor = &at
	}
	if readAtMillis.Valid {
		at := fromMillis(readAtMillis.Int64)
		record.ReadAt = &at
	}
	record.CreatedAt = fromMillis(createdMillis)
	record.UpdatedAt = fromMillis(updatedMillis)
	return record, nil
}

func collectNotifications(rows *sql.Rows) ([]storage.NotificationRecord, error) {
	defer rows.Close()
	var results []storage.NotificationRecord
	for rows.Next() {
		record, err := scanNotification(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan notification row: %w", err)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notification rows: %w", err)
	}
	return results, nil
}

func normalizeNotificationRecord(record storage.NotificationRecord) (storage.NotificationRecord, error) {
	record.ID = strings.TrimSpace(record.ID)
	record.UserID = strings.TrimSpace(record.UserID)
	record.MemoID = strings.TrimSpace(record.MemoID)
	record.Kind = strings.TrimSpace(record.Kind)
	record.State = strings.TrimSpace(record.State)
	record.ActionID = strings.TrimSpace(record.ActionID)
	record.DeviceHandle = strings.TrimSpace(record.DeviceHandle)
	if record.ID == "" {
		return storage.NotificationRecord{}, fmt.Errorf("notification id is required")
	}
	if record.UserID == "" {
		return storage.NotificationRecord{}, fmt.Errorf("user id is required")
	}
	if record.Kind == "" {
		return storage.NotificationRecord{}, fmt.Errorf("kind is required")
	}
	if record.State == "" {
		return storage.NotificationRecord{}, fmt.Errorf("state is required")
	}
	if record.ScheduledFor.IsZero() {
		return storage.NotificationRecord{}, fmt.Errorf("scheduled_for is required")
	}
	if record.CreatedAt.IsZero() {
		return storage.NotificationRecord{}, fmt.Errorf("created_at is required")
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = record.CreatedAt
	}
	return record, nil
}

func (s *Store) nowUTC() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock().UTC()
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
