package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	// EventLeadTime is subtracted from an event's declared time so the
	// reminder fires before the event, not at it.
	EventLeadTime = time.Hour
	// DefaultFollowUpDelayDays is the follow-up deferral when none is configured.
	DefaultFollowUpDelayDays = 7
)

// MemoEvent is one domain event extracted from a transcribed memo. The
// date fields carry AI-extracted metadata verbatim and may be garbage.
type MemoEvent struct {
	UserID string
	MemoID string
	// Type is the memo classification, "reminder" or "event".
	Type         string
	Title        string
	ReminderDate string
	EventDate    string
	Recurrence   *Recurrence
	Action       *ActionData
}

// Trigger pairs a canonical notification record with its schedule
// descriptor. The record carries no ID or lifecycle state yet; the
// service assigns both at creation.
type Trigger struct {
	Record   NotificationRecord
	Schedule Schedule
}

// Calculate maps a memo event to zero or one trigger.
//
// A missing or unparseable date yields (nil, nil): upstream extraction is
// inherently fallible, so malformed metadata is a silent no-op, never an
// error. An unsupported recurrence frequency is a configuration mistake
// and fails loudly instead.
func Calculate(event MemoEvent, now time.Time) (*Trigger, error) {
	if event.Recurrence != nil && event.Recurrence.Enabled && !event.Recurrence.Frequency.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFrequency, event.Recurrence.Frequency)
	}

	var kind Kind
	var raw string
	switch strings.ToLower(strings.TrimSpace(event.Type)) {
	case "reminder":
		kind = KindReminder
		raw = event.ReminderDate
	case "event":
		kind = KindReminder
		raw = event.EventDate
	default:
		return nil, nil
	}

	fireAt, ok := parseInstant(raw)
	if !ok {
		return nil, nil
	}
	if strings.ToLower(strings.TrimSpace(event.Type)) == "event" {
		fireAt = fireAt.Add(-EventLeadTime)
	}

	record := NotificationRecord{
		UserID:       event.UserID,
		MemoID:       event.MemoID,
		Kind:         kind,
		Title:        event.Title,
		ScheduledFor: fireAt,
		Recurrence:   event.Recurrence,
		Action:       event.Action,
	}
	return &Trigger{
		Record:   record,
		Schedule: Schedule{FireAt: fireAt, Repeat: event.Recurrence},
	}, nil
}

// FollowUpTrigger defers a nudge back to a memo by delayDays from now.
// A non-positive delay falls back to the default.
func FollowUpTrigger(userID, memoID, title string, delayDays int, now time.Time) *Trigger {
	if delayDays <= 0 {
		delayDays = DefaultFollowUpDelayDays
	}
	fireAt := now.Add(time.Duration(delayDays) * 24 * time.Hour)
	return &Trigger{
		Record: NotificationRecord{
			UserID:       userID,
			MemoID:       memoID,
			Kind:         KindFollowup,
			Title:        title,
			ScheduledFor: fireAt,
		},
		Schedule: Schedule{FireAt: fireAt},
	}
}

// InsightTrigger surfaces a persona insight immediately as a one-shot.
func InsightTrigger(userID, insightText string, now time.Time) *Trigger {
	return &Trigger{
		Record: NotificationRecord{
			UserID:       userID,
			Kind:         KindInsight,
			Body:         strings.TrimSpace(insightText),
			ScheduledFor: now,
		},
		Schedule: Schedule{},
	}
}

// parseInstant parses an AI-extracted date. RFC 3339 is the canonical
// wire form; a bare date is accepted and pinned to start of day UTC.
func parseInstant(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if value, err := time.Parse(time.RFC3339, raw); err == nil {
		return value.UTC(), true
	}
	if value, err := time.Parse("2006-01-02", raw); err == nil {
		return value.UTC(), true
	}
	return time.Time{}, false
}
