package domain

import (
	"errors"
	"testing"
	"time"
)

func TestCalculateReminderFiresAtDeclaredDate(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC)
	trigger, err := Calculate(MemoEvent{
		UserID:       "user-1",
		MemoID:       "memo-1",
		Type:         "reminder",
		Title:        "Call the dentist",
		ReminderDate: "2025-06-01T09:00:00Z",
	}, now)
	if err != nil {
		t.Fatalf("calculate reminder: %v", err)
	}
	if trigger == nil {
		t.Fatal("expected a trigger for a valid reminder date")
	}
	if trigger.Record.Kind != KindReminder {
		t.Fatalf("kind = %q, want %q", trigger.Record.Kind, KindReminder)
	}
	want := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	if !trigger.Record.ScheduledFor.Equal(want) {
		t.Fatalf("scheduled for %v, want %v", trigger.Record.ScheduledFor, want)
	}
	if trigger.Record.Sent {
		t.Fatal("new record must not be marked sent")
	}
}

func TestCalculateEventSubtractsLeadTime(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC)
	trigger, err := Calculate(MemoEvent{
		UserID:    "user-1",
		MemoID:    "memo-2",
		Type:      "event",
		Title:     "Team offsite",
		EventDate: "2025-06-01T09:00:00Z",
	}, now)
	if err != nil {
		t.Fatalf("calculate event: %v", err)
	}
	if trigger == nil {
		t.Fatal("expected a trigger for a valid event date")
	}
	want := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	if !trigger.Record.ScheduledFor.Equal(want) {
		t.Fatalf("scheduled for %v, want one hour before the event (%v)", trigger.Record.ScheduledFor, want)
	}
}

func TestCalculateMalformedDateYieldsNothing(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name  string
		event MemoEvent
	}{
		{"garbage reminder date", MemoEvent{UserID: "user-1", Type: "reminder", ReminderDate: "not-a-date"}},
		{"missing reminder date", MemoEvent{UserID: "user-1", Type: "reminder"}},
		{"garbage event date", MemoEvent{UserID: "user-1", Type: "event", EventDate: "next tuesday-ish"}},
		{"unclassified memo", MemoEvent{UserID: "user-1", Type: "note"}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			trigger, err := Calculate(tc.event, now)
			if err != nil {
				t.Fatalf("expected silent no-op, got error: %v", err)
			}
			if trigger != nil {
				t.Fatalf("expected no trigger, got %+v", trigger)
			}
		})
	}
}

func TestCalculateAcceptsBareDate(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC)
	trigger, err := Calculate(MemoEvent{
		UserID:       "user-1",
		Type:         "reminder",
		ReminderDate: "2025-06-01",
	}, now)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if trigger == nil {
		t.Fatal("expected a trigger for a bare date")
	}
	want := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	if !trigger.Record.ScheduledFor.Equal(want) {
		t.Fatalf("scheduled for %v, want start of day %v", trigger.Record.ScheduledFor, want)
	}
}

func TestCalculateUnknownFrequencyFailsLoudly(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC)
	_, err := Calculate(MemoEvent{
		UserID:       "user-1",
		Type:         "reminder",
		ReminderDate: "2025-06-01T09:00:00Z",
		Recurrence:   &Recurrence{Enabled: true, Frequency: "fortnightly"},
	}, now)
	if !errors.Is(err, ErrUnknownFrequency) {
		t.Fatalf("expected ErrUnknownFrequency, got %v", err)
	}
}

func TestCalculateCarriesRecurrenceIntoSchedule(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC)
	recurrence := &Recurrence{
		Enabled:    true,
		Frequency:  FrequencyWeekly,
		DaysOfWeek: []time.Weekday{time.Monday, time.Thursday},
	}
	trigger, err := Calculate(MemoEvent{
		UserID:       "user-1",
		Type:         "reminder",
		ReminderDate: "2025-06-01T09:00:00Z",
		Recurrence:   recurrence,
	}, now)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if trigger == nil {
		t.Fatal("expected a trigger")
	}
	if trigger.Schedule.Repeat == nil || trigger.Schedule.Repeat.Frequency != FrequencyWeekly {
		t.Fatalf("expected weekly repeat in schedule, got %+v", trigger.Schedule.Repeat)
	}
}

func TestFollowUpTriggerDefersByConfiguredDays(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC)
	trigger := FollowUpTrigger("user-1", "memo-3", "Budget memo", 3, now)
	want := now.Add(3 * 24 * time.Hour)
	if !trigger.Record.ScheduledFor.Equal(want) {
		t.Fatalf("scheduled for %v, want %v", trigger.Record.ScheduledFor, want)
	}
	if trigger.Record.Kind != KindFollowup {
		t.Fatalf("kind = %q, want %q", trigger.Record.Kind, KindFollowup)
	}
}

func TestFollowUpTriggerDefaultsToSevenDays(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC)
	trigger := FollowUpTrigger("user-1", "memo-3", "Budget memo", 0, now)
	want := now.Add(7 * 24 * time.Hour)
	if !trigger.Record.ScheduledFor.Equal(want) {
		t.Fatalf("scheduled for %v, want default seven days (%v)", trigger.Record.ScheduledFor, want)
	}
}

func TestInsightTriggerIsImmediate(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC)
	trigger := InsightTrigger("user-1", "You mention deadlines most on Mondays.", now)
	if trigger.Record.Kind != KindInsight {
		t.Fatalf("kind = %q, want %q", trigger.Record.Kind, KindInsight)
	}
	if !trigger.Schedule.Immediate() {
		t.Fatal("expected immediate schedule for insight")
	}
	if trigger.Record.MemoID != "" {
		t.Fatalf("insight should carry no memo back-reference, got %q", trigger.Record.MemoID)
	}
}
