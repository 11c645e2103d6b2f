package domain

import (
	"strings"
	"time"
)

// Kind classifies the origin of one notification record.
type Kind string

const (
	// KindReminder is a notification from a memo tagged as a reminder.
	KindReminder Kind = "reminder"
	// KindFollowup is a deferred nudge back to a memo.
	KindFollowup Kind = "followup"
	// KindInsight is a persona-derived insight surfaced immediately.
	KindInsight Kind = "insight"
	// KindSystem is an engine- or backend-originated notice.
	KindSystem Kind = "system"
	// KindAssignment is a task assigned to the user by someone else.
	KindAssignment Kind = "assignment"
	// KindGroupInvite is an invitation to a shared memo group.
	KindGroupInvite Kind = "group_invite"
)

// NormalizeKind normalizes a producer-provided kind token.
func NormalizeKind(raw string) Kind {
	return Kind(strings.ToLower(strings.TrimSpace(raw)))
}

// State is one lifecycle position of a notification record.
type State string

const (
	// StateCreated means the record exists but holds no device handle yet.
	StateCreated State = "created"
	// StateScheduled means a device trigger is armed for the record.
	StateScheduled State = "scheduled"
	// StateDelivered means the device reported the trigger fired. Best-effort;
	// the platform may coalesce or drop deliveries without reporting.
	StateDelivered State = "delivered"
	// StateActioned means the user completed the record. Terminal.
	StateActioned State = "actioned"
	// StateExpired means a recurring record passed its end date. Terminal.
	StateExpired State = "expired"
	// StateCancelled means the record was explicitly revoked. Terminal.
	StateCancelled State = "cancelled"
)

// Terminal reports whether no further lifecycle transitions are allowed.
func (s State) Terminal() bool {
	switch s {
	case StateActioned, StateExpired, StateCancelled:
		return true
	}
	return false
}

// CanTransition reports whether moving from s to next is a legal lifecycle
// step. Snoozing re-enters StateScheduled from StateScheduled or
// StateDelivered; terminal states never transition.
func (s State) CanTransition(next State) bool {
	if s.Terminal() {
		return false
	}
	switch next {
	case StateScheduled:
		return s == StateCreated || s == StateScheduled || s == StateDelivered
	case StateDelivered:
		return s == StateScheduled || s == StateDelivered
	case StateActioned, StateExpired, StateCancelled:
		return true
	}
	return false
}

// Frequency is one supported recurrence cadence.
type Frequency string

const (
	// FrequencyDaily repeats at the same time every day.
	FrequencyDaily Frequency = "daily"
	// FrequencyWeekly repeats on each listed weekday.
	FrequencyWeekly Frequency = "weekly"
	// FrequencyMonthly repeats on the same day of each month.
	FrequencyMonthly Frequency = "monthly"
)

// Valid reports whether f is a supported cadence.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// Recurrence describes a repeating trigger pattern. The device scheduler
// expands it into platform triggers; occurrences are never stored as
// discrete future records.
type Recurrence struct {
	Enabled   bool
	Frequency Frequency
	// DaysOfWeek applies to weekly recurrence only. Each weekday gets its
	// own device-level trigger sharing the record's content.
	DaysOfWeek []time.Weekday
	// EndDate, when non-zero, terminates the series.
	EndDate time.Time
}

// Ended reports whether the series end date has passed at now.
func (r *Recurrence) Ended(now time.Time) bool {
	if r == nil || !r.Enabled || r.EndDate.IsZero() {
		return false
	}
	return now.After(r.EndDate)
}

// ActionData links a notification to an external action entity that a
// "complete" response must mutate.
type ActionData struct {
	ActionID    string
	CanComplete bool
	CanSnooze   bool
}

// NotificationRecord is the unit of schedulable work.
type NotificationRecord struct {
	ID     string
	UserID string
	// MemoID back-references the originating memo; empty for insights not
	// tied to one.
	MemoID string
	Kind   Kind
	// Title and Body are immutable once scheduled; edits require a new record.
	Title string
	Body  string
	// ScheduledFor is the instant this instance is intended to fire. For
	// recurring records it is the next occurrence at authoring time.
	ScheduledFor time.Time
	Recurrence   *Recurrence
	Action       *ActionData
	State        State
	// Sent is true once the local store believes the device fired the
	// trigger at least once. Best-effort, not authoritative.
	Sent bool
	// SnoozedCount increments on every snooze and never decreases.
	SnoozedCount int
	// OriginalScheduledFor is set once, on first snooze, to the pre-snooze
	// ScheduledFor. Never overwritten again.
	OriginalScheduledFor time.Time
	// DeviceHandle is the opaque scheduler identifier for the armed trigger.
	// Empty when nothing is armed.
	DeviceHandle string
	ReadAt       *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Pending reports whether the record still represents schedulable work.
func (r NotificationRecord) Pending() bool {
	return !r.State.Terminal()
}

// Schedule describes when a record should fire. A zero FireAt means
// immediate delivery; a non-nil Repeat means the device scheduler expands
// the recurrence.
type Schedule struct {
	FireAt time.Time
	Repeat *Recurrence
}

// Immediate reports whether the schedule requests as-soon-as-possible delivery.
func (s Schedule) Immediate() bool {
	return s.FireAt.IsZero()
}
