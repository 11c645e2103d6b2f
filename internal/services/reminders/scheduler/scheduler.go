// Package scheduler adapts the host platform's local notification service.
// It arms one-shot and calendar-repeating triggers and reports deliveries
// back through a callback; it never interprets notification content.
package scheduler

import (
	"context"
	"time"
)

// Handle identifies one armed trigger. It is the scheduler's private
// identifier; callers only store it and later pass it back to Cancel.
type Handle string

// HandleUnsupported is the sentinel returned on platforms without local
// scheduling capability. Cancelling it is a no-op.
const HandleUnsupported Handle = "unsupported"

// Frequency is one supported repeat cadence.
type Frequency string

const (
	// FrequencyDaily repeats at the trigger's time of day, every day.
	FrequencyDaily Frequency = "daily"
	// FrequencyWeekly repeats on each requested weekday.
	FrequencyWeekly Frequency = "weekly"
	// FrequencyMonthly repeats on the trigger's day of month.
	FrequencyMonthly Frequency = "monthly"
)

// Content is the displayable payload the platform renders on delivery.
type Content struct {
	NotificationID string
	UserID         string
	Title          string
	Body           string
	// CategoryID selects the registered action-button set, empty for none.
	CategoryID string
}

// Repeat describes a calendar-repeating trigger. The scheduler expands it;
// occurrences are never materialized by callers.
type Repeat struct {
	Frequency Frequency
	// Weekdays applies to weekly repeats. Each weekday is armed as its own
	// device-level trigger under the shared handle.
	Weekdays []time.Weekday
	// Until, when non-zero, stops expansion after that instant.
	Until time.Time
}

// Request arms one trigger. A zero FireAt, or one at or before now, is
// treated as "deliver as soon as possible", never as an error.
type Request struct {
	Content Content
	FireAt  time.Time
	Repeat  *Repeat
}

// Delivery reports one fired trigger.
type Delivery struct {
	Handle  Handle
	Content Content
	FiredAt time.Time
}

// DeliveryFunc receives fired triggers. It is invoked on the scheduler's
// own goroutine and must not block for long.
type DeliveryFunc func(Delivery)

// CategoryAction declares one response button on a delivered notification.
type CategoryAction struct {
	Identifier string
	Title      string
}

// Category is a named action-button set referenced by Content.CategoryID.
type Category struct {
	ID      string
	Actions []CategoryAction
}

// Scheduler is the platform scheduling capability. Implementations must
// make Cancel a no-op for unknown or already-fired handles.
type Scheduler interface {
	RequestPermission(ctx context.Context) bool
	RegisterCategories(ctx context.Context, categories []Category) error
	Schedule(ctx context.Context, request Request) (Handle, error)
	Cancel(handle Handle)
}

// ReminderCategoryID names the standard reminder action-button set.
const ReminderCategoryID = "reminder-actions"

// ReminderCategory declares the complete and snooze buttons the engine
// registers once at bootstrap.
func ReminderCategory() Category {
	return Category{
		ID: ReminderCategoryID,
		Actions: []CategoryAction{
			{Identifier: "complete", Title: "Complete"},
			{Identifier: "snooze-10", Title: "Snooze 10 min"},
			{Identifier: "snooze-30", Title: "Snooze 30 min"},
			{Identifier: "snooze-1h", Title: "Snooze 1 hour"},
		},
	}
}
