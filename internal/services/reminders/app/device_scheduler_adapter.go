package app

import (
	"context"

	"github.com/murmurapp/murmur/internal/services/reminders/domain"
	"github.com/murmurapp/murmur/internal/services/reminders/scheduler"
)

// deviceSchedulerAdapter narrows the platform scheduler to the string
// handle contract the lifecycle service expects.
type deviceSchedulerAdapter struct {
	scheduler scheduler.Scheduler
}

func newDeviceSchedulerAdapter(s scheduler.Scheduler) *deviceSchedulerAdapter {
	return &deviceSchedulerAdapter{scheduler: s}
}

func (a *deviceSchedulerAdapter) Schedule(ctx context.Context, record domain.NotificationRecord, schedule domain.Schedule) (string, error) {
	if a == nil || a.scheduler == nil {
		return "", domain.ErrSchedulerNotConfigured
	}

	request := scheduler.Request{
		Content: scheduler.Content{
			NotificationID: record.ID,
			UserID:         record.UserID,
			Title:          record.Title,
			Body:           record.Body,
		},
		FireAt: schedule.FireAt,
	}
	if record.Action != nil && (record.Action.CanComplete || record.Action.CanSnooze) {
		request.Content.CategoryID = scheduler.ReminderCategoryID
	}
	if repeat := toSchedulerRepeat(schedule.Repeat); repeat != nil {
		request.Repeat = repeat
	}

	handle, err := a.scheduler.Schedule(ctx, request)
	if err != nil {
		return "", err
	}
	return string(handle), nil
}

func (a *deviceSchedulerAdapter) Cancel(_ context.Context, handle string) {
	if a == nil || a.scheduler == nil || handle == "" {
		return
	}
	a.scheduler.Cancel(scheduler.Handle(handle))
}

func toSchedulerRepeat(recurrence *domain.Recurrence) *scheduler.Repeat {
	if recurrence == nil || !recurrence.Enabled {
		return nil
	}
	repeat := &scheduler.Repeat{
		Frequency: scheduler.Frequency(recurrence.Frequency),
		Until:     recurrence.EndDate,
	}
	repeat.Weekdays = append(repeat.Weekdays, recurrence.DaysOfWeek...)
	return repeat
}
