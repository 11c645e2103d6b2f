package scheduler

import "time"

// nextOccurrence returns the first instant strictly after now that matches
// the repeat rule, anchored to the requested fire time's clock values. The
// second result is false once the rule's Until bound is passed.
func nextOccurrence(rule Repeat, anchor time.Time, weekday *time.Weekday, now time.Time) (time.Time, bool) {
	var next time.Time
	switch rule.Frequency {
	case FrequencyDaily:
		next = nextDaily(anchor, now)
	case FrequencyWeekly:
		day := anchor.Weekday()
		if weekday != nil {
			day = *weekday
		}
		next = nextWeekly(anchor, day, now)
	case FrequencyMonthly:
		next = nextMonthly(anchor, now)
	default:
		return time.Time{}, false
	}
	if !rule.Until.IsZero() && next.After(rule.Until) {
		return time.Time{}, false
	}
	return next, true
}

// nextDaily keeps the anchor's time of day and advances whole days until
// the result is after now.
func nextDaily(anchor time.Time, now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(),
		anchor.Hour(), anchor.Minute(), anchor.Second(), 0, anchor.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// nextWeekly returns the next instant on the given weekday at the anchor's
// time of day.
func nextWeekly(anchor time.Time, weekday time.Weekday, now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(),
		anchor.Hour(), anchor.Minute(), anchor.Second(), 0, anchor.Location())
	offset := (int(weekday) - int(next.Weekday()) + 7) % 7
	next = next.AddDate(0, 0, offset)
	if !next.After(now) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

// nextMonthly returns the next instant on the anchor's day of month at the
// anchor's time of day. Months without that day (e.g. the 31st in April)
// clamp to their last day.
func nextMonthly(anchor time.Time, now time.Time) time.Time {
	year, month := now.Year(), now.Month()
	for i := 0; i < 13; i++ {
		next := monthlyOn(year, month, anchor)
		if next.After(now) {
			return next
		}
		month++
		if month > time.December {
			month = time.January
			year++
		}
	}
	// Unreachable: thirteen consecutive months always contain a future date.
	return monthlyOn(year, month, anchor)
}

func monthlyOn(year int, month time.Month, anchor time.Time) time.Time {
	day := anchor.Day()
	if last := lastDayOfMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day,
		anchor.Hour(), anchor.Minute(), anchor.Second(), 0, anchor.Location())
}

func lastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
