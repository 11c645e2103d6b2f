package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// TimerScheduler arms in-process timers against the host clock. It is the
// real scheduling capability on platforms that support local delivery.
type TimerScheduler struct {
	deliver DeliveryFunc
	clock   func() time.Time

	mu         sync.Mutex
	nextID     int
	requests   map[Handle]Request
	timers     map[Handle]map[int]*time.Timer
	categories map[string]Category
	closed     bool
}

// NewTimerScheduler constructs a scheduler that reports fired triggers to
// deliver. A nil clock uses the wall clock.
func NewTimerScheduler(deliver DeliveryFunc, clock func() time.Time) *TimerScheduler {
	if clock == nil {
		clock = time.Now
	}
	return &TimerScheduler{
		deliver:    deliver,
		clock:      clock,
		requests:   make(map[Handle]Request),
		timers:     make(map[Handle]map[int]*time.Timer),
		categories: make(map[string]Category),
	}
}

// RequestPermission always grants: in-process timers need no OS consent.
func (s *TimerScheduler) RequestPermission(ctx context.Context) bool {
	return ctx.Err() == nil
}

// RegisterCategories records action-button sets. Idempotent on repeated
// calls; re-registering an ID replaces it.
func (s *TimerScheduler) RegisterCategories(ctx context.Context, categories []Category) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, category := range categories {
		if category.ID == "" {
			return fmt.Errorf("category id is required")
		}
		s.categories[category.ID] = category
	}
	return nil
}

// Categories returns the registered action-button sets.
func (s *TimerScheduler) Categories() []Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Category, 0, len(s.categories))
	for _, category := range s.categories {
		out = append(out, category)
	}
	return out
}

// Schedule arms one trigger and returns its handle. An overdue or zero
// fire time delivers as soon as possible. Weekly repeats arm one timer per
// weekday, all owned by the returned handle.
func (s *TimerScheduler) Schedule(ctx context.Context, request Request) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s == nil || s.deliver == nil {
		return "", fmt.Errorf("delivery callback is not configured")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", fmt.Errorf("scheduler is closed")
	}

	s.nextID++
	handle := Handle(fmt.Sprintf("trigger-%d", s.nextID))
	s.requests[handle] = request
	s.timers[handle] = make(map[int]*time.Timer)

	now := s.clock()
	if request.Repeat == nil {
		s.armLocked(handle, 0, request.FireAt, now)
		return handle, nil
	}

	if request.Repeat.Frequency == FrequencyWeekly && len(request.Repeat.Weekdays) > 0 {
		armedAny := false
		for slot, weekday := range request.Repeat.Weekdays {
			day := weekday
			if at, ok := nextOccurrence(*request.Repeat, s.anchor(request), &day, now); ok {
				s.armLocked(handle, slot, at, now)
				armedAny = true
			}
		}
		if !armedAny {
			s.dropLocked(handle)
			return "", fmt.Errorf("weekly repeat already past its end date")
		}
		return handle, nil
	}

	firstAt := request.FireAt
	if !firstAt.After(now) {
		at, ok := nextOccurrence(*request.Repeat, s.anchor(request), nil, now)
		if !ok {
			s.dropLocked(handle)
			return "", fmt.Errorf("repeat already past its end date")
		}
		firstAt = at
	}
	s.armLocked(handle, 0, firstAt, now)
	return handle, nil
}

// Cancel disarms every timer owned by the handle. Unknown or already-fired
// handles are a no-op.
func (s *TimerScheduler) Cancel(handle Handle) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropLocked(handle)
}

// Close disarms everything and rejects further scheduling.
func (s *TimerScheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for handle := range s.timers {
		s.dropLocked(handle)
	}
	s.closed = true
}

// Armed returns the number of live handles, for tests and health checks.
func (s *TimerScheduler) Armed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func (s *TimerScheduler) anchor(request Request) time.Time {
	if !request.FireAt.IsZero() {
		return request.FireAt
	}
	return s.clock()
}

// armLocked arms one timer slot. Non-positive delays fire immediately,
// which is how overdue work is treated.
func (s *TimerScheduler) armLocked(handle Handle, slot int, at time.Time, now time.Time) {
	delay := time.Duration(0)
	if !at.IsZero() {
		delay = at.Sub(now)
		if delay < 0 {
			delay = 0
		}
	}
	s.timers[handle][slot] = time.AfterFunc(delay, func() {
		s.fire(handle, slot)
	})
}

func (s *TimerScheduler) fire(handle Handle, slot int) {
	s.mu.Lock()
	request, ok := s.requests[handle]
	if !ok {
		s.mu.Unlock()
		return
	}
	deliver := s.deliver
	firedAt := s.clock()
	s.mu.Unlock()

	deliver(Delivery{Handle: handle, Content: request.Content, FiredAt: firedAt})

	s.mu.Lock()
	defer s.mu.Unlock()
	slots, ok := s.timers[handle]
	if !ok {
		return
	}

	if request.Repeat != nil && !s.closed {
		var weekday *time.Weekday
		if request.Repeat.Frequency == FrequencyWeekly && slot < len(request.Repeat.Weekdays) {
			day := request.Repeat.Weekdays[slot]
			weekday = &day
		}
		now := s.clock()
		if at, ok := nextOccurrence(*request.Repeat, s.anchor(request), weekday, now); ok {
			s.armLocked(handle, slot, at, now)
			return
		}
	}

	delete(slots, slot)
	if len(slots) == 0 {
		s.dropLocked(handle)
	}
}

func (s *TimerScheduler) dropLocked(handle Handle) {
	for _, timer := range s.timers[handle] {
		timer.Stop()
	}
	delete(s.timers, handle)
	delete(s.requests, handle)
}
