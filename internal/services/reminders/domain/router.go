package domain

import (
	"context"
	"log"
	"strings"
	"time"
)

// Action identifiers delivered by the platform notification callback.
// Snooze identifiers carry a duration suffix, e.g. "snooze-30".
const (
	ActionIdentifierComplete = "complete"
	ActionIdentifierDefault  = "default"
	snoozeIdentifierPrefix   = "snooze-"
)

// Snooze durations the notification category declares as buttons.
const (
	SnoozeShort  = 10 * time.Minute
	SnoozeMedium = 30 * time.Minute
	SnoozeLong   = time.Hour
	// DefaultSnoozeDuration applies when a snooze token is unrecognized;
	// a garbled button identifier must not fail the whole response.
	DefaultSnoozeDuration = SnoozeShort
)

// remoteActionTimeout bounds the external action update so the router
// never blocks the platform's notification-response handling.
const remoteActionTimeout = 3 * time.Second

// ParseSnoozeDuration maps a snooze action identifier to its duration.
// Unknown tokens degrade to the default instead of failing.
func ParseSnoozeDuration(identifier string) time.Duration {
	token := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(identifier)), snoozeIdentifierPrefix)
	switch token {
	case "10", "10m":
		return SnoozeShort
	case "30", "30m":
		return SnoozeMedium
	case "60", "60m", "1h":
		return SnoozeLong
	default:
		return DefaultSnoozeDuration
	}
}

// ActionUpdater mutates the external action entity a completed
// notification references.
type ActionUpdater interface {
	UpdateActionStatus(ctx context.Context, actionID string, status string) error
}

// RouteResult reports what a routed response did, including the memo the
// presentation layer should navigate to on a default tap.
type RouteResult struct {
	Record         NotificationRecord
	NavigateMemoID string
	Completed      bool
	Snoozed        bool
	SnoozedFor     time.Duration
}

// Router maps a user's response to a delivered notification onto lifecycle
// transitions and follow-up scheduling.
type Router struct {
	service *Service
	actions ActionUpdater
}

// NewRouter constructs the notification-response router. A nil actions
// client disables external action updates; completions still succeed
// locally.
func NewRouter(service *Service, actions ActionUpdater) *Router {
	return &Router{service: service, actions: actions}
}

// Route handles one platform notification response.
//
// A default tap mutates no lifecycle state and only reports the
// navigation target. Complete transitions locally first; the external
// action update is bounded and its failure is queued for retry, never
// returned to the platform callback path. Snooze identifiers carry their
// duration.
func (r *Router) Route(ctx context.Context, userID string, notificationID string, actionIdentifier string) (RouteResult, error) {
	if r == nil || r.service == nil {
		return RouteResult{}, ErrStoreNotConfigured
	}

	identifier := strings.ToLower(strings.TrimSpace(actionIdentifier))
	switch {
	case identifier == ActionIdentifierComplete:
		return r.complete(ctx, userID, notificationID)
	case strings.HasPrefix(identifier, snoozeIdentifierPrefix):
		return r.snooze(ctx, userID, notificationID, ParseSnoozeDuration(identifier))
	default:
		return r.defaultTap(ctx, userID, notificationID)
	}
}

func (r *Router) complete(ctx context.Context, userID string, notificationID string) (RouteResult, error) {
	record, err := r.service.Complete(ctx, userID, notificationID)
	if err != nil {
		return RouteResult{}, err
	}

	if record.Action != nil && record.Action.CanComplete && record.Action.ActionID != "" {
		r.updateRemoteAction(ctx, record)
	}
	return RouteResult{Record: record, Completed: true}, nil
}

// updateRemoteAction is fire-and-forget relative to the local transition:
// a failed remote update is logged and queued for the reconciler.
func (r *Router) updateRemoteAction(ctx context.Context, record NotificationRecord) {
	if r.actions == nil {
		return
	}
	updateCtx, cancel := context.WithTimeout(ctx, remoteActionTimeout)
	defer cancel()
	if err := r.actions.UpdateActionStatus(updateCtx, record.Action.ActionID, "completed"); err != nil {
		log.Printf("reminders: update action %s for notification %s: %v", record.Action.ActionID, record.ID, err)
		r.service.enqueueSync(ctx, SyncOp{
			Kind:           SyncOpActionComplete,
			UserID:         record.UserID,
			NotificationID: record.ID,
			ActionID:       record.Action.ActionID,
		})
	}
}

func (r *Router) snooze(ctx context.Context, userID string, notificationID string, duration time.Duration) (RouteResult, error) {
	record, err := r.service.Snooze(ctx, userID, notificationID, duration)
	if err != nil {
		return RouteResult{}, err
	}
	return RouteResult{Record: record, Snoozed: true, SnoozedFor: duration}, nil
}

func (r *Router) defaultTap(ctx context.Context, userID string, notificationID string) (RouteResult, error) {
	record, err := r.service.MarkRead(ctx, userID, notificationID)
	if err != nil {
		return RouteResult{}, err
	}
	return RouteResult{Record: record, NavigateMemoID: record.MemoID}, nil
}
