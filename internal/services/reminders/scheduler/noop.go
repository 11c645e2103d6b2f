package scheduler

import "context"

// NoopScheduler is the capability stub for platforms without local
// scheduling (e.g. a web surface). Schedule hands back the sentinel handle
// and never errors, so creation flows proceed; nothing ever fires.
type NoopScheduler struct{}

// NewNoopScheduler constructs the no-op capability.
func NewNoopScheduler() *NoopScheduler {
	return &NoopScheduler{}
}

// RequestPermission reports the platform cannot deliver local notifications.
func (*NoopScheduler) RequestPermission(context.Context) bool {
	return false
}

// RegisterCategories accepts and discards category declarations.
func (*NoopScheduler) RegisterCategories(context.Context, []Category) error {
	return nil
}

// Schedule returns the sentinel handle without arming anything.
func (*NoopScheduler) Schedule(context.Context, Request) (Handle, error) {
	return HandleUnsupported, nil
}

// Cancel is always a no-op.
func (*NoopScheduler) Cancel(Handle) {}
