package domain

import "errors"

var (
	// ErrNotFound indicates a notification record was not found.
	ErrNotFound = errors.New("notification not found")
	// ErrStoreNotConfigured indicates the service is missing persistence wiring.
	ErrStoreNotConfigured = errors.New("notification store is not configured")
	// ErrSchedulerNotConfigured indicates the service is missing device scheduler wiring.
	ErrSchedulerNotConfigured = errors.New("device scheduler is not configured")
	// ErrUserIDRequired indicates owner identity is required.
	ErrUserIDRequired = errors.New("user id is required")
	// ErrNotificationIDRequired indicates notification ID is required.
	ErrNotificationIDRequired = errors.New("notification id is required")
	// ErrIDGeneratorNotConfigured indicates an ID generator is required.
	ErrIDGeneratorNotConfigured = errors.New("notification id generator is not configured")
	// ErrUnknownFrequency indicates a recurrence frequency outside the supported set.
	// This is a programmer or configuration error, never user input.
	ErrUnknownFrequency = errors.New("unknown recurrence frequency")
	// ErrInvalidTransition indicates an attempted lifecycle regression.
	ErrInvalidTransition = errors.New("invalid lifecycle transition")
)
