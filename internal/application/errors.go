package application

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions
var (
	ErrPhaseNotFound  = errors.New("phase directory not found")
	ErrNoHistory      = errors.New("no run history available")
	ErrWatcherStopped = errors.New("watcher stopped")
)

// ValidationError represents a validation failure with details
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ReconcileError represents a reconciliation that could not run at all
type ReconcileError struct {
	Dir    string
	Reason string
}

func (e *ReconcileError) Error() string {
	return fmt.Sprintf("cannot reconcile %s: %s", e.Dir, e.Reason)
}
