package ports

import (
	"context"

	"chronodocs/internal/domain"
)

// Reconciler brings a directory's ordinal prefixes in line with the
// canonical creation order. Implementations must be idempotent: a second
// call with no intervening filesystem change plans zero renames.
type Reconciler interface {
	Reconcile(ctx context.Context, dryRun bool) (*domain.Result, error)

	// Directory returns the absolute path this reconciler operates on.
	Directory() string
}

// RunRecord is one completed reconciliation as stored in the history.
type RunRecord struct {
	ID       int64
	Dir      string
	Started  string
	Duration string
	Trigger  string
	Renamed  int
	Errors   int
	DryRun   bool
}

// RunHistory records completed reconciliations for the history command
// and the dashboard. It is a read-only snapshot for every consumer but
// the watch coordinator.
type RunHistory interface {
	Append(result *domain.Result, trigger string) error
	Recent(limit int) ([]RunRecord, error)
	Close() error
}
