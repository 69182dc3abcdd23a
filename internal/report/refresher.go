package report

import (
	"context"
	"time"

	"chronodocs/internal/domain"
	"chronodocs/internal/ports"
)

// Refresher adapts the generator to the watch coordinator, so the same
// debounce/cooldown machinery that drives reconciliation can keep the
// change log fresh as the repository changes.
type Refresher struct {
	generator ports.ReportGenerator
	dir       string
	path      string
	now       func() time.Time
}

var _ ports.Reconciler = (*Refresher)(nil)

// NewRefresher creates a coordinator-drivable report writer. dir is the
// watched directory; path is the change log destination.
func NewRefresher(generator ports.ReportGenerator, dir, path string) *Refresher {
	return &Refresher{generator: generator, dir: dir, path: path, now: time.Now}
}

// Reconcile regenerates the change log. dryRun renders without writing.
func (r *Refresher) Reconcile(ctx context.Context, dryRun bool) (*domain.Result, error) {
	started := r.now()
	result := &domain.Result{Directory: r.dir, Started: started, DryRun: dryRun}

	if dryRun {
		if _, err := r.generator.Generate(); err != nil {
			return nil, err
		}
	} else if err := r.generator.WriteTo(r.path); err != nil {
		return nil, err
	}

	result.Duration = r.now().Sub(started)
	return result, nil
}

// Directory returns the watched directory.
func (r *Refresher) Directory() string { return r.dir }
