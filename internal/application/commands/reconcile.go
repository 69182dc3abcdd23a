package commands

import (
	"context"
	"fmt"

	"chronodocs/internal/application"
	"chronodocs/internal/domain"
	"chronodocs/internal/ports"
)

// ReconcileResult contains the result of a reconciliation run
type ReconcileResult struct {
	Result  *domain.Result
	Message string
}

// ReconcileCommand runs one reconciliation over a phase directory
type ReconcileCommand struct {
	reconciler ports.Reconciler
	history    ports.RunHistory
	DryRun     bool
}

// NewReconcileCommand creates a new ReconcileCommand. The history store
// is optional.
func NewReconcileCommand(reconciler ports.Reconciler, history ports.RunHistory, dryRun bool) *ReconcileCommand {
	return &ReconcileCommand{
		reconciler: reconciler,
		history:    history,
		DryRun:     dryRun,
	}
}

// Validate checks the command's preconditions
func (c *ReconcileCommand) Validate() error {
	if c.reconciler == nil {
		return &application.ValidationError{
			Field:   "reconciler",
			Message: "reconciler is required",
		}
	}
	return nil
}

// Execute runs the reconciliation
func (c *ReconcileCommand) Execute(ctx context.Context) (*ReconcileResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	result, err := c.reconciler.Reconcile(ctx, c.DryRun)
	if err != nil {
		return nil, &application.ReconcileError{Dir: c.reconciler.Directory(), Reason: err.Error()}
	}

	if c.history != nil && !c.DryRun {
		trigger := "manual"
		if err := c.history.Append(result, trigger); err != nil {
			// History is advisory; the run itself succeeded.
			result.Errors = append(result.Errors, domain.FileError{
				Path:   "history",
				Reason: err.Error(),
			})
		}
	}

	return &ReconcileResult{
		Result:  result,
		Message: describeResult(result),
	}, nil
}

func describeResult(result *domain.Result) string {
	verb := "Renamed"
	if result.DryRun {
		verb = "Would rename"
	}
	if len(result.Renamed) == 0 {
		return fmt.Sprintf("%s is already consistent", result.Directory)
	}
	return fmt.Sprintf("%s %d file(s) in %s", verb, len(result.Renamed), result.Directory)
}
