package commands

import (
	"context"
	"fmt"

	"chronodocs/internal/application"
	"chronodocs/internal/ports"
)

// HistoryResult contains recent reconciliation runs
type HistoryResult struct {
	Runs    []ports.RunRecord
	Message string
}

// HistoryCommand lists recent reconciliation runs
type HistoryCommand struct {
	history ports.RunHistory
	Limit   int
}

// NewHistoryCommand creates a new HistoryCommand
func NewHistoryCommand(history ports.RunHistory, limit int) *HistoryCommand {
	return &HistoryCommand{
		history: history,
		Limit:   limit,
	}
}

// Validate checks the command's preconditions
func (c *HistoryCommand) Validate() error {
	if c.history == nil {
		return &application.ValidationError{
			Field:   "history",
			Message: "history store is required",
		}
	}
	if c.Limit <= 0 {
		return &application.ValidationError{
			Field:   "limit",
			Message: "limit must be positive",
		}
	}
	return nil
}

// Execute fetches the most recent runs, newest first
func (c *HistoryCommand) Execute(ctx context.Context) (*HistoryResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	runs, err := c.history.Recent(c.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read run history: %w", err)
	}
	if len(runs) == 0 {
		return nil, application.ErrNoHistory
	}
	return &HistoryResult{
		Runs:    runs,
		Message: fmt.Sprintf("%d run(s)", len(runs)),
	}, nil
}
