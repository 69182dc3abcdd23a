package commands

import (
	"context"
	"fmt"

	"chronodocs/internal/application"
	"chronodocs/internal/ports"
)

// ReportResult contains the rendered change log
type ReportResult struct {
	Markdown string
	Path     string
	Message  string
}

// ReportCommand generates the Markdown change log for a phase directory
type ReportCommand struct {
	generator ports.ReportGenerator
	// OutputPath, when set, receives the report via an atomic replace.
	// Empty means render-only.
	OutputPath string
}

// NewReportCommand creates a new ReportCommand
func NewReportCommand(generator ports.ReportGenerator, outputPath string) *ReportCommand {
	return &ReportCommand{
		generator:  generator,
		OutputPath: outputPath,
	}
}

// Validate checks the command's preconditions
func (c *ReportCommand) Validate() error {
	if c.generator == nil {
		return &application.ValidationError{
			Field:   "generator",
			Message: "report generator is required",
		}
	}
	return nil
}

// Execute renders the change log and optionally writes it out
func (c *ReportCommand) Execute(ctx context.Context) (*ReportResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	md, err := c.generator.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate report: %w", err)
	}

	result := &ReportResult{Markdown: md, Message: "Report generated"}
	if c.OutputPath != "" {
		if err := c.generator.WriteTo(c.OutputPath); err != nil {
			return nil, fmt.Errorf("failed to write report: %w", err)
		}
		result.Path = c.OutputPath
		result.Message = fmt.Sprintf("Report written to %s", c.OutputPath)
	}
	return result, nil
}
