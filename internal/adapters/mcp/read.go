package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"chronodocs/internal/application"
	"chronodocs/internal/application/commands"
	"chronodocs/internal/domain"
	"chronodocs/internal/ports"
)

// Deps are the collaborators the MCP tools operate on.
type Deps struct {
	Reconciler    ports.Reconciler
	CreationIndex ports.CreationIndex
	Generator     ports.ReportGenerator
	History       ports.RunHistory
	// ReportPath is where the report tool writes when asked to persist.
	ReportPath string
}

// RegisterReadTools adds the read-only phase tools to the MCP server.
func RegisterReadTools(s *server.MCPServer, deps Deps) {
	s.AddTool(fileOrderTool(), fileOrderHandler(deps))
	s.AddTool(reportTool(), reportHandler(deps))
	s.AddTool(historyTool(), historyHandler(deps))
}

// --- file_order ---

func fileOrderTool() mcp.Tool {
	return mcp.NewTool("file_order",
		mcp.WithDescription("Show the canonical creation order of the phase directory's files, with the ordinal each file holds or will receive."),
	)
}

func fileOrderHandler(deps Deps) server.ToolHandlerFunc {
	return func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if err := deps.CreationIndex.Load(); err != nil {
			return toolError(fmt.Errorf("loading creation index: %w", err))
		}
		all := deps.CreationIndex.All()
		ordered := make([]domain.CreationRecord, 0, len(all))
		for _, rec := range all {
			ordered = append(ordered, rec)
		}
		domain.SortCanonical(ordered)
		if len(ordered) == 0 {
			return mcp.NewToolResultText("No files tracked."), nil
		}

		var sb strings.Builder
		for i, rec := range ordered {
			fmt.Fprintf(&sb, "%s  (created %s)\n",
				domain.OrdinalName(i, rec.Filename),
				rec.Created.Format("2006-01-02 15:04:05"))
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- report ---

func reportTool() mcp.Tool {
	return mcp.NewTool("report",
		mcp.WithDescription("Generate the Markdown change log for the phase directory."),
		mcp.WithBoolean("write",
			mcp.Description("Also write the change log file into the phase directory."),
		),
	)
}

func reportHandler(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		outputPath := ""
		if req.GetBool("write", false) {
			outputPath = deps.ReportPath
		}
		result, err := commands.NewReportCommand(deps.Generator, outputPath).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Markdown), nil
	}
}

// --- history ---

func historyTool() mcp.Tool {
	return mcp.NewTool("history",
		mcp.WithDescription("List recent reconciliation runs, newest first."),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of runs to return (default 10)."),
		),
	)
}

func historyHandler(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := req.GetInt("limit", 10)
		result, err := commands.NewHistoryCommand(deps.History, limit).Execute(ctx)
		if errors.Is(err, application.ErrNoHistory) {
			return mcp.NewToolResultText("No runs recorded yet."), nil
		}
		if err != nil {
			return toolError(err)
		}

		var sb strings.Builder
		for _, run := range result.Runs {
			kind := run.Trigger
			if run.DryRun {
				kind += " (dry run)"
			}
			fmt.Fprintf(&sb, "%s  %s  renamed=%d errors=%d  %s\n",
				run.Started, kind, run.Renamed, run.Errors, run.Duration)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- helpers ---

func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}
