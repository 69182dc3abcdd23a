package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"chronodocs/internal/application/commands"
)

// RegisterWriteTools adds the phase-mutating tools to the MCP server.
func RegisterWriteTools(s *server.MCPServer, deps Deps) {
	s.AddTool(reconcileTool(), reconcileHandler(deps))
}

// --- reconcile ---

func reconcileTool() mcp.Tool {
	return mcp.NewTool("reconcile",
		mcp.WithDescription("Bring the phase directory's ordinal prefixes in line with creation order. Idempotent; a consistent directory is left untouched."),
		mcp.WithBoolean("dry_run",
			mcp.Description("Report the planned renames without applying them."),
		),
	)
}

func reconcileHandler(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dryRun := req.GetBool("dry_run", false)

		result, err := commands.NewReconcileCommand(deps.Reconciler, deps.History, dryRun).Execute(ctx)
		if err != nil {
			return toolError(err)
		}

		var sb strings.Builder
		sb.WriteString(result.Message)
		sb.WriteByte('\n')
		for _, r := range result.Result.Renamed {
			fmt.Fprintf(&sb, "  %s -> %s\n", r.From, r.To)
		}
		for _, fe := range result.Result.Errors {
			fmt.Fprintf(&sb, "  error: %s: %s\n", fe.Path, fe.Reason)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}
