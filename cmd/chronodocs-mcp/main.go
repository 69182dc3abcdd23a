package main

import (
	"context"
	"flag"
	"log"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"chronodocs/internal/adapters/git"
	"chronodocs/internal/adapters/indexfile"
	mcpadapter "chronodocs/internal/adapters/mcp"
	"chronodocs/internal/adapters/sqlite"
	"chronodocs/internal/config"
	"chronodocs/internal/reconcile"
	"chronodocs/internal/report"
)

func main() {
	repoFlag := flag.String("repo", ".", "repository root")
	phaseFlag := flag.String("phase", "", "phase name, expanded into the phase directory template")
	flag.Parse()

	cfg, err := config.Load(*repoFlag)
	if err != nil {
		log.Fatalf("chronodocs-mcp: %v", err)
	}

	dir := *repoFlag
	if *phaseFlag != "" {
		dir = cfg.PhaseDir(*repoFlag, *phaseFlag)
	}

	creation := indexfile.NewCreationIndex(filepath.Join(dir, config.CreationIndexFile))
	updates := indexfile.NewUpdateIndex(filepath.Join(dir, config.UpdateIndexFile))

	engine := reconcile.New(reconcile.Options{
		Directory:     dir,
		CreationIndex: creation,
		UpdateIndex:   updates,
		ScanIgnores:   cfg.ScanIgnorePatterns(),
		Policy:        cfg.Policy(),
		HashSizeLimit: cfg.HashSizeLimit,
	})

	generator := report.NewGenerator(report.Options{
		Directory:     dir,
		RepoRoot:      *repoFlag,
		Ignores:       cfg.ScanIgnorePatterns(),
		CreationIndex: indexfile.NewCreationIndex(filepath.Join(dir, config.CreationIndexFile)),
		UpdateIndex:   indexfile.NewUpdateIndex(filepath.Join(dir, config.UpdateIndexFile)),
		Statuses:      git.NewProvider(*repoFlag),
	})

	history, err := sqlite.OpenHistory(filepath.Join(*repoFlag, config.HistoryDir, "history.db"))
	if err != nil {
		log.Fatalf("chronodocs-mcp: %v", err)
	}
	defer history.Close()

	deps := mcpadapter.Deps{
		Reconciler:    engine,
		CreationIndex: creation,
		Generator:     generator,
		History:       history,
		ReportPath:    filepath.Join(dir, config.ChangeLogFile),
	}

	mcpServer := server.NewMCPServer(
		"chronodocs-mcp",
		"0.1.0",
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(
		mcp.NewTool("ping",
			mcp.WithDescription("Health check — returns pong"),
		),
		func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("pong"), nil
		},
	)

	mcpadapter.RegisterReadTools(mcpServer, deps)
	mcpadapter.RegisterWriteTools(mcpServer, deps)

	if err := server.ServeStdio(mcpServer); err != nil {
		log.Fatalf("chronodocs-mcp: %v", err)
	}
}
