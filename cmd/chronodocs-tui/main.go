package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"chronodocs/internal/adapters/indexfile"
	"chronodocs/internal/adapters/sqlite"
	"chronodocs/internal/adapters/tui"
	"chronodocs/internal/config"
	"chronodocs/internal/reconcile"
)

func main() {
	repoFlag := flag.String("repo", ".", "repository root")
	phaseFlag := flag.String("phase", "", "phase name, expanded into the phase directory template")
	flag.Parse()

	cfg, err := config.Load(*repoFlag)
	if err != nil {
		log.Fatalf("chronodocs-tui: %v", err)
	}

	dir := *repoFlag
	if *phaseFlag != "" {
		dir = cfg.PhaseDir(*repoFlag, *phaseFlag)
	}

	creation := indexfile.NewCreationIndex(filepath.Join(dir, config.CreationIndexFile))
	engine := reconcile.New(reconcile.Options{
		Directory:     dir,
		CreationIndex: indexfile.NewCreationIndex(filepath.Join(dir, config.CreationIndexFile)),
		UpdateIndex:   indexfile.NewUpdateIndex(filepath.Join(dir, config.UpdateIndexFile)),
		ScanIgnores:   cfg.ScanIgnorePatterns(),
		Policy:        cfg.Policy(),
		HashSizeLimit: cfg.HashSizeLimit,
	})

	history, err := sqlite.OpenHistory(filepath.Join(*repoFlag, config.HistoryDir, "history.db"))
	if err != nil {
		log.Fatalf("chronodocs-tui: %v", err)
	}
	defer history.Close()

	app := tui.NewApp(engine, creation, history)

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
