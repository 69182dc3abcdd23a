package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"chronodocs/internal/adapters/indexfile"
	"chronodocs/internal/adapters/sqlite"
	"chronodocs/internal/application"
	"chronodocs/internal/config"
	"chronodocs/internal/reconcile"
)

var (
	repoRoot string
	phase    string
	cfg      *config.Config
	logger   *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "chronodocs",
	Short: "Keep phase directories labeled in creation order",
	Long: `chronodocs maintains stable, gap-free ordinal prefixes (00-, 01-, ...)
on the files of a phase directory, reflecting the order in which the
files were first created rather than filesystem timestamps.

It tracks file identity across renames, distinguishes renames from
content changes, and can watch a directory and reconcile automatically.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		if err := application.ValidateRequired("repo", repoRoot); err != nil {
			return err
		}
		if err := application.ValidateDirectory("repo", repoRoot); err != nil {
			return err
		}
		var err error
		if cfg, err = config.Load(repoRoot); err != nil {
			return err
		}
		logger = newLogger(cfg.Logging.Level)
		slog.SetDefault(logger)
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&repoRoot, "repo", "C", ".", "repository root")
	rootCmd.PersistentFlags().StringVarP(&phase, "phase", "p", "", "phase name, expanded into the phase directory template")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// phaseDir resolves the directory the subcommands operate on. An
// explicit --phase expands the configured template; otherwise the
// repo root itself is the watched directory.
func phaseDir() string {
	if phase == "" {
		return repoRoot
	}
	return cfg.PhaseDir(repoRoot, phase)
}

// newEngine wires a reconciliation engine for dir.
func newEngine(dir string) *reconcile.Engine {
	return reconcile.New(reconcile.Options{
		Directory:     dir,
		CreationIndex: indexfile.NewCreationIndex(filepath.Join(dir, config.CreationIndexFile)),
		UpdateIndex:   indexfile.NewUpdateIndex(filepath.Join(dir, config.UpdateIndexFile)),
		ScanIgnores:   cfg.ScanIgnorePatterns(),
		Policy:        cfg.Policy(),
		HashSizeLimit: cfg.HashSizeLimit,
		Logger:        logger,
	})
}

// openHistory opens the per-repo run history store.
func openHistory() (*sqlite.History, error) {
	return sqlite.OpenHistory(filepath.Join(repoRoot, config.HistoryDir, "history.db"))
}
