package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"chronodocs/internal/adapters/git"
	"chronodocs/internal/adapters/indexfile"
	"chronodocs/internal/adapters/watcher"
	"chronodocs/internal/application"
	"chronodocs/internal/config"
	"chronodocs/internal/report"
)

var watchReport bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the phase directory and reconcile on change",
	Long: `Watch subscribes to filesystem notifications for the phase directory,
debounces bursts of events, and runs the reconciliation engine with at
most one run in flight. The engine's own writes are ignored so the
watcher never feeds on its own output.

With --report a second watcher keeps the change log regenerated as the
directory changes.

Example:
  chronodocs watch --phase phase-1
  chronodocs watch --phase phase-1 --report`,
	RunE: func(cmd *cobra.Command, args []string) error {
		history, err := openHistory()
		if err != nil {
			return err
		}
		defer history.Close()

		dir := phaseDir()
		coordinator := watcher.New(watcher.Options{
			Directory:   dir,
			Reconciler:  newEngine(dir),
			History:     history,
			SelfIgnores: cfg.SelfIgnorePatterns(),
			Debounce:    cfg.PhaseDebounce(),
			Cooldown:    cfg.PhaseCooldown(),
			Logger:      logger,
		})

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error { return coordinator.Watch(ctx) })

		if watchReport {
			generator := report.NewGenerator(report.Options{
				Directory:     dir,
				RepoRoot:      repoRoot,
				Ignores:       cfg.ScanIgnorePatterns(),
				CreationIndex: indexfile.NewCreationIndex(filepath.Join(dir, config.CreationIndexFile)),
				UpdateIndex:   indexfile.NewUpdateIndex(filepath.Join(dir, config.UpdateIndexFile)),
				Statuses:      git.NewProvider(repoRoot),
			})
			refresher := report.NewRefresher(generator, dir, filepath.Join(dir, config.ChangeLogFile))
			// The report reflects git status across the whole repo, so
			// its watcher covers the root tree, not just the phase dir.
			reporter := watcher.New(watcher.Options{
				Directory:   repoRoot,
				Reconciler:  refresher,
				SelfIgnores: cfg.RootIgnorePatterns(),
				Recursive:   true,
				Debounce:    cfg.RootDebounce(),
				Cooldown:    cfg.RootCooldown(),
				Logger:      logger.With("watcher", "report"),
			})
			g.Go(func() error { return reporter.Watch(ctx) })
		}

		err = g.Wait()
		switch {
		case errors.Is(err, context.Canceled):
			logger.Info("watcher stopped")
			return nil
		case errors.Is(err, watcher.ErrLoopDetected):
			return fmt.Errorf("%w: %v", application.ErrWatcherStopped, err)
		}
		return err
	},
}

func init() {
	watchCmd.Flags().BoolVar(&watchReport, "report", false, "also keep the change log regenerated on change")
	rootCmd.AddCommand(watchCmd)
}
