package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"chronodocs/internal/application"
	"chronodocs/internal/application/commands"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent reconciliation runs",
	Long: `History lists recent reconciliation runs recorded for this repository,
newest first.

Example:
  chronodocs history
  chronodocs history --limit 50`,
	RunE: func(cmd *cobra.Command, args []string) error {
		history, err := openHistory()
		if err != nil {
			return err
		}
		defer history.Close()

		result, err := commands.NewHistoryCommand(history, historyLimit).Execute(context.Background())
		if errors.Is(err, application.ErrNoHistory) {
			fmt.Println("No runs recorded yet")
			return nil
		}
		if err != nil {
			return err
		}

		for _, run := range result.Runs {
			kind := run.Trigger
			if run.DryRun {
				kind += " (dry run)"
			}
			fmt.Printf("%s  %-16s  renamed=%-3d errors=%-3d %s\n",
				run.Started, kind, run.Renamed, run.Errors, run.Duration)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 10, "maximum number of runs to show")
	rootCmd.AddCommand(historyCmd)
}
