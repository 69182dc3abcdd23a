package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"chronodocs/internal/application/commands"
)

var reconcileDryRun bool

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Bring ordinal prefixes in line with creation order",
	Long: `Reconcile scans the phase directory, assigns sticky creation records
to new files, and renames files so their ordinal prefixes match the
canonical creation order. A consistent directory is left untouched.

Example:
  chronodocs reconcile --phase phase-1
  chronodocs reconcile --phase phase-1 --dry-run`,
	RunE: func(cmd *cobra.Command, args []string) error {
		history, err := openHistory()
		if err != nil {
			return err
		}
		defer history.Close()

		runCmd := commands.NewReconcileCommand(newEngine(phaseDir()), history, reconcileDryRun)
		result, err := runCmd.Execute(context.Background())
		if err != nil {
			return err
		}

		fmt.Println(result.Message)
		for _, r := range result.Result.Renamed {
			fmt.Printf("  %s -> %s\n", r.From, r.To)
		}
		for _, name := range result.Result.Skipped {
			fmt.Printf("  skipped (too large): %s\n", name)
		}
		for _, fe := range result.Result.Errors {
			fmt.Printf("  error: %s: %s\n", fe.Path, fe.Reason)
		}
		return nil
	},
}

func init() {
	reconcileCmd.Flags().BoolVarP(&reconcileDryRun, "dry-run", "n", false, "report planned renames without applying them")
	rootCmd.AddCommand(reconcileCmd)
}
