package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"chronodocs/internal/adapters/git"
	"chronodocs/internal/adapters/indexfile"
	"chronodocs/internal/application"
	"chronodocs/internal/application/commands"
	"chronodocs/internal/config"
	"chronodocs/internal/report"
)

var (
	reportWrite bool
	reportCopy  bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate the Markdown change log",
	Long: `Report renders a change log for the phase directory: every tracked
file with its version-control status, creation time, and last content
update, grouped by day.

Example:
  chronodocs report --phase phase-1
  chronodocs report --phase phase-1 --write
  chronodocs report --phase phase-1 --copy`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := phaseDir()
		if phase != "" {
			if err := application.ValidateDirectory("phase", dir); err != nil {
				return fmt.Errorf("%w: %s", application.ErrPhaseNotFound, dir)
			}
		}
		generator := report.NewGenerator(report.Options{
			Directory:     dir,
			RepoRoot:      repoRoot,
			Ignores:       cfg.ScanIgnorePatterns(),
			CreationIndex: indexfile.NewCreationIndex(filepath.Join(dir, config.CreationIndexFile)),
			UpdateIndex:   indexfile.NewUpdateIndex(filepath.Join(dir, config.UpdateIndexFile)),
			Statuses:      git.NewProvider(repoRoot),
		})

		outputPath := ""
		if reportWrite {
			outputPath = filepath.Join(dir, config.ChangeLogFile)
		}
		result, err := commands.NewReportCommand(generator, outputPath).Execute(context.Background())
		if err != nil {
			return err
		}

		if reportCopy {
			if err := clipboard.WriteAll(result.Markdown); err != nil {
				return fmt.Errorf("copying report to clipboard: %w", err)
			}
			fmt.Println("Report copied to clipboard")
			return nil
		}
		if reportWrite {
			fmt.Println(result.Message)
			return nil
		}
		fmt.Print(result.Markdown)
		return nil
	},
}

func init() {
	reportCmd.Flags().BoolVarP(&reportWrite, "write", "w", false, "write the change log into the phase directory")
	reportCmd.Flags().BoolVar(&reportCopy, "copy", false, "copy the rendered report to the clipboard")
	rootCmd.AddCommand(reportCmd)
}
