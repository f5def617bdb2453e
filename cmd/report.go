package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mirlab/softsim/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the accuracy table of all evaluated configurations",
	Long: `Aggregate the result artifacts under the results directory into an
accuracy table, best configuration per dataset first. With --write the
machine-readable summary.json is refreshed as well.`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

var flagReportWrite bool

func init() {
	reportCmd.Flags().BoolVar(&flagReportWrite, "write", false, "also rewrite results/summary.json")
	rootCmd.AddCommand(reportCmd)
}

func runReport(_ *cobra.Command, _ []string) error {
	root, cfg, err := loadWorkspace()
	if err != nil {
		return err
	}
	dir := filepath.Join(root, cfg.ResultsDir)
	results, err := report.Collect(dir)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		printMiss("", "No results yet; run 'softsim repro' first")
		return nil
	}

	printSection("Classification Results")
	if err := report.Render(os.Stdout, results); err != nil {
		return err
	}

	if flagReportWrite {
		path, err := report.WriteSummary(dir, results)
		if err != nil {
			return err
		}
		printOK("", fmt.Sprintf("Summary written: %s", path))
	}
	return nil
}
