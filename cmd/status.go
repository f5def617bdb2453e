package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mirlab/softsim/internal/pipeline"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which pipeline stages are up to date",
	Long: `Compare every stage's fingerprint against the recorded state without
running anything. Stale stages would rerun on the next 'softsim repro';
staleness propagates to everything downstream.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
	root, cfg, err := loadWorkspace()
	if err != nil {
		return err
	}
	p, err := pipeline.Load(root)
	if err != nil {
		return err
	}

	exec := pipeline.NewExecutor(root, cfg, newLogger())
	outcomes, err := exec.Status(p)
	if err != nil {
		return err
	}

	printSection("Pipeline Status")
	var stale int
	for _, o := range outcomes {
		switch o.Status {
		case pipeline.StatusCached:
			printOK(o.Stage, "up to date")
		case pipeline.StatusStale:
			printWarn(o.Stage, "stale, will rerun")
			stale++
		}
	}
	if stale == 0 {
		printInfo("", "Nothing to do")
	} else {
		printInfo("", "Run 'softsim repro' to bring the workspace up to date")
	}
	return nil
}
