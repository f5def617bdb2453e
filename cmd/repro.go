package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mirlab/softsim/internal/pipeline"
)

var reproCmd = &cobra.Command{
	Use:   "repro [stage...]",
	Short: "Run the experiment pipeline, skipping up-to-date stages",
	Long: `Run the pipeline defined in pipeline.yaml. Each stage is fingerprinted
over its runner, parameters, dependency contents, and upstream stages;
stages whose fingerprint and outputs are unchanged are skipped, and
outputs deleted from the workspace are restored from the object cache.

With stage arguments, only those stages and their ancestors run.`,
	RunE: runRepro,
}

var flagReproForce bool

func init() {
	reproCmd.Flags().BoolVarP(&flagReproForce, "force", "f", false, "rerun every stage regardless of fingerprints")
	rootCmd.AddCommand(reproCmd)
}

func runRepro(cmd *cobra.Command, args []string) error {
	root, cfg, err := loadWorkspace()
	if err != nil {
		return err
	}
	p, err := pipeline.Load(root)
	if err != nil {
		return err
	}

	exec := pipeline.NewExecutor(root, cfg, newLogger())
	exec.Force = flagReproForce

	printSection("softsim repro")
	outcomes, err := exec.Repro(cmd.Context(), p, args)
	reportOutcomes(outcomes)
	if err != nil {
		return err
	}

	var ran int
	for _, o := range outcomes {
		if o.Status == pipeline.StatusRun {
			ran++
		}
	}
	if ran == 0 {
		printInfo("", "Everything up to date")
	}
	return nil
}

// reportOutcomes prints one status line per stage.
func reportOutcomes(outcomes []pipeline.Outcome) {
	for _, o := range outcomes {
		switch o.Status {
		case pipeline.StatusRun:
			printOK(o.Stage, fmt.Sprintf("ran in %s", o.Elapsed.Round(time.Millisecond)))
		case pipeline.StatusCached:
			printSkip(o.Stage, "up to date")
		case pipeline.StatusRestored:
			printInfo(o.Stage, "outputs restored from cache")
		case pipeline.StatusSkipped:
			printMiss(o.Stage, "outside requested targets")
		case pipeline.StatusStale:
			printWarn(o.Stage, "stale")
		}
	}
}
