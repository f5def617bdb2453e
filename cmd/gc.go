package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mirlab/softsim/internal/pipeline"
)

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Drop cache objects no pipeline stage references",
	Long: `Remove objects from the local cache that no recorded stage output
points at, e.g. leftovers of superseded runs. Objects referenced by the
current pipeline state are always kept.`,
	Args: cobra.NoArgs,
	RunE: runGC,
}

func init() {
	rootCmd.AddCommand(gcCmd)
}

func runGC(_ *cobra.Command, _ []string) error {
	root, cfg, err := loadWorkspace()
	if err != nil {
		return err
	}
	exec := pipeline.NewExecutor(root, cfg, newLogger())

	printSection("softsim gc")
	dropped, err := exec.GC()
	if err != nil {
		return err
	}
	if dropped == 0 {
		printSkip("", "Cache is already minimal")
	} else {
		printOK("", fmt.Sprintf("%d unreferenced objects removed", dropped))
	}
	return nil
}
