package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mirlab/softsim/internal/artifact"
	"github.com/mirlab/softsim/internal/corpus"
	"github.com/mirlab/softsim/internal/knn"
	"github.com/mirlab/softsim/internal/sparse"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show the contents of workspace artifacts",
}

var inspectDatasetCmd = &cobra.Command{
	Use:   "dataset <name>",
	Short: "Summarize a tokenized dataset artifact",
	Long: `Summarize a dataset artifact from the corpora directory: document and
vocabulary counts, label distribution, and average document length.

Example:
  softsim inspect dataset bbc_train`,
	Args: cobra.ExactArgs(1),
	RunE: runInspectDataset,
}

var inspectMatrixCmd = &cobra.Command{
	Use:   "matrix <file>",
	Short: "Summarize a term-similarity matrix artifact",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspectMatrix,
}

var inspectResultCmd = &cobra.Command{
	Use:   "result <file>",
	Short: "Show one classification result artifact",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspectResult,
}

func init() {
	inspectCmd.AddCommand(inspectDatasetCmd)
	inspectCmd.AddCommand(inspectMatrixCmd)
	inspectCmd.AddCommand(inspectResultCmd)
	rootCmd.AddCommand(inspectCmd)
}

func runInspectDataset(_ *cobra.Command, args []string) error {
	root, cfg, err := loadWorkspace()
	if err != nil {
		return err
	}
	name := args[0]
	ds, err := corpus.LoadDataset(filepath.Join(root, cfg.CorporaDir), name)
	if err != nil {
		return err
	}

	printSection(fmt.Sprintf("Dataset %s", name))
	printInfo("", fmt.Sprintf("documents: %d", len(ds.Docs)))
	printInfo("", fmt.Sprintf("vocabulary: %d terms", ds.Dict.Len()))
	printInfo("", fmt.Sprintf("average document length: %.1f characters", ds.AvgDL))

	if len(ds.Labels) > 0 {
		counts := make(map[int]int)
		for _, l := range ds.Labels {
			counts[l] = counts[l] + 1
		}
		for label := 0; label < len(counts); label++ {
			printInfo("", fmt.Sprintf("label %d: %d documents", label, counts[label]))
		}
	} else {
		printInfo("", "unlabeled corpus")
	}
	return nil
}

func runInspectMatrix(_ *cobra.Command, args []string) error {
	root, err := workspaceRoot()
	if err != nil {
		return err
	}
	var m sparse.Matrix
	if err := artifact.LoadJSON(absPath(root, args[0]), &m); err != nil {
		return err
	}

	printSection("Term Similarity Matrix")
	printInfo("", fmt.Sprintf("shape: %d x %d", m.Rows, m.Cols))
	printInfo("", fmt.Sprintf("nonzeros: %d", m.NNZ()))
	if m.Rows > 0 {
		density := float64(m.NNZ()) / (float64(m.Rows) * float64(m.Cols))
		printInfo("", fmt.Sprintf("density: %.6f", density))
	}
	return nil
}

func runInspectResult(_ *cobra.Command, args []string) error {
	root, err := workspaceRoot()
	if err != nil {
		return err
	}
	var r knn.Result
	if err := artifact.LoadJSON(absPath(root, args[0]), &r); err != nil {
		return err
	}

	printSection(fmt.Sprintf("Result %s", r.RunID))
	printInfo("", fmt.Sprintf("dataset: %s", r.Dataset))
	if r.Baseline {
		printInfo("", "configuration: random baseline")
	} else {
		printInfo("", fmt.Sprintf("space: %s, weights: %s, measure: %s", r.Params.Space, r.Params.Weights, r.Params.Measure))
		printInfo("", fmt.Sprintf("bits: %d, k: %d, slope: %.1f", r.Params.Bits, r.Params.K, r.Params.Slope))
	}
	printInfo("", fmt.Sprintf("accuracy: %.4f over %d test documents", r.Accuracy, r.NumTest))
	return nil
}
