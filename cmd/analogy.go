package cmd

import (
	"github.com/spf13/cobra"
)

var analogyCmd = &cobra.Command{
	Use:   "analogy <a> <b> <c>",
	Short: "Solve the analogy a is to b as c is to ?",
	Long: `Solve a word analogy by vector offset: the words closest to b - a + c
are listed, excluding the three inputs.

Example:
  softsim analogy king man woman`,
	Args: cobra.ExactArgs(3),
	RunE: runAnalogy,
}

var (
	flagAnalogyLimit int
	flagAnalogyBits  int
)

func init() {
	analogyCmd.Flags().IntVarP(&flagAnalogyLimit, "limit", "n", 5, "number of candidates to show")
	analogyCmd.Flags().IntVar(&flagAnalogyBits, "bits", 32, "embedding bit width")
	rootCmd.AddCommand(analogyCmd)
}

func runAnalogy(_ *cobra.Command, args []string) error {
	root, cfg, err := loadWorkspace()
	if err != nil {
		return err
	}
	emb, err := loadQuantizedVectors(root, cfg, flagAnalogyBits)
	if err != nil {
		return err
	}

	candidates, err := emb.Analogy(args[0], args[1], args[2], flagAnalogyLimit)
	if err != nil {
		return err
	}
	return printWordSimilarities(candidates)
}
