package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mirlab/softsim/internal/embeddings"
)

var similarCmd = &cobra.Command{
	Use:   "similar <word>",
	Short: "List the nearest neighbors of a word in the embedding space",
	Args:  cobra.ExactArgs(1),
	RunE:  runSimilar,
}

var (
	flagSimilarLimit int
	flagSimilarBits  int
)

func init() {
	similarCmd.Flags().IntVarP(&flagSimilarLimit, "limit", "n", 10, "number of neighbors to show")
	similarCmd.Flags().IntVar(&flagSimilarBits, "bits", 32, "embedding bit width")
	rootCmd.AddCommand(similarCmd)
}

func runSimilar(_ *cobra.Command, args []string) error {
	root, cfg, err := loadWorkspace()
	if err != nil {
		return err
	}
	emb, err := loadQuantizedVectors(root, cfg, flagSimilarBits)
	if err != nil {
		return err
	}

	neighbors, err := emb.Similar(args[0], flagSimilarLimit)
	if err != nil {
		return err
	}
	return printWordSimilarities(neighbors)
}

// printWordSimilarities renders word/similarity pairs as an aligned table.
func printWordSimilarities(pairs []embeddings.WordSimilarity) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WORD\tSIMILARITY")
	for _, p := range pairs {
		fmt.Fprintf(w, "%s\t%.4f\n", p.Word, p.Similarity)
	}
	return w.Flush()
}
