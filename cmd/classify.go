package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mirlab/softsim/internal/config"
	"github.com/mirlab/softsim/internal/corpus"
	"github.com/mirlab/softsim/internal/docsim"
	"github.com/mirlab/softsim/internal/embeddings"
	"github.com/mirlab/softsim/internal/knn"
	"github.com/mirlab/softsim/internal/sparse"
	"github.com/mirlab/softsim/internal/termsim"
	"github.com/mirlab/softsim/internal/weights"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [text]",
	Short: "Classify a document against a trained dataset",
	Long: `Classify a piece of text with the k-nearest-neighbor vote over a
dataset's training partition. The text comes from the arguments, or
from stdin when no arguments are given.

The corpora and vectors stages must have run first ('softsim repro').`,
	RunE: runClassify,
}

var (
	flagClassifyDataset string
	flagClassifySpace   string
	flagClassifyWeights string
	flagClassifyBits    int
	flagClassifyK       int
	flagClassifySlope   float64
)

func init() {
	classifyCmd.Flags().StringVarP(&flagClassifyDataset, "dataset", "d", "", "dataset to classify against (default: first configured)")
	classifyCmd.Flags().StringVar(&flagClassifySpace, "space", string(docsim.SparseSoftVSM), "similarity space (vsm, dense_soft_vsm, sparse_soft_vsm)")
	classifyCmd.Flags().StringVar(&flagClassifyWeights, "weights", string(weights.Bow), "weighting scheme (bow, binary, tfidf)")
	classifyCmd.Flags().IntVar(&flagClassifyBits, "bits", 32, "embedding bit width")
	classifyCmd.Flags().IntVarP(&flagClassifyK, "neighbors", "k", 9, "number of nearest neighbors")
	classifyCmd.Flags().Float64Var(&flagClassifySlope, "slope", 0.2, "pivoted normalization slope for tfidf")
	rootCmd.AddCommand(classifyCmd)
}

// datasetSpec finds the configured dataset by name, defaulting to the first.
func datasetSpec(cfg *config.Config, name string) (config.DatasetSpec, error) {
	if len(cfg.Datasets) == 0 {
		return config.DatasetSpec{}, fmt.Errorf("no datasets configured in softsim.yaml")
	}
	if name == "" {
		return cfg.Datasets[0], nil
	}
	for _, spec := range cfg.Datasets {
		if spec.Name == name {
			return spec, nil
		}
	}
	return config.DatasetSpec{}, fmt.Errorf("unknown dataset %q", name)
}

// loadQuantizedVectors reads the quantized vectors artifact for a bit width.
func loadQuantizedVectors(root string, cfg *config.Config, bits int) (*embeddings.Embeddings, error) {
	path := filepath.Join(root, cfg.VectorsDir, fmt.Sprintf("vectors-%dbit.txt", bits))
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open vectors %s (run 'softsim repro vectors'): %w", path, err)
	}
	defer f.Close()
	return embeddings.ReadText(f, false)
}

func runClassify(cmd *cobra.Command, args []string) error {
	root, cfg, err := loadWorkspace()
	if err != nil {
		return err
	}
	spec, err := datasetSpec(cfg, flagClassifyDataset)
	if err != nil {
		return err
	}

	text := strings.Join(args, " ")
	if strings.TrimSpace(text) == "" {
		body, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("cannot read stdin: %w", err)
		}
		text = string(body)
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("nothing to classify")
	}

	corporaDir := filepath.Join(root, cfg.CorporaDir)
	common, err := corpus.LoadDataset(corporaDir, "common")
	if err != nil {
		return fmt.Errorf("common dictionary missing (run 'softsim repro corpora'): %w", err)
	}
	train, err := corpus.LoadDataset(corporaDir, spec.Name+"_train")
	if err != nil {
		return err
	}

	logger := newLogger()
	emb, err := loadQuantizedVectors(root, cfg, flagClassifyBits)
	if err != nil {
		return err
	}

	tp := termsim.DefaultParams()
	tp.Bits = flagClassifyBits
	params := docsim.Params{
		Space:   docsim.Space(flagClassifySpace),
		Weights: weights.Scheme(flagClassifyWeights),
		Measure: docsim.InnerProduct,
		Bits:    flagClassifyBits,
		Slope:   flagClassifySlope,
		TermSim: tp,
		K:       flagClassifyK,
	}
	if err := params.Validate(); err != nil {
		return err
	}

	engine := &docsim.Engine{Common: common.Dict, Emb: emb, Jobs: cfg.Jobs, Logger: logger}
	if params.Space == docsim.SparseSoftVSM {
		m, err := termsim.Cached(filepath.Join(root, cfg.MatricesDir), tp, func() *sparse.Matrix {
			return termsim.Build(emb, common.Dict, tp, logger)
		}, logger)
		if err != nil {
			return err
		}
		engine.TermSim = m
	}

	query, err := corpus.FromDocuments("query", []string{text}, nil, corpus.TokenizerOptions{})
	if err != nil {
		return err
	}
	sims, err := engine.Similarities(cmd.Context(), train, query, params)
	if err != nil {
		return err
	}

	pred := knn.Predict(sims, train.Labels, params.K)
	label := pred[0]
	name := fmt.Sprintf("class %d", label)
	if label >= 0 && label < len(spec.Categories) {
		name = spec.Categories[label]
	}
	printSection("softsim classify")
	printOK(spec.Name, fmt.Sprintf("predicted label: %s", name))
	return nil
}
