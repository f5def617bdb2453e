package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/mirlab/softsim/internal/artifact"
	"github.com/mirlab/softsim/internal/config"
	"github.com/mirlab/softsim/internal/corpus"
	"github.com/mirlab/softsim/internal/docsim"
	"github.com/mirlab/softsim/internal/embeddings"
	"github.com/mirlab/softsim/internal/knn"
	"github.com/mirlab/softsim/internal/report"
	"github.com/mirlab/softsim/internal/sparse"
	"github.com/mirlab/softsim/internal/termsim"
	"github.com/mirlab/softsim/internal/weights"
)

// RunContext carries everything a runner needs for one stage execution.
type RunContext struct {
	Root   string
	Config *config.Config
	Name   string
	Stage  *Stage
	Logger zerolog.Logger
}

// path resolves a workspace-relative path against the run root.
func (rc *RunContext) path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(rc.Root, p)
}

// RunnerFunc executes one stage. It must produce every path the stage
// declares in Outs.
type RunnerFunc func(ctx context.Context, rc *RunContext) error

// Registry maps runner names to implementations.
type Registry map[string]RunnerFunc

// BuiltinRunners returns the standard experiment stages.
func BuiltinRunners() Registry {
	return Registry{
		"corpora":  runCorpora,
		"vectors":  runVectors,
		"matrices": runMatrices,
		"results":  runResults,
		"report":   runReport,
	}
}

// runCorpora loads every configured dataset, splits it, and saves the
// tokenized partitions plus the shared background dictionary.
func runCorpora(ctx context.Context, rc *RunContext) error {
	cfg := rc.Config
	dir := rc.path(cfg.CorporaDir)
	opts := corpus.TokenizerOptions{}

	var fallbackTexts []string
	for _, spec := range cfg.Datasets {
		if err := ctx.Err(); err != nil {
			return err
		}
		raw, err := corpus.LoadRaw(rc.Root, spec)
		if err != nil {
			return err
		}
		split, err := corpus.Split(raw, spec, cfg.Seed)
		if err != nil {
			return err
		}
		parts := []struct {
			suffix string
			raw    *corpus.Raw
		}{
			{"train", split.Train},
			{"validation", split.Validation},
			{"test", split.Test},
		}
		for _, part := range parts {
			ds, err := corpus.FromDocuments(spec.Name+"_"+part.suffix, part.raw.Texts, part.raw.Labels, opts)
			if err != nil {
				return err
			}
			if err := ds.Save(dir); err != nil {
				return err
			}
			rc.Logger.Info().
				Str("dataset", ds.Name).
				Int("documents", len(ds.Docs)).
				Msg("saved corpus partition")
		}
		fallbackTexts = append(fallbackTexts, split.Train.Texts...)
	}

	// The common vocabulary comes from the background corpus; without one,
	// the concatenated training texts stand in.
	texts := fallbackTexts
	if cfg.BackgroundCorpus != "" {
		bg, err := corpus.LoadRaw(rc.Root, config.DatasetSpec{
			Name:   CommonName,
			Loader: "lines",
			Path:   cfg.BackgroundCorpus,
		})
		if err == nil {
			texts = bg.Texts
		} else if errors.Is(err, os.ErrNotExist) {
			rc.Logger.Warn().
				Str("path", cfg.BackgroundCorpus).
				Msg("background corpus missing, building common dictionary from training texts")
		} else {
			return err
		}
	}
	common, err := corpus.FromDocuments(CommonName, texts, nil, opts)
	if err != nil {
		return err
	}
	if err := common.Save(dir); err != nil {
		return err
	}
	rc.Logger.Info().Int("terms", common.Dict.Len()).Msg("saved common dictionary")
	return nil
}

// runVectors normalizes the source embeddings and writes one text artifact
// per configured bit width.
func runVectors(ctx context.Context, rc *RunContext) error {
	cfg := rc.Config
	f, err := os.Open(rc.path(cfg.Embeddings.File))
	if err != nil {
		return fmt.Errorf("cannot open embeddings %s: %w", cfg.Embeddings.File, err)
	}
	defer f.Close()

	var emb *embeddings.Embeddings
	if cfg.Embeddings.Binary {
		emb, err = embeddings.ReadBinary(f, true)
	} else {
		emb, err = embeddings.ReadText(f, true)
	}
	if err != nil {
		return err
	}
	rc.Logger.Info().Int("words", emb.Len()).Int("dim", emb.Dim()).Msg("loaded embeddings")

	for _, bits := range cfg.Embeddings.Bits {
		if err := ctx.Err(); err != nil {
			return err
		}
		q, err := emb.Quantize(bits)
		if err != nil {
			return err
		}
		path := rc.path(vectorsFile(cfg, bits))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		out, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("cannot create %s: %w", path, err)
		}
		if err := q.WriteText(out); err != nil {
			out.Close()
			return err
		}
		if err := out.Close(); err != nil {
			return err
		}
		rc.Logger.Info().Int("bits", bits).Str("path", path).Msg("wrote quantized vectors")
	}
	return nil
}

// loadVectors reads the quantized text vectors artifact for a bit width.
func loadVectors(rc *RunContext, bits int) (*embeddings.Embeddings, error) {
	path := rc.path(vectorsFile(rc.Config, bits))
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open vectors %s: %w", path, err)
	}
	defer f.Close()
	return embeddings.ReadText(f, false)
}

// runMatrices precomputes the default term-similarity matrix per bit width.
func runMatrices(ctx context.Context, rc *RunContext) error {
	cfg := rc.Config
	common, err := corpus.LoadDataset(rc.path(cfg.CorporaDir), CommonName)
	if err != nil {
		return err
	}
	for _, bits := range cfg.Embeddings.Bits {
		if err := ctx.Err(); err != nil {
			return err
		}
		emb, err := loadVectors(rc, bits)
		if err != nil {
			return err
		}
		tp := termsim.DefaultParams()
		tp.Bits = bits
		_, err = termsim.Cached(rc.path(cfg.MatricesDir), tp, func() *sparse.Matrix {
			return termsim.Build(emb, common.Dict, tp, rc.Logger)
		}, rc.Logger)
		if err != nil {
			return err
		}
	}
	return nil
}

// resultsParams narrows the configurations the results stage evaluates.
type resultsParams struct {
	Spaces   []string `json:"spaces"`
	Weights  []string `json:"weights"`
	Measures []string `json:"measures"`
	Bits     []int    `json:"bits"`
}

// runResults grid-searches every configured dataset over the requested
// similarity spaces and persists the winning result per configuration.
func runResults(ctx context.Context, rc *RunContext) error {
	cfg := rc.Config
	params := resultsParams{
		Spaces:   defaultSpaces,
		Weights:  defaultWeights,
		Measures: []string{string(docsim.InnerProduct)},
		Bits:     cfg.Embeddings.Bits,
	}
	if err := decodeParams(rc.Stage, &params); err != nil {
		return err
	}

	corporaDir := rc.path(cfg.CorporaDir)
	resultsDir := rc.path(cfg.ResultsDir)
	common, err := corpus.LoadDataset(corporaDir, CommonName)
	if err != nil {
		return err
	}

	embCache := make(map[int]*embeddings.Embeddings)
	embFor := func(bits int) (*embeddings.Embeddings, error) {
		if emb, ok := embCache[bits]; ok {
			return emb, nil
		}
		emb, err := loadVectors(rc, bits)
		if err != nil {
			return nil, err
		}
		embCache[bits] = emb
		return emb, nil
	}

	for _, spec := range cfg.Datasets {
		train, err := corpus.LoadDataset(corporaDir, spec.Name+"_train")
		if err != nil {
			return err
		}
		validation, err := corpus.LoadDataset(corporaDir, spec.Name+"_validation")
		if err != nil {
			return err
		}
		test, err := corpus.LoadDataset(corporaDir, spec.Name+"_test")
		if err != nil {
			return err
		}

		baseline := knn.RandomBaseline(train, test, cfg.Seed)
		baseline.Dataset = spec.Name
		if err := artifact.SaveJSON(report.ResultPath(resultsDir, spec.Name, "random", "baseline"), baseline); err != nil {
			return err
		}

		// One result per space and weighting scheme; measures and bit widths
		// compete within it.
		for _, space := range params.Spaces {
			for _, scheme := range params.Weights {
				var best knn.Result
				var found bool
				for _, measure := range params.Measures {
					for _, bits := range params.Bits {
						if err := ctx.Err(); err != nil {
							return err
						}
						tp := termsim.DefaultParams()
						tp.Bits = bits
						base := docsim.Params{
							Space:   docsim.Space(space),
							Weights: weights.Scheme(scheme),
							Measure: docsim.Measure(measure),
							Bits:    bits,
							TermSim: tp,
						}
						if err := base.Validate(); err != nil {
							rc.Logger.Debug().
								Str("space", space).
								Str("weights", scheme).
								Err(err).
								Msg("skipping configuration")
							continue
						}
						emb, err := embFor(bits)
						if err != nil {
							return err
						}
						factory := func(p docsim.Params) (*docsim.Engine, error) {
							engine := &docsim.Engine{
								Common: common.Dict,
								Emb:    emb,
								Jobs:   cfg.Jobs,
								Logger: rc.Logger,
							}
							if p.Space == docsim.SparseSoftVSM {
								m, err := termsim.Cached(rc.path(cfg.MatricesDir), p.TermSim, func() *sparse.Matrix {
									return termsim.Build(emb, common.Dict, p.TermSim, rc.Logger)
								}, rc.Logger)
								if err != nil {
									return nil, err
								}
								engine.TermSim = m
							}
							return engine, nil
						}
						r, err := knn.GridSearch(ctx, factory, train, validation, test, base, rc.Logger)
						if err != nil {
							return err
						}
						r.Dataset = spec.Name
						if !found || r.Better(best) {
							best, found = r, true
						}
					}
				}
				if !found {
					return fmt.Errorf("dataset %s: no valid configuration for space %s with %s weights", spec.Name, space, scheme)
				}
				path := report.ResultPath(resultsDir, spec.Name, space, scheme)
				if err := artifact.SaveJSON(path, best); err != nil {
					return err
				}
				rc.Logger.Info().
					Str("dataset", spec.Name).
					Str("space", space).
					Str("weights", scheme).
					Float64("accuracy", best.Accuracy).
					Msg("saved result")
			}
		}
	}
	return nil
}

// runReport aggregates all results into the machine-readable summary.
func runReport(ctx context.Context, rc *RunContext) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := rc.path(rc.Config.ResultsDir)
	results, err := report.Collect(dir)
	if err != nil {
		return err
	}
	path, err := report.WriteSummary(dir, results)
	if err != nil {
		return err
	}
	rc.Logger.Info().Int("results", len(results)).Str("path", path).Msg("wrote summary")
	return nil
}
