package knn

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mirlab/softsim/internal/corpus"
	"github.com/mirlab/softsim/internal/docsim"
	"github.com/mirlab/softsim/internal/weights"
)

// Ks are the neighborhood sizes tried during grid search.
var Ks = []int{1, 3, 5, 7, 9, 11, 13, 15, 17, 19}

// slopes is the pivoting-slope grid for tfidf weighting.
var slopes = []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1}

// sparse soft-VSM sub-grids.
var (
	gridBools        = []bool{true, false}
	gridNonzeroLimit = []int{100, 200, 400, 800}
	gridThreshold    = []float64{-1, -0.5, 0, 0.5}
	gridExponent     = []float64{1, 2, 3, 4}
)

// ParamGrid expands base into every grid position its space and weighting
// scheme open up. K is left at zero; the evaluator sweeps it separately so
// one similarity matrix serves all neighborhood sizes.
func ParamGrid(base docsim.Params) []docsim.Params {
	out := []docsim.Params{base}

	if base.Weights == weights.TFIDF {
		var next []docsim.Params
		for _, p := range out {
			for _, s := range slopes {
				q := p
				q.Slope = s
				next = append(next, q)
			}
		}
		out = next
	}

	if base.Space == docsim.SparseSoftVSM {
		var next []docsim.Params
		for _, p := range out {
			for _, sym := range gridBools {
				for _, dom := range gridBools {
					for _, idf := range gridBools {
						for _, nz := range gridNonzeroLimit {
							for _, th := range gridThreshold {
								for _, exp := range gridExponent {
									q := p
									q.TermSim.Bits = p.Bits
									q.TermSim.Symmetric = sym
									q.TermSim.Dominant = dom
									q.TermSim.UseIDF = idf
									q.TermSim.NonzeroLimit = nz
									q.TermSim.Threshold = th
									q.TermSim.Exponent = exp
									next = append(next, q)
								}
							}
						}
					}
				}
			}
		}
		out = next
	}

	return out
}

// EngineFactory builds a similarity engine for a parameter set. The grid
// searcher uses it to get matching term-similarity matrices per position.
type EngineFactory func(p docsim.Params) (*docsim.Engine, error)

// GridSearch evaluates every grid position of base on the validation set,
// picks the best, and scores it once on the test set.
func GridSearch(ctx context.Context, factory EngineFactory, train, validation, test *corpus.Dataset, base docsim.Params, logger zerolog.Logger) (Result, error) {
	grid := ParamGrid(base)
	logger.Info().
		Str("dataset", train.Name).
		Int("positions", len(grid)*len(Ks)).
		Msg("grid searching")

	var best Result
	var bestSet bool
	for _, p := range grid {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		engine, err := factory(p)
		if err != nil {
			return Result{}, err
		}
		start := time.Now()
		sims, err := engine.Similarities(ctx, train, validation, p)
		if err != nil {
			return Result{}, err
		}
		elapsed := time.Since(start)
		for _, k := range Ks {
			q := p
			q.K = k
			r := Evaluate(sims, train, validation, q, elapsed)
			if !bestSet || r.Better(best) {
				best, bestSet = r, true
			}
		}
	}
	if !bestSet {
		return Result{}, fmt.Errorf("empty parameter grid")
	}
	logger.Info().
		Str("dataset", train.Name).
		Float64("validation_accuracy", best.Accuracy).
		Int("k", best.Params.K).
		Msg("grid search done")

	// Final score on the held-out test set with the winning configuration.
	engine, err := factory(best.Params)
	if err != nil {
		return Result{}, err
	}
	start := time.Now()
	sims, err := engine.Similarities(ctx, train, test, best.Params)
	if err != nil {
		return Result{}, err
	}
	return Evaluate(sims, train, test, best.Params, time.Since(start)), nil
}
