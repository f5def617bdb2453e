// Package docsim computes pairwise document similarities between a
// collection and a query corpus under a vector-space-model parameter set.
package docsim

import (
	"fmt"

	"github.com/mirlab/softsim/internal/termsim"
	"github.com/mirlab/softsim/internal/weights"
)

// Space names a document representation.
type Space string

const (
	VSM           Space = "vsm"
	DenseSoftVSM  Space = "dense_soft_vsm"
	SparseSoftVSM Space = "sparse_soft_vsm"
)

// Measure names a similarity measure between represented documents.
type Measure string

const (
	InnerProduct Measure = "inner_product"
	WMD          Measure = "wmd"
)

// Params is a full similarity configuration. TermSim only matters for the
// sparse soft space; Slope only for tfidf weighting.
type Params struct {
	Space   Space          `json:"space"`
	Weights weights.Scheme `json:"weights"`
	Measure Measure        `json:"measure"`
	Bits    int            `json:"bits"`
	Slope   float64        `json:"slope,omitempty"`
	TermSim termsim.Params `json:"termsim,omitempty"`
	K       int            `json:"k,omitempty"`
}

// DefaultParams is the plain cosine VSM baseline.
func DefaultParams() Params {
	return Params{
		Space:   VSM,
		Weights: weights.Bow,
		Measure: InnerProduct,
		Bits:    32,
		TermSim: termsim.DefaultParams(),
		K:       1,
	}
}

// Validate rejects parameter combinations the engine cannot compute.
func (p Params) Validate() error {
	switch p.Space {
	case VSM, DenseSoftVSM, SparseSoftVSM:
	default:
		return fmt.Errorf("unknown space %q", p.Space)
	}
	switch p.Measure {
	case InnerProduct, WMD:
	default:
		return fmt.Errorf("unknown measure %q", p.Measure)
	}
	if !p.Weights.Valid() {
		return fmt.Errorf("unknown weighting scheme %q", p.Weights)
	}
	if p.Measure == WMD && p.Space != VSM {
		return fmt.Errorf("measure %q requires the plain vsm space", WMD)
	}
	if p.Bits != 1 && p.Bits != 32 {
		return fmt.Errorf("unsupported bits: %d", p.Bits)
	}
	if p.Slope < 0 || p.Slope > 1 {
		return fmt.Errorf("slope %g out of [0, 1]", p.Slope)
	}
	return nil
}
