// Package termsim builds sparse term-similarity matrices from word
// embeddings, the soft cosine measure's core structure.
package termsim

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/mirlab/softsim/internal/corpus"
	"github.com/mirlab/softsim/internal/embeddings"
	"github.com/mirlab/softsim/internal/sparse"
)

// Params controls matrix construction. The zero value is not useful; see
// DefaultParams.
type Params struct {
	Bits         int     `json:"bits"`
	Threshold    float64 `json:"threshold"`
	Exponent     float64 `json:"exponent"`
	NonzeroLimit int     `json:"nonzero_limit"`
	Symmetric    bool    `json:"symmetric"`
	Dominant     bool    `json:"dominant"`
	UseIDF       bool    `json:"use_idf"`
}

// DefaultParams mirrors the experiment's middle-of-the-grid settings.
func DefaultParams() Params {
	return Params{
		Bits:         32,
		Threshold:    0,
		Exponent:     2,
		NonzeroLimit: 100,
		Symmetric:    true,
		Dominant:     true,
		UseIDF:       false,
	}
}

// Key returns the cache basename for these parameters.
func (p Params) Key() string {
	return fmt.Sprintf("%d-%t-%t-%t-%d-%g-%g",
		p.Bits, p.UseIDF, p.Symmetric, p.Dominant, p.NonzeroLimit, p.Threshold, p.Exponent)
}

// Build constructs the term-similarity matrix over dict from emb. The
// diagonal is 1. For every term, up to NonzeroLimit neighbors whose cosine
// similarity exceeds Threshold are inserted, raised to Exponent. With
// Dominant set, an entry is only inserted while the off-diagonal magnitude
// sum of its column stays below 1, keeping the matrix strictly diagonally
// dominant. With UseIDF set, columns are filled in decreasing idf order so
// rare terms claim their neighbor budget first.
func Build(emb *embeddings.Embeddings, dict *corpus.Dictionary, p Params, logger zerolog.Logger) *sparse.Matrix {
	n := dict.Len()
	dense := emb.Translate(dict)

	// Unit-normalize rows; remember which terms actually have a vector.
	known := make([]bool, n)
	for i := 0; i < n; i++ {
		row := dense.RawRowView(i)
		norm := floats.Norm(row, 2)
		if norm == 0 {
			continue
		}
		known[i] = true
		floats.Scale(1/norm, row)
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if p.UseIDF {
		sort.SliceStable(order, func(a, b int) bool {
			return dict.IDF(order[a]) > dict.IDF(order[b])
		})
	}

	entries := make([]sparse.Triplet, 0, n)
	colCount := make([]int, n)
	colSum := make([]float64, n)
	for i := 0; i < n; i++ {
		entries = append(entries, sparse.Triplet{Row: i, Col: i, Val: 1})
	}

	inserted := make(map[[2]int]struct{})
	for _, i := range order {
		if !known[i] {
			continue
		}
		neighbors := topNeighbors(dense, known, i, p)
		for _, nb := range neighbors {
			if colCount[i] >= p.NonzeroLimit {
				break
			}
			if _, dup := inserted[[2]int{nb.id, i}]; dup {
				continue
			}
			if p.Symmetric && colCount[nb.id] >= p.NonzeroLimit {
				continue
			}
			if p.Dominant {
				if colSum[i]+math.Abs(nb.sim) >= 1 {
					break
				}
				if p.Symmetric && colSum[nb.id]+math.Abs(nb.sim) >= 1 {
					continue
				}
			}
			entries = append(entries, sparse.Triplet{Row: nb.id, Col: i, Val: nb.sim})
			inserted[[2]int{nb.id, i}] = struct{}{}
			colCount[i]++
			colSum[i] += math.Abs(nb.sim)
			if p.Symmetric {
				entries = append(entries, sparse.Triplet{Row: i, Col: nb.id, Val: nb.sim})
				inserted[[2]int{i, nb.id}] = struct{}{}
				colCount[nb.id]++
				colSum[nb.id] += math.Abs(nb.sim)
			}
		}
	}

	m := sparse.NewMatrix(n, n, entries)
	logger.Debug().
		Str("params", p.Key()).
		Int("terms", n).
		Int("nnz", m.NNZ()).
		Msg("term similarity matrix built")
	return m
}

type neighbor struct {
	id  int
	sim float64
}

// topNeighbors returns terms most similar to term i, thresholded and raised
// to the exponent, best first.
func topNeighbors(dense *mat.Dense, known []bool, i int, p Params) []neighbor {
	vi := dense.RawRowView(i)
	var out []neighbor
	for j := range known {
		if j == i || !known[j] {
			continue
		}
		cos := floats.Dot(vi, dense.RawRowView(j))
		if cos <= p.Threshold {
			continue
		}
		out = append(out, neighbor{id: j, sim: math.Pow(cos, p.Exponent)})
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].sim > out[b].sim })
	if len(out) > p.NonzeroLimit {
		out = out[:p.NonzeroLimit]
	}
	return out
}
