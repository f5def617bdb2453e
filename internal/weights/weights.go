// Package weights applies term-weighting schemes to bag-of-words documents.
package weights

import (
	"fmt"
	"math"

	"github.com/mirlab/softsim/internal/corpus"
	"github.com/mirlab/softsim/internal/sparse"
)

// Scheme names a term-weighting scheme.
type Scheme string

const (
	Bow    Scheme = "bow"
	Binary Scheme = "binary"
	TFIDF  Scheme = "tfidf"
)

// Valid reports whether s names a known scheme.
func (s Scheme) Valid() bool {
	switch s {
	case Bow, Binary, TFIDF:
		return true
	}
	return false
}

// Model weights documents against a fixed dictionary using logarithmic term
// frequency and plain idf (the SMART dtn family), with pivoted length
// normalization applied separately.
type Model struct {
	dict *corpus.Dictionary
}

// NewModel returns a weighting model over dict.
func NewModel(dict *corpus.Dictionary) *Model {
	return &Model{dict: dict}
}

// TFIDF reweights a term-count vector: (1 + log2(tf)) · log2(N/df).
// Terms with zero idf drop out.
func (m *Model) TFIDF(bow sparse.Vector) sparse.Vector {
	out := make(map[int]float64, bow.Len())
	for k, id := range bow.Indices {
		tf := bow.Values[k]
		if tf <= 0 {
			continue
		}
		idf := m.dict.IDF(id)
		if idf == 0 {
			continue
		}
		out[id] = (1 + math.Log2(tf)) * idf
	}
	return sparse.NewVector(out)
}

// Pivot applies pivoted document-length normalization: every weight is
// divided by (1-slope)·avgdl + slope·doclen.
func Pivot(v sparse.Vector, slope, avgdl, doclen float64) sparse.Vector {
	den := (1-slope)*avgdl + slope*doclen
	if den == 0 {
		return v
	}
	return v.Scale(1 / den)
}

// Apply converts a term-count vector according to scheme. For Bow the
// vector is normalized to unit norm; the caller picks L1 or L2 via norm.
// For TFIDF, pivoting is the
// caller's job since it needs per-document lengths.
func (m *Model) Apply(scheme Scheme, bow sparse.Vector, norm int) (sparse.Vector, error) {
	switch scheme {
	case Bow:
		return bow.Unit(norm), nil
	case Binary:
		return bow.Binarize(), nil
	case TFIDF:
		return m.TFIDF(bow), nil
	default:
		return sparse.Vector{}, fmt.Errorf("unknown weighting scheme %q", scheme)
	}
}
