// Package sparse provides the minimal sparse linear algebra used by the
// term-weighting and similarity kernels: sparse vectors in parallel
// index/value form and a CSR matrix.
package sparse

import (
	"math"
	"sort"
)

// Vector is a sparse vector as parallel arrays of indices and values.
// Indices are term ids, sorted ascending and unique.
type Vector struct {
	Indices []int     `json:"indices"`
	Values  []float64 `json:"values"`
}

// NewVector builds a Vector from an id→value map.
func NewVector(m map[int]float64) Vector {
	v := Vector{
		Indices: make([]int, 0, len(m)),
		Values:  make([]float64, 0, len(m)),
	}
	for id := range m {
		v.Indices = append(v.Indices, id)
	}
	sort.Ints(v.Indices)
	for _, id := range v.Indices {
		v.Values = append(v.Values, m[id])
	}
	return v
}

// Len returns the number of stored entries.
func (v Vector) Len() int { return len(v.Indices) }

// Dot computes the inner product of two sparse vectors by merge join.
func (v Vector) Dot(w Vector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(v.Indices) && j < len(w.Indices) {
		switch {
		case v.Indices[i] < w.Indices[j]:
			i++
		case v.Indices[i] > w.Indices[j]:
			j++
		default:
			sum += v.Values[i] * w.Values[j]
			i++
			j++
		}
	}
	return sum
}

// Norm returns the Lp norm for p ∈ {1, 2}.
func (v Vector) Norm(p int) float64 {
	var sum float64
	switch p {
	case 1:
		for _, x := range v.Values {
			sum += math.Abs(x)
		}
		return sum
	default:
		for _, x := range v.Values {
			sum += x * x
		}
		return math.Sqrt(sum)
	}
}

// Scale returns a copy of v with every value multiplied by s.
func (v Vector) Scale(s float64) Vector {
	out := Vector{
		Indices: append([]int(nil), v.Indices...),
		Values:  make([]float64, len(v.Values)),
	}
	for i, x := range v.Values {
		out.Values[i] = x * s
	}
	return out
}

// Unit returns v normalized to unit Lp norm. A zero vector is returned
// unchanged.
func (v Vector) Unit(p int) Vector {
	n := v.Norm(p)
	if n == 0 {
		return v
	}
	return v.Scale(1 / n)
}

// Binarize returns a copy of v with every stored value set to 1.
func (v Vector) Binarize() Vector {
	out := Vector{
		Indices: append([]int(nil), v.Indices...),
		Values:  make([]float64, len(v.Values)),
	}
	for i := range out.Values {
		out.Values[i] = 1
	}
	return out
}
