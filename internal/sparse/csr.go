package sparse

import "sort"

// Triplet is one (row, col, value) entry used to assemble a Matrix.
type Triplet struct {
	Row, Col int
	Val      float64
}

// Matrix is a compressed sparse row matrix over float64.
type Matrix struct {
	Rows, Cols int
	RowPtr     []int     `json:"row_ptr"`
	ColIdx     []int     `json:"col_idx"`
	Val        []float64 `json:"val"`
}

// NewMatrix assembles a CSR matrix from triplets. Duplicate (row, col)
// entries are summed. Explicit zeros are kept.
func NewMatrix(rows, cols int, entries []Triplet) *Matrix {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Row != entries[j].Row {
			return entries[i].Row < entries[j].Row
		}
		return entries[i].Col < entries[j].Col
	})

	m := &Matrix{
		Rows:   rows,
		Cols:   cols,
		RowPtr: make([]int, rows+1),
	}
	for i := 0; i < len(entries); {
		j := i + 1
		v := entries[i].Val
		for j < len(entries) && entries[j].Row == entries[i].Row && entries[j].Col == entries[i].Col {
			v += entries[j].Val
			j++
		}
		m.ColIdx = append(m.ColIdx, entries[i].Col)
		m.Val = append(m.Val, v)
		m.RowPtr[entries[i].Row+1]++
		i = j
	}
	for r := 0; r < rows; r++ {
		m.RowPtr[r+1] += m.RowPtr[r]
	}
	return m
}

// NNZ returns the number of stored entries.
func (m *Matrix) NNZ() int { return len(m.Val) }

// Row returns row r as a sparse Vector sharing the matrix's backing arrays.
func (m *Matrix) Row(r int) Vector {
	lo, hi := m.RowPtr[r], m.RowPtr[r+1]
	return Vector{Indices: m.ColIdx[lo:hi], Values: m.Val[lo:hi]}
}

// At returns the value at (r, c), zero when not stored.
func (m *Matrix) At(r, c int) float64 {
	lo, hi := m.RowPtr[r], m.RowPtr[r+1]
	idx := m.ColIdx[lo:hi]
	k := sort.SearchInts(idx, c)
	if k < len(idx) && idx[k] == c {
		return m.Val[lo+k]
	}
	return 0
}

// MulVector computes m·v for a sparse vector v, returning a sparse result.
// out[r] = Σ_c m[r,c]·v[c].
func (m *Matrix) MulVector(v Vector) Vector {
	out := make(map[int]float64)
	for r := 0; r < m.Rows; r++ {
		if s := m.Row(r).Dot(v); s != 0 {
			out[r] = s
		}
	}
	return NewVector(out)
}

// QuadForm computes xᵀ·m·y for sparse x and y without materializing m·y.
func (m *Matrix) QuadForm(x, y Vector) float64 {
	var sum float64
	for k, r := range x.Indices {
		xv := x.Values[k]
		if xv == 0 {
			continue
		}
		sum += xv * m.Row(r).Dot(y)
	}
	return sum
}
