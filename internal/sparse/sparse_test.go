package sparse

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorDot(t *testing.T) {
	v := NewVector(map[int]float64{0: 1, 3: 2, 7: -1})
	w := NewVector(map[int]float64{3: 4, 5: 9, 7: 2})

	assert.Equal(t, 6.0, v.Dot(w))
	assert.Equal(t, v.Dot(w), w.Dot(v))
	assert.Equal(t, 0.0, v.Dot(Vector{}))
}

func TestVectorNormAndUnit(t *testing.T) {
	v := NewVector(map[int]float64{1: 3, 2: -4})

	assert.Equal(t, 7.0, v.Norm(1))
	assert.Equal(t, 5.0, v.Norm(2))

	u := v.Unit(2)
	assert.InDelta(t, 1.0, u.Norm(2), 1e-12)
	// Unit of the zero vector stays zero.
	z := Vector{}
	assert.Equal(t, 0, z.Unit(2).Len())
}

func TestVectorBinarize(t *testing.T) {
	v := NewVector(map[int]float64{2: 0.5, 9: 7})
	b := v.Binarize()
	assert.Equal(t, []float64{1, 1}, b.Values)
	assert.Equal(t, v.Indices, b.Indices)
	// Original untouched.
	assert.Equal(t, 0.5, v.Values[0])
}

func TestMatrixAssembly(t *testing.T) {
	m := NewMatrix(3, 3, []Triplet{
		{0, 0, 1},
		{0, 2, 2},
		{2, 1, 3},
		{0, 2, 5}, // duplicate, summed
	})

	require.Equal(t, 3, m.NNZ())
	assert.Equal(t, 1.0, m.At(0, 0))
	assert.Equal(t, 7.0, m.At(0, 2))
	assert.Equal(t, 3.0, m.At(2, 1))
	assert.Equal(t, 0.0, m.At(1, 1))

	row := m.Row(0)
	assert.Equal(t, []int{0, 2}, row.Indices)
	assert.Equal(t, 0, m.Row(1).Len())
}

func TestMatrixProducts(t *testing.T) {
	// Identity-like with one off-diagonal coupling.
	m := NewMatrix(3, 3, []Triplet{
		{0, 0, 1}, {1, 1, 1}, {2, 2, 1},
		{0, 1, 0.5}, {1, 0, 0.5},
	})
	x := NewVector(map[int]float64{0: 1})
	y := NewVector(map[int]float64{1: 1})

	// xᵀ m y picks up the coupling term.
	assert.InDelta(t, 0.5, m.QuadForm(x, y), 1e-12)
	// Quadratic form against self includes the diagonal.
	assert.InDelta(t, 1.0, m.QuadForm(x, x), 1e-12)

	mv := m.MulVector(y)
	assert.Equal(t, []int{0, 1}, mv.Indices)
	assert.True(t, math.Abs(mv.Values[0]-0.5) < 1e-12)
}
