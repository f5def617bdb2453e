package weights

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirlab/softsim/internal/corpus"
	"github.com/mirlab/softsim/internal/sparse"
)

func testDict() *corpus.Dictionary {
	return corpus.NewDictionary([][]string{
		{"grain", "ship"},
		{"grain", "trade"},
		{"grain", "ship", "crude", "crude"},
		{"grain", "interest"},
	})
}

func TestTFIDF(t *testing.T) {
	dict := testDict()
	m := NewModel(dict)

	bow := dict.Bow([]string{"grain", "crude", "crude", "ship"})
	w := m.TFIDF(bow)

	// grain appears in every document: idf 0, dropped.
	assert.Equal(t, -1, indexOf(w.Indices, dict.ID("grain")))

	// crude: tf 2 in this doc, df 1 of 4 docs → (1+log2 2)·log2 4 = 4.
	ci := indexOf(w.Indices, dict.ID("crude"))
	require.GreaterOrEqual(t, ci, 0)
	assert.InDelta(t, 4.0, w.Values[ci], 1e-12)

	// ship: tf 1, df 2 of 4 → 1·1 = 1.
	si := indexOf(w.Indices, dict.ID("ship"))
	require.GreaterOrEqual(t, si, 0)
	assert.InDelta(t, 1.0, w.Values[si], 1e-12)
}

func TestPivot(t *testing.T) {
	v := sparse.NewVector(map[int]float64{0: 10})

	// slope 0: pure avgdl normalization.
	got := Pivot(v, 0, 20, 5)
	assert.InDelta(t, 0.5, got.Values[0], 1e-12)

	// slope 1: pure doclen normalization.
	got = Pivot(v, 1, 20, 5)
	assert.InDelta(t, 2.0, got.Values[0], 1e-12)

	// halfway
	got = Pivot(v, 0.5, 20, 5)
	assert.InDelta(t, 10.0/12.5, got.Values[0], 1e-12)
}

func TestApply(t *testing.T) {
	dict := testDict()
	m := NewModel(dict)
	bow := dict.Bow([]string{"ship", "ship", "trade"})

	l2, err := m.Apply(Bow, bow, 2)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, l2.Norm(2), 1e-12)

	l1, err := m.Apply(Bow, bow, 1)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, l1.Norm(1), 1e-12)

	bin, err := m.Apply(Binary, bow, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1}, bin.Values)

	_, err = m.Apply(Scheme("random"), bow, 2)
	assert.Error(t, err)
}

func TestSchemeValid(t *testing.T) {
	assert.True(t, Bow.Valid())
	assert.True(t, TFIDF.Valid())
	assert.False(t, Scheme("wmd").Valid())
}

func indexOf(xs []int, x int) int {
	for i, v := range xs {
		if v == x {
			return i
		}
	}
	return -1
}
