package termsim

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirlab/softsim/internal/corpus"
	"github.com/mirlab/softsim/internal/embeddings"
	"github.com/mirlab/softsim/internal/sparse"
)

// Three close terms, one orthogonal, one out-of-vocabulary.
const vectorsText = `4 2
cat 1 0
kitten 0.96 0.28
dog 0.8 0.6
bond 0 1
`

func buildFixture(t *testing.T, p Params) (*sparse.Matrix, *corpus.Dictionary) {
	t.Helper()
	emb, err := embeddings.ReadText(strings.NewReader(vectorsText), true)
	require.NoError(t, err)
	dict := corpus.NewDictionary([][]string{
		{"cat", "kitten"},
		{"dog", "bond", "yield"},
	})
	return Build(emb, dict, p, zerolog.Nop()), dict
}

func TestBuildDiagonal(t *testing.T) {
	m, dict := buildFixture(t, DefaultParams())
	for i := 0; i < dict.Len(); i++ {
		assert.Equal(t, 1.0, m.At(i, i))
	}
}

func TestBuildNeighbors(t *testing.T) {
	p := DefaultParams()
	p.Dominant = false
	m, dict := buildFixture(t, p)

	cat, kitten, bond, yield := dict.ID("cat"), dict.ID("kitten"), dict.ID("bond"), dict.ID("yield")

	// cat–kitten cosine is high and squared into the matrix, symmetrically.
	assert.InDelta(t, 0.9216, m.At(cat, kitten), 1e-4)
	assert.Equal(t, m.At(cat, kitten), m.At(kitten, cat))

	// cat–bond cosine is 0, below the > 0 threshold.
	assert.Zero(t, m.At(cat, bond))

	// yield has no embedding: only the diagonal.
	assert.Equal(t, 1, m.Row(yield).Len())
}

func TestBuildDominant(t *testing.T) {
	p := DefaultParams()
	p.Threshold = -1
	p.Exponent = 1
	p.Dominant = true
	m, dict := buildFixture(t, p)

	// Off-diagonal column magnitudes stay below 1.
	for c := 0; c < dict.Len(); c++ {
		var sum float64
		for r := 0; r < dict.Len(); r++ {
			if r == c {
				continue
			}
			v := m.At(r, c)
			if v < 0 {
				v = -v
			}
			sum += v
		}
		assert.Less(t, sum, 1.0, "column %d", c)
	}
}

func TestBuildNonzeroLimit(t *testing.T) {
	p := DefaultParams()
	p.Threshold = -1
	p.Dominant = false
	p.NonzeroLimit = 1
	m, dict := buildFixture(t, p)

	for c := 0; c < dict.Len(); c++ {
		off := 0
		for r := 0; r < dict.Len(); r++ {
			if r != c && m.At(r, c) != 0 {
				off++
			}
		}
		assert.LessOrEqual(t, off, 1, "column %d", c)
	}
}

func TestParamsKey(t *testing.T) {
	p := DefaultParams()
	q := p
	q.NonzeroLimit = 200
	assert.NotEqual(t, p.Key(), q.Key())
	assert.Equal(t, p.Key(), DefaultParams().Key())
}

func TestCached(t *testing.T) {
	dir := t.TempDir()
	p := DefaultParams()
	builds := 0
	build := func() *sparse.Matrix {
		builds++
		return sparse.NewMatrix(2, 2, []sparse.Triplet{{Row: 0, Col: 0, Val: 1}, {Row: 1, Col: 1, Val: 1}})
	}

	m1, err := Cached(dir, p, build, zerolog.Nop())
	require.NoError(t, err)
	m2, err := Cached(dir, p, build, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, 1, builds, "second call must hit the cache")
	assert.Equal(t, m1.NNZ(), m2.NNZ())
	assert.Equal(t, 1.0, m2.At(1, 1))
}
