package knn

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/mirlab/softsim/internal/corpus"
	"github.com/mirlab/softsim/internal/docsim"
	"github.com/mirlab/softsim/internal/embeddings"
	"github.com/mirlab/softsim/internal/weights"
)

func TestVote(t *testing.T) {
	labels := []int{0, 0, 1, 1, 2}

	// Clear majority among the top 3.
	row := []float64{0.9, 0.8, 0.7, 0.1, 0.0}
	assert.Equal(t, 0, Vote(row, labels, 3))

	// k=1 takes the single nearest.
	row = []float64{0.1, 0.2, 0.9, 0.3, 0.4}
	assert.Equal(t, 1, Vote(row, labels, 1))

	// Vote tie at k=2: label 1 has more similarity mass.
	row = []float64{0.5, 0, 0.9, 0, 0}
	assert.Equal(t, 1, Vote(row, labels, 2))

	// k larger than the collection degrades to all documents.
	assert.Equal(t, 0, Vote([]float64{1, 1, 0, 0, 0}, labels, 100))
}

func TestPredictAccuracy(t *testing.T) {
	sims := mat.NewDense(2, 3, []float64{
		0.9, 0.1, 0.2,
		0.0, 0.1, 0.8,
	})
	trainLabels := []int{0, 1, 1}
	pred := Predict(sims, trainLabels, 1)
	assert.Equal(t, []int{0, 1}, pred)

	assert.Equal(t, 1.0, Accuracy(pred, []int{0, 1}))
	assert.Equal(t, 0.5, Accuracy(pred, []int{0, 0}))
	assert.Equal(t, 0.0, Accuracy(nil, nil))
}

func TestRandomBaseline(t *testing.T) {
	train := &corpus.Dataset{Name: "mini", Labels: []int{0, 1, 2, 1}}
	eval := &corpus.Dataset{Labels: []int{0, 1, 2, 2, 1, 0}}

	a := RandomBaseline(train, eval, 42)
	b := RandomBaseline(train, eval, 42)
	assert.Equal(t, a.Accuracy, b.Accuracy, "seeded baseline is deterministic")
	assert.True(t, a.Baseline)
	assert.Equal(t, 6, a.NumTest)
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestParamGrid(t *testing.T) {
	base := docsim.DefaultParams()
	assert.Len(t, ParamGrid(base), 1)

	base.Weights = weights.TFIDF
	assert.Len(t, ParamGrid(base), 11)

	base = docsim.DefaultParams()
	base.Space = docsim.SparseSoftVSM
	grid := ParamGrid(base)
	assert.Len(t, grid, 2*2*2*4*4*4)
	// Every position keeps the base bit width.
	for _, p := range grid[:8] {
		assert.Equal(t, base.Bits, p.TermSim.Bits)
	}
}

const gridVectors = `4 2
cat 1 0
kitten 0.9 0.43
bond 0 1
yield 0.1 0.99
`

func TestGridSearch(t *testing.T) {
	emb, err := embeddings.ReadText(strings.NewReader(gridVectors), true)
	require.NoError(t, err)
	common := corpus.NewDictionary([][]string{{"cat", "kitten", "bond", "yield"}})

	train, err := corpus.FromDocuments("mini_train",
		[]string{"cat cat kitten", "bond yield", "kitten cat", "yield bond bond"},
		[]int{0, 1, 0, 1}, corpus.TokenizerOptions{})
	require.NoError(t, err)
	validation, err := corpus.FromDocuments("mini_validation",
		[]string{"kitten", "bond"}, []int{0, 1}, corpus.TokenizerOptions{})
	require.NoError(t, err)
	test, err := corpus.FromDocuments("mini_test",
		[]string{"cat kitten", "yield"}, []int{0, 1}, corpus.TokenizerOptions{})
	require.NoError(t, err)

	factory := func(p docsim.Params) (*docsim.Engine, error) {
		return &docsim.Engine{Common: common, Emb: emb, Jobs: 1, Logger: zerolog.Nop()}, nil
	}

	best, err := GridSearch(context.Background(), factory, train, validation, test, docsim.DefaultParams(), zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 1.0, best.Accuracy, "separable toy data classifies perfectly")
	assert.Equal(t, 2, best.NumTest)
	assert.NotZero(t, best.Params.K)
}
