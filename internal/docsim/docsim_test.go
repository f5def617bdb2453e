package docsim

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirlab/softsim/internal/corpus"
	"github.com/mirlab/softsim/internal/embeddings"
	"github.com/mirlab/softsim/internal/termsim"
	"github.com/mirlab/softsim/internal/weights"
)

const testVectors = `5 2
cat 1 0
kitten 0.96 0.28
dog 0.8 0.6
bond 0 1
yield 0.1 0.995
`

func newTestEngine(t *testing.T, p Params) (*Engine, *corpus.Dataset, *corpus.Dataset) {
	t.Helper()
	emb, err := embeddings.ReadText(strings.NewReader(testVectors), true)
	require.NoError(t, err)
	emb, err = emb.Quantize(p.Bits)
	require.NoError(t, err)

	background := [][]string{
		{"cat", "kitten", "dog"},
		{"bond", "yield"},
		{"cat", "bond"},
	}
	common := corpus.NewDictionary(background)

	collection, err := corpus.FromDocuments("train",
		[]string{"cat kitten cat", "bond yield bond"},
		[]int{0, 1}, corpus.TokenizerOptions{})
	require.NoError(t, err)
	queries, err := corpus.FromDocuments("valid",
		[]string{"kitten dog", "yield bond"},
		[]int{0, 1}, corpus.TokenizerOptions{})
	require.NoError(t, err)

	e := &Engine{
		Common: common,
		Emb:    emb,
		Jobs:   2,
		Logger: zerolog.Nop(),
	}
	if p.Space == SparseSoftVSM {
		e.TermSim = termsim.Build(emb, common, p.TermSim, zerolog.Nop())
	}
	return e, collection, queries
}

func TestVSMSimilarities(t *testing.T) {
	p := DefaultParams()
	e, coll, queries := newTestEngine(t, p)

	sims, err := e.Similarities(context.Background(), coll, queries, p)
	require.NoError(t, err)

	rows, cols := sims.Dims()
	require.Equal(t, 2, rows)
	require.Equal(t, 2, cols)

	// Animal query overlaps the animal document, not the finance one.
	assert.Greater(t, sims.At(0, 0), 0.0)
	assert.Zero(t, sims.At(0, 1))
	// Finance query: "yield bond" vs "bond yield bond".
	assert.Greater(t, sims.At(1, 1), sims.At(1, 0))
	// L2-normalized BOW keeps similarities within [0, 1].
	assert.LessOrEqual(t, sims.At(1, 1), 1.0+1e-12)
}

func TestDenseSoftVSM(t *testing.T) {
	p := DefaultParams()
	p.Space = DenseSoftVSM
	e, coll, queries := newTestEngine(t, p)

	sims, err := e.Similarities(context.Background(), coll, queries, p)
	require.NoError(t, err)

	// Dense projections give nonzero similarity even without term overlap:
	// "kitten dog" vs "bond yield bond" share no terms but live in the same
	// embedding space.
	assert.NotZero(t, sims.At(0, 1))
	// Same-topic similarity still dominates.
	assert.Greater(t, sims.At(0, 0), sims.At(0, 1))
	assert.Greater(t, sims.At(1, 1), sims.At(1, 0))
}

func TestSparseSoftVSM(t *testing.T) {
	p := DefaultParams()
	p.Space = SparseSoftVSM
	p.TermSim.Dominant = false
	e, coll, queries := newTestEngine(t, p)

	sims, err := e.Similarities(context.Background(), coll, queries, p)
	require.NoError(t, err)

	// Soft cosine credits cat↔kitten so the animal pair scores higher than
	// plain VSM would with partial overlap.
	vsmParams := DefaultParams()
	eVSM, _, _ := newTestEngine(t, vsmParams)
	plain, err := eVSM.Similarities(context.Background(), coll, queries, vsmParams)
	require.NoError(t, err)
	assert.Greater(t, sims.At(0, 0), plain.At(0, 0))

	// Soft cosine of a document with itself is 1.
	self, err := e.Similarities(context.Background(), coll, coll, p)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, self.At(0, 0), 1e-9)
}

func TestTFIDFWeighting(t *testing.T) {
	p := DefaultParams()
	p.Weights = weights.TFIDF
	p.Slope = 0.5
	e, coll, queries := newTestEngine(t, p)

	sims, err := e.Similarities(context.Background(), coll, queries, p)
	require.NoError(t, err)
	rows, cols := sims.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 2, cols)
	assert.NotZero(t, sims.At(0, 0))
}

func TestTFIDFUsesCollectionStatistics(t *testing.T) {
	p := DefaultParams()
	p.Weights = weights.TFIDF
	p.Slope = 0.5
	e, coll, _ := newTestEngine(t, p)

	single, err := corpus.FromDocuments("query",
		[]string{"kitten dog"}, nil, corpus.TokenizerOptions{})
	require.NoError(t, err)
	padded, err := corpus.FromDocuments("query",
		[]string{"kitten dog", "bond yield", "cat bond yield"},
		nil, corpus.TokenizerOptions{})
	require.NoError(t, err)

	simsSingle, err := e.Similarities(context.Background(), coll, single, p)
	require.NoError(t, err)
	simsPadded, err := e.Similarities(context.Background(), coll, padded, p)
	require.NoError(t, err)

	// Query weights come from the collection's term statistics, so a lone
	// query document still scores against terms the collection knows.
	assert.NotZero(t, simsSingle.At(0, 0))
	// And the score of a fixed pair does not move when unrelated documents
	// join the query set.
	assert.InDelta(t, simsSingle.At(0, 0), simsPadded.At(0, 0), 1e-12)
}

func TestRelaxedWMD(t *testing.T) {
	p := DefaultParams()
	p.Measure = WMD
	e, coll, queries := newTestEngine(t, p)

	sims, err := e.Similarities(context.Background(), coll, queries, p)
	require.NoError(t, err)

	// Identical documents have zero distance → +Inf inverse similarity.
	self, err := e.Similarities(context.Background(), coll, coll, p)
	require.NoError(t, err)
	assert.True(t, math.IsInf(self.At(0, 0), 1))

	// Near-topic pairs are closer than cross-topic pairs.
	assert.Greater(t, sims.At(0, 0), sims.At(0, 1))
	assert.Greater(t, sims.At(1, 1), sims.At(1, 0))
}

func TestParamsValidate(t *testing.T) {
	p := DefaultParams()
	require.NoError(t, p.Validate())

	bad := p
	bad.Space = Space("hilbert")
	assert.Error(t, bad.Validate())

	bad = p
	bad.Measure = WMD
	bad.Space = DenseSoftVSM
	assert.Error(t, bad.Validate())

	bad = p
	bad.Bits = 16
	assert.Error(t, bad.Validate())

	bad = p
	bad.Slope = 1.5
	assert.Error(t, bad.Validate())
}

func TestSimilaritiesCancelled(t *testing.T) {
	p := DefaultParams()
	e, coll, queries := newTestEngine(t, p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Similarities(ctx, coll, queries, p)
	assert.ErrorIs(t, err, context.Canceled)
}
