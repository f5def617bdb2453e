package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirlab/softsim/internal/artifact"
	"github.com/mirlab/softsim/internal/docsim"
	"github.com/mirlab/softsim/internal/knn"
)

func sampleResults() []knn.Result {
	base := docsim.DefaultParams()
	tfidf := base
	tfidf.Space = docsim.SparseSoftVSM
	tfidf.K = 9
	return []knn.Result{
		{RunID: "a", Dataset: "bbc", Params: base, Accuracy: 0.91, NumTest: 100},
		{RunID: "b", Dataset: "bbc", Params: tfidf, Accuracy: 0.97, NumTest: 100},
		{RunID: "c", Dataset: "amazon", Params: base, Accuracy: 0.75, NumTest: 200},
	}
}

func TestCollectSorts(t *testing.T) {
	dir := t.TempDir()
	for _, r := range sampleResults() {
		path := ResultPath(dir, r.Dataset, string(r.Params.Space), string(r.Params.Weights))
		require.NoError(t, artifact.SaveJSON(path, r))
	}

	got, err := Collect(dir)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "amazon", got[0].Dataset)
	assert.Equal(t, "bbc", got[1].Dataset)
	assert.Equal(t, 0.97, got[1].Accuracy, "best result per dataset first")
	assert.Equal(t, 0.91, got[2].Accuracy)
}

func TestCollectEmpty(t *testing.T) {
	got, err := Collect(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleResults()))

	out := buf.String()
	assert.Contains(t, out, "DATASET")
	assert.Contains(t, out, "bbc")
	assert.Contains(t, out, "sparse_soft_vsm")
	assert.Contains(t, out, "0.9700")
}

func TestRenderBaseline(t *testing.T) {
	var buf bytes.Buffer
	r := knn.Result{Dataset: "bbc", Params: docsim.DefaultParams(), Baseline: true, Accuracy: 0.2}
	require.NoError(t, Render(&buf, []knn.Result{r}))
	assert.Contains(t, buf.String(), "random")
}

func TestWriteSummary(t *testing.T) {
	dir := t.TempDir()
	results := sampleResults()

	path, err := WriteSummary(dir, results)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, SummaryFile), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var back []knn.Result
	require.NoError(t, json.Unmarshal(data, &back))
	require.Len(t, back, 3)
	assert.Equal(t, results[1].Accuracy, back[1].Accuracy)
}
