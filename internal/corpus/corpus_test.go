package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirlab/softsim/internal/config"
)

func TestTokenize(t *testing.T) {
	got := Tokenize("The 2nd quick-brown FOX, obviously!", TokenizerOptions{})
	assert.Equal(t, []string{"the", "nd", "quick", "brown", "fox", "obviously"}, got)
}

func TestTokenizeDeaccent(t *testing.T) {
	got := Tokenize("Élan café", TokenizerOptions{Deaccent: true})
	assert.Equal(t, []string{"elan", "cafe"}, got)

	// Without deaccenting the marks survive.
	got = Tokenize("café", TokenizerOptions{})
	assert.Equal(t, []string{"café"}, got)
}

func TestDictionary(t *testing.T) {
	docs := [][]string{
		{"grain", "ship", "grain"},
		{"ship", "trade"},
	}
	d := NewDictionary(docs)

	require.Equal(t, 3, d.Len())
	assert.Equal(t, 0, d.ID("grain"))
	assert.Equal(t, 1, d.ID("ship"))
	assert.Equal(t, 2, d.ID("trade"))
	assert.Equal(t, -1, d.ID("crude"))

	assert.Equal(t, 2, d.NumDocs)
	assert.Equal(t, []int{1, 2, 1}, d.DocFreq)
	assert.Equal(t, 1.0, d.IDF(0)) // log2(2/1)
	assert.Equal(t, 0.0, d.IDF(1)) // log2(2/2)

	bow := d.Bow([]string{"grain", "grain", "trade", "unknown"})
	assert.Equal(t, []int{0, 2}, bow.Indices)
	assert.Equal(t, []float64{2, 1}, bow.Values)
}

func TestDatasetSaveLoad(t *testing.T) {
	ds, err := FromDocuments("mini", []string{"acq and crude", "crude oil"}, []int{0, 1}, TokenizerOptions{})
	require.NoError(t, err)
	assert.InDelta(t, (11.0+8.0)/2.0, ds.AvgDL, 1e-9)

	dir := t.TempDir()
	require.NoError(t, ds.Save(dir))

	got, err := LoadDataset(dir, "mini")
	require.NoError(t, err)
	assert.Equal(t, ds.Docs, got.Docs)
	assert.Equal(t, ds.Labels, got.Labels)
	assert.Equal(t, ds.AvgDL, got.AvgDL)
	// The id map is rebuilt after load.
	assert.Equal(t, ds.Dict.ID("crude"), got.Dict.ID("crude"))
}

func TestFromDocumentsLabelMismatch(t *testing.T) {
	_, err := FromDocuments("bad", []string{"a"}, []int{0, 1}, TokenizerOptions{})
	assert.Error(t, err)
}

func writeDataFile(t *testing.T, dir string, parts ...string) string {
	t.Helper()
	p := filepath.Join(append([]string{dir}, parts[:len(parts)-1]...)...)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(parts[len(parts)-1]), 0o644))
	return p
}

func TestLoadCSV(t *testing.T) {
	dir := t.TempDir()
	writeDataFile(t, dir, "tweets.csv",
		"Sentiment,TweetText\npositive,great launch\nirrelevant,spam\nnegative,bad day\n")

	spec := config.DatasetSpec{
		Name:       "twitter",
		Loader:     "csv",
		Path:       "tweets.csv",
		TextField:  "TweetText",
		LabelField: "Sentiment",
		Categories: []string{"positive", "neutral", "negative"},
	}
	raw, err := LoadRaw(dir, spec)
	require.NoError(t, err)
	// The irrelevant row is dropped.
	assert.Equal(t, []string{"great launch", "bad day"}, raw.Texts)
	assert.Equal(t, []int{0, 2}, raw.Labels)
}

func TestLoadDirTree(t *testing.T) {
	dir := t.TempDir()
	writeDataFile(t, dir, "bbc", "sport", "001.txt", "match report")
	writeDataFile(t, dir, "bbc", "sport", "002.txt", "transfer news")
	writeDataFile(t, dir, "bbc", "tech", "001.txt", "chip design")

	spec := config.DatasetSpec{
		Name:       "bbc",
		Loader:     "dirtree",
		Path:       "bbc",
		Categories: []string{"sport", "tech"},
	}
	raw, err := LoadRaw(dir, spec)
	require.NoError(t, err)
	assert.Equal(t, []string{"match report", "transfer news", "chip design"}, raw.Texts)
	assert.Equal(t, []int{0, 0, 1}, raw.Labels)
}

func TestLoadJSONLSingleFile(t *testing.T) {
	dir := t.TempDir()
	writeDataFile(t, dir, "reviews.jsonl",
		`{"reviewText":"good book","category":"Books"}`+"\n"+
			`{"reviewText":"loud speaker","category":"Electronics"}`+"\n"+
			`{"reviewText":"skip me","category":"Garden"}`+"\n")

	spec := config.DatasetSpec{
		Name:       "amazon",
		Loader:     "jsonl",
		Path:       "reviews.jsonl",
		TextField:  "reviewText",
		LabelField: "category",
		Categories: []string{"Books", "Electronics"},
	}
	raw, err := LoadRaw(dir, spec)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, raw.Labels)
	assert.Equal(t, "good book", raw.Texts[0])
}

func TestLoadLines(t *testing.T) {
	dir := t.TempDir()
	writeDataFile(t, dir, "fil8", "anarchism originated\nas a term of abuse\n")

	raw, err := LoadRaw(dir, config.DatasetSpec{Name: "fil8", Loader: "lines", Path: "fil8"})
	require.NoError(t, err)
	assert.Len(t, raw.Texts, 2)
	assert.Nil(t, raw.Labels)
}

func TestSplitDeterministic(t *testing.T) {
	raw := &Raw{}
	for i := 0; i < 100; i++ {
		raw.Texts = append(raw.Texts, string(rune('a'+i%26)))
		raw.Labels = append(raw.Labels, i%4)
	}
	spec := config.DatasetSpec{
		Name:               "mini",
		TrainSize:          0.7,
		TestSize:           0.3,
		ValidationFraction: 0.2,
	}

	a, err := Split(raw, spec, 42)
	require.NoError(t, err)
	b, err := Split(raw, spec, 42)
	require.NoError(t, err)

	assert.Equal(t, a.Train.Texts, b.Train.Texts)
	assert.Equal(t, a.Test.Labels, b.Test.Labels)
	assert.Len(t, a.Train.Texts, 56)
	assert.Len(t, a.Validation.Texts, 14)
	assert.Len(t, a.Test.Texts, 30)

	// A different seed shuffles differently.
	c, err := Split(raw, spec, 7)
	require.NoError(t, err)
	assert.NotEqual(t, a.Test.Texts, c.Test.Texts)
}

func TestSplitAbsoluteSizes(t *testing.T) {
	raw := &Raw{Texts: make([]string, 50), Labels: make([]int, 50)}
	spec := config.DatasetSpec{Name: "abs", TrainSize: 30, TestSize: 20, ValidationFraction: 0.2}

	got, err := Split(raw, spec, 42)
	require.NoError(t, err)
	assert.Len(t, got.Train.Texts, 24)
	assert.Len(t, got.Validation.Texts, 6)
	assert.Len(t, got.Test.Texts, 20)

	spec.TestSize = 30
	_, err = Split(raw, spec, 42)
	assert.Error(t, err)
}
