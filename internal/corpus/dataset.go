package corpus

import (
	"fmt"
	"path/filepath"

	"github.com/mirlab/softsim/internal/artifact"
)

// Dataset is a tokenized corpus with a dictionary, the average character
// length of a document, and optional class labels.
type Dataset struct {
	Name   string     `json:"name"`
	Docs   [][]string `json:"docs"`
	Labels []int      `json:"labels,omitempty"`
	AvgDL  float64    `json:"avgdl"`
	Dict   *Dictionary `json:"dict"`
}

// FromDocuments tokenizes texts and builds a Dataset. labels may be nil for
// an unlabeled background corpus.
func FromDocuments(name string, texts []string, labels []int, opts TokenizerOptions) (*Dataset, error) {
	if labels != nil && len(labels) != len(texts) {
		return nil, fmt.Errorf("dataset %s: %d labels for %d documents", name, len(labels), len(texts))
	}
	docs := make([][]string, len(texts))
	var chars int
	for i, text := range texts {
		docs[i] = Tokenize(text, opts)
		for _, tok := range docs[i] {
			chars += len(tok)
		}
	}
	var avgdl float64
	if len(docs) > 0 {
		avgdl = float64(chars) / float64(len(docs))
	}
	return &Dataset{
		Name:   name,
		Docs:   docs,
		Labels: labels,
		AvgDL:  avgdl,
		Dict:   NewDictionary(docs),
	}, nil
}

// DocLen returns the character length of document i (sum of token lengths).
func (ds *Dataset) DocLen(i int) float64 {
	var n int
	for _, tok := range ds.Docs[i] {
		n += len(tok)
	}
	return float64(n)
}

// datasetPath returns the artifact path for a dataset name under dir.
func datasetPath(dir, name string) string {
	return filepath.Join(dir, name+".json.zst")
}

// Save writes the dataset as a compressed artifact under dir.
func (ds *Dataset) Save(dir string) error {
	return artifact.SaveJSON(datasetPath(dir, ds.Name), ds)
}

// LoadDataset reads a dataset artifact from dir by name.
func LoadDataset(dir, name string) (*Dataset, error) {
	var ds Dataset
	if err := artifact.LoadJSON(datasetPath(dir, name), &ds); err != nil {
		return nil, err
	}
	ds.Name = name
	if ds.Dict != nil {
		ds.Dict.rebuildIDs()
	}
	return &ds, nil
}
