package corpus

import (
	"math"

	"github.com/mirlab/softsim/internal/sparse"
)

// Dictionary maps tokens to dense integer ids and tracks document
// frequencies. Ids are assigned in order of first appearance, so a
// dictionary built from the same corpus is always identical.
type Dictionary struct {
	Tokens  []string       `json:"tokens"`
	IDs     map[string]int `json:"-"`
	DocFreq []int          `json:"doc_freq"`
	NumDocs int            `json:"num_docs"`
}

// NewDictionary builds a Dictionary from a tokenized corpus.
func NewDictionary(docs [][]string) *Dictionary {
	d := &Dictionary{IDs: make(map[string]int)}
	for _, doc := range docs {
		d.AddDocument(doc)
	}
	return d
}

// AddDocument registers one document's tokens.
func (d *Dictionary) AddDocument(doc []string) {
	seen := make(map[int]struct{}, len(doc))
	for _, tok := range doc {
		id, ok := d.IDs[tok]
		if !ok {
			id = len(d.Tokens)
			d.IDs[tok] = id
			d.Tokens = append(d.Tokens, tok)
			d.DocFreq = append(d.DocFreq, 0)
		}
		seen[id] = struct{}{}
	}
	for id := range seen {
		d.DocFreq[id]++
	}
	d.NumDocs++
}

// Len returns the vocabulary size.
func (d *Dictionary) Len() int { return len(d.Tokens) }

// ID returns the id for token, or -1 when unknown.
func (d *Dictionary) ID(token string) int {
	if id, ok := d.IDs[token]; ok {
		return id
	}
	return -1
}

// Bow converts a tokenized document to a sparse term-count vector. Tokens
// outside the dictionary are dropped.
func (d *Dictionary) Bow(doc []string) sparse.Vector {
	counts := make(map[int]float64)
	for _, tok := range doc {
		if id, ok := d.IDs[tok]; ok {
			counts[id]++
		}
	}
	return sparse.NewVector(counts)
}

// IDF returns the inverse document frequency for a term id,
// log2(numDocs / docFreq). Unseen terms get zero.
func (d *Dictionary) IDF(id int) float64 {
	if id < 0 || id >= len(d.DocFreq) || d.DocFreq[id] == 0 || d.NumDocs == 0 {
		return 0
	}
	return math.Log2(float64(d.NumDocs) / float64(d.DocFreq[id]))
}

// rebuildIDs restores the token → id map after deserialization.
func (d *Dictionary) rebuildIDs() {
	d.IDs = make(map[string]int, len(d.Tokens))
	for id, tok := range d.Tokens {
		d.IDs[tok] = id
	}
}
