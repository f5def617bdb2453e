package embeddings

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// WordSimilarity is one nearest-neighbor query result.
type WordSimilarity struct {
	Word       string
	Similarity float64
}

// Similar returns the limit words most similar to word by inner product,
// excluding the word itself. Vectors are assumed normalized.
func (e *Embeddings) Similar(word string, limit int) ([]WordSimilarity, error) {
	vec, ok := e.Vector(word)
	if !ok {
		return nil, fmt.Errorf("unknown word: %s", word)
	}
	return e.nearest(vec, map[string]struct{}{word: {}}, limit), nil
}

// Analogy answers "word1 is to word2 as word3 is to ?" by offset arithmetic
// over the three query vectors.
func (e *Embeddings) Analogy(word1, word2, word3 string, limit int) ([]WordSimilarity, error) {
	v1, ok := e.Vector(word1)
	if !ok {
		return nil, fmt.Errorf("unknown word: %s", word1)
	}
	v2, ok := e.Vector(word2)
	if !ok {
		return nil, fmt.Errorf("unknown word: %s", word2)
	}
	v3, ok := e.Vector(word3)
	if !ok {
		return nil, fmt.Errorf("unknown word: %s", word3)
	}

	target := make([]float64, e.dim)
	floats.SubTo(target, v2, v1)
	floats.Add(target, v3)

	skips := map[string]struct{}{word1: {}, word2: {}, word3: {}}
	return e.nearest(target, skips, limit), nil
}

func (e *Embeddings) nearest(target []float64, skips map[string]struct{}, limit int) []WordSimilarity {
	results := make([]WordSimilarity, 0, e.Len())
	for row, word := range e.words {
		if _, ok := skips[word]; ok {
			continue
		}
		sim := floats.Dot(e.matrix.RawRowView(row), target)
		results = append(results, WordSimilarity{Word: word, Similarity: sim})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if limit < len(results) {
		results = results[:limit]
	}
	return results
}
