package embeddings

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/mirlab/softsim/internal/corpus"
)

// Translate reorders the embedding matrix to dictionary ids. Words without
// an embedding become zero rows, words outside the dictionary are dropped.
func (e *Embeddings) Translate(dict *corpus.Dictionary) *mat.Dense {
	out := mat.NewDense(dict.Len(), e.dim, nil)
	for id, token := range dict.Tokens {
		if row, ok := e.index[token]; ok {
			out.SetRow(id, e.matrix.RawRowView(row))
		}
	}
	return out
}

// Quantize derives a reduced-precision copy of the embeddings. bits == 32 is
// the identity; bits == 1 replaces every component with its sign, scaled so
// rows keep unit L2 norm.
func (e *Embeddings) Quantize(bits int) (*Embeddings, error) {
	switch bits {
	case 32:
		return e, nil
	case 1:
	default:
		return nil, fmt.Errorf("unsupported quantization: %d bits", bits)
	}

	scale := 1 / math.Sqrt(float64(e.dim))
	q := &Embeddings{
		words:  append([]string(nil), e.words...),
		index:  make(map[string]int, len(e.index)),
		matrix: mat.NewDense(e.Len(), e.dim, nil),
		dim:    e.dim,
	}
	for w, row := range e.index {
		q.index[w] = row
	}
	vec := make([]float64, e.dim)
	for row := 0; row < e.Len(); row++ {
		src := e.matrix.RawRowView(row)
		for i, v := range src {
			if math.Signbit(v) {
				vec[i] = -scale
			} else {
				vec[i] = scale
			}
		}
		q.matrix.SetRow(row, vec)
	}
	return q, nil
}
