package docsim

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/mirlab/softsim/internal/corpus"
	"github.com/mirlab/softsim/internal/embeddings"
	"github.com/mirlab/softsim/internal/sparse"
)

// wmdContext caches the common-vocabulary embedding matrix and per-row
// squared norms for Euclidean distances between term vectors.
type wmdContext struct {
	matrix  *mat.Dense
	sqNorms []float64
}

func newWMDContext(emb *embeddings.Embeddings, dict *corpus.Dictionary) *wmdContext {
	m := emb.Translate(dict)
	rows, _ := m.Dims()
	sq := make([]float64, rows)
	for i := 0; i < rows; i++ {
		row := m.RawRowView(i)
		var s float64
		for _, v := range row {
			s += v * v
		}
		sq[i] = s
	}
	return &wmdContext{matrix: m, sqNorms: sq}
}

// dist returns the Euclidean distance between the vectors of terms a and b.
func (c *wmdContext) dist(a, b int) float64 {
	va := c.matrix.RawRowView(a)
	vb := c.matrix.RawRowView(b)
	var dot float64
	for i, v := range va {
		dot += v * vb[i]
	}
	d := c.sqNorms[a] + c.sqNorms[b] - 2*dot
	if d < 0 {
		d = 0
	}
	return math.Sqrt(d)
}

// inverseRelaxedWMD returns the inverse of the relaxed word mover's distance
// between two L1-normalized documents: the larger of the two one-sided
// nearest-neighbor transport lower bounds. A zero distance maps to +Inf,
// documents without shared vocabulary mass to 0.
func inverseRelaxedWMD(c *wmdContext, query, collection sparse.Vector) float64 {
	if query.Len() == 0 || collection.Len() == 0 {
		return 0
	}
	d := math.Max(
		oneSidedWMD(c, query, collection),
		oneSidedWMD(c, collection, query),
	)
	if d == 0 {
		return math.Inf(1)
	}
	return 1 / d
}

// oneSidedWMD moves all of from's mass to each term's nearest neighbor in
// to, the relaxation of the transportation problem with only the outgoing
// marginal constraint.
func oneSidedWMD(c *wmdContext, from, to sparse.Vector) float64 {
	var cost float64
	for k, i := range from.Indices {
		w := from.Values[k]
		if w == 0 {
			continue
		}
		best := math.Inf(1)
		for _, j := range to.Indices {
			if d := c.dist(i, j); d < best {
				best = d
			}
		}
		cost += w * best
	}
	return cost
}
