package docsim

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/mirlab/softsim/internal/corpus"
	"github.com/mirlab/softsim/internal/embeddings"
	"github.com/mirlab/softsim/internal/sparse"
	"github.com/mirlab/softsim/internal/weights"
)

// Engine computes document similarities against a shared background
// dictionary. Emb must already be quantized to the bit width the caller
// evaluates, and TermSim must match the sparse soft-VSM parameters in use.
type Engine struct {
	Common  *corpus.Dictionary
	Emb     *embeddings.Embeddings
	TermSim *sparse.Matrix
	Jobs    int
	Logger  zerolog.Logger
}

// Similarities returns a queries×collection matrix of document similarities
// under p. Row i holds the similarities of query document i to every
// collection document.
func (e *Engine) Similarities(ctx context.Context, collection, queries *corpus.Dataset, p Params) (*mat.Dense, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Space == SparseSoftVSM && e.TermSim == nil {
		return nil, fmt.Errorf("sparse soft vsm needs a term similarity matrix")
	}

	start := time.Now()
	norm := 2
	if p.Measure == WMD {
		norm = 1
	}

	collDocs, err := e.represent(collection, collection, p, norm)
	if err != nil {
		return nil, err
	}
	queryDocs, err := e.represent(queries, collection, p, norm)
	if err != nil {
		return nil, err
	}

	out := mat.NewDense(len(queryDocs), len(collDocs), nil)
	var fill func(q, c int) float64

	switch {
	case p.Measure == WMD:
		dists := newWMDContext(e.Emb, e.Common)
		fill = func(q, c int) float64 {
			return inverseRelaxedWMD(dists, queryDocs[q], collDocs[c])
		}
	case p.Space == VSM:
		fill = func(q, c int) float64 {
			return queryDocs[q].Dot(collDocs[c])
		}
	case p.Space == DenseSoftVSM:
		qDense := e.project(queryDocs)
		cDense := e.project(collDocs)
		fill = func(q, c int) float64 {
			return floats.Dot(qDense[q], cDense[c])
		}
	case p.Space == SparseSoftVSM:
		qSoft := e.softNormalize(queryDocs)
		cSoft := e.softNormalize(collDocs)
		// Precompute S·d per collection document; each pair is then a
		// sparse dot product.
		sd := make([]sparse.Vector, len(cSoft))
		for i, d := range cSoft {
			sd[i] = e.TermSim.MulVector(d)
		}
		fill = func(q, c int) float64 {
			return qSoft[q].Dot(sd[c])
		}
	}

	if err := e.forEachRow(ctx, len(queryDocs), len(collDocs), out, fill); err != nil {
		return nil, err
	}

	pairs := len(queryDocs) * len(collDocs)
	e.Logger.Info().
		Int("pairs", pairs).
		Dur("took", time.Since(start)).
		Str("space", string(p.Space)).
		Str("measure", string(p.Measure)).
		Msg("computed document similarities")
	return out, nil
}

// represent converts every document of ds into a weighted sparse vector in
// common-dictionary ids. TF-IDF statistics always come from stats, the
// collection corpus, so query weights do not move when the query set grows.
func (e *Engine) represent(ds, stats *corpus.Dataset, p Params, norm int) ([]sparse.Vector, error) {
	out := make([]sparse.Vector, len(ds.Docs))

	if p.Weights == weights.TFIDF {
		// Both corpora are weighted with the collection's model and avgdl;
		// only the document length is the query document's own. The weighted
		// documents are translated into the common vocabulary afterwards.
		model := weights.NewModel(stats.Dict)
		for i, doc := range ds.Docs {
			w := model.TFIDF(stats.Dict.Bow(doc))
			w = weights.Pivot(w, p.Slope, stats.AvgDL, ds.DocLen(i))
			out[i] = translate(w, stats.Dict, e.Common)
		}
		return out, nil
	}

	model := weights.NewModel(e.Common)
	for i, doc := range ds.Docs {
		w, err := model.Apply(p.Weights, e.Common.Bow(doc), norm)
		if err != nil {
			return nil, err
		}
		out[i] = w
	}
	return out, nil
}

// translate maps a sparse document from one dictionary's ids to another's,
// dropping terms the target does not know.
func translate(v sparse.Vector, from, to *corpus.Dictionary) sparse.Vector {
	out := make(map[int]float64, v.Len())
	for k, id := range v.Indices {
		if tid := to.ID(from.Tokens[id]); tid >= 0 {
			out[tid] = v.Values[k]
		}
	}
	return sparse.NewVector(out)
}

// project maps sparse documents through the L2-normalized embedding matrix
// and unit-normalizes the dense result.
func (e *Engine) project(docs []sparse.Vector) [][]float64 {
	dense := e.Emb.Translate(e.Common)
	rows, dim := dense.Dims()
	for i := 0; i < rows; i++ {
		row := dense.RawRowView(i)
		if n := floats.Norm(row, 2); n != 0 {
			floats.Scale(1/n, row)
		}
	}

	out := make([][]float64, len(docs))
	for i, d := range docs {
		proj := make([]float64, dim)
		for k, id := range d.Indices {
			floats.AddScaled(proj, d.Values[k], dense.RawRowView(id))
		}
		if n := floats.Norm(proj, 2); n != 0 {
			floats.Scale(1/n, proj)
		}
		out[i] = proj
	}
	return out
}

// softNormalize scales documents to unit soft norm √(dᵀSd). Documents with
// a non-finite or zero soft norm become empty, matching the original's
// zeroing of infinities.
func (e *Engine) softNormalize(docs []sparse.Vector) []sparse.Vector {
	out := make([]sparse.Vector, len(docs))
	for i, d := range docs {
		n := math.Sqrt(e.TermSim.QuadForm(d, d))
		if n == 0 || math.IsInf(n, 0) || math.IsNaN(n) {
			out[i] = sparse.Vector{}
			continue
		}
		out[i] = d.Scale(1 / n)
	}
	return out
}

// forEachRow fills out by fanning query rows over a bounded worker pool.
func (e *Engine) forEachRow(ctx context.Context, nRows, nCols int, out *mat.Dense, fill func(q, c int) float64) error {
	jobs := e.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	rows := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < jobs; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for q := range rows {
				for c := 0; c < nCols; c++ {
					out.Set(q, c, fill(q, c))
				}
			}
		}()
	}

	var err error
	for q := 0; q < nRows; q++ {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
		case rows <- q:
			continue
		}
		break
	}
	close(rows)
	wg.Wait()
	return err
}
