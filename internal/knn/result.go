package knn

import (
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/mirlab/softsim/internal/corpus"
	"github.com/mirlab/softsim/internal/docsim"
)

// Result records one classification evaluation.
type Result struct {
	RunID     string        `json:"run_id"`
	Dataset   string        `json:"dataset"`
	Params    docsim.Params `json:"params"`
	Baseline  bool          `json:"baseline,omitempty"`
	Accuracy  float64       `json:"accuracy"`
	NumTest   int           `json:"num_test"`
	Elapsed   time.Duration `json:"elapsed_ns"`
	CreatedAt time.Time     `json:"created_at"`
}

// Better reports whether r beats other, by accuracy.
func (r Result) Better(other Result) bool { return r.Accuracy > other.Accuracy }

// Evaluate classifies eval against train using a precomputed similarity
// matrix and wraps the outcome in a Result.
func Evaluate(sims *mat.Dense, train, eval *corpus.Dataset, p docsim.Params, elapsed time.Duration) Result {
	pred := Predict(sims, train.Labels, p.K)
	return Result{
		RunID:     uuid.NewString(),
		Dataset:   train.Name,
		Params:    p,
		Accuracy:  Accuracy(pred, eval.Labels),
		NumTest:   len(eval.Labels),
		Elapsed:   elapsed,
		CreatedAt: time.Now().UTC(),
	}
}

// RandomBaseline predicts uniformly over the label set seen in train,
// seeded for reproducibility.
func RandomBaseline(train, eval *corpus.Dataset, seed int64) Result {
	classSet := make(map[int]struct{})
	for _, l := range train.Labels {
		classSet[l] = struct{}{}
	}
	classes := make([]int, 0, len(classSet))
	for l := range classSet {
		classes = append(classes, l)
	}
	// Map iteration order is random; fix it.
	sort.Ints(classes)

	rng := rand.New(rand.NewSource(seed))
	pred := make([]int, len(eval.Labels))
	for i := range pred {
		pred[i] = classes[rng.Intn(len(classes))]
	}
	return Result{
		RunID:     uuid.NewString(),
		Dataset:   train.Name,
		Baseline:  true,
		Accuracy:  Accuracy(pred, eval.Labels),
		NumTest:   len(eval.Labels),
		CreatedAt: time.Now().UTC(),
	}
}
