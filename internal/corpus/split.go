package corpus

import (
	"fmt"
	"math/rand"

	"github.com/mirlab/softsim/internal/config"
)

// SplitResult holds the three partitions of a labeled corpus.
type SplitResult struct {
	Train, Validation, Test *Raw
}

// resolveSize turns a fractional or absolute size into a document count.
func resolveSize(size float64, total int) int {
	if size < 1 {
		return int(size * float64(total))
	}
	return int(size)
}

// Split partitions raw into train, validation, and test sets. The
// train/test cut is a seeded shuffle; the validation set is then the tail of
// the training portion, without reshuffling, matching how the experiment
// carved its splits.
func Split(raw *Raw, spec config.DatasetSpec, seed int64) (*SplitResult, error) {
	total := len(raw.Texts)
	if total == 0 {
		return nil, fmt.Errorf("dataset %s: empty corpus", spec.Name)
	}
	trainN := resolveSize(spec.TrainSize, total)
	testN := resolveSize(spec.TestSize, total)
	if trainN+testN > total {
		return nil, fmt.Errorf("dataset %s: split sizes %d+%d exceed corpus size %d", spec.Name, trainN, testN, total)
	}

	perm := rand.New(rand.NewSource(seed)).Perm(total)

	pick := func(idx []int) *Raw {
		out := &Raw{
			Texts:  make([]string, len(idx)),
			Labels: make([]int, len(idx)),
		}
		for i, j := range idx {
			out.Texts[i] = raw.Texts[j]
			out.Labels[i] = raw.Labels[j]
		}
		return out
	}

	trainAndValidation := perm[:trainN]
	test := perm[trainN : trainN+testN]

	validN := int(spec.ValidationFraction * float64(trainN))
	cut := trainN - validN

	return &SplitResult{
		Train:      pick(trainAndValidation[:cut]),
		Validation: pick(trainAndValidation[cut:]),
		Test:       pick(test),
	}, nil
}
