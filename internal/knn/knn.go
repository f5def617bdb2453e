// Package knn evaluates classification over document-similarity matrices
// with a k-nearest-neighbor vote.
package knn

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Vote predicts the label for one query given its similarity row against
// the training collection. Ties are broken by summed similarity, then by
// the lowest label.
func Vote(row []float64, trainLabels []int, k int) int {
	type cand struct {
		idx int
		sim float64
	}
	cands := make([]cand, len(row))
	for i, s := range row {
		cands[i] = cand{idx: i, sim: s}
	}
	sort.SliceStable(cands, func(a, b int) bool { return cands[a].sim > cands[b].sim })
	if k > len(cands) {
		k = len(cands)
	}

	votes := make(map[int]int)
	mass := make(map[int]float64)
	for _, c := range cands[:k] {
		label := trainLabels[c.idx]
		votes[label]++
		mass[label] += c.sim
	}

	best, bestVotes, bestMass := -1, -1, 0.0
	for label, n := range votes {
		switch {
		case n > bestVotes,
			n == bestVotes && mass[label] > bestMass,
			n == bestVotes && mass[label] == bestMass && label < best:
			best, bestVotes, bestMass = label, n, mass[label]
		}
	}
	return best
}

// Predict classifies every query row of sims.
func Predict(sims *mat.Dense, trainLabels []int, k int) []int {
	rows, cols := sims.Dims()
	out := make([]int, rows)
	row := make([]float64, cols)
	for q := 0; q < rows; q++ {
		mat.Row(row, q, sims)
		out[q] = Vote(row, trainLabels, k)
	}
	return out
}

// Accuracy is the fraction of matching predictions.
func Accuracy(pred, truth []int) float64 {
	if len(truth) == 0 {
		return 0
	}
	var hits int
	for i, p := range pred {
		if p == truth[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(truth))
}
