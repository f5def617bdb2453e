// Package report aggregates classification results into a summary table
// and a machine-readable summary file.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/mirlab/softsim/internal/artifact"
	"github.com/mirlab/softsim/internal/knn"
)

// SummaryFile is the aggregate written next to the per-run results.
const SummaryFile = "summary.json"

// Collect loads every result artifact under dir, best first per dataset.
func Collect(dir string) ([]knn.Result, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json.zst"))
	if err != nil {
		return nil, err
	}
	var out []knn.Result
	for _, p := range paths {
		var r knn.Result
		if err := artifact.LoadJSON(p, &r); err != nil {
			return nil, fmt.Errorf("cannot load result %s: %w", p, err)
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Dataset != out[b].Dataset {
			return out[a].Dataset < out[b].Dataset
		}
		return out[a].Accuracy > out[b].Accuracy
	})
	return out, nil
}

// Render writes results as an aligned table.
func Render(w io.Writer, results []knn.Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATASET\tSPACE\tWEIGHTS\tMEASURE\tBITS\tSLOPE\tK\tACCURACY")
	for _, r := range results {
		space := string(r.Params.Space)
		if r.Baseline {
			space = "random"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%.1f\t%d\t%.4f\n",
			r.Dataset, space, r.Params.Weights, r.Params.Measure,
			r.Params.Bits, r.Params.Slope, r.Params.K, r.Accuracy)
	}
	return tw.Flush()
}

// WriteSummary persists results as plain indented JSON so the file stays
// readable without tooling.
func WriteSummary(dir string, results []knn.Result) (string, error) {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", fmt.Errorf("cannot marshal summary: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, SummaryFile)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("cannot write summary %s: %w", path, err)
	}
	return path, nil
}

// ResultPath names the artifact for one evaluated configuration.
func ResultPath(dir, dataset, space, weightsScheme string) string {
	name := fmt.Sprintf("%s-%s-%s.json.zst", dataset, space, weightsScheme)
	return filepath.Join(dir, strings.ReplaceAll(name, string(filepath.Separator), "_"))
}
