// Package pipeline runs the experiment's stage graph with content-based
// caching: a stage whose inputs, parameters, and upstream stages are
// unchanged is skipped, and its outputs are restored from the object cache
// when the workspace copies went missing.
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/mirlab/softsim/internal/config"
	"github.com/mirlab/softsim/internal/report"
	"github.com/mirlab/softsim/internal/termsim"
)

// Stage is one node of the pipeline graph. Deps and Outs are
// workspace-relative paths; edges between stages are derived from them.
type Stage struct {
	Runner string         `yaml:"runner"`
	Params map[string]any `yaml:"params,omitempty"`
	Deps   []string       `yaml:"deps,omitempty"`
	Outs   []string       `yaml:"outs,omitempty"`
}

// Pipeline is the parsed pipeline.yaml.
type Pipeline struct {
	Stages map[string]*Stage `yaml:"stages"`
}

// Path returns the location of pipeline.yaml under root.
func Path(root string) string { return filepath.Join(root, config.PipelineFile) }

// Load reads and parses pipeline.yaml from root.
func Load(root string) (*Pipeline, error) {
	data, err := os.ReadFile(Path(root))
	if err != nil {
		return nil, fmt.Errorf("cannot read pipeline %s: %w", Path(root), err)
	}
	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", Path(root), err)
	}
	if len(p.Stages) == 0 {
		return nil, fmt.Errorf("pipeline %s defines no stages", Path(root))
	}
	return &p, nil
}

// Save marshals p and writes it to pipeline.yaml under root.
func Save(root string, p *Pipeline) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("cannot marshal pipeline: %w", err)
	}
	if err := os.WriteFile(Path(root), data, 0o644); err != nil {
		return fmt.Errorf("cannot write pipeline %s: %w", Path(root), err)
	}
	return nil
}

// Names returns the stage names in sorted order, for deterministic walks.
func (p *Pipeline) Names() []string {
	names := make([]string, 0, len(p.Stages))
	for name := range p.Stages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// splitSuffixes name the three partitions every dataset is carved into.
var splitSuffixes = []string{"train", "validation", "test"}

// CommonName is the dataset artifact holding the shared background
// vocabulary every similarity space is expressed in.
const CommonName = "common"

// defaultSpaces and defaultWeights are the configurations the results stage
// evaluates when pipeline.yaml does not narrow them down.
var (
	defaultSpaces  = []string{"vsm", "dense_soft_vsm", "sparse_soft_vsm"}
	defaultWeights = []string{"bow", "binary", "tfidf"}
)

// vectorsFile names the text vectors artifact for a bit width.
func vectorsFile(cfg *config.Config, bits int) string {
	return filepath.Join(cfg.VectorsDir, fmt.Sprintf("vectors-%dbit.txt", bits))
}

// datasetFile names a dataset artifact under the corpora directory.
func datasetFile(cfg *config.Config, name string) string {
	return filepath.Join(cfg.CorporaDir, name+".json.zst")
}

// Default derives the standard five-stage pipeline from cfg.
func Default(cfg *config.Config) *Pipeline {
	corporaDeps := []string{config.ConfigFile}
	var corporaOuts []string
	for _, ds := range cfg.Datasets {
		corporaDeps = append(corporaDeps, ds.Path)
		for _, suffix := range splitSuffixes {
			corporaOuts = append(corporaOuts, datasetFile(cfg, ds.Name+"_"+suffix))
		}
	}
	if cfg.BackgroundCorpus != "" {
		corporaDeps = append(corporaDeps, cfg.BackgroundCorpus)
	}
	corporaOuts = append(corporaOuts, datasetFile(cfg, CommonName))

	var vectorsOuts []string
	for _, bits := range cfg.Embeddings.Bits {
		vectorsOuts = append(vectorsOuts, vectorsFile(cfg, bits))
	}

	var matricesOuts []string
	for _, bits := range cfg.Embeddings.Bits {
		tp := termsim.DefaultParams()
		tp.Bits = bits
		matricesOuts = append(matricesOuts, termsim.CachePath(cfg.MatricesDir, tp))
	}

	var resultsOuts []string
	for _, ds := range cfg.Datasets {
		resultsOuts = append(resultsOuts, report.ResultPath(cfg.ResultsDir, ds.Name, "random", "baseline"))
		for _, space := range defaultSpaces {
			for _, scheme := range defaultWeights {
				resultsOuts = append(resultsOuts, report.ResultPath(cfg.ResultsDir, ds.Name, space, scheme))
			}
		}
	}

	return &Pipeline{Stages: map[string]*Stage{
		"corpora": {
			Runner: "corpora",
			Deps:   corporaDeps,
			Outs:   corporaOuts,
		},
		"vectors": {
			Runner: "vectors",
			Deps:   []string{config.ConfigFile, cfg.Embeddings.File},
			Outs:   vectorsOuts,
		},
		"matrices": {
			Runner: "matrices",
			Deps:   append([]string{datasetFile(cfg, CommonName)}, vectorsOuts...),
			Outs:   matricesOuts,
		},
		"results": {
			Runner: "results",
			Deps:   append(append([]string{}, corporaOuts...), vectorsOuts...),
			Outs:   resultsOuts,
		},
		"report": {
			Runner: "report",
			Deps:   resultsOuts,
			Outs:   []string{filepath.Join(cfg.ResultsDir, report.SummaryFile)},
		},
	}}
}
