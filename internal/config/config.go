package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFile is the name of the workspace configuration file.
const ConfigFile = "softsim.yaml"

// PipelineFile is the name of the stage-graph definition file.
const PipelineFile = "pipeline.yaml"

// StateDir is the workspace-local directory holding pipeline state and the
// object cache.
const StateDir = ".softsim"

// DatasetSpec declares one evaluation dataset and how to load and split it.
type DatasetSpec struct {
	Name   string `yaml:"name"`
	Loader string `yaml:"loader"` // csv | dirtree | jsonl | lines
	Path   string `yaml:"path"`

	// Field mapping for csv/jsonl loaders.
	TextField  string `yaml:"text_field,omitempty"`
	LabelField string `yaml:"label_field,omitempty"`

	// Categories fixes the label→class-number order. For dirtree loaders it
	// also names the per-category subdirectories. Labels outside the list
	// are dropped.
	Categories []string `yaml:"categories,omitempty"`

	// Split sizes: values < 1 are fractions of the corpus, values >= 1 are
	// absolute document counts. Validation is carved out of the training
	// portion.
	TrainSize          float64 `yaml:"train_size"`
	TestSize           float64 `yaml:"test_size"`
	ValidationFraction float64 `yaml:"validation_fraction,omitempty"`
}

// EmbeddingsSpec declares the pre-trained word vectors and the quantization
// levels derived from them.
type EmbeddingsSpec struct {
	File   string `yaml:"file"`
	Binary bool   `yaml:"binary,omitempty"`
	Bits   []int  `yaml:"bits,omitempty"`
}

// Config is the in-memory representation of softsim.yaml.
type Config struct {
	CorporaDir  string `yaml:"corpora_dir"`
	VectorsDir  string `yaml:"vectors_dir"`
	MatricesDir string `yaml:"matrices_dir"`
	ResultsDir  string `yaml:"results_dir"`

	Remote string `yaml:"remote,omitempty"`
	Jobs   int    `yaml:"jobs,omitempty"`
	Seed   int64  `yaml:"seed,omitempty"`

	BackgroundCorpus string         `yaml:"background_corpus,omitempty"`
	Embeddings       EmbeddingsSpec `yaml:"embeddings"`
	Datasets         []DatasetSpec  `yaml:"datasets,omitempty"`
}

// Default returns the Config written on first softsim init.
func Default() *Config {
	return &Config{
		CorporaDir:       "corpora",
		VectorsDir:       "vectors",
		MatricesDir:      "matrices",
		ResultsDir:       "results",
		Jobs:             0, // 0 → GOMAXPROCS
		Seed:             42,
		BackgroundCorpus: filepath.Join("corpora", "fil8"),
		Embeddings: EmbeddingsSpec{
			File: filepath.Join("vectors", "vectors.txt"),
			Bits: []int{1, 32},
		},
		Datasets: []DatasetSpec{
			{
				Name:       "bbc",
				Loader:     "dirtree",
				Path:       filepath.Join("corpora", "bbc"),
				Categories: []string{"business", "entertainment", "politics", "sport", "tech"},
				TrainSize:  0.7,
				TestSize:   0.3,
			},
		},
	}
}

// Path returns the location of softsim.yaml under root.
func Path(root string) string { return filepath.Join(root, ConfigFile) }

// Load reads and parses softsim.yaml from root.
func Load(root string) (*Config, error) {
	path := Path(root)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	for i := range cfg.Datasets {
		if cfg.Datasets[i].ValidationFraction == 0 {
			cfg.Datasets[i].ValidationFraction = 0.2
		}
	}
	if len(cfg.Embeddings.Bits) == 0 {
		cfg.Embeddings.Bits = []int{32}
	}
	return &cfg, nil
}

// Save marshals cfg and writes it to softsim.yaml under root.
func Save(root string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	if err := os.WriteFile(Path(root), data, 0o644); err != nil {
		return fmt.Errorf("cannot write config %s: %w", Path(root), err)
	}
	return nil
}
