package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mirlab/softsim/internal/config"
	"github.com/mirlab/softsim/internal/pipeline"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run pre-flight workspace checks",
	Long: `Check that the workspace is ready to reproduce the experiment: the
configuration parses, the pipeline graph is acyclic, the input corpora
and word vectors are in place, and the artifact remote is configured
when one is needed. Run this when something seems wrong.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(_ *cobra.Command, _ []string) error {
	root, err := workspaceRoot()
	if err != nil {
		return err
	}
	printSection("softsim doctor")
	var problems int

	cfg, err := config.Load(root)
	if err != nil {
		printErr("", fmt.Sprintf("config: %v", err))
		printInfo("", "Run 'softsim init' to bootstrap the workspace")
		return fmt.Errorf("workspace is not initialized")
	}
	printOK("", fmt.Sprintf("Config parses: %s", config.Path(root)))

	p, err := pipeline.Load(root)
	if err != nil {
		printErr("", fmt.Sprintf("pipeline: %v", err))
		problems++
	} else if _, err := p.Sort(); err != nil {
		printErr("", fmt.Sprintf("pipeline graph: %v", err))
		problems++
	} else {
		printOK("", fmt.Sprintf("Pipeline graph is acyclic (%d stages)", len(p.Stages)))
	}

	// Input corpora.
	for _, spec := range cfg.Datasets {
		path := filepath.Join(root, spec.Path)
		if _, err := os.Stat(path); err != nil {
			printMiss(spec.Name, fmt.Sprintf("corpus not found: %s", spec.Path))
			problems++
		} else {
			printOK(spec.Name, fmt.Sprintf("corpus present: %s", spec.Path))
		}
	}
	if cfg.BackgroundCorpus != "" {
		if _, err := os.Stat(filepath.Join(root, cfg.BackgroundCorpus)); err != nil {
			printWarn("", fmt.Sprintf("background corpus missing: %s (common dictionary will fall back to training texts)", cfg.BackgroundCorpus))
		} else {
			printOK("", fmt.Sprintf("Background corpus present: %s", cfg.BackgroundCorpus))
		}
	}

	// Word vectors.
	if _, err := os.Stat(filepath.Join(root, cfg.Embeddings.File)); err != nil {
		printMiss("", fmt.Sprintf("word vectors not found: %s", cfg.Embeddings.File))
		problems++
	} else {
		printOK("", fmt.Sprintf("Word vectors present: %s", cfg.Embeddings.File))
	}

	// Remote configuration.
	if cfg.Remote == "" {
		printSkip("", "No artifact remote configured (pull/push unavailable)")
	} else {
		printOK("", fmt.Sprintf("Artifact remote: %s", cfg.Remote))
		token, err := config.GetEnvValue(root, config.EnvRemoteToken)
		if err != nil {
			printErr("", fmt.Sprintf("cannot read %s: %v", config.EnvRemoteToken, err))
			problems++
		} else if token == "" {
			printWarn("", config.EnvRemoteToken+" is empty; protected remotes will reject transfers")
		} else {
			printOK("", "Bearer token configured")
		}
	}

	// State directory must be writable for repro.
	stateDir := filepath.Join(root, config.StateDir)
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		printErr("", fmt.Sprintf("cannot create state dir %s: %v", stateDir, err))
		problems++
	} else {
		printOK("", fmt.Sprintf("State directory writable: %s", stateDir))
	}

	if problems > 0 {
		return fmt.Errorf("%d problems found", problems)
	}
	printInfo("", "Workspace looks healthy")
	return nil
}
