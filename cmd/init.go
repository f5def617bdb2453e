package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mirlab/softsim/internal/config"
	"github.com/mirlab/softsim/internal/pipeline"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Bootstrap a softsim workspace in the current directory",
	Long: `Initialize a softsim workspace: write softsim.yaml and pipeline.yaml
with their defaults, create the artifact directories, and prepare the
.env template for the artifact-remote token.

Existing files are left untouched; edit softsim.yaml to point at your
corpora and word vectors, then run 'softsim repro'.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(_ *cobra.Command, _ []string) error {
	root, err := workspaceRoot()
	if err != nil {
		return err
	}
	printSection("softsim init")

	cfgPath := config.Path(root)
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		if err := config.Save(root, config.Default()); err != nil {
			return err
		}
		printOK("", fmt.Sprintf("Config written: %s", cfgPath))
	} else {
		printSkip("", fmt.Sprintf("Config already exists: %s", cfgPath))
	}

	cfg, err := config.Load(root)
	if err != nil {
		return err
	}

	pipePath := pipeline.Path(root)
	if _, err := os.Stat(pipePath); os.IsNotExist(err) {
		if err := pipeline.Save(root, pipeline.Default(cfg)); err != nil {
			return err
		}
		printOK("", fmt.Sprintf("Pipeline written: %s", pipePath))
	} else {
		printSkip("", fmt.Sprintf("Pipeline already exists: %s", pipePath))
	}

	for _, dir := range []string{cfg.CorporaDir, cfg.VectorsDir, cfg.MatricesDir, cfg.ResultsDir, config.StateDir} {
		full := filepath.Join(root, dir)
		if err := os.MkdirAll(full, 0o755); err != nil {
			return fmt.Errorf("cannot create %s: %w", full, err)
		}
	}
	printOK("", "Artifact directories ready")

	if err := config.EnsureDotEnvTemplate(root); err != nil {
		return err
	}
	printOK("", fmt.Sprintf("Env template ready: %s", config.DotEnvPath(root)))

	printInfo("", "Edit softsim.yaml, place your corpora and vectors, then run 'softsim repro'")
	return nil
}
