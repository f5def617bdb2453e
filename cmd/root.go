package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mirlab/softsim/internal/config"
)

var rootCmd = &cobra.Command{
	Use:          "softsim",
	Short:        "Reproducible soft-similarity text classification",
	SilenceUsage: true, // don't print usage on operational errors
	Long: `Softsim rebuilds the word-embedding soft-similarity classification
experiment from scratch: it tokenizes the corpora, quantizes the word
vectors, constructs term-similarity matrices, grid-searches the
classifier, and reports the resulting accuracies. Every stage is
fingerprinted so unchanged work is never redone.`,
}

var flagVerbose bool

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
}

// Execute is called by main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// workspaceRoot returns the directory softsim operates in.
func workspaceRoot() (string, error) {
	root, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("cannot determine working directory: %w", err)
	}
	return root, nil
}

// loadWorkspace resolves the workspace root and its configuration.
func loadWorkspace() (string, *config.Config, error) {
	root, err := workspaceRoot()
	if err != nil {
		return "", nil, err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return "", nil, fmt.Errorf("cannot load config: %w\nRun 'softsim init' first.", err)
	}
	return root, cfg, nil
}

// absPath resolves a workspace-relative path.
func absPath(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// newLogger builds the CLI logger. Structured events go to stderr so stdout
// stays parseable.
func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if flagVerbose {
		level = zerolog.DebugLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}
