package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mirlab/softsim/internal/artifact"
	"github.com/mirlab/softsim/internal/config"
	"github.com/mirlab/softsim/internal/pipeline"
	"github.com/mirlab/softsim/internal/remote"
)

var pullCmd = &cobra.Command{
	Use:   "pull [stage...]",
	Short: "Fetch recorded stage outputs from the artifact remote",
	Long: `Download every object the pipeline state references from the configured
artifact remote into the local cache, then check the outputs out into
the workspace. With stage arguments, only those stages' outputs move.

The remote URL comes from softsim.yaml; the bearer token is read from
the ` + config.EnvRemoteToken + ` environment variable or the workspace .env file.`,
	RunE: runPull,
}

func init() {
	rootCmd.AddCommand(pullCmd)
}

// remoteClient builds the artifact-remote client for the workspace.
func remoteClient(root string, cfg *config.Config) (*remote.Client, error) {
	if cfg.Remote == "" {
		return nil, fmt.Errorf("no artifact remote configured\nRun 'softsim remote set <url>' first.")
	}
	token, err := config.GetEnvValue(root, config.EnvRemoteToken)
	if err != nil {
		return nil, err
	}
	return remote.New(cfg.Remote, token, newLogger()), nil
}

// recordedOuts returns the digest of every output the selected stages have
// recorded, sorted for deterministic transfers.
func recordedOuts(state *pipeline.State, stages map[string]bool) map[string]string {
	outs := make(map[string]string)
	for name, st := range state.Stages {
		if stages != nil && !stages[name] {
			continue
		}
		for path, digest := range st.Outs {
			outs[path] = digest
		}
	}
	return outs
}

func runPull(cmd *cobra.Command, args []string) error {
	root, cfg, err := loadWorkspace()
	if err != nil {
		return err
	}
	client, err := remoteClient(root, cfg)
	if err != nil {
		return err
	}
	state, err := pipeline.LoadState(root)
	if err != nil {
		return err
	}

	var selected map[string]bool
	if len(args) > 0 {
		p, err := pipeline.Load(root)
		if err != nil {
			return err
		}
		if selected, err = p.Ancestors(args); err != nil {
			return err
		}
	}
	outs := recordedOuts(state, selected)
	if len(outs) == 0 {
		printInfo("", "No recorded outputs to pull; run 'softsim repro' somewhere first")
		return nil
	}

	digests := make([]string, 0, len(outs))
	seen := make(map[string]bool)
	for _, digest := range outs {
		if !seen[digest] {
			seen[digest] = true
			digests = append(digests, digest)
		}
	}
	sort.Strings(digests)

	store := artifact.NewStore(pipeline.CacheDir(root))
	printSection("softsim pull")
	sync, err := client.PullAll(cmd.Context(), store, digests)
	if err != nil {
		return err
	}
	printOK("", fmt.Sprintf("%d objects fetched, %d already cached", sync.Pulled, len(digests)-sync.Pulled))

	return checkoutOuts(cmd.Context(), root, store, outs)
}

// checkoutOuts places cached objects at their workspace paths when the
// workspace copy is missing or drifted.
func checkoutOuts(ctx context.Context, root string, store *artifact.Store, outs map[string]string) error {
	paths := make([]string, 0, len(outs))
	for path := range outs {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var restored int
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		digest := outs[path]
		full := absPath(root, path)
		if got, err := artifact.HashFile(full); err == nil && got == digest {
			continue
		}
		if err := store.Checkout(digest, full); err != nil {
			return err
		}
		restored++
	}
	if restored > 0 {
		printOK("", fmt.Sprintf("%d workspace files checked out", restored))
	} else {
		printSkip("", "Workspace already matches the recorded outputs")
	}
	return nil
}
