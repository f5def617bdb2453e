package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mirlab/softsim/internal/artifact"
	"github.com/mirlab/softsim/internal/config"
	"github.com/mirlab/softsim/internal/pipeline"
)

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Manage the HTTP artifact remote",
}

var remoteShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the configured artifact remote",
	Args:  cobra.NoArgs,
	RunE:  runRemoteShow,
}

var remoteSetCmd = &cobra.Command{
	Use:   "set <url>",
	Short: "Set (or update) the artifact remote URL",
	Long: `Configure the HTTP artifact remote softsim pushes cache objects to and
pulls them from. Objects are addressed by sha256 digest under the URL.

Examples:
  softsim remote set https://artifacts.example.org/softsim
  softsim remote set http://10.0.0.5:8080/cache`,
	Args: cobra.ExactArgs(1),
	RunE: runRemoteSet,
}

var remotePushCmd = &cobra.Command{
	Use:   "push [stage...]",
	Short: "Upload recorded stage outputs to the artifact remote",
	RunE:  runRemotePush,
}

func init() {
	remoteCmd.AddCommand(remoteShowCmd)
	remoteCmd.AddCommand(remoteSetCmd)
	remoteCmd.AddCommand(remotePushCmd)
	rootCmd.AddCommand(remoteCmd)
}

func runRemoteShow(_ *cobra.Command, _ []string) error {
	root, cfg, err := loadWorkspace()
	if err != nil {
		return err
	}
	if cfg.Remote == "" {
		printMiss("", "No artifact remote configured")
		return nil
	}
	printInfo("", fmt.Sprintf("Artifact remote: %s", cfg.Remote))
	token, err := config.GetEnvValue(root, config.EnvRemoteToken)
	if err != nil {
		return err
	}
	if token == "" {
		printWarn("", config.EnvRemoteToken+" is empty; pushes to protected remotes will fail")
	} else {
		printOK("", "Bearer token configured")
	}
	return nil
}

func runRemoteSet(_ *cobra.Command, args []string) error {
	root, cfg, err := loadWorkspace()
	if err != nil {
		return err
	}
	url := args[0]
	if cfg.Remote == url {
		printSkip("", fmt.Sprintf("Artifact remote already set to: %s", url))
		return nil
	}
	cfg.Remote = url
	if err := config.Save(root, cfg); err != nil {
		return err
	}
	printOK("", fmt.Sprintf("Artifact remote set: %s", url))
	return nil
}

func runRemotePush(cmd *cobra.Command, args []string) error {
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
		printInfo("", "No recorded outputs to push; run 'softsim repro' first")
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
	printSection("softsim remote push")
	sync, err := client.PushAll(cmd.Context(), store, digests)
	if err != nil {
		return err
	}
	printOK("", fmt.Sprintf("%d objects uploaded, %d already on the remote", sync.Pushed, len(digests)-sync.Pushed))
	return nil
}
